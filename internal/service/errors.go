package service

import "errors"

var (
	ErrNotFound     = errors.New("property not found")
	ErrInvalidPage  = errors.New("page must be >= 1")
	ErrInvalidLimit = errors.New("limit must be between 1 and 200")
	ErrInvalidID    = errors.New("id must be a positive integer")
	ErrNoFields     = errors.New("no fields to update")
)
