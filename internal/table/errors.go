package table

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized       = errors.New("session expired or token rejected")
	ErrNothingSelected    = errors.New("please select at least one row to export")
	ErrNotSingleSelection = errors.New("exactly one row must be selected to edit")
	ErrRowNotLoaded       = errors.New("row is not on the loaded page")
	ErrUnknownField       = errors.New("unknown field")
	ErrNoChanges          = errors.New("no fields changed")
	ErrNoEdit             = errors.New("no edit in progress")
	ErrIndexStale         = errors.New("export state could not be verified, reload the page")
	ErrSuperseded         = errors.New("response superseded by a newer load")
	ErrPageOutOfRange     = errors.New("page out of range")
	ErrUnknownColumn      = errors.New("unknown column")
)

// AlreadyExportedError is returned when every selected row has been exported before.
type AlreadyExportedError struct {
	Count int
}

func (e *AlreadyExportedError) Error() string {
	return fmt.Sprintf("all selected properties (%d) are already exported", e.Count)
}
