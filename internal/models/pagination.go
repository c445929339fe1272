package models

// DefaultPageSize is the number of properties per page when none is requested.
const DefaultPageSize = 50

// Pagination describes where a property page sits in the full listing.
type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalRecords    int  `json:"totalRecords"`
	RecordsPerPage  int  `json:"recordsPerPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewPagination derives the page count and navigation flags from the record total.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage:     page,
		TotalPages:      totalPages,
		TotalRecords:    total,
		RecordsPerPage:  limit,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// DefaultPagination is the safe state used before the first load and after a failed one.
func DefaultPagination() Pagination {
	return Pagination{
		CurrentPage:    1,
		TotalPages:     1,
		TotalRecords:   0,
		RecordsPerPage: DefaultPageSize,
	}
}
