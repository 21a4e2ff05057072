// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/domain/inventory"
)

// --- Pagination and filters ---

// ListRequest holds the common query parameters of document listings.
type ListRequest struct {
	Search string `form:"search"`
	From   string `form:"from"`
	To     string `form:"to"`
	Limit  int    `form:"limit" binding:"min=0,max=1000"`
	Offset int    `form:"offset" binding:"min=0"`
}

// ToFilter converts the request to a repository filter. Dates are parsed
// with ParseDate in loc.
func (r *ListRequest) ToFilter(loc *time.Location) (inventory.ListFilter, error) {
	from, err := ParseDate(r.From, loc, false)
	if err != nil {
		return inventory.ListFilter{}, err
	}
	to, err := ParseDate(r.To, loc, true)
	if err != nil {
		return inventory.ListFilter{}, err
	}
	return inventory.ListFilter{
		From:   from,
		To:     to,
		Search: r.Search,
		Limit:  r.Limit,
		Offset: r.Offset,
	}, nil
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. A plain
// date is the start of the day in loc, or its last instant when endOfDay is
// set. Empty input yields nil.
func ParseDate(s string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return nil, apperror.NewValidation("invalid date, expected YYYY-MM-DD or RFC3339").WithDetail("value", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Count  int `json:"count"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// NewListResponse creates a list response. A nil slice is returned as [].
func NewListResponse[T any](items []T, limit, offset int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items), Limit: limit, Offset: offset}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
