package common

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"storefront-backend/pkg/errors"
)

const (
	// DefaultPageSize is the number of entries in a regular page.
	DefaultPageSize = 8

	// PreviewPageToken selects the compact preview window.
	PreviewPageToken = 0.5

	// PreviewPageSize is the number of entries in the preview window.
	PreviewPageSize = 3
)

// PageWindow is the skip/limit pair derived from a page token
type PageWindow struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// ComputeWindow maps a page token to its window. 0.5 is the preview window,
// page p starts at (p-1)*8. Large pages are not rejected: they simply yield
// an empty slice.
func ComputeWindow(token float64) PageWindow {
	if token == PreviewPageToken {
		return PageWindow{Skip: 0, Limit: PreviewPageSize}
	}
	if token <= 1 {
		return PageWindow{Skip: 0, Limit: DefaultPageSize}
	}
	return PageWindow{Skip: (int(token) - 1) * DefaultPageSize, Limit: DefaultPageSize}
}

// ParsePageToken validates a raw page token. Accepted values are 0.5 and
// whole numbers >= 1.
func ParsePageToken(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.NewValidationError("page is required")
	}

	token, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(token) || math.IsInf(token, 0) {
		return 0, errors.NewValidationError("page must be a number")
	}
	if token == PreviewPageToken {
		return token, nil
	}
	if token < 1 || token != math.Trunc(token) {
		return 0, errors.NewValidationError("page must be 0.5 or a positive whole number")
	}
	if token > math.MaxInt32 {
		return 0, errors.NewValidationError("page is out of range")
	}
	return token, nil
}

// ListQuery is a validated page/search request
type ListQuery struct {
	Window PageWindow
	Search string
}

// ParseListQuery reads page and search from the query string. At least one
// of them must be present. A search without a page reads the first page.
func ParseListQuery(r *http.Request) (ListQuery, error) {
	page := r.URL.Query().Get("page")
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	if page == "" && search == "" {
		return ListQuery{}, errors.NewValidationError("page no or search string is required")
	}

	query := ListQuery{Search: search, Window: ComputeWindow(1)}
	if page != "" {
		token, err := ParsePageToken(page)
		if err != nil {
			return ListQuery{}, err
		}
		query.Window = ComputeWindow(token)
	}
	return query, nil
}

// ParseOptionalPage reads the page token when present and defaults to page 1.
func ParseOptionalPage(r *http.Request) (PageWindow, error) {
	page := r.URL.Query().Get("page")
	if page == "" {
		return ComputeWindow(1), nil
	}
	token, err := ParsePageToken(page)
	if err != nil {
		return PageWindow{}, err
	}
	return ComputeWindow(token), nil
}

// Slice applies a window to an in-memory slice
func Slice[T any](items []T, w PageWindow) []T {
	if w.Skip >= len(items) {
		return []T{}
	}
	end := w.Skip + w.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[w.Skip:end]
}
