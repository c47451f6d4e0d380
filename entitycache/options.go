package entitycache

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
)

// Pagination is the server-side pagination metadata attached to every list
// response.
type Pagination struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage,omitempty"`
	HasPrevPage bool `json:"hasPrevPage,omitempty"`
}

// Page is one page of entities plus its pagination metadata. The wire
// envelope is { "data": [...], "pagination": {...} }.
type Page[T any] struct {
	Items      []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ListOptions describes one filtered list read: pagination parameters plus
// entity-specific filters. Filter identity is structural; two ListOptions
// with the same values share one cache entry regardless of how they were
// built.
type ListOptions struct {
	Page     int
	PageSize int

	// Filter holds entity-specific query filters, keyed by wire parameter
	// name. Nil values are treated as absent.
	Filter map[string]any
}

// normalized fills pagination defaults so that an omitted page and an
// explicit first page derive the same cache key.
func (o ListOptions) normalized() ListOptions {
	if o.Page <= 0 {
		o.Page = defaultPage
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	return o
}

// cacheFilters renders the options as the filter bag handed to the key
// codec. PageSize is stored under "limit", matching the wire parameter.
func (o ListOptions) cacheFilters() map[string]any {
	o = o.normalized()
	filters := make(map[string]any, len(o.Filter)+2)
	for k, v := range o.Filter {
		filters[k] = v
	}
	filters["page"] = o.Page
	filters["limit"] = o.PageSize
	return filters
}

// queryValues renders the options as the request query string. The
// client-side page-size parameter maps to the server-side "limit".
func (o ListOptions) queryValues() url.Values {
	o = o.normalized()
	q := url.Values{}
	q.Set("page", strconv.Itoa(o.Page))
	q.Set("limit", strconv.Itoa(o.PageSize))
	for k, v := range o.Filter {
		if v == nil {
			continue
		}
		q.Set(k, fmt.Sprintf("%v", v))
	}
	return q
}

// ReadState reports cache presence and fetch activity for one key. Loading
// is true only when no cached data exists for the exact key and a fetch is
// in flight; a stale-but-present entry is not "loading".
type ReadState struct {
	HasData bool
	Loading bool
}
