// Package paging implements offset pagination for list endpoints.
//
// Lists take 1-indexed page/limit query parameters (default page 1,
// limit 10, limit clamped to 100) and return results newest-created-first
// together with total and page counts.
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is the page size used when the caller does not specify one.
const DefaultLimit = 10

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// Params holds parsed pagination parameters.
type Params struct {
	Page  int
	Limit int
}

// Parse extracts page/limit from the request query. Out-of-range or
// malformed values fall back to the defaults rather than erroring, matching
// how the list endpoints have always behaved.
func Parse(r *http.Request) Params {
	p := Params{Page: 1, Limit: DefaultLimit}

	if s := query.Get(r, "page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			p.Page = n
		}
	}
	if s := query.Get(r, "limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			p.Limit = n
			if p.Limit > MaxLimit {
				p.Limit = MaxLimit
			}
		}
	}
	return p
}

// Skip returns the number of documents to skip for this page.
func (p Params) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// Meta is the pagination block returned alongside list results.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// MetaFor computes the response metadata for a total document count.
func (p Params) MetaFor(total int64) Meta {
	pages := total / int64(p.Limit)
	if total%int64(p.Limit) != 0 {
		pages++
	}
	return Meta{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}
