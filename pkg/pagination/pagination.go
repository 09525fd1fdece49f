package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

// Defaults applied when the caller does not supply limit or offset.
const (
	DefaultLimit  = 10
	DefaultOffset = 0
)

// Params holds limit/offset pagination parameters.
type Params struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// DefaultParams returns the default pagination window.
func DefaultParams() Params {
	return Params{
		Limit:  DefaultLimit,
		Offset: DefaultOffset,
	}
}

// Normalize fills in defaults for zero or negative values.
func (p Params) Normalize() Params {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Offset < 0 {
		p.Offset = DefaultOffset
	}
	return p
}

// FromRequest extracts limit and offset from the query string. Unlike a
// lenient parser it rejects malformed values: limit must be a positive
// integer and offset a non-negative one.
func FromRequest(r *http.Request) (Params, error) {
	p := DefaultParams()
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return p, fmt.Errorf("limit must be a positive integer")
		}
		p.Limit = limit
	}

	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return p, fmt.Errorf("offset must not be less than 0")
		}
		p.Offset = offset
	}

	return p, nil
}

// Pages returns ceil(count / limit). A non-positive limit yields zero pages.
func Pages(count, limit int) int {
	if limit <= 0 || count <= 0 {
		return 0
	}
	pages := count / limit
	if count%limit > 0 {
		pages++
	}
	return pages
}
