package query

import (
	"net/url"
	"strconv"
)

// FilterAll is the "no constraint" sentinel; filters carrying it are
// omitted from the query string entirely.
const FilterAll = "all"

// PageRequest is zero-based locally; Encode converts to the backend's
// one-based page numbers.
type PageRequest struct {
	Index int
	Size  int
}

type SortField struct {
	ID   string
	Desc bool
}

// Params is the parameter tuple identifying one list view: filters,
// pagination and sorting. Its encoded form doubles as the cache key.
type Params struct {
	Filters map[string]string
	Page    PageRequest
	Sort    []SortField
}

func NewParams(pageSize int) Params {
	return Params{
		Filters: map[string]string{},
		Page:    PageRequest{Index: 0, Size: pageSize},
	}
}

// SetFilter changes one filter and resets the page index in the same
// update, so a stale page is never requested against a new filter.
func (p *Params) SetFilter(name, value string) {
	if p.Filters == nil {
		p.Filters = map[string]string{}
	}
	if value == "" {
		delete(p.Filters, name)
	} else {
		p.Filters[name] = value
	}
	p.Page.Index = 0
}

// SetSearch sets the debounced search term. Same page-reset rule as any
// other filter.
func (p *Params) SetSearch(term string) {
	p.SetFilter("search", term)
}

func (p *Params) SetPage(index int) {
	if index < 0 {
		index = 0
	}
	p.Page.Index = index
}

func (p *Params) SetPageSize(size int) {
	p.Page.Size = size
	p.Page.Index = 0
}

func (p *Params) SetSort(id string, desc bool) {
	p.Sort = []SortField{{ID: id, Desc: desc}}
}

func (p *Params) ClearSort() {
	p.Sort = nil
}

// Encode serializes the tuple into backend query parameters. "all" filters
// are dropped; only the primary sort field is sent.
func (p Params) Encode() url.Values {
	values := url.Values{}
	for name, value := range p.Filters {
		if value == "" || value == FilterAll {
			continue
		}
		values.Set(name, value)
	}
	values.Set("page", strconv.Itoa(p.Page.Index+1))
	values.Set("per_page", strconv.Itoa(p.Page.Size))
	if len(p.Sort) > 0 {
		values.Set("sort", p.Sort[0].ID)
		if p.Sort[0].Desc {
			values.Set("direction", "desc")
		} else {
			values.Set("direction", "asc")
		}
	}
	return values
}

// QueryString is Encode rendered for a request path.
func (p Params) QueryString() string {
	return p.Encode().Encode()
}

// Key is the canonical cache key for this tuple under a scope such as
// "users" or "events". url.Values.Encode sorts by key, so identical tuples
// always produce identical keys.
func (p Params) Key(scope string) string {
	return scope + "?" + p.QueryString()
}
