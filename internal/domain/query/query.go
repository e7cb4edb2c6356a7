// Package query holds the list options, equality filters and field
// projections shared by every entity's list operation.
package query

import (
	"slices"
	"strings"

	"github.com/xenking/storefront/internal/domain/apperr"
)

// SortType is the direction applied to the sort field.
type SortType string

const (
	SortAsc  SortType = "asc"
	SortDesc SortType = "desc"
)

// Defaults applied when a list request omits the corresponding parameter.
const (
	DefaultPage     = 1
	DefaultLimit    = 10
	DefaultSortType = SortDesc
	MaxLimit        = 100
)

// Options controls pagination and ordering of a list operation.
type Options struct {
	Page     int
	Limit    int
	SortBy   string
	SortType SortType
}

// NewOptions builds Options from raw request values. Nil page or limit fall
// back to the defaults. sortBy accepts either "field" or "field:asc|desc";
// a direction embedded in sortBy wins over sortType.
func NewOptions(page, limit *int, sortBy, sortType string) (Options, error) {
	opts := Options{
		Page:     DefaultPage,
		Limit:    DefaultLimit,
		SortType: DefaultSortType,
	}
	if page != nil {
		if *page < 0 {
			return Options{}, apperr.BadRequest("page must not be negative")
		}
		opts.Page = *page
	}
	if limit != nil {
		if *limit <= 0 {
			return Options{}, apperr.BadRequest("limit must be greater than 0")
		}
		opts.Limit = min(*limit, MaxLimit)
	}
	if sortType != "" {
		st, err := parseSortType(sortType)
		if err != nil {
			return Options{}, err
		}
		opts.SortType = st
	}
	if sortBy != "" {
		field, dir, found := strings.Cut(sortBy, ":")
		if field == "" {
			return Options{}, apperr.BadRequest("sortBy field is empty")
		}
		opts.SortBy = field
		if found {
			st, err := parseSortType(dir)
			if err != nil {
				return Options{}, err
			}
			opts.SortType = st
		}
	}
	return opts, nil
}

func parseSortType(s string) (SortType, error) {
	switch SortType(strings.ToLower(s)) {
	case SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	default:
		return "", apperr.BadRequestf("sort type must be one of asc, desc: got %q", s)
	}
}

// Offset is the number of rows skipped. It is Page*Limit, so page 1 skips
// the first Limit rows and page 0 is the first page.
func (o Options) Offset() int {
	return o.Page * o.Limit
}

// Filter is an equality predicate keyed by API field name.
type Filter map[string]any

// Keys returns the filter's field names in sorted order.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Fields is a projection: the set of API field names a caller wants back.
// An empty projection selects every field.
type Fields []string

// ParseFields splits a comma separated field list, dropping blanks and
// duplicates.
func ParseFields(raw string) Fields {
	var out Fields
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" || slices.Contains(out, f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Has reports whether name is selected by the projection.
func (f Fields) Has(name string) bool {
	return len(f) == 0 || slices.Contains(f, name)
}
