package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/query"
)

// table describes the fields of an entity that list queries may select,
// sort and filter on. Field names are the public API names.
type table struct {
	name       string
	columns    map[string]string
	order      []string
	filterable map[string]bool
}

func newTable(name string, fields [][2]string, filterable ...string) table {
	t := table{
		name:       name,
		columns:    make(map[string]string, len(fields)),
		order:      make([]string, 0, len(fields)),
		filterable: make(map[string]bool, len(filterable)),
	}
	for _, f := range fields {
		t.columns[f[0]] = f[1]
		t.order = append(t.order, f[0])
	}
	for _, f := range filterable {
		t.filterable[f] = true
	}
	return t
}

// selectColumns returns the columns for the requested fields. id is always
// selected. An empty set selects every column.
func (t table) selectColumns(fields query.Fields) ([]string, error) {
	if len(fields) == 0 {
		cols := make([]string, len(t.order))
		for i, f := range t.order {
			cols[i] = t.columns[f]
		}
		return cols, nil
	}
	cols := []string{"id"}
	for _, f := range fields {
		col, ok := t.columns[f]
		if !ok {
			return nil, apperr.BadRequestf("unknown field %q", f)
		}
		if col == "id" {
			continue
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// listSQL builds a paginated SELECT over t.
func (t table) listSQL(cols []string, filter query.Filter, opts query.Options) (string, []any, error) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(t.name)

	for i, key := range filter.Keys() {
		if !t.filterable[key] {
			return "", nil, apperr.BadRequestf("cannot filter by %q", key)
		}
		args = append(args, filter[key])
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, "%s = $%d", t.columns[key], len(args))
	}

	orderBy := "id ASC"
	if opts.SortBy != "" {
		col, ok := t.columns[opts.SortBy]
		if !ok {
			return "", nil, apperr.BadRequestf("cannot sort by %q", opts.SortBy)
		}
		dir := "DESC"
		if opts.SortType == query.SortAsc {
			dir = "ASC"
		}
		orderBy = col + " " + dir + ", id " + dir
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(orderBy)

	if opts.Limit <= 0 {
		opts.Limit = query.DefaultLimit
	}
	opts.Page = max(opts.Page, 0)
	args = append(args, opts.Limit, opts.Offset())
	b.WriteString(" LIMIT $" + strconv.Itoa(len(args)-1))
	b.WriteString(" OFFSET $" + strconv.Itoa(len(args)))

	return b.String(), args, nil
}

// getSQL builds a single row SELECT by id.
func (t table) getSQL(cols []string) string {
	return "SELECT " + strings.Join(cols, ", ") + " FROM " + t.name + " WHERE id = $1"
}

// assignment is a single column update.
type assignment struct {
	column string
	value  any
}

// updateSQL builds an UPDATE of row id that bumps updated_at and returns cols.
func (t table) updateSQL(id int64, set []assignment, cols []string) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(set)+1)

	b.WriteString("UPDATE ")
	b.WriteString(t.name)
	b.WriteString(" SET ")
	for _, a := range set {
		args = append(args, a.value)
		fmt.Fprintf(&b, "%s = $%d, ", a.column, len(args))
	}
	b.WriteString("updated_at = now()")
	args = append(args, id)
	fmt.Fprintf(&b, " WHERE id = $%d RETURNING %s", len(args), strings.Join(cols, ", "))

	return b.String(), args
}
