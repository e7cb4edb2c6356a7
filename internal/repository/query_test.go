package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/query"
)

func TestTable_SelectColumns(t *testing.T) {
	cols, err := productsTable.selectColumns(nil)
	require.NoError(t, err)
	assert.Equal(t, "id", cols[0])
	assert.Contains(t, cols, "categories")

	cols, err = productsTable.selectColumns(query.Fields{"title", "price"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title", "price"}, cols)

	cols, err = productsTable.selectColumns(query.Fields{"id", "title"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, cols)

	_, err = productsTable.selectColumns(query.Fields{"secret"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestTable_ListSQL(t *testing.T) {
	tests := []struct {
		name   string
		filter query.Filter
		opts   query.Options
		sql    string
		args   []any
	}{
		{
			name: "defaults",
			opts: query.Options{Page: 1, Limit: 10, SortType: query.SortDesc},
			sql:  "SELECT id, title FROM products ORDER BY id ASC LIMIT $1 OFFSET $2",
			args: []any{10, 10},
		},
		{
			name:   "filter and sort",
			filter: query.Filter{"title": "Mug", "price": "12.50"},
			opts:   query.Options{Page: 0, Limit: 5, SortBy: "createdAt", SortType: query.SortAsc},
			sql: "SELECT id, title FROM products WHERE price = $1 AND title = $2 " +
				"ORDER BY created_at ASC, id ASC LIMIT $3 OFFSET $4",
			args: []any{"12.50", "Mug", 5, 0},
		},
		{
			name: "descending page two",
			opts: query.Options{Page: 2, Limit: 3, SortBy: "price", SortType: query.SortDesc},
			sql:  "SELECT id, title FROM products ORDER BY price DESC, id DESC LIMIT $1 OFFSET $2",
			args: []any{3, 6},
		},
		{
			name: "zero limit falls back to default",
			opts: query.Options{},
			sql:  "SELECT id, title FROM products ORDER BY id ASC LIMIT $1 OFFSET $2",
			args: []any{10, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := productsTable.listSQL([]string{"id", "title"}, tt.filter, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestTable_ListSQLRejectsUnknownFields(t *testing.T) {
	_, _, err := productsTable.listSQL([]string{"id"}, nil, query.Options{SortBy: "password"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, _, err = productsTable.listSQL([]string{"id"}, query.Filter{"quantity": 1}, query.Options{})
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestTable_UpdateSQL(t *testing.T) {
	sql, args := discountsTable.updateSQL(7, []assignment{
		{column: "code", value: "SAVE20"},
		{column: "active", value: false},
	}, []string{"id", "code"})

	assert.Equal(t, "UPDATE discounts SET code = $1, active = $2, updated_at = now() WHERE id = $3 RETURNING id, code", sql)
	assert.Equal(t, []any{"SAVE20", false, int64(7)}, args)
}
