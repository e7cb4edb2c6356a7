package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/query"
	"github.com/xenking/storefront/internal/domain/shipping"
)

const (
	updateShippingPriceSQL = `UPDATE shipping_prices SET price = $1, updated_at = now()
		WHERE id = $2
		RETURNING id, wilaya, price, created_at, updated_at`

	upsertShippingPriceSQL = `INSERT INTO shipping_prices (wilaya, price)
		VALUES ($1, $2)
		ON CONFLICT (wilaya) DO UPDATE SET price = EXCLUDED.price, updated_at = now()
		RETURNING id, created_at, updated_at`
)

var shippingTable = newTable("shipping_prices", [][2]string{
	{"id", "id"},
	{"wilaya", "wilaya"},
	{"price", "price"},
	{"createdAt", "created_at"},
	{"updatedAt", "updated_at"},
})

var _ shipping.Repository = (*ShippingRepository)(nil)

// ShippingRepository implements shipping.Repository backed by PostgreSQL.
type ShippingRepository struct {
	pool *pgxpool.Pool
}

// NewShippingRepository returns a ShippingRepository that uses the given pool.
func NewShippingRepository(pool *pgxpool.Pool) *ShippingRepository {
	return &ShippingRepository{pool: pool}
}

func (r *ShippingRepository) List(ctx context.Context, opts query.Options, fields query.Fields) ([]shipping.Price, error) {
	cols, err := shippingTable.selectColumns(fields)
	if err != nil {
		return nil, err
	}
	sql, args, err := shippingTable.listSQL(cols, nil, opts)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing shipping prices: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[shippingRow])
	if err != nil {
		return nil, fmt.Errorf("listing shipping prices: %w", err)
	}

	out := make([]shipping.Price, len(records))
	for i, rec := range records {
		out[i] = shipping.Price(rec)
	}
	return out, nil
}

func (r *ShippingRepository) GetByID(ctx context.Context, id int64, fields query.Fields) (*shipping.Price, error) {
	cols, err := shippingTable.selectColumns(fields)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, shippingTable.getSQL(cols), id)
	if err != nil {
		return nil, fmt.Errorf("getting shipping price %d: %w", id, err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[shippingRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shipping.ErrNotFound
		}
		return nil, fmt.Errorf("getting shipping price %d: %w", id, err)
	}
	p := shipping.Price(rec)
	return &p, nil
}

func (r *ShippingRepository) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) (*shipping.Price, error) {
	rows, err := r.pool.Query(ctx, updateShippingPriceSQL, price, id)
	if err != nil {
		return nil, fmt.Errorf("updating shipping price %d: %w", id, err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[shippingRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shipping.ErrNotFound
		}
		return nil, fmt.Errorf("updating shipping price %d: %w", id, err)
	}
	p := shipping.Price(rec)
	return &p, nil
}

func (r *ShippingRepository) Upsert(ctx context.Context, p *shipping.Price) error {
	err := r.pool.QueryRow(ctx, upsertShippingPriceSQL, p.Wilaya, p.Price).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting shipping price for %q: %w", p.Wilaya, err)
	}
	return nil
}

type shippingRow struct {
	ID        int64           `db:"id"`
	Wilaya    string          `db:"wilaya"`
	Price     decimal.Decimal `db:"price"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}
