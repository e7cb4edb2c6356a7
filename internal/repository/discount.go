package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/query"
)

const (
	createDiscountSQL = `INSERT INTO discounts (code, value, value_type, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	insertIgnoreDiscountSQL = `INSERT INTO discounts (code, value, value_type)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT discounts_code_key DO NOTHING`

	deleteDiscountSQL = `DELETE FROM discounts WHERE id = $1`

	discountsCodeKey = "discounts_code_key"
)

var discountsTable = newTable("discounts", [][2]string{
	{"id", "id"},
	{"code", "code"},
	{"value", "value"},
	{"valueType", "value_type"},
	{"active", "active"},
	{"createdAt", "created_at"},
	{"updatedAt", "updated_at"},
}, "active")

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

func (r *DiscountRepository) Create(ctx context.Context, d *discount.Discount) error {
	err := r.pool.QueryRow(ctx, createDiscountSQL,
		d.Code, d.Value, string(d.ValueType), d.Active,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return mapDiscountError(err, fmt.Sprintf("creating discount %q", d.Code))
	}
	return nil
}

func (r *DiscountRepository) List(ctx context.Context, filter query.Filter, opts query.Options, fields query.Fields) ([]discount.Discount, error) {
	cols, err := discountsTable.selectColumns(fields)
	if err != nil {
		return nil, err
	}
	sql, args, err := discountsTable.listSQL(cols, filter, opts)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing discounts: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[discountRow])
	if err != nil {
		return nil, fmt.Errorf("listing discounts: %w", err)
	}

	out := make([]discount.Discount, len(records))
	for i, rec := range records {
		out[i] = rec.toDomain()
	}
	return out, nil
}

func (r *DiscountRepository) GetByID(ctx context.Context, id int64, fields query.Fields) (*discount.Discount, error) {
	cols, err := discountsTable.selectColumns(fields)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, discountsTable.getSQL(cols), id)
	if err != nil {
		return nil, fmt.Errorf("getting discount %d: %w", id, err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[discountRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, fmt.Errorf("getting discount %d: %w", id, err)
	}
	d := rec.toDomain()
	return &d, nil
}

func (r *DiscountRepository) Update(ctx context.Context, id int64, u discount.Update) (*discount.Discount, error) {
	var set []assignment
	if u.Code != nil {
		set = append(set, assignment{"code", *u.Code})
	}
	if u.Value != nil {
		set = append(set, assignment{"value", *u.Value})
	}
	if u.ValueType != nil {
		set = append(set, assignment{"value_type", string(*u.ValueType)})
	}
	if u.Active != nil {
		set = append(set, assignment{"active", *u.Active})
	}
	cols, _ := discountsTable.selectColumns(nil)
	sql, args := discountsTable.updateSQL(id, set, cols)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("updating discount %d: %w", id, err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[discountRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, mapDiscountError(err, fmt.Sprintf("updating discount %d", id))
	}
	d := rec.toDomain()
	return &d, nil
}

func (r *DiscountRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteDiscountSQL, id)
	if err != nil {
		return fmt.Errorf("deleting discount %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}
	return nil
}

// InsertIgnore inserts ds in one batch. Existing codes are skipped.
func (r *DiscountRepository) InsertIgnore(ctx context.Context, ds []discount.Discount) (int64, error) {
	if len(ds) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, d := range ds {
		batch.Queue(insertIgnoreDiscountSQL, d.Code, d.Value, string(d.ValueType))
	}

	results := r.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	var inserted int64
	for range ds {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("inserting discounts: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func mapDiscountError(err error, op string) error {
	if code, constraint := pgErrorCode(err); code == uniqueViolation && constraint == discountsCodeKey {
		return discount.ErrCodeTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}

type discountRow struct {
	ID        int64           `db:"id"`
	Code      string          `db:"code"`
	Value     decimal.Decimal `db:"value"`
	ValueType string          `db:"value_type"`
	Active    bool            `db:"active"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r discountRow) toDomain() discount.Discount {
	return discount.Discount{
		ID:        r.ID,
		Code:      r.Code,
		Value:     r.Value,
		ValueType: discount.ValueType(r.ValueType),
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
