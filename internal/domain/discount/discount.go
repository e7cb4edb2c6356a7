package discount

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/query"
)

// ValueType says how a discount value is applied.
type ValueType string

const (
	ValueTypePercentage ValueType = "PERCENTAGE"
	ValueTypeFixed      ValueType = "FIXED"
)

// Valid reports whether t is a known value type.
func (t ValueType) Valid() bool {
	return t == ValueTypePercentage || t == ValueTypeFixed
}

var (
	ErrNotFound         = apperr.NotFound("Discount not found")
	ErrCodeTaken        = apperr.BadRequest("Discount code already exists")
	ErrInvalidValue     = apperr.BadRequest("Discount value must be positive")
	ErrInvalidValueType = apperr.BadRequest("Discount value type must be PERCENTAGE or FIXED")
	ErrEmptyUpdate      = apperr.BadRequest("At least one field must be updated")
)

// Discount is a promotional code.
type Discount struct {
	ID        int64
	Code      string
	Value     decimal.Decimal
	ValueType ValueType
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks value and value type.
func (d *Discount) Validate() error {
	if !d.Value.IsPositive() {
		return ErrInvalidValue
	}
	if !d.ValueType.Valid() {
		return ErrInvalidValueType
	}
	return nil
}

// Update is a partial discount update. Nil fields are left unchanged.
type Update struct {
	Code      *string
	Value     *decimal.Decimal
	ValueType *ValueType
	Active    *bool
}

func (u Update) IsEmpty() bool {
	return u.Code == nil && u.Value == nil && u.ValueType == nil && u.Active == nil
}

// Repository defines persistence operations for discounts. Create and
// Update return ErrCodeTaken on a duplicate code.
type Repository interface {
	Create(ctx context.Context, d *Discount) error
	List(ctx context.Context, filter query.Filter, opts query.Options, fields query.Fields) ([]Discount, error)
	GetByID(ctx context.Context, id int64, fields query.Fields) (*Discount, error)
	Update(ctx context.Context, id int64, u Update) (*Discount, error)
	Delete(ctx context.Context, id int64) error
	// InsertIgnore inserts discounts skipping codes that already exist and
	// returns the number of inserted rows.
	InsertIgnore(ctx context.Context, ds []Discount) (int64, error)
}
