package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/query"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = apperr.NotFound("Product not found")
	// ErrTitleTaken is returned when another product already uses the title.
	ErrTitleTaken = apperr.BadRequest("Title already taken")
	// ErrInUse is returned when deleting a product that order line items reference.
	ErrInUse = apperr.BadRequest("Product is referenced by orders")
	// ErrEmptyUpdate is returned when an update carries no fields.
	ErrEmptyUpdate = apperr.BadRequest("At least one field must be updated")
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID          int64
	Title       string
	Price       decimal.Decimal
	Description string
	Image       string
	Categories  []string
	Quantity    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Update is a partial product update. Nil fields are left unchanged.
type Update struct {
	Title       *string
	Price       *decimal.Decimal
	Description *string
	Image       *string
	Categories  *[]string
	Quantity    *int
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Title == nil && u.Price == nil && u.Description == nil &&
		u.Image == nil && u.Categories == nil && u.Quantity == nil
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	List(ctx context.Context, filter query.Filter, opts query.Options, fields query.Fields) ([]Product, error)
	GetByID(ctx context.Context, id int64, fields query.Fields) (*Product, error)
	// GetByIDs returns the products that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
	// FindByTitle returns ErrNotFound when no product has the title.
	FindByTitle(ctx context.Context, title string) (*Product, error)
	Update(ctx context.Context, id int64, u Update) (*Product, error)
	Delete(ctx context.Context, id int64) error
}
