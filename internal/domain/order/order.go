package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/query"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// Statuses lists every valid order status.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

var (
	ErrNotFound      = apperr.NotFound("Order not found")
	ErrEmptyItems    = apperr.BadRequest("Order must contain at least one product")
	ErrInvalidStatus = apperr.BadRequest("Invalid order status")
)

// Order is a purchase placed by a customer.
type Order struct {
	ID         int64
	Total      decimal.Decimal
	Status     Status
	CustomerID int64
	// Customer and Items are populated on reads.
	Customer  *customer.Customer
	Items     []LineItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LineItem is a single product entry of an order.
type LineItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	Product   *product.Product
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create inserts o.Customer, the order and its line items atomically and
	// fills in the generated ids.
	Create(ctx context.Context, o *Order) error
	List(ctx context.Context, filter query.Filter, opts query.Options) ([]Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// Events receives notifications about order changes.
type Events interface {
	OrderCreated(ctx context.Context, o *Order) error
	OrderStatusChanged(ctx context.Context, o *Order) error
}
