package customer

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/query"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = apperr.NotFound("Customer not found")

// Customer is a buyer. Customers are created as part of placing an order.
type Customer struct {
	ID        int64
	Name      string
	Email     *string
	Phone     string
	Address   string
	City      string
	Wilaya    string
	Orders    []OrderSummary
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderSummary is the order data embedded in customer responses.
type OrderSummary struct {
	ID        int64
	Total     decimal.Decimal
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines persistence operations for customers. List and
// GetByID populate Orders.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	List(ctx context.Context, opts query.Options) ([]Customer, error)
	GetByID(ctx context.Context, id int64) (*Customer, error)
}

// Service exposes customer reads and standalone creation.
type Service struct {
	customers Repository
}

func NewService(customers Repository) *Service {
	return &Service{customers: customers}
}

func (s *Service) Create(ctx context.Context, c *Customer) error {
	return s.customers.Create(ctx, c)
}

func (s *Service) List(ctx context.Context, opts query.Options) ([]Customer, error) {
	return s.customers.List(ctx, opts)
}

// Get returns a customer with their orders, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.customers.GetByID(ctx, id)
}
