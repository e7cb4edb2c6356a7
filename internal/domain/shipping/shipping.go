package shipping

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/query"
)

var (
	ErrNotFound     = apperr.NotFound("Shipping price not found")
	ErrInvalidPrice = apperr.BadRequest("Shipping price must be positive")
)

// Price is the delivery cost for one wilaya.
type Price struct {
	ID        int64
	Wilaya    string
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines persistence operations for shipping prices.
type Repository interface {
	List(ctx context.Context, opts query.Options, fields query.Fields) ([]Price, error)
	GetByID(ctx context.Context, id int64, fields query.Fields) (*Price, error)
	UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) (*Price, error)
	// Upsert inserts or updates the price of p.Wilaya.
	Upsert(ctx context.Context, p *Price) error
}

// Service manages shipping prices.
type Service struct {
	prices Repository
}

func NewService(prices Repository) *Service {
	return &Service{prices: prices}
}

func (s *Service) List(ctx context.Context, opts query.Options, fields query.Fields) ([]Price, error) {
	prices, err := s.prices.List(ctx, opts, fields)
	if err != nil {
		return nil, errors.Wrap(err, "list shipping prices")
	}
	return prices, nil
}

func (s *Service) Get(ctx context.Context, id int64, fields query.Fields) (*Price, error) {
	return s.prices.GetByID(ctx, id, fields)
}

// UpdatePrice sets a new positive price on an existing entry.
func (s *Service) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) (*Price, error) {
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if _, err := s.prices.GetByID(ctx, id, nil); err != nil {
		return nil, err
	}
	p, err := s.prices.UpdatePrice(ctx, id, price)
	if err != nil {
		return nil, errors.Wrapf(err, "update shipping price %d", id)
	}
	return p, nil
}
