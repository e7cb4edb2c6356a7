package discount

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/query"
)

// Service encapsulates discount code management.
type Service struct {
	discounts Repository
}

func NewService(discounts Repository) *Service {
	return &Service{discounts: discounts}
}

// Create stores a new discount. New discounts are always active.
func (s *Service) Create(ctx context.Context, d *Discount) error {
	d.Active = true
	if err := d.Validate(); err != nil {
		return err
	}
	if err := s.discounts.Create(ctx, d); err != nil {
		return errors.Wrap(err, "create discount")
	}
	return nil
}

func (s *Service) List(ctx context.Context, filter query.Filter, opts query.Options, fields query.Fields) ([]Discount, error) {
	ds, err := s.discounts.List(ctx, filter, opts, fields)
	if err != nil {
		return nil, errors.Wrap(err, "list discounts")
	}
	return ds, nil
}

func (s *Service) Get(ctx context.Context, id int64, fields query.Fields) (*Discount, error) {
	return s.discounts.GetByID(ctx, id, fields)
}

// Update applies a partial update to an existing discount.
func (s *Service) Update(ctx context.Context, id int64, u Update) (*Discount, error) {
	if u.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	if u.Value != nil && !u.Value.IsPositive() {
		return nil, ErrInvalidValue
	}
	if u.ValueType != nil && !u.ValueType.Valid() {
		return nil, ErrInvalidValueType
	}
	if _, err := s.discounts.GetByID(ctx, id, nil); err != nil {
		return nil, err
	}
	d, err := s.discounts.Update(ctx, id, u)
	if err != nil {
		return nil, errors.Wrapf(err, "update discount %d", id)
	}
	return d, nil
}

// Delete removes a discount and returns it as it was before deletion.
func (s *Service) Delete(ctx context.Context, id int64) (*Discount, error) {
	d, err := s.discounts.GetByID(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if err := s.discounts.Delete(ctx, id); err != nil {
		return nil, errors.Wrapf(err, "delete discount %d", id)
	}
	return d, nil
}
