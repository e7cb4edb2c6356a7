package product

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/query"
)

// Service encapsulates product catalog business rules.
type Service struct {
	products Repository
}

// NewService creates a product Service backed by the given Repository.
func NewService(products Repository) *Service {
	return &Service{products: products}
}

// Create stores a new product after checking its title is free. The
// database unique index backs the check when two creates race.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := s.ensureTitleFree(ctx, p.Title, 0); err != nil {
		return err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return errors.Wrap(err, "create product")
	}
	return nil
}

// List returns a page of products matching filter.
func (s *Service) List(ctx context.Context, filter query.Filter, opts query.Options, fields query.Fields) ([]Product, error) {
	products, err := s.products.List(ctx, filter, opts, fields)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

// Get returns a single product. It returns ErrNotFound when id is unknown.
func (s *Service) Get(ctx context.Context, id int64, fields query.Fields) (*Product, error) {
	return s.products.GetByID(ctx, id, fields)
}

// Update applies a partial update to an existing product.
func (s *Service) Update(ctx context.Context, id int64, u Update) (*Product, error) {
	if u.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	if _, err := s.products.GetByID(ctx, id, nil); err != nil {
		return nil, err
	}
	if u.Title != nil {
		if err := s.ensureTitleFree(ctx, *u.Title, id); err != nil {
			return nil, err
		}
	}
	p, err := s.products.Update(ctx, id, u)
	if err != nil {
		return nil, errors.Wrapf(err, "update product %d", id)
	}
	return p, nil
}

// Delete removes a product and returns it as it was before deletion.
func (s *Service) Delete(ctx context.Context, id int64) (*Product, error) {
	p, err := s.products.GetByID(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return nil, errors.Wrapf(err, "delete product %d", id)
	}
	return p, nil
}

// ensureTitleFree fails with ErrTitleTaken when a product other than self
// already uses title. self is 0 on create.
func (s *Service) ensureTitleFree(ctx context.Context, title string, self int64) error {
	existing, err := s.products.FindByTitle(ctx, title)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return errors.Wrap(err, "find product by title")
	case existing.ID != self:
		return ErrTitleTaken
	default:
		return nil
	}
}
