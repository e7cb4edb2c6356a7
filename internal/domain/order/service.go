package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/query"
)

// ItemRequest is a requested product and quantity.
type ItemRequest struct {
	ProductID int64
	Quantity  int
}

// CreateRequest holds the input for placing an order. Total is taken as
// supplied by the client.
type CreateRequest struct {
	Customer customer.Customer
	Items    []ItemRequest
	Total    decimal.Decimal
}

// ProductLookup resolves products referenced by line items.
type ProductLookup interface {
	GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error)
}

// Service encapsulates order placement and status changes.
type Service struct {
	products ProductLookup
	orders   Repository
	events   Events
}

// NewService creates an order Service.
func NewService(products ProductLookup, orders Repository, events Events) *Service {
	return &Service{
		products: products,
		orders:   orders,
		events:   events,
	}
}

// Create validates the request, stores the customer, order and line items in
// one write and returns the stored order with its relations.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]int64, 0, len(req.Items))
	seen := make(map[int64]struct{}, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperr.BadRequestf("quantity must be greater than 0 for product %d", item.ProductID)
		}
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	found, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	exists := make(map[int64]struct{}, len(found))
	for _, p := range found {
		exists[p.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := exists[id]; !ok {
			return nil, apperr.BadRequestf("product %d not found", id)
		}
	}

	c := req.Customer
	o := &Order{
		Total:    req.Total,
		Status:   StatusPending,
		Customer: &c,
		Items:    make([]LineItem, len(req.Items)),
	}
	for i, item := range req.Items {
		o.Items[i] = LineItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	created, err := s.orders.GetByID(ctx, o.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", o.ID)
	}
	if err := s.events.OrderCreated(ctx, created); err != nil {
		zctx.From(ctx).Warn("Publish order created",
			zap.Int64("order_id", created.ID),
			zap.Error(err),
		)
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, filter query.Filter, opts query.Options) ([]Order, error) {
	if v, ok := filter["status"]; ok {
		if st, _ := v.(string); !Status(st).Valid() {
			return nil, ErrInvalidStatus
		}
	}
	orders, err := s.orders.List(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Get returns an order with customer and line items, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// UpdateStatus moves an existing order to status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, errors.Wrapf(err, "update order %d status", id)
	}
	updated, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.events.OrderStatusChanged(ctx, updated); err != nil {
		zctx.From(ctx).Warn("Publish order status change",
			zap.Int64("order_id", id),
			zap.Error(err),
		)
	}
	return updated, nil
}
