package handler

import (
	"context"
	"mime/multipart"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/query"
	"github.com/xenking/storefront/internal/domain/shipping"
)

// In-memory repositories backing the handler tests.

var fixedNow = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

func page[T any](items []T, opts query.Options) []T {
	limit := opts.Limit
	if limit <= 0 {
		limit = query.DefaultLimit
	}
	return items[:min(limit, len(items))]
}

type memProducts struct {
	mu   sync.Mutex
	rows []product.Product
	next int64
}

func (m *memProducts) Create(_ context.Context, p *product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	p.ID = m.next
	p.CreatedAt, p.UpdatedAt = fixedNow, fixedNow
	m.rows = append(m.rows, *p)
	return nil
}

func (m *memProducts) List(_ context.Context, filter query.Filter, opts query.Options, _ query.Fields) ([]product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []product.Product
	for _, p := range m.rows {
		if title, ok := filter["title"]; ok && p.Title != title {
			continue
		}
		out = append(out, p)
	}
	return page(out, opts), nil
}

func (m *memProducts) find(id int64) int {
	return slices.IndexFunc(m.rows, func(p product.Product) bool { return p.ID == id })
}

func (m *memProducts) GetByID(_ context.Context, id int64, _ query.Fields) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return nil, product.ErrNotFound
	}
	p := m.rows[i]
	return &p, nil
}

func (m *memProducts) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []product.Product
	for _, p := range m.rows {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) FindByTitle(_ context.Context, title string) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.Title == title {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *memProducts) Update(_ context.Context, id int64, u product.Update) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return nil, product.ErrNotFound
	}
	p := &m.rows[i]
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Categories != nil {
		p.Categories = *u.Categories
	}
	if u.Quantity != nil {
		p.Quantity = *u.Quantity
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return product.ErrNotFound
	}
	m.rows = slices.Delete(m.rows, i, i+1)
	return nil
}

type memDiscounts struct {
	rows []discount.Discount
}

func (m *memDiscounts) Create(_ context.Context, d *discount.Discount) error {
	for _, existing := range m.rows {
		if existing.Code == d.Code {
			return discount.ErrCodeTaken
		}
	}
	d.ID = int64(len(m.rows) + 1)
	d.CreatedAt, d.UpdatedAt = fixedNow, fixedNow
	m.rows = append(m.rows, *d)
	return nil
}

func (m *memDiscounts) List(_ context.Context, filter query.Filter, opts query.Options, _ query.Fields) ([]discount.Discount, error) {
	var out []discount.Discount
	for _, d := range m.rows {
		if active, ok := filter["active"]; ok && d.Active != active {
			continue
		}
		out = append(out, d)
	}
	return page(out, opts), nil
}

func (m *memDiscounts) GetByID(_ context.Context, id int64, _ query.Fields) (*discount.Discount, error) {
	for _, d := range m.rows {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, discount.ErrNotFound
}

func (m *memDiscounts) Update(_ context.Context, id int64, u discount.Update) (*discount.Discount, error) {
	for i := range m.rows {
		d := &m.rows[i]
		if d.ID != id {
			continue
		}
		if u.Code != nil {
			d.Code = *u.Code
		}
		if u.Value != nil {
			d.Value = *u.Value
		}
		if u.ValueType != nil {
			d.ValueType = *u.ValueType
		}
		if u.Active != nil {
			d.Active = *u.Active
		}
		cp := *d
		return &cp, nil
	}
	return nil, discount.ErrNotFound
}

func (m *memDiscounts) Delete(_ context.Context, id int64) error {
	m.rows = slices.DeleteFunc(m.rows, func(d discount.Discount) bool { return d.ID == id })
	return nil
}

func (m *memDiscounts) InsertIgnore(context.Context, []discount.Discount) (int64, error) {
	return 0, nil
}

type memShipping struct {
	rows []shipping.Price
}

func (m *memShipping) List(_ context.Context, opts query.Options, _ query.Fields) ([]shipping.Price, error) {
	return page(m.rows, opts), nil
}

func (m *memShipping) GetByID(_ context.Context, id int64, _ query.Fields) (*shipping.Price, error) {
	for _, p := range m.rows {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, shipping.ErrNotFound
}

func (m *memShipping) UpdatePrice(_ context.Context, id int64, price decimal.Decimal) (*shipping.Price, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Price = price
			cp := m.rows[i]
			return &cp, nil
		}
	}
	return nil, shipping.ErrNotFound
}

func (m *memShipping) Upsert(_ context.Context, p *shipping.Price) error {
	p.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *p)
	return nil
}

// memOrders also serves customer reads, mirroring how orders create customers.
type memOrders struct {
	products  *memProducts
	orders    []order.Order
	customers []customer.Customer
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	c := *o.Customer
	c.ID = int64(len(m.customers) + 1)
	m.customers = append(m.customers, c)
	o.Customer.ID = c.ID
	o.CustomerID = c.ID
	o.ID = int64(len(m.orders) + 1)
	o.CreatedAt, o.UpdatedAt = fixedNow, fixedNow
	for i := range o.Items {
		o.Items[i].ID = int64(i + 1)
		o.Items[i].OrderID = o.ID
	}
	m.orders = append(m.orders, *o)
	return nil
}

func (m *memOrders) withRelations(o order.Order) order.Order {
	for _, c := range m.customers {
		if c.ID == o.CustomerID {
			o.Customer = &c
		}
	}
	items := slices.Clone(o.Items)
	for i := range items {
		if p, err := m.products.GetByID(context.Background(), items[i].ProductID, nil); err == nil {
			items[i].Product = p
		}
	}
	o.Items = items
	return o
}

func (m *memOrders) List(_ context.Context, filter query.Filter, opts query.Options) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.orders {
		if status, ok := filter["status"]; ok && string(o.Status) != status {
			continue
		}
		out = append(out, m.withRelations(o))
	}
	return page(out, opts), nil
}

func (m *memOrders) GetByID(_ context.Context, id int64) (*order.Order, error) {
	for _, o := range m.orders {
		if o.ID == id {
			o = m.withRelations(o)
			return &o, nil
		}
	}
	return nil, order.ErrNotFound
}

func (m *memOrders) UpdateStatus(_ context.Context, id int64, status order.Status) error {
	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders[i].Status = status
			return nil
		}
	}
	return order.ErrNotFound
}

type memCustomers struct {
	orders *memOrders
}

func (m *memCustomers) Create(_ context.Context, c *customer.Customer) error {
	c.ID = int64(len(m.orders.customers) + 1)
	m.orders.customers = append(m.orders.customers, *c)
	return nil
}

func (m *memCustomers) withOrders(c customer.Customer) customer.Customer {
	c.Orders = []customer.OrderSummary{}
	for _, o := range m.orders.orders {
		if o.CustomerID == c.ID {
			c.Orders = append(c.Orders, customer.OrderSummary{ID: o.ID, Total: o.Total, Status: string(o.Status)})
		}
	}
	return c
}

func (m *memCustomers) List(_ context.Context, opts query.Options) ([]customer.Customer, error) {
	out := make([]customer.Customer, 0, len(m.orders.customers))
	for _, c := range m.orders.customers {
		out = append(out, m.withOrders(c))
	}
	return page(out, opts), nil
}

func (m *memCustomers) GetByID(_ context.Context, id int64) (*customer.Customer, error) {
	for _, c := range m.orders.customers {
		if c.ID == id {
			c = m.withOrders(c)
			return &c, nil
		}
	}
	return nil, customer.ErrNotFound
}

type memAPIKeys struct {
	keys map[string]auth.APIKeyInfo
}

func (m *memAPIKeys) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	info, ok := m.keys[hash]
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	return &info, nil
}

func (m *memAPIKeys) Upsert(_ context.Context, key *auth.APIKeyInfo) error {
	m.keys[key.KeyHash] = *key
	return nil
}

type memImages struct {
	saved   []string
	removed []string
}

func (m *memImages) Save(fh *multipart.FileHeader) (string, error) {
	path := "uploads/2026-03-01_10-30_" + fh.Filename
	m.saved = append(m.saved, path)
	return path, nil
}

func (m *memImages) Remove(path string) error {
	m.removed = append(m.removed, path)
	return nil
}
