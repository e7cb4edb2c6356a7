package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/query"
)

const (
	createOrderSQL = `INSERT INTO orders (total, status, customer_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	createLineItemSQL = `INSERT INTO order_products (order_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id`

	getOrderByIDSQL = `SELECT id, total, status, customer_id, created_at, updated_at
		FROM orders WHERE id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`

	listLineItemsSQL = `SELECT op.id, op.order_id, op.product_id, op.quantity,
			p.id, p.title, p.price, p.description, p.image, p.categories, p.quantity, p.created_at, p.updated_at
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = ANY($1)
		ORDER BY op.id`
)

var ordersTable = newTable("orders", [][2]string{
	{"id", "id"},
	{"total", "total"},
	{"status", "status"},
	{"customerId", "customer_id"},
	{"createdAt", "created_at"},
	{"updatedAt", "updated_at"},
}, "status")

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the customer, the order and its line items in one
// transaction. Line items are sent as a single batch.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertCustomer(ctx, tx, o.Customer); err != nil {
			return err
		}
		o.CustomerID = o.Customer.ID

		err := tx.QueryRow(ctx, createOrderSQL, o.Total, string(o.Status), o.CustomerID).
			Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range o.Items {
			item := &o.Items[i]
			item.OrderID = o.ID
			batch.Queue(createLineItemSQL, o.ID, item.ProductID, item.Quantity).
				QueryRow(func(row pgx.Row) error {
					return row.Scan(&item.ID)
				})
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if code, _ := pgErrorCode(err); code == foreignKeyViolation {
				return apperr.BadRequest("Order references an unknown product")
			}
			return fmt.Errorf("creating order line items: %w", err)
		}
		return nil
	})
}

// List returns one page of orders with customers and line items.
func (r *OrderRepository) List(ctx context.Context, filter query.Filter, opts query.Options) ([]order.Order, error) {
	cols, _ := ordersTable.selectColumns(nil)
	sql, args, err := ordersTable.listSQL(cols, filter, opts)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if err := r.loadRelations(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetByID returns an order with its customer and line items.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	orders := []order.Order{o}
	if err := r.loadRelations(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, string(status), id)
	if err != nil {
		return fmt.Errorf("updating order %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// loadRelations fills Customer and Items of orders with two queries.
func (r *OrderRepository) loadRelations(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	orderIDs := make([]int64, len(orders))
	customerIDs := make([]int64, 0, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
		customerIDs = append(customerIDs, o.CustomerID)
		index[o.ID] = i
		orders[i].Items = []order.LineItem{}
	}

	rows, err := r.pool.Query(ctx, getCustomersByIDsSQL, customerIDs)
	if err != nil {
		return fmt.Errorf("getting order customers: %w", err)
	}
	customers, err := pgx.CollectRows(rows, scanCustomer)
	if err != nil {
		return fmt.Errorf("getting order customers: %w", err)
	}
	byID := make(map[int64]*customer.Customer, len(customers))
	for i := range customers {
		byID[customers[i].ID] = &customers[i]
	}
	for i := range orders {
		orders[i].Customer = byID[orders[i].CustomerID]
	}

	rows, err = r.pool.Query(ctx, listLineItemsSQL, orderIDs)
	if err != nil {
		return fmt.Errorf("getting order line items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanLineItem)
	if err != nil {
		return fmt.Errorf("getting order line items: %w", err)
	}
	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		total  decimal.Decimal
		status string
	)
	err := row.Scan(&o.ID, &total, &status, &o.CustomerID, &o.CreatedAt, &o.UpdatedAt)
	o.Total = total
	o.Status = order.Status(status)
	return o, err
}

func scanLineItem(row pgx.CollectableRow) (order.LineItem, error) {
	var (
		item order.LineItem
		p    product.Product
	)
	err := row.Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
		&p.ID, &p.Title, &p.Price, &p.Description, &p.Image,
		&p.Categories, &p.Quantity, &p.CreatedAt, &p.UpdatedAt,
	)
	item.Product = &p
	return item, err
}

