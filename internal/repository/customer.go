package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/query"
)

const (
	createCustomerSQL = `INSERT INTO customers (name, email, phone, address, city, wilaya)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	customerColumns = `id, name, email, phone, address, city, wilaya, created_at, updated_at`

	getCustomerByIDSQL   = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	getCustomersByIDsSQL = `SELECT ` + customerColumns + ` FROM customers WHERE id = ANY($1)`

	listCustomerOrdersSQL = `SELECT id, customer_id, total, status, created_at, updated_at
		FROM orders WHERE customer_id = ANY($1) ORDER BY id`
)

var customersTable = newTable("customers", [][2]string{
	{"id", "id"},
	{"name", "name"},
	{"email", "email"},
	{"phone", "phone"},
	{"address", "address"},
	{"city", "city"},
	{"wilaya", "wilaya"},
	{"createdAt", "created_at"},
	{"updatedAt", "updated_at"},
})

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	return insertCustomer(ctx, r.pool, c)
}

// List returns one page of customers, each with their orders.
func (r *CustomerRepository) List(ctx context.Context, opts query.Options) ([]customer.Customer, error) {
	cols, _ := customersTable.selectColumns(nil)
	sql, args, err := customersTable.listSQL(cols, nil, opts)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	customers, err := pgx.CollectRows(rows, scanCustomer)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	if err := r.attachOrders(ctx, customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// GetByID returns a customer with their orders.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}

	customers := []customer.Customer{c}
	if err := r.attachOrders(ctx, customers); err != nil {
		return nil, err
	}
	return &customers[0], nil
}

func (r *CustomerRepository) attachOrders(ctx context.Context, customers []customer.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	ids := make([]int64, len(customers))
	index := make(map[int64]int, len(customers))
	for i, c := range customers {
		ids[i] = c.ID
		index[c.ID] = i
		customers[i].Orders = []customer.OrderSummary{}
	}

	rows, err := r.pool.Query(ctx, listCustomerOrdersSQL, ids)
	if err != nil {
		return fmt.Errorf("listing customer orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, pgx.RowToStructByName[customerOrderRow])
	if err != nil {
		return fmt.Errorf("listing customer orders: %w", err)
	}
	for _, o := range orders {
		i := index[o.CustomerID]
		customers[i].Orders = append(customers[i].Orders, customer.OrderSummary{
			ID:        o.ID,
			Total:     o.Total,
			Status:    o.Status,
			CreatedAt: o.CreatedAt,
			UpdatedAt: o.UpdatedAt,
		})
	}
	return nil
}

// queryRower is satisfied by both *pgxpool.Pool and pgx.Tx.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertCustomer(ctx context.Context, q queryRower, c *customer.Customer) error {
	err := q.QueryRow(ctx, createCustomerSQL,
		c.Name, c.Email, c.Phone, c.Address, c.City, c.Wilaya,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating customer: %w", err)
	}
	return nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.City, &c.Wilaya, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

type customerOrderRow struct {
	ID         int64           `db:"id"`
	CustomerID int64           `db:"customer_id"`
	Total      decimal.Decimal `db:"total"`
	Status     string          `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}
