package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/query"
)

const (
	createProductSQL = `INSERT INTO products (title, price, description, image, categories, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	upsertProductSQL = `INSERT INTO products (title, price, description, image, categories, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT products_title_key DO UPDATE SET
			price = EXCLUDED.price,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			categories = EXCLUDED.categories,
			quantity = EXCLUDED.quantity,
			updated_at = now()
		RETURNING id, created_at, updated_at`

	productColumns = `id, title, price, description, image, categories, quantity, created_at, updated_at`

	getProductByIDSQL    = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	getProductsByIDsSQL  = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`
	getProductByTitleSQL = `SELECT ` + productColumns + ` FROM products WHERE title = $1`
	deleteProductSQL     = `DELETE FROM products WHERE id = $1`

	productsTitleKey = "products_title_key"
)

var productsTable = newTable("products", [][2]string{
	{"id", "id"},
	{"title", "title"},
	{"price", "price"},
	{"description", "description"},
	{"image", "image"},
	{"categories", "categories"},
	{"quantity", "quantity"},
	{"createdAt", "created_at"},
	{"updatedAt", "updated_at"},
}, "title", "price")

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts p and fills in its id and timestamps.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := r.pool.QueryRow(ctx, createProductSQL,
		p.Title, p.Price, p.Description, p.Image, categories(p.Categories), p.Quantity,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapProductError(err, fmt.Sprintf("creating product %q", p.Title))
	}
	return nil
}

// Upsert inserts p or, when the title exists, overwrites the stored product.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	err := r.pool.QueryRow(ctx, upsertProductSQL,
		p.Title, p.Price, p.Description, p.Image, categories(p.Categories), p.Quantity,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.Title, err)
	}
	return nil
}

// List returns one page of products with only the requested fields set.
func (r *ProductRepository) List(ctx context.Context, filter query.Filter, opts query.Options, fields query.Fields) ([]product.Product, error) {
	cols, err := productsTable.selectColumns(fields)
	if err != nil {
		return nil, err
	}
	sql, args, err := productsTable.listSQL(cols, filter, opts)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[productRow])
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	out := make([]product.Product, len(records))
	for i, rec := range records {
		out[i] = rec.toDomain()
	}
	return out, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64, fields query.Fields) (*product.Product, error) {
	sql := getProductByIDSQL
	if len(fields) > 0 {
		cols, err := productsTable.selectColumns(fields)
		if err != nil {
			return nil, err
		}
		sql = productsTable.getSQL(cols)
	}

	rows, err := r.pool.Query(ctx, sql, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[productRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	p := rec.toDomain()
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// FindByTitle returns the product with the exact title.
func (r *ProductRepository) FindByTitle(ctx context.Context, title string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByTitleSQL, title)
	if err != nil {
		return nil, fmt.Errorf("finding product by title %q: %w", title, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("finding product by title %q: %w", title, err)
	}
	return &p, nil
}

// Update writes the non-nil fields of u and returns the stored product.
func (r *ProductRepository) Update(ctx context.Context, id int64, u product.Update) (*product.Product, error) {
	var set []assignment
	if u.Title != nil {
		set = append(set, assignment{"title", *u.Title})
	}
	if u.Price != nil {
		set = append(set, assignment{"price", *u.Price})
	}
	if u.Description != nil {
		set = append(set, assignment{"description", *u.Description})
	}
	if u.Image != nil {
		set = append(set, assignment{"image", *u.Image})
	}
	if u.Categories != nil {
		set = append(set, assignment{"categories", categories(*u.Categories)})
	}
	if u.Quantity != nil {
		set = append(set, assignment{"quantity", *u.Quantity})
	}
	cols, _ := productsTable.selectColumns(nil)
	sql, args := productsTable.updateSQL(id, set, cols)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("updating product %d: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, mapProductError(err, fmt.Sprintf("updating product %d", id))
	}
	return &p, nil
}

// Delete removes a product. Products referenced by order line items cannot
// be deleted.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return mapProductError(err, fmt.Sprintf("deleting product %d", id))
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func mapProductError(err error, op string) error {
	switch code, constraint := pgErrorCode(err); {
	case code == uniqueViolation && constraint == productsTitleKey:
		return product.ErrTitleTaken
	case code == foreignKeyViolation:
		return product.ErrInUse
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// productRow is the scan target for projected product queries. Columns
// absent from the query keep their zero value.
type productRow struct {
	ID          int64           `db:"id"`
	Title       string          `db:"title"`
	Price       decimal.Decimal `db:"price"`
	Description string          `db:"description"`
	Image       string          `db:"image"`
	Categories  []string        `db:"categories"`
	Quantity    int             `db:"quantity"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r productRow) toDomain() product.Product {
	return product.Product(r)
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Price, &p.Description, &p.Image,
		&p.Categories, &p.Quantity, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// categories keeps NOT NULL array columns from receiving a NULL.
func categories(c []string) []string {
	if c == nil {
		return []string{}
	}
	return c
}
