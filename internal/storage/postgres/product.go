package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-orders/internal/domain/product"
)

const (
	selectProductsSQL = `SELECT p.id, p.name, p.description, p.price, p.image_url, p.category_id, c.name AS category_name
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id`

	listProductsSQL = selectProductsSQL + ` ORDER BY p.id`

	getProductByIDSQL = selectProductsSQL + ` WHERE p.id = $1`

	listProductsByCategorySQL = selectProductsSQL + ` WHERE p.category_id = $1 ORDER BY p.id`

	searchProductsSQL = selectProductsSQL + ` WHERE p.name ILIKE $1 OR p.description ILIKE $1
		ORDER BY p.id LIMIT $2`

	listProductImagesSQL = `SELECT image_url
		FROM product_images WHERE product_id = $1 ORDER BY id`
)

// likeEscaper escapes LIKE wildcards so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	db DBTX
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListByCategory returns the products filed under categoryID. An unknown
// category yields an empty slice.
func (r *ProductRepository) ListByCategory(ctx context.Context, categoryID int64) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, listProductsByCategorySQL, categoryID)
	if err != nil {
		return nil, fmt.Errorf("listing products of category %d: %w", categoryID, err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product with its additional images.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.db.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	rows, err = r.db.Query(ctx, listProductImagesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("listing images of product %d: %w", id, err)
	}
	p.Images, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning images of product %d: %w", id, err)
	}
	if p.Images == nil {
		p.Images = make([]string, 0)
	}
	return &p, nil
}

// Search matches query against product names and descriptions. The pattern
// is passed as a bound parameter.
func (r *ProductRepository) Search(ctx context.Context, query string, limit int) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, searchProductsSQL, "%"+likeEscaper.Replace(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p            product.Product
		price        decimal.Decimal
		categoryID   pgtype.Int8
		categoryName pgtype.Text
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Image, &categoryID, &categoryName)
	p.Price = price
	p.CategoryID = categoryID.Int64
	p.CategoryName = categoryName.String
	return p, err
}
