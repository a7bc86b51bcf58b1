// Command seed-db applies the schema and upserts the product catalog.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/storefront-orders/internal/storage/postgres"
)

const (
	upsertCategorySQL = `INSERT INTO categories (id, name) VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

	upsertProductSQL = `INSERT INTO products (id, name, description, price, image_url, category_id)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		price = EXCLUDED.price,
		image_url = EXCLUDED.image_url,
		category_id = EXCLUDED.category_id`

	deleteProductImagesSQL = `DELETE FROM product_images WHERE product_id = $1`

	insertProductImageSQL = `INSERT INTO product_images (product_id, image_url) VALUES ($1, $2)`

	// Explicit ids leave the sequence behind; move it past the highest id.
	resetProductSequenceSQL = `SELECT setval(pg_get_serial_sequence('products', 'id'),
		GREATEST((SELECT MAX(id) FROM products), 1))`

	resetCategorySequenceSQL = `SELECT setval(pg_get_serial_sequence('categories', 'id'),
		GREATEST((SELECT MAX(id) FROM categories), 1))`
)

func main() {
	var (
		databaseURL string
		catalogFile string
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "products-file", "db/seed/products.json", "path to products JSON file (.gz accepted)")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, catalogFile); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed successfully")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, catalogFile string) error {
	lg.Info("Reading catalog", zap.String("path", catalogFile))
	products, err := readCatalog(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog")
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	lg.Info("Upserted products", zap.Int("count", len(products)))
	return nil
}

// seedProducts upserts every category and product and replaces the
// side-table images in a single transaction.
func seedProducts(ctx context.Context, pool *pgxpool.Pool, products []catalogProduct) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range categories(products) {
			batch.Queue(upsertCategorySQL, c.ID, c.Name)
		}
		batch.Queue(resetCategorySequenceSQL)
		for _, p := range products {
			batch.Queue(upsertProductSQL, p.ID, p.Name, p.Description, p.Price, p.Image, p.categoryID())
			batch.Queue(deleteProductImagesSQL, p.ID)
			for _, img := range p.Images {
				batch.Queue(insertProductImageSQL, p.ID, img)
			}
		}
		batch.Queue(resetProductSequenceSQL)

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "send batch")
		}
		return nil
	})
}
