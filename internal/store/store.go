package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catalog-sync-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// UpsertProduct inserts or updates a product keyed on its shopify_id and
// fills in the local id and timestamps. Re-running with unchanged remote
// data leaves the row semantically identical.
func (s *Store) UpsertProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (shopify_id, title, vendor, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (shopify_id) DO UPDATE
		SET title = EXCLUDED.title, vendor = EXCLUDED.vendor, status = EXCLUDED.status, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, product, query,
		product.ShopifyID, product.Title, product.Vendor, product.Status)
}

// GetProductByShopifyID retrieves a product by its remote identifier
func (s *Store) GetProductByShopifyID(ctx context.Context, shopifyID string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE shopify_id = $1", shopifyID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %s", shopifyID)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves all products
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY id")
	return products, err
}
