package store

import (
	"context"
	"database/sql"
	"fmt"

	"catalog-sync-service/internal/models"

	"github.com/shopspring/decimal"
)

// UpsertVariant inserts or updates a variant keyed on its shopify_id,
// scoped to its product, and fills in the local id and timestamps.
func (s *Store) UpsertVariant(ctx context.Context, variant *models.Variant) error {
	query := `
		INSERT INTO variants (product_id, shopify_id, sku, price, inventory_quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (shopify_id) DO UPDATE
		SET product_id = EXCLUDED.product_id, sku = EXCLUDED.sku, price = EXCLUDED.price,
		    inventory_quantity = EXCLUDED.inventory_quantity, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, variant, query,
		variant.ProductID, variant.ShopifyID, variant.SKU, variant.Price, variant.InventoryQuantity)
}

// GetVariantByShopifyID retrieves a variant by its remote identifier
func (s *Store) GetVariantByShopifyID(ctx context.Context, shopifyID string) (*models.Variant, error) {
	var variant models.Variant
	err := s.db.GetContext(ctx, &variant, "SELECT * FROM variants WHERE shopify_id = $1", shopifyID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("variant not found: %s", shopifyID)
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// GetVariantsByProductID retrieves all variants of a product
func (s *Store) GetVariantsByProductID(ctx context.Context, productID int64) ([]models.Variant, error) {
	var variants []models.Variant
	err := s.db.SelectContext(ctx, &variants,
		"SELECT * FROM variants WHERE product_id = $1 ORDER BY id", productID)
	return variants, err
}

// UpdateVariantPriceCAS updates a variant's price only if it still holds the
// previously read value. Returns false when a concurrent pass already moved
// the price, so overlapping runs cannot silently overwrite each other.
func (s *Store) UpdateVariantPriceCAS(ctx context.Context, variantID int64, oldPrice, newPrice decimal.Decimal) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE variants SET price = $1, updated_at = NOW() WHERE id = $2 AND price = $3",
		newPrice, variantID, oldPrice)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
