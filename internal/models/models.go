package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a locally stored Shopify product. Products are created and
// updated by catalog sync only; nothing in this service deletes them.
type Product struct {
	ID        int64     `db:"id" json:"id"`
	ShopifyID string    `db:"shopify_id" json:"shopify_id"`
	Title     string    `db:"title" json:"title"`
	Vendor    string    `db:"vendor" json:"vendor"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Variant belongs to exactly one Product. Price is fixed-point with two
// decimal places; inventory may be unknown on the remote side (NULL locally).
type Variant struct {
	ID                int64           `db:"id" json:"id"`
	ProductID         int64           `db:"product_id" json:"product_id"`
	ShopifyID         string          `db:"shopify_id" json:"shopify_id"`
	SKU               string          `db:"sku" json:"sku"`
	Price             decimal.Decimal `db:"price" json:"price"`
	InventoryQuantity sql.NullInt64   `db:"inventory_quantity" json:"inventory_quantity"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// CatalogProduct is a product with its variants, as returned to API callers.
type CatalogProduct struct {
	Product
	Variants []Variant `json:"variants"`
}

// Pricing strategies accepted by the trigger surface.
const (
	StrategySalesBased     = "sales_based"
	StrategyInventoryBased = "inventory_based"
	StrategyBoth           = "both"
)

// ValidStrategy reports whether s is one of the accepted pricing strategies.
func ValidStrategy(s string) bool {
	switch s {
	case StrategySalesBased, StrategyInventoryBased, StrategyBoth:
		return true
	}
	return false
}

// StrategyNeedsSales reports whether a strategy requires sales aggregates,
// so the orders fetch can be skipped for inventory-only runs.
func StrategyNeedsSales(s string) bool {
	return s == StrategySalesBased || s == StrategyBoth
}

// WriteOutcome is the result of applying a candidate price to a variant.
type WriteOutcome string

const (
	OutcomeUnchanged    WriteOutcome = "unchanged"
	OutcomeUpdated      WriteOutcome = "updated"
	OutcomeRemoteFailed WriteOutcome = "remote_failed"
	OutcomeConflict     WriteOutcome = "conflict"
)

// SyncFailure records a single record that could not be stored during a
// catalog sync pass.
type SyncFailure struct {
	ShopifyID string `json:"shopify_id"`
	Kind      string `json:"kind"` // "product" or "variant"
	Reason    string `json:"reason"`
}

// SyncReport summarizes one catalog sync run.
type SyncReport struct {
	RunID          string        `json:"run_id"`
	ProductsSynced int           `json:"products_synced"`
	VariantsSynced int           `json:"variants_synced"`
	Failures       []SyncFailure `json:"failures,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    time.Time     `json:"completed_at"`
}

// PriceUpdateReport summarizes one price update run.
type PriceUpdateReport struct {
	RunID        string        `json:"run_id"`
	Strategy     string        `json:"strategy"`
	Checked      int           `json:"checked"`
	Updated      int           `json:"updated"`
	Unchanged    int           `json:"unchanged"`
	RemoteFailed int           `json:"remote_failed"`
	Conflicts    int           `json:"conflicts"`
	Failures     []SyncFailure `json:"failures,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  time.Time     `json:"completed_at"`
}
