package pricing

import (
	"catalog-sync-service/internal/models"

	"github.com/shopspring/decimal"
)

// Inventory bands and their multipliers. Sales and inventory adjustments
// compose multiplicatively in the combined strategy, sales first.
var (
	salesMultiplier     = decimal.RequireFromString("1.15")
	lowStockMultiplier  = decimal.RequireFromString("1.10")
	highStockMultiplier = decimal.RequireFromString("0.95")
)

const (
	lowStockBelow  = 10
	highStockAbove = 100
)

// Engine computes candidate prices for variants. It is stateless across
// variants; each computation only sees one variant's price, inventory and
// trailing-window sales count.
type Engine struct {
	salesThreshold int
}

// NewEngine creates a pricing engine with the canonical sales threshold.
// There is exactly one threshold for both the sales-based and combined
// strategies.
func NewEngine(salesThreshold int) *Engine {
	return &Engine{salesThreshold: salesThreshold}
}

// SalesThreshold returns the configured threshold
func (e *Engine) SalesThreshold() int {
	return e.salesThreshold
}

// ComputeNewPrice returns the candidate price for a variant under the given
// strategy, rounded to two decimal places. An unknown inventory quantity is
// treated as zero. Unrecognized strategies leave the price unchanged.
func (e *Engine) ComputeNewPrice(variant *models.Variant, sales int, strategy string) decimal.Decimal {
	price := variant.Price

	inventory := int64(0)
	if variant.InventoryQuantity.Valid {
		inventory = variant.InventoryQuantity.Int64
	}

	switch strategy {
	case models.StrategySalesBased:
		if sales >= e.salesThreshold {
			price = price.Mul(salesMultiplier)
		}

	case models.StrategyInventoryBased:
		price = applyInventoryBand(price, inventory)

	case models.StrategyBoth:
		if sales >= e.salesThreshold {
			price = price.Mul(salesMultiplier)
		}
		price = applyInventoryBand(price, inventory)
	}

	return price.Round(2)
}

func applyInventoryBand(price decimal.Decimal, inventory int64) decimal.Decimal {
	switch {
	case inventory < lowStockBelow:
		return price.Mul(lowStockMultiplier)
	case inventory > highStockAbove:
		return price.Mul(highStockMultiplier)
	}
	return price
}
