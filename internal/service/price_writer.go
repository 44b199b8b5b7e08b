package service

import (
	"context"
	"fmt"

	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// VariantPriceStore persists local price changes
type VariantPriceStore interface {
	UpdateVariantPriceCAS(ctx context.Context, variantID int64, oldPrice, newPrice decimal.Decimal) (bool, error)
}

// RemotePriceUpdater pushes a price to the remote system
type RemotePriceUpdater interface {
	UpdateVariantPrice(ctx context.Context, variantGID string, price decimal.Decimal) error
}

// PriceWriter applies candidate prices: local first, then the remote
// mutation. A remote failure is reported but never rolls the local write
// back; local and remote diverge until the next successful pass.
type PriceWriter struct {
	store  VariantPriceStore
	remote RemotePriceUpdater
	logger *zap.Logger
}

// NewPriceWriter creates a new price writer
func NewPriceWriter(store VariantPriceStore, remote RemotePriceUpdater) *PriceWriter {
	return &PriceWriter{
		store:  store,
		remote: remote,
		logger: util.GetLogger(),
	}
}

// Apply writes candidate to the variant locally and remotely. Both prices
// are compared after rounding to two decimals; an equal candidate is a
// no-op. On success the variant's in-memory price is updated to candidate.
func (w *PriceWriter) Apply(ctx context.Context, variant *models.Variant, candidate decimal.Decimal) (models.WriteOutcome, error) {
	candidate = candidate.Round(2)
	current := variant.Price.Round(2)

	if candidate.Equal(current) {
		util.PriceUpdatesTotal.WithLabelValues(string(models.OutcomeUnchanged)).Inc()
		return models.OutcomeUnchanged, nil
	}

	swapped, err := w.store.UpdateVariantPriceCAS(ctx, variant.ID, variant.Price, candidate)
	if err != nil {
		return "", fmt.Errorf("failed to persist price for sku %s: %w", variant.SKU, err)
	}
	if !swapped {
		w.logger.Warn("Stored price changed since read, skipping remote write",
			zap.String("sku", variant.SKU),
			zap.String("variant_id", variant.ShopifyID))
		util.PriceUpdatesTotal.WithLabelValues(string(models.OutcomeConflict)).Inc()
		return models.OutcomeConflict, nil
	}

	w.logger.Info("Updating variant price",
		zap.String("sku", variant.SKU),
		zap.String("old_price", current.StringFixed(2)),
		zap.String("new_price", candidate.StringFixed(2)))

	variant.Price = candidate

	if err := w.remote.UpdateVariantPrice(ctx, variant.ShopifyID, candidate); err != nil {
		w.logger.Error("Remote price update failed",
			zap.String("variant_id", variant.ShopifyID),
			zap.String("sku", variant.SKU),
			zap.Error(err))
		util.RemotePriceWriteFailuresTotal.Inc()
		util.PriceUpdatesTotal.WithLabelValues(string(models.OutcomeRemoteFailed)).Inc()
		return models.OutcomeRemoteFailed, nil
	}

	util.PriceUpdatesTotal.WithLabelValues(string(models.OutcomeUpdated)).Inc()
	return models.OutcomeUpdated, nil
}
