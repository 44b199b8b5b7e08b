package service

import (
	"context"
	"time"

	"catalog-sync-service/internal/shopify"
	"catalog-sync-service/internal/util"

	"go.uber.org/zap"
)

// OrderFetcher fetches recent orders from the remote orders feed
type OrderFetcher interface {
	FetchOrders(ctx context.Context, createdAtMin time.Time) ([]shopify.Order, error)
}

// SalesIndex maps numeric variant ids to units sold inside the trailing
// window. It is built once per price update pass and thrown away.
type SalesIndex map[int64]int

// CountFor returns the units sold for a variant identified by its GID. A
// GID without a numeric suffix counts as zero sales.
func (idx SalesIndex) CountFor(variantGID string) int {
	id, ok := shopify.NumericID(variantGID)
	if !ok {
		return 0
	}
	return idx[id]
}

// SalesAggregator sums line item quantities over the trailing sales window
type SalesAggregator struct {
	fetcher OrderFetcher
	window  time.Duration
	logger  *zap.Logger
}

// NewSalesAggregator creates an aggregator over a trailing window of whole days
func NewSalesAggregator(fetcher OrderFetcher, windowDays int) *SalesAggregator {
	return &SalesAggregator{
		fetcher: fetcher,
		window:  time.Duration(windowDays) * 24 * time.Hour,
		logger:  util.GetLogger(),
	}
}

// RecentOrders returns all orders created inside the trailing window
func (a *SalesAggregator) RecentOrders(ctx context.Context) ([]shopify.Order, error) {
	return a.fetcher.FetchOrders(ctx, time.Now().Add(-a.window))
}

// Aggregate builds the sales index for the current window. A fetch failure
// degrades to an empty index: every variant reads as zero sales rather than
// failing the whole price update pass.
func (a *SalesAggregator) Aggregate(ctx context.Context) SalesIndex {
	orders, err := a.RecentOrders(ctx)
	if err != nil {
		util.OrdersFetchFailuresTotal.Inc()
		a.logger.Error("Failed to fetch recent orders, treating as no sales", zap.Error(err))
		return SalesIndex{}
	}

	idx := make(SalesIndex)
	for _, order := range orders {
		for _, item := range order.LineItems {
			idx[item.VariantID] += item.Quantity
		}
	}

	a.logger.Info("Aggregated recent sales",
		zap.Int("orders", len(orders)),
		zap.Int("variants_with_sales", len(idx)))

	return idx
}
