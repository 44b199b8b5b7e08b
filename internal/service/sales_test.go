package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog-sync-service/internal/shopify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateSumsLineItemsAcrossOrders(t *testing.T) {
	fetcher := &fakeOrderFetcher{orders: []shopify.Order{
		{ID: 1, LineItems: []shopify.LineItem{{VariantID: 101, Quantity: 2}}},
		{ID: 2, LineItems: []shopify.LineItem{{VariantID: 202, Quantity: 5}}},
		{ID: 3, LineItems: []shopify.LineItem{{VariantID: 101, Quantity: 3}}},
	}}

	idx := NewSalesAggregator(fetcher, 7).Aggregate(context.Background())

	assert.Equal(t, 5, idx.CountFor("gid://shopify/ProductVariant/101"))
	assert.Equal(t, 5, idx.CountFor("gid://shopify/ProductVariant/202"))
	assert.Equal(t, 0, idx.CountFor("gid://shopify/ProductVariant/303"))
	assert.Equal(t, 0, idx.CountFor("gid://shopify/ProductVariant/garbage"))
}

func TestAggregateUsesTrailingWindow(t *testing.T) {
	fetcher := &fakeOrderFetcher{}
	NewSalesAggregator(fetcher, 7).Aggregate(context.Background())

	require.Equal(t, 1, fetcher.calls)
	want := time.Now().Add(-7 * 24 * time.Hour)
	assert.WithinDuration(t, want, fetcher.since, 5*time.Second)
}

func TestAggregateFailsOpenToZeroSales(t *testing.T) {
	fetcher := &fakeOrderFetcher{err: errors.New("orders feed down")}

	idx := NewSalesAggregator(fetcher, 7).Aggregate(context.Background())

	assert.Empty(t, idx)
	assert.Equal(t, 0, idx.CountFor("gid://shopify/ProductVariant/101"))
}
