package service

import (
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/pricing"
	"catalog-sync-service/internal/shopify"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type priceUpdateFixture struct {
	store   *fakeCatalogStore
	orders  *fakeOrderFetcher
	remote  *fakeRemote
	service *PriceUpdateService
}

func newPriceUpdateFixture(threshold int) *priceUpdateFixture {
	store := newFakeCatalogStore()
	orders := &fakeOrderFetcher{}
	remote := &fakeRemote{}

	f := &priceUpdateFixture{
		store:  store,
		orders: orders,
		remote: remote,
	}
	f.service = NewPriceUpdateService(
		store,
		NewSalesAggregator(orders, 7),
		pricing.NewEngine(threshold),
		NewPriceWriter(store, remote),
		&fakeLocker{},
		nil,
		time.Minute,
	)
	return f
}

func (f *priceUpdateFixture) seedProduct(shopifyID string) *models.Product {
	product := &models.Product{ShopifyID: shopifyID, Title: "Seed", Vendor: "Acme", Status: "ACTIVE"}
	_ = f.store.UpsertProduct(context.Background(), product)
	return product
}

func (f *priceUpdateFixture) seedVariant(productID int64, numericID int64, sku, price string, inventory int64) {
	variant := &models.Variant{
		ProductID:         productID,
		ShopifyID:         shopifyGID(numericID),
		SKU:               sku,
		Price:             decimal.RequireFromString(price),
		InventoryQuantity: sql.NullInt64{Int64: inventory, Valid: true},
	}
	_ = f.store.UpsertVariant(context.Background(), variant)
}

func shopifyGID(numericID int64) string {
	return "gid://shopify/ProductVariant/" + strconv.FormatInt(numericID, 10)
}

func TestRunPriceUpdateInventoryStrategy(t *testing.T) {
	f := newPriceUpdateFixture(50)
	product := f.seedProduct("gid://shopify/Product/1")
	f.seedVariant(product.ID, 11, "LOW", "100.00", 5)
	f.seedVariant(product.ID, 12, "MID", "100.00", 50)
	f.seedVariant(product.ID, 13, "HIGH", "100.00", 150)

	report, err := f.service.RunPriceUpdate(context.Background(), models.StrategyInventoryBased)

	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 1, report.Unchanged)
	assert.Empty(t, report.Failures)

	assert.Equal(t, "110.00", f.store.variants[shopifyGID(11)].Price.StringFixed(2))
	assert.Equal(t, "100.00", f.store.variants[shopifyGID(12)].Price.StringFixed(2))
	assert.Equal(t, "95.00", f.store.variants[shopifyGID(13)].Price.StringFixed(2))

	assert.Equal(t, 0, f.orders.calls, "inventory strategy must not fetch orders")
	assert.Len(t, f.remote.calls, 2)
}

func TestRunPriceUpdateCombinedStrategy(t *testing.T) {
	f := newPriceUpdateFixture(10)
	product := f.seedProduct("gid://shopify/Product/1")
	f.seedVariant(product.ID, 11, "HOT", "100.00", 5)

	f.orders.orders = []shopify.Order{
		{ID: 1, LineItems: []shopify.LineItem{{VariantID: 11, Quantity: 10}}},
	}

	report, err := f.service.RunPriceUpdate(context.Background(), models.StrategyBoth)

	require.NoError(t, err)
	assert.Equal(t, 1, f.orders.calls)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, "126.50", f.store.variants[shopifyGID(11)].Price.StringFixed(2))
}

func TestRunPriceUpdateRemoteFailureDoesNotStopLoop(t *testing.T) {
	f := newPriceUpdateFixture(50)
	product := f.seedProduct("gid://shopify/Product/1")
	f.seedVariant(product.ID, 11, "A", "100.00", 5)
	f.seedVariant(product.ID, 12, "B", "100.00", 5)

	f.remote.err = assert.AnError

	report, err := f.service.RunPriceUpdate(context.Background(), models.StrategyInventoryBased)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 2, report.RemoteFailed)
	assert.Equal(t, 0, report.Updated)
	assert.Len(t, f.remote.calls, 2, "every variant is still attempted")

	// Local writes stuck even though the remote rejected both
	assert.Equal(t, "110.00", f.store.variants[shopifyGID(11)].Price.StringFixed(2))
	assert.Equal(t, "110.00", f.store.variants[shopifyGID(12)].Price.StringFixed(2))
}

func TestRunPriceUpdateRejectsInvalidStrategy(t *testing.T) {
	f := newPriceUpdateFixture(50)

	report, err := f.service.RunPriceUpdate(context.Background(), "surge_pricing")

	require.ErrorIs(t, err, ErrInvalidStrategy)
	assert.Nil(t, report)
	assert.Equal(t, 0, f.orders.calls)
}

func TestRunPriceUpdateRefusesConcurrentRun(t *testing.T) {
	f := newPriceUpdateFixture(50)
	f.service.locker = &fakeLocker{denied: true}

	_, err := f.service.RunPriceUpdate(context.Background(), models.StrategyBoth)

	require.ErrorIs(t, err, ErrRunInProgress)
}

func TestRunPriceUpdateReappliesMultiplierOnNewBase(t *testing.T) {
	f := newPriceUpdateFixture(50)
	product := f.seedProduct("gid://shopify/Product/1")
	f.seedVariant(product.ID, 11, "LOW", "100.00", 5)

	first, err := f.service.RunPriceUpdate(context.Background(), models.StrategyInventoryBased)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	// Still low stock, so the multiplier applies again on the new base
	second, err := f.service.RunPriceUpdate(context.Background(), models.StrategyInventoryBased)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Updated)
	assert.Equal(t, "121.00", f.store.variants[shopifyGID(11)].Price.StringFixed(2))
}
