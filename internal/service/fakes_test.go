package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/shopify"

	"github.com/shopspring/decimal"
)

type fakeLocker struct {
	denied     bool
	acquireErr error
	acquired   []string
	released   []string
}

func (l *fakeLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	if l.denied {
		return false, nil
	}
	l.acquired = append(l.acquired, key)
	return true, nil
}

func (l *fakeLocker) ReleaseLock(_ context.Context, key string) error {
	l.released = append(l.released, key)
	return nil
}

type fakeFetcher struct {
	nodes []shopify.ProductNode
	err   error
	calls int
}

func (f *fakeFetcher) FetchAllProducts(_ context.Context) ([]shopify.ProductNode, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.nodes, nil
}

type fakeOrderFetcher struct {
	orders []shopify.Order
	err    error
	calls  int
	since  time.Time
}

func (f *fakeOrderFetcher) FetchOrders(_ context.Context, createdAtMin time.Time) ([]shopify.Order, error) {
	f.calls++
	f.since = createdAtMin
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

type remoteCall struct {
	GID   string
	Price decimal.Decimal
}

type fakeRemote struct {
	err   error
	calls []remoteCall
}

func (r *fakeRemote) UpdateVariantPrice(_ context.Context, variantGID string, price decimal.Decimal) error {
	r.calls = append(r.calls, remoteCall{GID: variantGID, Price: price})
	return r.err
}

// fakeCatalogStore is an in-memory CatalogStore and VariantPriceStore
type fakeCatalogStore struct {
	products map[string]*models.Product
	variants map[string]*models.Variant

	nextProductID int64
	nextVariantID int64

	failProducts map[string]bool
	failVariants map[string]bool
	casErr       error

	productUpserts int
	variantUpserts int
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		products:     make(map[string]*models.Product),
		variants:     make(map[string]*models.Variant),
		failProducts: make(map[string]bool),
		failVariants: make(map[string]bool),
	}
}

func (s *fakeCatalogStore) UpsertProduct(_ context.Context, product *models.Product) error {
	if s.failProducts[product.ShopifyID] {
		return errors.New("store rejected product")
	}
	s.productUpserts++

	if existing, ok := s.products[product.ShopifyID]; ok {
		existing.Title = product.Title
		existing.Vendor = product.Vendor
		existing.Status = product.Status
		*product = *existing
		return nil
	}

	s.nextProductID++
	product.ID = s.nextProductID
	copied := *product
	s.products[product.ShopifyID] = &copied
	return nil
}

func (s *fakeCatalogStore) UpsertVariant(_ context.Context, variant *models.Variant) error {
	if s.failVariants[variant.ShopifyID] {
		return errors.New("store rejected variant")
	}
	s.variantUpserts++

	if existing, ok := s.variants[variant.ShopifyID]; ok {
		existing.ProductID = variant.ProductID
		existing.SKU = variant.SKU
		existing.Price = variant.Price
		existing.InventoryQuantity = variant.InventoryQuantity
		*variant = *existing
		return nil
	}

	s.nextVariantID++
	variant.ID = s.nextVariantID
	copied := *variant
	s.variants[variant.ShopifyID] = &copied
	return nil
}

func (s *fakeCatalogStore) GetProducts(_ context.Context) ([]models.Product, error) {
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeCatalogStore) GetVariantsByProductID(_ context.Context, productID int64) ([]models.Variant, error) {
	out := make([]models.Variant, 0)
	for _, v := range s.variants {
		if v.ProductID == productID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeCatalogStore) UpdateVariantPriceCAS(_ context.Context, variantID int64, oldPrice, newPrice decimal.Decimal) (bool, error) {
	if s.casErr != nil {
		return false, s.casErr
	}
	for _, v := range s.variants {
		if v.ID == variantID {
			if !v.Price.Equal(oldPrice) {
				return false, nil
			}
			v.Price = newPrice
			return true, nil
		}
	}
	return false, nil
}

// addVariant seeds a stored variant and returns a detached copy, the way a
// real read returns a row snapshot rather than the stored record.
func (s *fakeCatalogStore) addVariant(v models.Variant) *models.Variant {
	stored := v
	s.variants[v.ShopifyID] = &stored
	snapshot := v
	return &snapshot
}

func productNode(id, title string, variants ...shopify.VariantNode) shopify.ProductNode {
	n := shopify.ProductNode{ID: id, Title: title, Vendor: "Acme", Status: "ACTIVE"}
	for _, v := range variants {
		n.Variants.Edges = append(n.Variants.Edges, struct {
			Node shopify.VariantNode `json:"node"`
		}{Node: v})
	}
	return n
}

func variantNode(id, sku, price string, inventory int64) shopify.VariantNode {
	qty := inventory
	return shopify.VariantNode{ID: id, SKU: sku, Price: price, InventoryQuantity: &qty}
}
