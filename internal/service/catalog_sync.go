package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/shopify"
	"catalog-sync-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductFetcher fetches the full remote catalog
type ProductFetcher interface {
	FetchAllProducts(ctx context.Context) ([]shopify.ProductNode, error)
}

// CatalogStore is the persistence surface catalog sync and price update need
type CatalogStore interface {
	UpsertProduct(ctx context.Context, product *models.Product) error
	UpsertVariant(ctx context.Context, variant *models.Variant) error
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetVariantsByProductID(ctx context.Context, productID int64) ([]models.Variant, error)
}

// CatalogSyncService refreshes the local catalog from the remote one
type CatalogSyncService struct {
	fetcher   ProductFetcher
	store     CatalogStore
	locker    Locker
	publisher SyncEventPublisher
	lockTTL   time.Duration
	logger    *zap.Logger
}

// NewCatalogSyncService creates a new catalog sync service
func NewCatalogSyncService(
	fetcher ProductFetcher,
	store CatalogStore,
	locker Locker,
	publisher SyncEventPublisher,
	lockTTL time.Duration,
) *CatalogSyncService {
	return &CatalogSyncService{
		fetcher:   fetcher,
		store:     store,
		locker:    locker,
		publisher: publisher,
		lockTTL:   lockTTL,
		logger:    util.GetLogger(),
	}
}

// RunCatalogSync fetches every remote product and upserts products and
// variants into the local store. A fetch failure aborts the run before any
// write happens, so a failed fetch can never empty a populated catalog. A
// failure on a single record is recorded in the report and the pass
// continues with the remaining records.
func (s *CatalogSyncService) RunCatalogSync(ctx context.Context) (*models.SyncReport, error) {
	ctx, span := util.StartSpan(ctx, "CatalogSyncService.RunCatalogSync")
	defer span.End()

	acquired, err := s.locker.AcquireLock(ctx, lockKeyCatalogSync, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire catalog sync lock: %w", err)
	}
	if !acquired {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := s.locker.ReleaseLock(context.Background(), lockKeyCatalogSync); err != nil {
			s.logger.Warn("Failed to release catalog sync lock", zap.Error(err))
		}
	}()

	report := &models.SyncReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}

	s.logger.Info("Catalog sync started", zap.String("run_id", report.RunID))

	nodes, err := s.fetcher.FetchAllProducts(ctx)
	if err != nil {
		util.CatalogSyncRunsTotal.WithLabelValues("fetch_failed").Inc()
		return nil, fmt.Errorf("catalog fetch failed: %w", err)
	}

	for _, node := range nodes {
		product := &models.Product{
			ShopifyID: node.ID,
			Title:     node.Title,
			Vendor:    node.Vendor,
			Status:    node.Status,
		}

		if err := s.store.UpsertProduct(ctx, product); err != nil {
			s.logger.Error("Failed to upsert product",
				zap.String("shopify_id", node.ID),
				zap.Error(err))
			util.CatalogSyncFailuresTotal.WithLabelValues("product").Inc()
			report.Failures = append(report.Failures, models.SyncFailure{
				ShopifyID: node.ID,
				Kind:      "product",
				Reason:    err.Error(),
			})
			continue
		}
		report.ProductsSynced++

		for _, edge := range node.Variants.Edges {
			if err := s.upsertVariant(ctx, product.ID, edge.Node); err != nil {
				s.logger.Error("Failed to upsert variant",
					zap.String("shopify_id", edge.Node.ID),
					zap.String("sku", edge.Node.SKU),
					zap.Error(err))
				util.CatalogSyncFailuresTotal.WithLabelValues("variant").Inc()
				report.Failures = append(report.Failures, models.SyncFailure{
					ShopifyID: edge.Node.ID,
					Kind:      "variant",
					Reason:    err.Error(),
				})
				continue
			}
			report.VariantsSynced++
		}
	}

	report.CompletedAt = time.Now()
	util.ProductsSyncedTotal.Add(float64(report.ProductsSynced))
	util.VariantsSyncedTotal.Add(float64(report.VariantsSynced))
	util.CatalogSyncRunsTotal.WithLabelValues("completed").Inc()

	s.logger.Info("Catalog sync completed",
		zap.String("run_id", report.RunID),
		zap.Int("products", report.ProductsSynced),
		zap.Int("variants", report.VariantsSynced),
		zap.Int("failures", len(report.Failures)))

	s.publishCompleted(ctx, report)

	return report, nil
}

func (s *CatalogSyncService) upsertVariant(ctx context.Context, productID int64, node shopify.VariantNode) error {
	price, err := decimal.NewFromString(strings.TrimSpace(node.Price))
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", node.Price, err)
	}

	variant := &models.Variant{
		ProductID: productID,
		ShopifyID: node.ID,
		SKU:       node.SKU,
		Price:     price.Round(2),
	}
	if node.InventoryQuantity != nil {
		qty := *node.InventoryQuantity
		if qty < 0 {
			qty = 0
		}
		variant.InventoryQuantity = sql.NullInt64{Int64: qty, Valid: true}
	}

	return s.store.UpsertVariant(ctx, variant)
}

func (s *CatalogSyncService) publishCompleted(ctx context.Context, report *models.SyncReport) {
	if s.publisher == nil {
		return
	}

	event := &models.CatalogSyncCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCatalogSyncDone,
			Timestamp: time.Now(),
		},
		RunID:          report.RunID,
		ProductsSynced: report.ProductsSynced,
		VariantsSynced: report.VariantsSynced,
		Failures:       len(report.Failures),
	}

	if err := s.publisher.PublishCatalogSyncCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish CatalogSyncCompleted event", zap.Error(err))
	}
}

// ListCatalog returns the local catalog, products with their variants
func (s *CatalogSyncService) ListCatalog(ctx context.Context) ([]models.CatalogProduct, error) {
	products, err := s.store.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	catalog := make([]models.CatalogProduct, 0, len(products))
	for _, product := range products {
		variants, err := s.store.GetVariantsByProductID(ctx, product.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list variants for product %d: %w", product.ID, err)
		}
		catalog = append(catalog, models.CatalogProduct{Product: product, Variants: variants})
	}

	return catalog, nil
}
