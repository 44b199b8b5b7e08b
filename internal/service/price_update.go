package service

import (
	"context"
	"fmt"
	"time"

	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/pricing"
	"catalog-sync-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PriceUpdateService recomputes and applies prices for every local variant
type PriceUpdateService struct {
	store     CatalogStore
	sales     *SalesAggregator
	engine    *pricing.Engine
	writer    *PriceWriter
	locker    Locker
	publisher SyncEventPublisher
	lockTTL   time.Duration
	logger    *zap.Logger
}

// NewPriceUpdateService creates a new price update service
func NewPriceUpdateService(
	store CatalogStore,
	sales *SalesAggregator,
	engine *pricing.Engine,
	writer *PriceWriter,
	locker Locker,
	publisher SyncEventPublisher,
	lockTTL time.Duration,
) *PriceUpdateService {
	return &PriceUpdateService{
		store:     store,
		sales:     sales,
		engine:    engine,
		writer:    writer,
		locker:    locker,
		publisher: publisher,
		lockTTL:   lockTTL,
		logger:    util.GetLogger(),
	}
}

// RunPriceUpdate recomputes the price of every variant of every product
// under the given strategy and applies the changed ones. A failure on one
// variant is recorded and the loop continues; only listing failures abort
// the run. Sales are aggregated once per run and only when the strategy
// needs them.
func (s *PriceUpdateService) RunPriceUpdate(ctx context.Context, strategy string) (*models.PriceUpdateReport, error) {
	ctx, span := util.StartSpan(ctx, "PriceUpdateService.RunPriceUpdate")
	defer span.End()

	if !models.ValidStrategy(strategy) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
	}

	acquired, err := s.locker.AcquireLock(ctx, lockKeyPriceUpdate, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire price update lock: %w", err)
	}
	if !acquired {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := s.locker.ReleaseLock(context.Background(), lockKeyPriceUpdate); err != nil {
			s.logger.Warn("Failed to release price update lock", zap.Error(err))
		}
	}()

	start := time.Now()
	defer func() {
		util.PriceUpdateRunLatency.Observe(time.Since(start).Seconds())
	}()

	report := &models.PriceUpdateReport{
		RunID:     uuid.New().String(),
		Strategy:  strategy,
		StartedAt: start,
	}

	s.logger.Info("Price update started",
		zap.String("run_id", report.RunID),
		zap.String("strategy", strategy))

	salesIdx := SalesIndex{}
	if models.StrategyNeedsSales(strategy) {
		salesIdx = s.sales.Aggregate(ctx)
	}

	products, err := s.store.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	for _, product := range products {
		variants, err := s.store.GetVariantsByProductID(ctx, product.ID)
		if err != nil {
			s.logger.Error("Failed to list variants",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
			report.Failures = append(report.Failures, models.SyncFailure{
				ShopifyID: product.ShopifyID,
				Kind:      "product",
				Reason:    err.Error(),
			})
			continue
		}

		for i := range variants {
			variant := &variants[i]
			report.Checked++

			sales := salesIdx.CountFor(variant.ShopifyID)
			candidate := s.engine.ComputeNewPrice(variant, sales, strategy)

			outcome, err := s.writer.Apply(ctx, variant, candidate)
			if err != nil {
				s.logger.Error("Failed to apply price",
					zap.String("sku", variant.SKU),
					zap.Error(err))
				report.Failures = append(report.Failures, models.SyncFailure{
					ShopifyID: variant.ShopifyID,
					Kind:      "variant",
					Reason:    err.Error(),
				})
				continue
			}

			switch outcome {
			case models.OutcomeUpdated:
				report.Updated++
			case models.OutcomeUnchanged:
				report.Unchanged++
			case models.OutcomeRemoteFailed:
				report.RemoteFailed++
			case models.OutcomeConflict:
				report.Conflicts++
			}
		}
	}

	report.CompletedAt = time.Now()

	s.logger.Info("Price update completed",
		zap.String("run_id", report.RunID),
		zap.String("strategy", strategy),
		zap.Int("checked", report.Checked),
		zap.Int("updated", report.Updated),
		zap.Int("remote_failed", report.RemoteFailed),
		zap.Int("conflicts", report.Conflicts),
		zap.Int("failures", len(report.Failures)))

	s.publishCompleted(ctx, report)

	return report, nil
}

func (s *PriceUpdateService) publishCompleted(ctx context.Context, report *models.PriceUpdateReport) {
	if s.publisher == nil {
		return
	}

	event := &models.PriceUpdateCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePriceUpdateDone,
			Timestamp: time.Now(),
		},
		RunID:        report.RunID,
		Strategy:     report.Strategy,
		Checked:      report.Checked,
		Updated:      report.Updated,
		RemoteFailed: report.RemoteFailed,
		Conflicts:    report.Conflicts,
	}

	if err := s.publisher.PublishPriceUpdateCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish PriceUpdateCompleted event", zap.Error(err))
	}
}
