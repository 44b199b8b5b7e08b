package worker

import (
	"context"
	"errors"
	"time"

	"catalog-sync-service/internal/broker"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/redisclient"
	"catalog-sync-service/internal/service"
	"catalog-sync-service/internal/util"

	"go.uber.org/zap"
)

// TriggerWorker consumes SyncTrigger events and runs the requested operation
type TriggerWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewTriggerWorker creates a worker that maps trigger events onto the two
// engine operations. defaultStrategy is used when a price update trigger
// carries no strategy of its own.
func NewTriggerWorker(
	consumer *broker.Consumer,
	catalogSync *service.CatalogSyncService,
	priceUpdate *service.PriceUpdateService,
	defaultStrategy string,
	runTimeout time.Duration,
) *TriggerWorker {
	logger := util.GetLogger()
	eventHandler := broker.NewEventHandler()

	eventHandler.OnSyncTrigger(func(ctx context.Context, event *models.SyncTriggerEvent) error {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()

		switch event.Operation {
		case models.OperationCatalogSync:
			_, err := catalogSync.RunCatalogSync(runCtx)
			return filterRunError(logger, event.Operation, err)

		case models.OperationPriceUpdate:
			strategy := event.Strategy
			if strategy == "" {
				strategy = defaultStrategy
			}
			if !models.ValidStrategy(strategy) {
				// Bad trigger payloads are dropped, not retried
				logger.Error("Trigger carried invalid strategy",
					zap.String("strategy", strategy),
					zap.String("event_id", event.EventID))
				return nil
			}
			_, err := priceUpdate.RunPriceUpdate(runCtx, strategy)
			return filterRunError(logger, event.Operation, err)

		default:
			logger.Error("Trigger carried unknown operation",
				zap.String("operation", event.Operation),
				zap.String("event_id", event.EventID))
			return nil
		}
	})

	return &TriggerWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       logger,
	}
}

// filterRunError keeps an already-running operation from looking like a
// consumer failure; the run that holds the lock is doing the work.
func filterRunError(logger *zap.Logger, operation string, err error) error {
	if errors.Is(err, service.ErrRunInProgress) {
		logger.Info("Trigger skipped, run already in progress", zap.String("operation", operation))
		return nil
	}
	return err
}

// Start starts the worker
func (w *TriggerWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting trigger worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *TriggerWorker) Stop() error {
	w.logger.Info("Stopping trigger worker")
	return w.consumer.Close()
}

// Scheduler periodically runs a catalog sync followed by a price update,
// the recurring job of the original system.
type Scheduler struct {
	catalogSync *service.CatalogSyncService
	priceUpdate *service.PriceUpdateService
	redis       *redisclient.Client
	interval    time.Duration
	runTimeout  time.Duration
	strategy    string
	logger      *zap.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(
	catalogSync *service.CatalogSyncService,
	priceUpdate *service.PriceUpdateService,
	redis *redisclient.Client,
	interval, runTimeout time.Duration,
	strategy string,
) *Scheduler {
	return &Scheduler{
		catalogSync: catalogSync,
		priceUpdate: priceUpdate,
		redis:       redis,
		interval:    interval,
		runTimeout:  runTimeout,
		strategy:    strategy,
		logger:      util.GetLogger(),
	}
}

// Start runs the scheduler loop until the context is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting scheduler",
		zap.Duration("interval", s.interval),
		zap.String("strategy", s.strategy))

	if lastRun, err := s.redis.GetLastRun(ctx, models.OperationCatalogSync); err == nil && !lastRun.IsZero() {
		s.logger.Info("Last catalog sync", zap.Time("at", lastRun))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if _, err := s.catalogSync.RunCatalogSync(runCtx); err != nil {
		if !errors.Is(err, service.ErrRunInProgress) {
			s.logger.Error("Scheduled catalog sync failed", zap.Error(err))
		}
	} else if err := s.redis.SetLastRun(runCtx, models.OperationCatalogSync, time.Now()); err != nil {
		s.logger.Warn("Failed to record catalog sync time", zap.Error(err))
	}

	if _, err := s.priceUpdate.RunPriceUpdate(runCtx, s.strategy); err != nil {
		if !errors.Is(err, service.ErrRunInProgress) {
			s.logger.Error("Scheduled price update failed", zap.Error(err))
		}
	} else if err := s.redis.SetLastRun(runCtx, models.OperationPriceUpdate, time.Now()); err != nil {
		s.logger.Warn("Failed to record price update time", zap.Error(err))
	}
}
