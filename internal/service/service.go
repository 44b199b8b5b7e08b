package service

import (
	"context"
	"errors"
	"time"

	"catalog-sync-service/internal/models"
)

// ErrRunInProgress is returned when a sync or price update run is requested
// while another run of the same operation holds the run lock.
var ErrRunInProgress = errors.New("run already in progress")

// ErrInvalidStrategy is returned for strategy values outside the accepted
// set. The trigger surface rejects these before any engine logic runs.
var ErrInvalidStrategy = errors.New("invalid pricing strategy")

// Run lock keys, one per operation. The two operations are independent and
// may overlap with each other, but not with themselves.
const (
	lockKeyCatalogSync = "catalog-sync"
	lockKeyPriceUpdate = "price-update"
)

// Locker serializes runs of the same operation across instances
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// SyncEventPublisher publishes run-completed events. Publishing is
// best-effort; a broker failure never fails a run.
type SyncEventPublisher interface {
	PublishCatalogSyncCompleted(ctx context.Context, event *models.CatalogSyncCompletedEvent) error
	PublishPriceUpdateCompleted(ctx context.Context, event *models.PriceUpdateCompletedEvent) error
}
