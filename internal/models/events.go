package models

import "time"

// Event types
const (
	EventTypeSyncTrigger     = "SYNC_TRIGGER"
	EventTypeCatalogSyncDone = "CATALOG_SYNC_COMPLETED"
	EventTypePriceUpdateDone = "PRICE_UPDATE_COMPLETED"
)

// Trigger operations carried by SyncTriggerEvent.
const (
	OperationCatalogSync = "catalog_sync"
	OperationPriceUpdate = "price_update"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncTriggerEvent asks the service to run one of its two operations.
// Strategy is only consulted for price update triggers.
type SyncTriggerEvent struct {
	BaseEvent
	Operation string `json:"operation"`
	Strategy  string `json:"strategy,omitempty"`
}

// CatalogSyncCompletedEvent published after a catalog sync run
type CatalogSyncCompletedEvent struct {
	BaseEvent
	RunID          string `json:"run_id"`
	ProductsSynced int    `json:"products_synced"`
	VariantsSynced int    `json:"variants_synced"`
	Failures       int    `json:"failures"`
}

// PriceUpdateCompletedEvent published after a price update run
type PriceUpdateCompletedEvent struct {
	BaseEvent
	RunID        string `json:"run_id"`
	Strategy     string `json:"strategy"`
	Checked      int    `json:"checked"`
	Updated      int    `json:"updated"`
	RemoteFailed int    `json:"remote_failed"`
	Conflicts    int    `json:"conflicts"`
}
