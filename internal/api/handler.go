package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/service"
	"catalog-sync-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TriggerPublisher enqueues a run for the trigger worker instead of running
// it on the request
type TriggerPublisher interface {
	PublishSyncTrigger(ctx context.Context, event *models.SyncTriggerEvent) error
}

// Handler contains HTTP handlers
type Handler struct {
	catalogSync *service.CatalogSyncService
	priceUpdate *service.PriceUpdateService
	publisher   TriggerPublisher
}

// NewHandler creates a new HTTP handler
func NewHandler(catalogSync *service.CatalogSyncService, priceUpdate *service.PriceUpdateService, publisher TriggerPublisher) *Handler {
	return &Handler{
		catalogSync: catalogSync,
		priceUpdate: priceUpdate,
		publisher:   publisher,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/sync/catalog", h.runCatalogSync)
		v1.POST("/sync/prices", h.runPriceUpdate)
		v1.POST("/sync/trigger", h.enqueueTrigger)
		v1.GET("/products", h.listProducts)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// runCatalogSync triggers a catalog synchronization run
func (h *Handler) runCatalogSync(c *gin.Context) {
	report, err := h.catalogSync.RunCatalogSync(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "A catalog sync is already running",
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Catalog sync failed",
			"details": err.Error(),
		})
		return
	}

	products, err := h.catalogSync.ListCatalog(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load catalog",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":   report,
		"products": products,
	})
}

// priceUpdateRequest is the body of a price update trigger
type priceUpdateRequest struct {
	Strategy string `json:"strategy"`
}

// runPriceUpdate triggers a price update run
func (h *Handler) runPriceUpdate(c *gin.Context) {
	var req priceUpdateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request body",
				"details": err.Error(),
			})
			return
		}
	}
	if req.Strategy == "" {
		req.Strategy = c.Query("strategy")
	}
	if req.Strategy == "" {
		req.Strategy = models.StrategyBoth
	}

	if !models.ValidStrategy(req.Strategy) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid strategy, expected sales_based, inventory_based or both",
		})
		return
	}

	report, err := h.priceUpdate.RunPriceUpdate(c.Request.Context(), req.Strategy)
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "A price update is already running",
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Price update failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report": report,
	})
}

// triggerRequest is the body of an async trigger
type triggerRequest struct {
	Operation string `json:"operation"`
	Strategy  string `json:"strategy"`
}

// enqueueTrigger publishes a trigger event for the worker to pick up,
// returning before the run happens
func (h *Handler) enqueueTrigger(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.Operation != models.OperationCatalogSync && req.Operation != models.OperationPriceUpdate {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid operation, expected catalog_sync or price_update",
		})
		return
	}
	if req.Operation == models.OperationPriceUpdate && req.Strategy != "" && !models.ValidStrategy(req.Strategy) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid strategy, expected sales_based, inventory_based or both",
		})
		return
	}

	event := &models.SyncTriggerEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSyncTrigger,
			Timestamp: time.Now(),
		},
		Operation: req.Operation,
		Strategy:  req.Strategy,
	}

	if err := h.publisher.PublishSyncTrigger(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to enqueue trigger",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"event_id":  event.EventID,
		"operation": event.Operation,
	})
}

// listProducts returns the locally stored catalog
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalogSync.ListCatalog(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load catalog",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
