package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-sync-service/config"
	"catalog-sync-service/internal/api"
	"catalog-sync-service/internal/broker"
	"catalog-sync-service/internal/pricing"
	"catalog-sync-service/internal/redisclient"
	"catalog-sync-service/internal/service"
	"catalog-sync-service/internal/shopify"
	"catalog-sync-service/internal/store"
	"catalog-sync-service/internal/util"
	"catalog-sync-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting catalog sync service")

	tp, err := util.InitTracer("catalog-sync-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSync)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	shopifyClient := shopify.NewClient(cfg.Shopify.ShopDomain, cfg.Shopify.AccessToken, cfg.Shopify.APIVersion)

	engine := pricing.NewEngine(cfg.Pricing.SalesThreshold)
	sales := service.NewSalesAggregator(shopifyClient, cfg.Pricing.SalesWindowDays)
	writer := service.NewPriceWriter(db, shopifyClient)

	catalogSyncService := service.NewCatalogSyncService(shopifyClient, db, redisClient, eventPublisher, cfg.Sync.LockTTL)
	priceUpdateService := service.NewPriceUpdateService(db, sales, engine, writer, redisClient, eventPublisher, cfg.Sync.LockTTL)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	triggerConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicSync, cfg.Kafka.ConsumerGroup)
	triggerWorker := worker.NewTriggerWorker(triggerConsumer, catalogSyncService, priceUpdateService, cfg.Sync.DefaultStrategy, cfg.Sync.Timeout)
	go func() {
		if err := triggerWorker.Start(workerCtx); err != nil {
			log.Printf("Trigger worker error: %v", err)
		}
	}()

	scheduler := worker.NewScheduler(catalogSyncService, priceUpdateService, redisClient, cfg.Sync.Interval, cfg.Sync.Timeout, cfg.Sync.DefaultStrategy)
	go scheduler.Start(workerCtx)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(catalogSyncService, priceUpdateService, eventPublisher)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	triggerWorker.Stop()

	log.Println("Server exited")
}
