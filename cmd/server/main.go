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

	"order-import-service/config"
	"order-import-service/internal/api"
	"order-import-service/internal/broker"
	"order-import-service/internal/partner"
	"order-import-service/internal/ratelimit"
	"order-import-service/internal/redisclient"
	"order-import-service/internal/service"
	"order-import-service/internal/store"
	"order-import-service/internal/util"
	"order-import-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting order import service")

	if cfg.Observ.TracingEnabled {
		tp, err := util.InitTracer(cfg.Server.Env, cfg.Observ.JaegerEndpoint)
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
	}

	db, err := store.NewStore(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(logger); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	var limiter ratelimit.Limiter = ratelimit.NewLocalLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	if cfg.Redis.Enabled {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis unavailable, rate limiting is local to this instance", zap.Error(err))
		} else {
			defer redisClient.Close()
			log.Println("Redis connected")
			limiter = ratelimit.NewFallbackLimiter(
				ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
				limiter,
			)
		}
	}

	var notifier service.ImportNotifier = broker.LogNotifier{}
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicImportedOrders)
		defer producer.Close()
		log.Println("Kafka producer initialized")
		notifier = broker.NewImportPublisher(producer)
	}

	source := partner.NewClient(cfg.Source.URL, cfg.Source.Timeout)
	importService := service.NewImportService(db, source, notifier, cfg.Import.DefaultQuantity)
	orderService := service.NewOrderService(db)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var jobs api.JobQueue
	var importWorker *worker.ImportWorker
	if cfg.Import.Async {
		importWorker = worker.NewImportWorker(importService, cfg.Import.QueueSize)
		jobs = importWorker
		go func() {
			if err := importWorker.Start(workerCtx); err != nil {
				log.Printf("Import worker error: %v", err)
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(orderService, importService, jobs, limiter, db)
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

	if importWorker != nil {
		_ = importWorker.Stop()
		select {
		case <-importWorker.Done():
		case <-time.After(60 * time.Second):
			log.Println("Import worker still busy, exiting anyway")
		}
	}
	workerCancel()

	log.Println("Server exited")
}
