package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/http"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/relay"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/cache"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
	"github.com/tuanvumaihuynh/product-catalog/internal/telemetry"
	"github.com/tuanvumaihuynh/product-catalog/internal/tracking"
	"github.com/tuanvumaihuynh/product-catalog/pkg/cmdutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running standalone application: %v\n", err)
		os.Exit(1)
	}
}

type standaloneConfig struct {
	Log      config.Log
	Postgres config.Postgres
	HTTP     config.HTTP
	Auth     config.Auth
	Catalog  config.Catalog
	Relay    config.Relay
	Kafka    config.Kafka
	Redis    config.Redis
	Otel     config.Otel
}

func (c standaloneConfig) Validate() error {
	return c.Auth.Validate()
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.New[standaloneConfig]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)

	var statsCache cache.StatisticsCache = cache.NoopStatisticsCache{}
	if cfg.Redis.URL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("error creating redis client: %w", err)
		}
		defer redisClient.Close()

		statsCache = cache.NewRedisStatisticsCache(redisClient, cfg.Redis.StatisticsTTL)
	} else {
		logger.WarnContext(ctx, "REDIS_URL is not set, statistics are not cached")
	}

	productRepository := repository.NewProductRepository(dbClient)
	supplierRepository := repository.NewSupplierRepository(dbClient)
	priceHistoryRepository := repository.NewPriceHistoryRepository(dbClient)
	stockHistoryRepository := repository.NewStockHistoryRepository(dbClient)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient)

	pipeline := tracking.NewPipeline(productRepository, priceHistoryRepository, stockHistoryRepository, outboxMsgRepository)

	services := http.Services{
		Product:  service.NewProductService(cfg.Catalog, logger, dbClient, productRepository, outboxMsgRepository, pipeline, statsCache),
		Supplier: service.NewSupplierService(logger, dbClient, supplierRepository, outboxMsgRepository),
		History:  service.NewHistoryService(productRepository, priceHistoryRepository, stockHistoryRepository),
	}

	interruptChan := cmdutil.InterruptChan()
	// Closed on interrupt so that every worker observes it.
	stopChan := make(chan struct{})
	var wg sync.WaitGroup

	httpSvc, err := http.New(cfg.HTTP, cfg.Auth, cfg.Catalog, logger, dbClient, services)
	if err != nil {
		return fmt.Errorf("error creating http service: %w", err)
	}
	httpCleanup, err := httpSvc.Run(ctx)
	if err != nil {
		return fmt.Errorf("error running http service: %w", err)
	}
	wg.Go(func() {
		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		<-stopChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := httpCleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	if cfg.Kafka.Enabled() {
		kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka)
		if err != nil {
			return fmt.Errorf("error creating kafka producer: %w", err)
		}
		defer kafkaProducer.Close()

		kafkaConsumer, err := mq.NewKafkaConsumer(ctx, cfg.Kafka, logger)
		if err != nil {
			return fmt.Errorf("error creating kafka consumer: %w", err)
		}
		defer kafkaConsumer.Close()

		eventCleanup, err := event.New(logger, kafkaConsumer, statsCache).Run(ctx)
		if err != nil {
			return fmt.Errorf("error running event service: %w", err)
		}
		wg.Go(func() {
			logger.InfoContext(ctx, "event service started")

			<-stopChan

			logger.InfoContext(ctx, "event service is shutting down")
			eventCleanup()

			logger.InfoContext(ctx, "event service is stopped")
		})

		relayCleanup := relay.NewService(cfg.Relay, logger, dbClient, outboxMsgRepository, kafkaProducer).Run(ctx)
		wg.Go(func() {
			logger.InfoContext(ctx, "relay service started")

			<-stopChan

			logger.InfoContext(ctx, "relay service is shutting down")
			relayCleanup()

			logger.InfoContext(ctx, "relay service is stopped")
		})
	} else {
		logger.WarnContext(ctx, "KAFKA_ADDRESSES is not set, outbox messages are not relayed")
	}

	sig := <-interruptChan
	logger.InfoContext(ctx, "received signal", slog.String("signal", sig.String()))
	close(stopChan)

	wg.Wait()

	return nil
}
