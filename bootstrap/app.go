// Package bootstrap wires all components of the search-backend service.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"search-backend/config"
	"search-backend/consumer"
	"search-backend/domain"
	"search-backend/driver"
	"search-backend/gateway"
	"search-backend/index"
	"search-backend/logger"
	"search-backend/query"
	"search-backend/results"
	"search-backend/usecase"
	appOtel "search-backend/utils/otel"
)

// App holds all components of the search-backend service.
type App struct {
	httpServer    *http.Server
	dbDriver      *driver.DatabaseDriver
	redisConsumer *consumer.Consumer
	otelShutdown  appOtel.ShutdownFunc
}

// Run initializes all components and starts the service.
// It blocks until ctx is cancelled, then performs graceful shutdown.
func Run(ctx context.Context) error {
	// ── OpenTelemetry ──
	otelCfg := appOtel.ConfigFromEnv()
	otelShutdown, err := appOtel.InitProvider(ctx, otelCfg)
	if err != nil {
		fmt.Printf("Failed to initialize OpenTelemetry: %v\n", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	// ── Logger ──
	logger.InitWithOTel(otelCfg.Enabled)
	logger.Logger.Info("Starting search-backend",
		"service", otelCfg.ServiceName,
		"otel_enabled", otelCfg.Enabled,
	)

	// ── Load config ──
	appCfg, err := config.Load()
	if err != nil {
		logger.Logger.Error("Failed to load config", "err", err)
		return err
	}

	// ── Schemas ──
	schemas := domain.NewSchemaRegistry(domain.ArticleType{}, domain.PageType{})
	for _, key := range schemas.Keys() {
		if _, err := schemas.SchemaFor(key); err != nil {
			logger.Logger.Error("Invalid content type schema", "content_type", key, "err", err)
			return err
		}
	}

	// ── Drivers (infrastructure layer) ──
	dbDriver, err := driver.NewDatabaseDriverFromConfig(ctx)
	if err != nil {
		logger.Logger.Error("Failed to initialize database driver", "err", err)
		return err
	}

	msClient, err := initMeilisearchClient(appCfg)
	if err != nil {
		logger.Logger.Error("Failed to initialize Meilisearch", "err", err)
		dbDriver.Close()
		return err
	}
	searchDriver := driver.NewMeilisearchDriver(msClient)

	// ── Gateways (anti-corruption layer) ──
	source := gateway.NewRecordSourceGateway(dbDriver)
	engine := gateway.NewSearchEngineGateway(searchDriver)

	// ── Index registry ──
	registry := index.NewRegistry(engine, schemas, index.Options{
		SkipTypes:  appCfg.Search.SkipTypes,
		StopWords:  appCfg.Search.StopWords,
		QueryLimit: appCfg.Search.QueryLimit,
		Logger:     logger.Logger,
	})

	// ── Use cases (application layer) ──
	strategy, err := domain.NewStrategyEngine(
		appCfg.Search.UpdateStrategy,
		appCfg.Search.UpdateDelta,
		appCfg.Search.SkipTypes,
		schemas,
	)
	if err != nil {
		logger.Logger.Error("Invalid update strategy", "err", err)
		dbDriver.Close()
		return err
	}

	syncUsecase := usecase.NewSyncUsecase(source, strategy, registry, schemas, appCfg.Search.BatchSize, logger.Logger)
	reindexUsecase := usecase.NewReindexUsecase(syncUsecase, logger.Logger)

	compiler := query.NewCompiler(engine, registry, logger.Logger)
	mapper := results.NewMapper(source, logger.Logger)
	searchUsecase := usecase.NewSearchUsecase(compiler, mapper, appCfg.Search.QueryLimit, logger.Logger)

	// ── Redis Streams Consumer ──
	var redisConsumer *consumer.Consumer
	consumerCfg := consumerConfig(appCfg)
	if consumerCfg.Enabled {
		eventHandler := consumer.NewRecordEventHandler(syncUsecase, logger.Logger)
		redisConsumer, err = consumer.NewConsumer(consumerCfg, eventHandler, logger.Logger)
		if err != nil {
			logger.Logger.Error("Failed to create Redis Streams consumer", "err", err)
		} else if err := redisConsumer.Start(ctx); err != nil {
			logger.Logger.Error("Failed to start Redis Streams consumer", "err", err)
		}
	} else {
		logger.Logger.Info("Redis Streams consumer disabled")
	}

	// ── Periodic sync loop ──
	go runSyncLoop(ctx, syncUsecase)

	// ── HTTP server ──
	app := &App{
		httpServer:    newHTTPServer(appCfg, searchUsecase, reindexUsecase, registry, schemas),
		dbDriver:      dbDriver,
		redisConsumer: redisConsumer,
		otelShutdown:  otelShutdown,
	}

	go func() {
		logger.Logger.Info("http listen", "addr", appCfg.HTTP.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Error("http", "err", err)
		}
	}()

	<-ctx.Done()
	app.shutdown()
	return nil
}

// shutdown performs graceful shutdown of all components.
func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("http shutdown error", "err", err)
	}
	if a.redisConsumer != nil {
		a.redisConsumer.Stop()
	}
	if a.dbDriver != nil {
		a.dbDriver.Close()
	}

	otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer otelCancel()
	if err := a.otelShutdown(otelCtx); err != nil {
		fmt.Printf("Failed to shutdown OpenTelemetry: %v\n", err)
	}
}

const syncInterval = 1 * time.Minute

// runSyncLoop runs the periodic sync pass. Each pass re-applies the
// configured update strategy across every registered content type.
func runSyncLoop(ctx context.Context, syncUsecase *usecase.SyncUsecase) {
	defer func() {
		if r := recover(); r != nil {
			logger.Logger.Error("sync loop panic", "err", r)
		}
	}()

	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		report := syncUsecase.SyncAll(ctx)
		if report.Failed() {
			logger.Logger.Error("sync pass finished with failures", "results", report.Results)
		} else {
			logger.Logger.Info("sync pass finished", "types", len(report.Results))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func consumerConfig(cfg *config.Config) consumer.Config {
	consumerCfg := consumer.DefaultConfig()
	consumerCfg.Enabled = cfg.Consumer.Enabled
	consumerCfg.RedisURL = cfg.Consumer.RedisURL
	consumerCfg.StreamKey = cfg.Consumer.StreamKey
	consumerCfg.GroupName = cfg.Consumer.GroupName
	consumerCfg.ConsumerName = cfg.Consumer.ConsumerName
	return consumerCfg
}
