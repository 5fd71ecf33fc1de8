package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ErikPlachta/sheetpipe/pkg/api"
	"github.com/ErikPlachta/sheetpipe/pkg/auth"
	"github.com/ErikPlachta/sheetpipe/pkg/cache"
	"github.com/ErikPlachta/sheetpipe/pkg/catalog"
	"github.com/ErikPlachta/sheetpipe/pkg/fetch"
	"github.com/ErikPlachta/sheetpipe/pkg/fetch/static"
	"github.com/ErikPlachta/sheetpipe/pkg/fetch/warehouse"
	"github.com/ErikPlachta/sheetpipe/pkg/observability"
	"github.com/ErikPlachta/sheetpipe/pkg/ownership"
	"github.com/ErikPlachta/sheetpipe/pkg/pipeline"
	r "github.com/ErikPlachta/sheetpipe/pkg/redis"
	"github.com/ErikPlachta/sheetpipe/pkg/reconcile"
	"github.com/ErikPlachta/sheetpipe/pkg/telemetry"
	"github.com/ErikPlachta/sheetpipe/pkg/writer"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Application encapsulates the sheetpipe application logic
type Application struct {
	config *Config
	logger *logrus.Logger

	redisClient  *redis.Client
	sweeper      *cache.Sweeper
	catalogSvc   catalog.Service
	apiSvc       api.Service
	healthServer *http.Server
}

// NewApplication creates a new application
func NewApplication(cfg *Config, logger *logrus.Logger) *Application {
	return &Application{
		config: cfg,
		logger: logger,
	}
}

// Start initializes and starts the application
func (a *Application) Start() error {
	// Validate configuration
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.logger.Info("Starting sheetpipe...")

	// Start metrics server
	observability.StartMetricsServer(a.config.MetricsAddr)
	a.logger.WithField("addr", a.config.MetricsAddr).Info("Started metrics server")

	// Start health check server if configured
	if a.config.HealthCheckAddr != "" {
		a.startHealthCheck()
	}

	// Redis-backed cache
	redisClient, err := r.NewClient(&a.config.Redis)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	a.redisClient = redisClient

	cacheStore := cache.NewStore(a.logger, redisClient, &a.config.Redis)
	a.sweeper = cache.NewSweeper(a.logger, cacheStore, &a.config.Cache)
	if err := a.sweeper.Start(); err != nil {
		return err
	}

	// Catalog
	catalogSvc, err := catalog.NewService(a.logger, &a.config.Catalog)
	if err != nil {
		return err
	}
	if err := catalogSvc.Start(); err != nil {
		return fmt.Errorf("failed to start catalog: %w", err)
	}
	a.catalogSvc = catalogSvc

	// Fetch gate and sources
	gate, err := fetch.NewGate(a.logger, &a.config.Fetch)
	if err != nil {
		return err
	}

	orch := fetch.NewOrchestrator(a.logger, gate)
	orch.Register(static.NewSource(gate))

	if a.config.Warehouse != nil {
		whClient, whErr := warehouse.NewClient(a.logger, a.config.Warehouse)
		if whErr != nil {
			return whErr
		}
		orch.Register(warehouse.NewSource(a.logger, whClient, gate, a.config.Warehouse))
	}

	// Auth gate
	validator, err := auth.NewValidator(&a.config.Auth)
	if err != nil {
		return err
	}

	// Workbook host and materialization collaborators
	host, err := a.config.Workbook.NewHost()
	if err != nil {
		return err
	}

	ownershipStore := ownership.NewSheetStore(a.logger, host, a.config.Workbook.OwnershipSheet)
	reconciler := reconcile.NewReconciler(a.logger)
	tableWriter := writer.NewWriter(a.logger, host)
	emitter := telemetry.NewLogEmitter(a.logger)

	// Pipeline facade
	pipelineSvc, err := pipeline.NewService(
		a.logger,
		&a.config.Pipeline,
		validator,
		catalogSvc,
		cacheStore,
		a.config.Cache.DefaultTTL(),
		orch,
		emitter,
		host,
		ownershipStore,
		reconciler,
		tableWriter,
	)
	if err != nil {
		return err
	}

	// HTTP API
	a.apiSvc = api.NewService(&a.config.API, pipelineSvc, catalogSvc, a.logger)
	if err := a.apiSvc.Start(context.Background()); err != nil {
		return err
	}

	a.logger.WithFields(logrus.Fields{
		"operations": len(catalogSvc.List()),
		"host_mode":  a.config.Workbook.Mode,
	}).Info("Sheetpipe started successfully")

	return nil
}

// Stop gracefully shuts down the application
func (a *Application) Stop() error {
	a.logger.Info("Shutting down sheetpipe...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.healthServer != nil {
		if err := a.healthServer.Shutdown(ctx); err != nil {
			a.logger.WithError(err).Error("Failed to shutdown health check server")
		}
	}

	if a.apiSvc != nil {
		if err := a.apiSvc.Stop(); err != nil {
			a.logger.WithError(err).Error("Failed to stop API service")
		}
	}

	if a.sweeper != nil {
		if err := a.sweeper.Stop(); err != nil {
			a.logger.WithError(err).Error("Failed to stop cache sweeper")
		}
	}

	if a.catalogSvc != nil {
		if err := a.catalogSvc.Stop(); err != nil {
			a.logger.WithError(err).Error("Failed to stop catalog service")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.WithError(err).Error("Failed to close redis client")
		}
	}

	return nil
}

func (a *Application) startHealthCheck() {
	a.logger.WithField("addr", a.config.HealthCheckAddr).Info("Starting health check server")

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if a.catalogSvc != nil {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("READY"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT READY"))
		}
	})

	a.healthServer = &http.Server{
		Addr:              a.config.HealthCheckAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := a.healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("Health check server failed")
		}
	}()
}
