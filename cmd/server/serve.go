package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/lab-registry/internal/config"
	"github.com/iliyamo/lab-registry/internal/database"
	"github.com/iliyamo/lab-registry/internal/docstore"
	"github.com/iliyamo/lab-registry/internal/handler"
	"github.com/iliyamo/lab-registry/internal/logging"
	"github.com/iliyamo/lab-registry/internal/metrics"
	"github.com/iliyamo/lab-registry/internal/repository"
	"github.com/iliyamo/lab-registry/internal/router"
	"github.com/iliyamo/lab-registry/internal/service"
)

func newServe() *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Long:         "Start the HTTP API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), config.Load())
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logging.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	metrics.Init()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	guard := repository.NewReferenceGuard(store, log)
	deps := handler.Deps{
		Labs:       repository.NewLabRepo(store, log, guard),
		Zones:      repository.NewZoneRepo(store, log, guard),
		Catalog:    repository.NewCategoryRepo(store, log),
		Store:      store,
		Log:        log,
		BcryptCost: cfg.BcryptCost,
	}
	if cfg.Audit.Enabled {
		deps.Events = service.NewPublisher(cfg.Audit.AMQPURL, cfg.Audit.Queue, log)
		db, err := database.Open(cfg.Audit)
		if err != nil {
			log.Warn("audit listing disabled: mysql unavailable", zap.Error(err))
		} else {
			defer db.Close()
			deps.Audit = repository.NewAuditRepo(db)
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
	if rdb != nil {
		defer rdb.Close()
	}
	e := router.New(handler.NewHandler(deps), router.Options{
		JWTSecret: cfg.JWTSecret,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Redis:     rdb,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore returns the configured document store wrapped with latency
// metrics, and a function releasing it.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (docstore.Store, func(), error) {
	observe := metrics.ObserveStore(docstore.ErrNoDocuments)
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("using the in-memory store; data is lost on exit")
		return docstore.Instrument(docstore.NewMemory(), observe), func() {}, nil
	}
	client, db, err := database.OpenMongo(ctx, cfg.Mongo)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Warn("mongo disconnect", zap.Error(err))
		}
	}
	return docstore.Instrument(docstore.NewMongo(db), observe), closeFn, nil
}
