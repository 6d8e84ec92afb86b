// API server entry point for labelwise.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/labelwise/labelwise/internal/config"
	"github.com/labelwise/labelwise/internal/engine"
	"github.com/labelwise/labelwise/internal/infrastructure/database/postgres"
	"github.com/labelwise/labelwise/internal/infrastructure/database/postgres/repositories"
	"github.com/labelwise/labelwise/internal/infrastructure/database/redis"
	"github.com/labelwise/labelwise/internal/infrastructure/messaging/kafka"
	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/logging"
	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/metrics"
	"github.com/labelwise/labelwise/internal/infrastructure/storage/minio"
	httpapi "github.com/labelwise/labelwise/internal/interfaces/http"
	"github.com/labelwise/labelwise/internal/providers"
)

// Build-time metadata, injected via -ldflags.
var (
	version   = "dev"
	gitCommit = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// The default config path is optional; an explicitly given one is not.
	if configPath == defaultConfigPath {
		if _, err := os.Stat(configPath); err != nil {
			fmt.Fprintln(os.Stderr, "apiserver: no config file found, using defaults and environment")
			configPath = ""
		}
	}
	loader, err := config.NewLoader(configPath)
	if err != nil {
		return err
	}
	cfg := loader.Current()

	logger, err := logging.NewLogger(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	logger.Info("starting labelwise apiserver",
		logging.String("version", version),
		logging.String("commit", gitCommit),
		logging.Int("port", cfg.Server.Port))

	if configPath != "" {
		loader.OnChange(func(*config.Config) {
			logger.Info("configuration file changed; most settings apply after restart")
		})
		loader.Watch(func(err error) {
			if err != nil {
				logger.Warn("config reload failed, keeping previous configuration", logging.Err(err))
			}
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Authoritative record store. The server does not start without it.
	db, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}
	records := repositories.NewIngredientRepo(db.Pool(), logger)
	sourceLog := repositories.NewSourceLogRepo(db.Pool(), logger)

	deps := engine.Deps{
		Config:    cfg,
		Records:   records,
		SourceLog: sourceLog,
		Metrics:   m,
		Logger:    logger,
	}

	// Optional infrastructure: the engine degrades gracefully without any of
	// these, so a disabled block simply leaves the dependency nil.
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
		deps.FactCache = redis.NewFactCache(rdb)
	}
	if cfg.MinIO.Enabled {
		mirror, err := minio.NewMirror(ctx, cfg.MinIO, logger)
		if err != nil {
			return err
		}
		deps.Mirror = mirror
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, logger)
		defer producer.Close()
		deps.Publisher = producer
	}

	registryOnChange := func(name, from, to string) {
		logger.Info("breaker state changed",
			logging.String("provider", name),
			logging.String("from", from),
			logging.String("to", to))
		m.BreakerTransitions.WithLabelValues(name, to).Inc()
	}
	sources, err := providers.NewRegistry(cfg.Providers, nil, registryOnChange)
	if err != nil {
		return err
	}
	for _, src := range sources.All() {
		deps.Sources = append(deps.Sources, src)
	}

	eng, err := engine.New(deps)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(cfg.Server.Mode, eng, registry, logger)
	server := httpapi.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	if err := server.Shutdown(context.Background()); err != nil {
		return err
	}
	return <-errCh
}
