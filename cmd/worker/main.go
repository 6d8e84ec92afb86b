// Background worker entry point: consumes mirror-failure events and repairs
// the document mirror from the authoritative store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/labelwise/labelwise/internal/application/reconcile"
	"github.com/labelwise/labelwise/internal/config"
	"github.com/labelwise/labelwise/internal/infrastructure/database/postgres"
	"github.com/labelwise/labelwise/internal/infrastructure/database/postgres/repositories"
	"github.com/labelwise/labelwise/internal/infrastructure/messaging/kafka"
	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/logging"
	"github.com/labelwise/labelwise/internal/infrastructure/storage/minio"
	"github.com/labelwise/labelwise/pkg/errors"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// The default config path is optional; an explicitly given one is not.
	if configPath == defaultConfigPath {
		if _, err := os.Stat(configPath); err != nil {
			fmt.Fprintln(os.Stderr, "worker: no config file found, using defaults and environment")
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

	// The worker exists to move records between the relational store and the
	// mirror, so unlike the apiserver it requires all three backends.
	if !cfg.Kafka.Enabled {
		return errors.New(errors.CodeConfigError, "worker requires kafka.enabled")
	}
	if !cfg.MinIO.Enabled {
		return errors.New(errors.CodeConfigError, "worker requires minio.enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	records := repositories.NewIngredientRepo(db.Pool(), logger)

	mirror, err := minio.NewMirror(ctx, cfg.MinIO, logger)
	if err != nil {
		return err
	}

	producer := kafka.NewProducer(cfg.Kafka, logger)
	defer producer.Close()

	consumer := kafka.NewConsumer(cfg.Kafka, kafka.TopicMirrorFailed, logger)
	defer consumer.Close()

	reconciler := reconcile.New(records, mirror, producer, logger)

	logger.Info("worker consuming", logging.String("topic", kafka.TopicMirrorFailed))
	return consumer.Run(ctx, reconciler.Handle)
}
