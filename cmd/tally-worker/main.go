package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/config"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/remote"
	"tally/internal/remote/firestore"
	"tally/internal/remote/memory"
	"tally/internal/storage"
	"tally/internal/store"
	tallysync "tally/internal/sync"
	"tally/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting tally-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.SyncUserID == "" {
		logger.Error("SYNC_USER_ID is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	local := storage.Open(cfg.SQLiteDBPath)
	defer local.Close()

	// the worker reads records straight from the shared local store; the
	// registry is only needed as the bridge's local side
	reg := store.NewRegistry(local)
	reg.Init(ctx)

	auth := remote.NewStaticAuth(cfg.SyncUserID)
	bridge, closeRemote, err := buildBridge(ctx, cfg, reg, auth)
	if err != nil {
		logger.Error("Remote backend initialization failed", log.FieldError, err)
		os.Exit(1)
	}
	defer closeRemote()
	bridge.AuthWait = cfg.SyncAuthWait

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("AMQP initialization failed", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(local, bridge)

	// recover anything missed while the worker was down, then consume
	if err := syncWorker.StartupSync(ctx); err != nil {
		logger.Error("Startup sync incomplete", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeChanges(gctx, func(msg *amqp.ChangeMessage) error {
			return syncWorker.HandleChange(gctx, msg)
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func buildBridge(ctx context.Context, cfg *config.Config, reg *store.Registry, auth remote.Auth) (*tallysync.Bridge, func(), error) {
	if cfg.RemoteBackend == "firestore" {
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		bridge := tallysync.New(reg, auth,
			firestore.NewCollection[core.Expense](client),
			firestore.NewCollection[core.Category](client),
			firestore.NewCollection[core.Budget](client))
		return bridge, func() { _ = client.Close() }, nil
	}

	bridge := tallysync.New(reg, auth,
		memory.NewCollection[core.Expense](),
		memory.NewCollection[core.Category](),
		memory.NewCollection[core.Budget]())
	return bridge, func() {}, nil
}
