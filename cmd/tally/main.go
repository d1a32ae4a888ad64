package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tally/internal/amqp"
	"tally/internal/config"
	"tally/internal/core"
	apphttp "tally/internal/http"
	"tally/internal/log"
	"tally/internal/remote"
	"tally/internal/remote/firestore"
	"tally/internal/remote/memory"
	"tally/internal/storage"
	"tally/internal/store"
	tallysync "tally/internal/sync"
)

func main() {
	// .env is for local development; absence is fine
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := storage.Open(cfg.SQLiteDBPath)
	defer local.Close()
	if !local.Available() {
		logger.Warn("Local store degraded to in-memory defaults", "path", cfg.SQLiteDBPath)
	}

	reg := store.NewRegistry(local)
	reg.Init(ctx)
	views := store.NewViews(reg)

	auth := remote.NewStaticAuth(cfg.SyncUserID)
	bridge, closeRemote, err := buildBridge(ctx, cfg, reg, auth)
	if err != nil {
		logger.Error("Remote backend initialization failed", log.FieldError, err)
		os.Exit(1)
	}
	defer closeRemote()
	bridge.AuthWait = cfg.SyncAuthWait

	if cfg.SyncUserID != "" {
		if err := bridge.Start(ctx); err != nil {
			logger.Error("Remote sync start failed", log.FieldError, err)
		}
	} else {
		logger.Info("Remote sync idle until an identity is configured")
	}
	defer bridge.Stop()

	var publisher apphttp.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("AMQP initialization failed", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Change bus connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Change bus disabled, pushing through the bridge directly")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Registry:       reg,
		Views:          views,
		Local:          local,
		Bridge:         bridge,
		Publisher:      publisher,
		UserID:         cfg.SyncUserID,
		Logger:         logger.WithComponent(log.ComponentHTTP),
		StatsCacheSize: cfg.StatsCacheSize,
		StatsCacheTTL:  cfg.StatsCacheTTL,
	})
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting tally server", "port", cfg.Port, "remote_backend", cfg.RemoteBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// buildBridge wires the configured remote backend into a sync bridge. The
// returned closer releases the backend connection, a no-op for memory.
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
