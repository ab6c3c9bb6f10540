package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Atmakurhemanthkumar/splitmate/internal/auth"
	"github.com/Atmakurhemanthkumar/splitmate/internal/blob"
	"github.com/Atmakurhemanthkumar/splitmate/internal/broadcast"
	"github.com/Atmakurhemanthkumar/splitmate/internal/config"
	"github.com/Atmakurhemanthkumar/splitmate/internal/identity"
	"github.com/Atmakurhemanthkumar/splitmate/internal/ledger"
	"github.com/Atmakurhemanthkumar/splitmate/internal/metrics"
	"github.com/Atmakurhemanthkumar/splitmate/internal/proofs"
	"github.com/Atmakurhemanthkumar/splitmate/internal/registry"
	"github.com/Atmakurhemanthkumar/splitmate/internal/server"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage/mongostore"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage/sqlite"
	"github.com/Atmakurhemanthkumar/splitmate/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New()
	hub := broadcast.NewHub(m)
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	blobs, err := blob.NewLocal(cfg.UploadDir, cfg.UploadsURL())
	if err != nil {
		return err
	}
	slog.Info("Serving uploads", "dir", cfg.UploadDir, "url", cfg.UploadsURL())

	reg := registry.New(store, registry.WithBroadcast(hub), registry.WithMetrics(m))
	ident := identity.New(store, reg, tokens, identity.WithMetrics(m))
	defer ident.Wait()
	led := ledger.New(store, reg, ledger.WithBroadcast(hub), ledger.WithMetrics(m))
	bridge := proofs.New(store, proofs.WithBlobStore(blobs), proofs.WithBroadcast(hub))

	handler := server.New(server.Deps{
		Tokens:    tokens,
		Identity:  ident,
		Registry:  reg,
		Ledger:    led,
		Proofs:    bridge,
		Store:     store,
		Hub:       hub,
		Metrics:   m,
		UploadDir: cfg.UploadDir,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.H2C(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "store", cfg.Store)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := mongostore.New(connectCtx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", "mongo", "database", cfg.MongoDB)
		return store, nil
	default:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", "sqlite", "database", cfg.DBPath)
		return store, nil
	}
}
