package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/dcfoodblog/backend/internal/api"
	"github.com/dcfoodblog/backend/internal/config"
	"github.com/dcfoodblog/backend/internal/engine"
	"github.com/dcfoodblog/backend/internal/storage"
)

func main() {
	// Setup Logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	entry := logger.WithField("service", "foodblog-api")

	// 1. Config
	cfg := config.Load()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		entry.Warnf("Unknown log level %q, using info", cfg.LogLevel)
	}

	entry.Info("Starting DC Food Blog API Service")

	// 2. Storage
	store, err := openStorage(cfg, entry)
	if err != nil {
		entry.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// 3. Engine
	eng, err := engine.NewEngine(cfg, entry, store, nil)
	if err != nil {
		entry.Fatalf("Failed to initialize engine: %v", err)
	}

	// 4. API Server
	server := api.NewServer(eng, cfg, entry)
	httpServer := server.HTTPServer(cfg.Server.Addr, cfg.Server.ReadHeaderTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go eng.Throttle.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		entry.WithField("addr", cfg.Server.Addr).Info("DC Food Blog API ready")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			entry.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		entry.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		entry.WithError(err).Error("Graceful shutdown failed")
	}
}

func openStorage(cfg *config.Config, entry *logrus.Entry) (storage.CatalogStorage, error) {
	switch cfg.Storage.Backend {
	case config.StorageMongo:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Storage.Timeout)
		defer cancel()
		return storage.NewMongoStorage(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, entry)
	default:
		entry.WithField("dir", cfg.Storage.DataDir).Info("Using file snapshot storage")
		return storage.NewFileStorage(cfg.Storage.DataDir)
	}
}
