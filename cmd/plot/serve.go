package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/planfold/plotd/internal/client"
	"github.com/planfold/plotd/internal/config"
	"github.com/planfold/plotd/internal/events"
	"github.com/planfold/plotd/internal/export"
	"github.com/planfold/plotd/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the diagram HTTP server",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create a backend client from
	// the CLI flags; the server reads its own configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Connect to the diagram backend.
		backend := client.NewHTTPClient(cfg.BackendURL, cfg.BackendToken)

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				backend.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (PLOTD_NATS_URL not set)")
		}

		// Create server components.
		srv := server.NewDiagramServer(backend, publisher)
		if cache := srv.Cache(); cache != nil {
			cache.SetTTL(cfg.CacheTTL)
		}

		// Mirror exports to S3 if a bucket is configured.
		if cfg.ExportS3Bucket != "" {
			uploader, err := export.NewS3Destination(
				context.Background(),
				cfg.ExportS3Bucket,
				cfg.ExportS3Prefix,
				cfg.ExportS3Region,
				cfg.ExportS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 export destination", "err", err)
			} else {
				srv.SetUploader(uploader)
				logger.Info("export S3 destination enabled", "bucket", cfg.ExportS3Bucket, "prefix", cfg.ExportS3Prefix)
			}
		}

		// Start HTTP server.
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		logger.Info("diagram server started",
			"http_addr", cfg.HTTPAddr,
			"backend_url", cfg.BackendURL,
			"cache_ttl", cfg.CacheTTL,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := backend.Close(); err != nil {
			logger.Error("error closing backend client", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
