package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/agritag/internal/config"
	"github.com/alfredjeanlab/agritag/internal/export"
	"github.com/alfredjeanlab/agritag/internal/logging"
	"github.com/alfredjeanlab/agritag/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the agritag HTTP server",
	GroupID: "system",
	// The server owns the storage; no client connection is made.
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := logging.New(cfg.LogLevel, cfg.LogFormat)

		srv := server.New(nil, logger)
		rt, err := openRuntime(context.Background(), cfg, logger, srv.Publisher())
		if err != nil {
			return err
		}
		srv.SetWorkspace(rt.ws)

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start the export scheduler if any destinations are configured.
		var scheduler *export.Scheduler
		if cfg.ExportInterval > 0 {
			dests := exportDestinations(context.Background(), cfg, logger)
			if len(dests) > 0 {
				scheduler = export.NewScheduler(rt.ws, dests, cfg.ExportInterval, logger)
				scheduler.Start()
				logger.Info("export scheduler started", "interval", cfg.ExportInterval)
			}
		}

		logger.Info("agritag server started",
			"http_addr", cfg.HTTPAddr,
			"storage", cfg.Storage,
			"auth", cfg.AuthToken != "",
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("export scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := rt.Close(); err != nil {
			logger.Error("error closing workspace", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
