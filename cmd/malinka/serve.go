package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/malinka/malinka/internal/api"
	"github.com/malinka/malinka/internal/config"
	"github.com/malinka/malinka/internal/dashboard"
	"github.com/malinka/malinka/internal/health"
	"github.com/malinka/malinka/internal/metrics"
	"github.com/malinka/malinka/internal/store"
	"github.com/malinka/malinka/internal/watch"
)

const shutdownTimeout = 60 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	cfg, configPath, err := setup(cmd)
	if err != nil {
		return err
	}
	slog.Info("Malinka starting...", "config", configPath, "source", cfg.Data.Source)

	// Initialize components
	m := metrics.New()
	reg := dashboard.NewRegistry(dashboard.SettingsFrom(cfg))

	ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
	src, closeSrc, err := openSource(ctx, cfg.Data)
	if err != nil {
		cancel()
		return err
	}
	defer closeSrc()

	st := store.New(src)
	st.SetOnLoad(func(ds *store.Dataset, err error) {
		// A failed reload keeps the previous snapshot and reports no dataset.
		if ds != nil {
			m.DatasetLoaded(ds)
		}
	})
	st.Load(ctx)
	cancel()

	hc := health.NewChecker(src, m, cfg.Health)
	hc.Start()

	// Start HTTP server
	apiServer := api.NewServer(st, reg, hc, m, cfg.Listen)
	if err := apiServer.Start(); err != nil {
		hc.Stop()
		return err
	}

	// Data hot-reload
	var dataWatcher *watch.Watcher
	if cfg.Data.WatchEnabled() {
		dataWatcher, err = watch.New("data", []string{cfg.Data.Dir}, func() {
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()
			apiServer.Reload(ctx)
		}, watch.WithDebounce(cfg.Data.WatchDebounce), watch.WithExtensions(".csv"))
		if err != nil {
			slog.Warn("data hot-reload not available", "dir", cfg.Data.Dir, "err", err)
		}
	}

	// Config hot-reload; the directory is watched so editors that replace
	// the file are seen too.
	configWatcher, err := watch.New("config", []string{filepath.Dir(configPath)}, func() {
		newCfg, err := config.Load(configPath)
		if err != nil {
			slog.Error("config reload failed, keeping previous settings", "path", configPath, "err", err)
			return
		}
		slog.Info("reloading configuration...")
		reg.Reload(newCfg)
	}, watch.WithExtensions(filepath.Ext(configPath)))
	if err != nil {
		slog.Warn("config hot-reload not available", "err", err)
	}

	slog.Info("Malinka ready", "addr", cfg.Listen.Addr(), "watch_data", dataWatcher != nil)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down...", "signal", sig)

	// Graceful shutdown with timeout
	done := make(chan struct{})
	go func() {
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if dataWatcher != nil {
			dataWatcher.Stop()
		}
		apiServer.Stop()
		hc.Stop()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Malinka stopped")
	case <-time.After(shutdownTimeout):
		slog.Error("shutdown timed out, forcing exit", "timeout", shutdownTimeout)
		os.Exit(1)
	}
	return nil
}
