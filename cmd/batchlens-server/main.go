package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/batchlens/batchlens/internal/alerts"
	"github.com/batchlens/batchlens/internal/api"
	"github.com/batchlens/batchlens/internal/config"
	"github.com/batchlens/batchlens/internal/metrics"
	"github.com/batchlens/batchlens/internal/provider"
	"github.com/batchlens/batchlens/internal/scraper"
	"github.com/batchlens/batchlens/internal/stats"
	"github.com/batchlens/batchlens/internal/store"
	"github.com/batchlens/batchlens/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	uiDir := flag.String("ui-dir", "", "serve the dashboard static files from this directory (e.g. ui/dist); leave empty to disable")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("batchlens-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"dataset_source", cfg.Dataset.Source,
		"auth_mode", cfg.Server.Auth.Mode,
		"scraper_enabled", cfg.Scraper.Enabled,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Corpus snapshot store, seeded from the configured source.
	st := store.New()
	ds, err := provider.Load(cfg.Dataset.Source, cfg.Dataset.Path, time.Now())
	if err != nil {
		slog.Error("failed to load dataset", "source", cfg.Dataset.Source, "err", err)
		os.Exit(1)
	}
	st.Replace(ds)

	m := metrics.New()

	// Alerts engine evaluates rules on every corpus swap.
	engine := alerts.New(cfg.Alerts)

	// WebSocket hub pushes the KPI summary on swaps plus an optional timer.
	hub := ws.New(st, cfg.Server.BroadcastInterval)
	go hub.Run(ctx)
	m.RegisterClientCount(func() float64 { return float64(hub.Count()) })

	// onSwap fans a corpus replacement out to everything that reacts to
	// it: the file watcher, the scraper and the dataset endpoint all call
	// it after bumping the store revision.
	onSwap := func(rev uint64) {
		snap := st.Snapshot()
		m.ObserveSnapshot(rev, snap.Counts())
		engine.Evaluate(stats.KpiRollup(snap, snap))
		hub.Notify()
	}
	onSwap(st.Revision())

	// Optional corpus file watcher.
	if cfg.Dataset.Watch && cfg.Dataset.Source == provider.SourceFile {
		go func() {
			if err := provider.Watch(ctx, cfg.Dataset.Path, st, onSwap); err != nil && ctx.Err() == nil {
				slog.Error("dataset watcher stopped", "err", err)
			}
		}()
	}

	// Optional bioreactor gateway scraper.
	if cfg.Scraper.Enabled {
		go scraper.New(cfg.Scraper, st, onSwap).Run(ctx)
	}

	// Hot-reload alert rules when the config file changes on disk.
	go func() {
		err := config.Watch(ctx, *configPath, func(next *config.Config) {
			engine.UpdateConfig(next.Alerts)
		})
		if err != nil && ctx.Err() == nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// Combined HTTP server: REST API, WebSocket hub and Prometheus
	// exposition on HTTPPort.
	mux := http.NewServeMux()
	mux.Handle("/api/", api.New(st, engine, m, cfg.Server.Auth, onSwap))
	mux.Handle("/ws/stream", hub)
	mux.Handle("/metrics", m.Handler())

	// Optional: serve the pre-built dashboard from a local directory.
	// Usage:  ./bin/batchlens-server -config config.yaml -ui-dir ui/dist
	// The "/" catch-all serves index.html for any unknown path (SPA routing).
	if *uiDir != "" {
		fs := http.FileServer(http.Dir(*uiDir))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			// SPA fallback: if the requested file doesn't exist, serve index.html.
			path := *uiDir + r.URL.Path
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, *uiDir+"/index.html")
				return
			}
			fs.ServeHTTP(w, r)
		})
		slog.Info("serving UI static files", "dir", *uiDir)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: mux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("batchlens-server shutting down")
	srv.Shutdown(context.Background()) //nolint:errcheck
}
