package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/use-agent/ecocal/api"
	"github.com/use-agent/ecocal/cache"
	"github.com/use-agent/ecocal/metrics"
	"github.com/use-agent/ecocal/sink"
)

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gather operation over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from config)")
	return cmd
}

func runServe(port int) error {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log, os.Stdout)
	slog.Info("ecocal starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"calendar", cfg.Calendar.URL,
	)

	// ── 3. Metrics ──────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(reg)

	// ── 4. Launch browser and gatherer ──────────────────────────────
	g, browser, err := newGatherer(cfg)
	if err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}
	defer browser.Close()
	g.SetRecorder(collector)

	// ── 5. Sinks (optional for the API) ─────────────────────────────
	deps := api.Deps{
		Gatherer: g,
		Cache:    cache.New(cfg.Cache.TTL),
		Metrics:  reg,
	}
	if sinks, err := sink.FromConfig(cfg.Sink); err != nil {
		slog.Warn("sinks unavailable, persist requests will be rejected", "error", err)
	} else {
		defer sinks.Close()
		deps.Sinks = sinks
	}

	// ── 6. Start HTTP server ────────────────────────────────────────
	startTime := time.Now()
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewRouter(deps, cfg, startTime),
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
	}

	// A gather can run for minutes; give it a bounded chance to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// browser.Close() runs via defer and kills Chrome.
	slog.Info("ecocal stopped")
	return nil
}
