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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/topchat/topchat/server/internal/alerts"
	"github.com/topchat/topchat/server/internal/config"
	"github.com/topchat/topchat/server/internal/producer"
	"github.com/topchat/topchat/server/internal/sampler"
	"github.com/topchat/topchat/server/internal/session"
	"github.com/topchat/topchat/server/internal/telemetry"
	"github.com/topchat/topchat/server/internal/ws"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	configPath string
	envFile    string
	uiDir      string
}

func run(ctx context.Context, opts options) error {
	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	if opts.envFile != "" {
		if _, err := os.Stat(opts.envFile); err == nil {
			if err := godotenv.Load(opts.envFile); err != nil {
				return fmt.Errorf("load env file %q: %w", opts.envFile, err)
			}
			slog.Info("environment loaded", "file", opts.envFile)
		}
	}

	slog.Info("topchat-server starting", "version", version, "config", opts.configPath)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.uiDir != "" {
		cfg.Server.UIDir = opts.uiDir
	}
	level.Set(cfg.Server.Level())

	slog.Info("config loaded",
		"addr", cfg.Server.Addr(),
		"metrics_source", cfg.Metrics.Source,
		"interval", cfg.Producer.Interval,
		"inbox_capacity", cfg.Inbox.Capacity,
		"alert_rules", len(cfg.Alerts.Rules),
	)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.New(reg)

	src, err := sampler.New(cfg.Metrics)
	if err != nil {
		return err
	}

	registry := session.NewRegistry()
	inbox := session.NewInbox(cfg.Inbox.Capacity, metrics)
	hub := ws.NewHub(metrics)
	alertEngine := alerts.New(cfg.Alerts)

	prod := producer.New(src, registry, inbox, hub, cfg.Producer, metrics)
	prod.Observe(alertEngine.Evaluate)

	router := newRouter(routerDeps{
		sessions: ws.NewHandler(hub, registry, inbox, cfg.Session, metrics),
		registry: registry,
		hub:      hub,
		inbox:    inbox,
		alerts:   alertEngine,
		gatherer: reg,
		uiDir:    cfg.Server.UIDir,
	})

	if opts.configPath != "" {
		go func() {
			err := config.Watch(ctx, opts.configPath, func(next *config.Config) {
				level.Set(next.Server.Level())
				prod.SetIntervals(next.Producer.Interval, next.Producer.IdleInterval)
				alertEngine.SetRules(next.Alerts)
				slog.Info("config reloaded",
					"log_level", next.Server.Level(),
					"interval", next.Producer.Interval,
					"idle_interval", next.Producer.IdleInterval,
				)
			})
			if err != nil {
				slog.Error("config watch stopped", "err", err)
			}
		}()
	}

	prodDone := make(chan struct{})
	go func() {
		defer close(prodDone)
		prod.Run(ctx)
	}()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Server.Addr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			cancel()
			<-prodDone
			return fmt.Errorf("http server: %w", err)
		}
	}

	slog.Info("topchat-server shutting down")
	cancel()
	<-prodDone // closes the hub, which ends every session

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "err", err)
	}
	return nil
}
