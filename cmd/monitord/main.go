package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/vladelaina/catime-monitor/internal/config"
	"github.com/vladelaina/catime-monitor/internal/httpx"
	"github.com/vladelaina/catime-monitor/internal/logging"
	"github.com/vladelaina/catime-monitor/internal/metrics"
	"github.com/vladelaina/catime-monitor/internal/platform"
	"github.com/vladelaina/catime-monitor/internal/scheduler"
	"github.com/vladelaina/catime-monitor/internal/secret"
	"github.com/vladelaina/catime-monitor/internal/server"
	"github.com/vladelaina/catime-monitor/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting catime-monitor")

	secrets, err := secret.OpenUserStore()
	if err != nil {
		logger.Error("failed to open secret store", "error", err)
		os.Exit(1)
	}
	if _, err := secret.OpenVault(cfg.Monitor.VaultPath, secrets); err != nil {
		logger.Error("failed to open credential vault", "error", err)
		os.Exit(1)
	}

	st, err := store.Load(cfg.Monitor.StorePath, logging.Component(logger, "store"))
	if err != nil {
		logger.Error("failed to load monitor store", "error", err)
		os.Exit(1)
	}
	logger.Info("monitor store loaded", "path", cfg.Monitor.StorePath, "count", len(st.List()), "active", st.ActiveIndex())

	fetcher := httpx.New(logging.Component(logger, "httpx"), cfg.Monitor.FetchTimeout)
	registry := platform.NewRegistry(fetcher, secrets, logging.Component(logger, "platform"))

	collector, err := metrics.NewFetchCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(st, registry, collector, logging.Component(logger, "scheduler"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.Handle("/api/display", server.DisplayHandler(st))

	srv := server.New(cfg.Server, logging.Component(logger, "server"), mux)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("catime-monitor started")

	waitForSignal(logger)

	logger.Info("shutting down")
	sched.Stop()
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
