package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sensemaker/internal/handler"
	"sensemaker/internal/hub"
	"sensemaker/internal/service"
	"sensemaker/internal/watcher"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	logger.Info("starting sensemaker", "backend", cfg.Ledger.Backend, "ledger", cfg.Ledger.Path,
		"in_memory", cfg.Ledger.InMemory, "author", cfg.Ledger.Author)

	l, err := openLedger(cfg.Ledger, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			logger.Error("ledger close failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := service.NewEventBus()
	svc := service.New(l, cfg.Ledger.Author, bus, logger)

	sseHub := hub.New(logger)
	go sseHub.Run(ctx)
	sseHub.Forward(ctx, bus)

	mux := http.NewServeMux()
	handler.New(svc, logger).Register(mux)
	mux.Handle("GET /events", sseHub)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.Chain(mux,
			handler.Recover(logger),
			handler.CORS,
			handler.Logger(logger),
		),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Bundles.Dir != "" {
		w := watcher.New(cfg.Bundles.Dir, svc, logger)
		regs, err := w.LoadAll(gctx)
		if err != nil {
			logger.Warn("some bundles were not registered", "error", err)
		}
		logger.Info("bundles loaded", "dir", cfg.Bundles.Dir, "count", len(regs))
		if cfg.Bundles.Watch {
			g.Go(func() error {
				if err := w.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}
	}

	g.Go(func() error {
		logger.Info("server listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}
