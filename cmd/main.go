package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"go-relay-hub/internal/infrastructure/config"
	"go-relay-hub/internal/infrastructure/hub"
	"go-relay-hub/internal/infrastructure/logger"
	"go-relay-hub/internal/infrastructure/metrics"
	"go-relay-hub/internal/infrastructure/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	sctx := WithSignal(ctx)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	lCfg, err := logger.NewConfig(cfg.LogLevel, cfg.LogFormat, cfg.LogOutput, cfg.LogFilePath)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	log := logger.NewLogrusLogger(lCfg)

	opts := []hub.RelayOption{hub.WithEchoToSender(cfg.EchoToSender)}
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		recorder, err := metrics.NewRecorder(os.Getenv("APP_NAME"), log)
		if err != nil {
			return fmt.Errorf("creating metrics recorder: %w", err)
		}
		metricsHandler, err = metrics.NewPrometheusHandler(cfg.MetricsPrefix, log)
		if err != nil {
			return fmt.Errorf("creating prometheus exporter: %w", err)
		}
		opts = append(opts, hub.WithObserver(recorder))
		log.Infof("metrics enabled for relay %s", recorder.RelayID())
	}

	if cfg.AllowsAnyOrigin() {
		log.Warn("accepting WebSocket upgrades and CORS requests from any origin")
	}

	hubInstance := hub.New(log, opts...)

	// the hub must be accepting events before the first upgrade
	if err := hubInstance.Start(ctx); err != nil {
		return fmt.Errorf("starting hub: %w", err)
	}

	router := InitRouter(cfg, hubInstance, log, metricsHandler)
	httpSrv := server.NewHTTPServer(cfg.Addr, router)
	app := newApplication(log, cfg, httpSrv, hubInstance)

	log.Infof("relay listening on %s (echo to sender: %v)", cfg.Addr, cfg.EchoToSender)
	return app.Run(sctx)
}

type Application struct {
	logger  logger.Logger
	cfg     *config.Config
	httpSrv server.Server
	hub     *hub.Hub
}

func newApplication(
	logger logger.Logger,
	cfg *config.Config,
	httpSrv server.Server,
	hubInstance *hub.Hub,
) *Application {
	return &Application{
		logger:  logger.WithField("app", "relay"),
		cfg:     cfg,
		httpSrv: httpSrv,
		hub:     hubInstance,
	}
}

// Run serves until ctx is cancelled or the server fails, then stops the hub,
// which closes every connection with a normal closure, and drains the HTTP
// server.
func (app *Application) Run(ctx context.Context) error {
	eg, gctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return app.httpSrv.Start(gctx)
	})

	eg.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down")

		gracefulshutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			app.cfg.ShutdownTimeout,
		)
		defer cancel()

		if err := app.hub.Stop(gracefulshutdownCtx); err != nil {
			app.logger.Errorf("failed to stop hub: %v", err)
		}

		return app.httpSrv.Stop(gracefulshutdownCtx)
	})

	return eg.Wait()
}

func WithSignal(pctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(pctx)

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

		<-sigc

		cancel()
	}()

	return ctx
}
