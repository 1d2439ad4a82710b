// Command mintaged serves the Mintage registry over HTTP.
//
// Configuration comes from MINTAGE_* environment variables; see
// internal/config. Events are forwarded to Kafka and Redis when their
// connection settings are present.
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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/mintage"
	"github.com/xraph/mintage/api"
	"github.com/xraph/mintage/internal/config"
	"github.com/xraph/mintage/internal/telemetry"
	"github.com/xraph/mintage/observability"
	"github.com/xraph/mintage/plugin"
	"github.com/xraph/mintage/publisher/kafka"
	"github.com/xraph/mintage/publisher/redis"
	"github.com/xraph/mintage/store/memory"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mintaged exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("trace flush failed", "error", err)
		}
	}()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts, err := cfg.RegistryOptions()
	if err != nil {
		return err
	}
	opts = append(opts,
		mintage.WithLogger(logger),
		mintage.WithPlugin(observability.NewMetricsExtension(observability.NewPrometheusFactory(promReg))),
	)

	publishers, closePublishers, err := openPublishers(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePublishers()
	for _, p := range publishers {
		opts = append(opts, mintage.WithPlugin(p))
	}

	reg := mintage.New(memory.New(), opts...)
	if err := reg.Start(ctx); err != nil {
		return fmt.Errorf("start registry: %w", err)
	}
	defer func() {
		if err := reg.Stop(); err != nil {
			logger.Warn("registry stop failed", "error", err)
		}
	}()

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{Registry: promReg}))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	router.Mount("/", api.New(reg,
		api.WithJWTSecret([]byte(cfg.JWTSecret)),
		api.WithLogger(logger),
	))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("mintaged listening", "addr", cfg.HTTPAddr, "contract_account", cfg.ContractAccount)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("mintaged shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openPublishers connects the configured event publishers. The returned
// func closes every client that was opened.
func openPublishers(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]plugin.Plugin, func(), error) {
	var (
		plugins []plugin.Plugin
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		client, err := kafka.NewClient(cfg.KafkaBrokers)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, client.Close)
		plugins = append(plugins, kafka.New(client,
			kafka.WithTopic(cfg.KafkaTopic),
			kafka.WithLogger(logger),
		))
		logger.Info("kafka publisher enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, func() { _ = client.Close() })
		plugins = append(plugins, redis.New(client,
			redis.WithStream(cfg.RedisStream),
			redis.WithMaxLen(cfg.RedisMaxLen),
			redis.WithLogger(logger),
		))
		logger.Info("redis publisher enabled", "stream", cfg.RedisStream)
	}

	return plugins, closeAll, nil
}
