// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"enrichment-workers/internal/common/camunda"
	"enrichment-workers/internal/common/config"
	"enrichment-workers/internal/common/database"
	"enrichment-workers/internal/common/logger"
	"enrichment-workers/internal/common/observability"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func(context.Context) error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err = operation(ctx); err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.NewStructured("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Error("config load failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	log, err := logger.NewFromSettings(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		bootLog.Error("logger setup failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log = log.WithFields(map[string]interface{}{
		"service":     cfg.App.Name,
		"environment": cfg.App.Environment,
	})

	if err := run(cfg, log); err != nil {
		log.Error("worker manager stopped with error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	log.Info("starting worker manager", map[string]interface{}{"version": cfg.App.Version})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.Warn("observability shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	zeebe, err := camunda.NewClient(ctx, camunda.ConfigFrom(cfg.Camunda))
	if err != nil {
		return err
	}
	defer zeebe.Close()
	log.Info("zeebe client connected", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

	backends, err := connectBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backends.Close()

	workers, err := registerWorkers(cfg, zeebe.GetClient(), backends, log, obs)
	if err != nil {
		return err
	}
	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	checks := backends.readinessChecks()
	checks = append(checks, readinessCheck{name: "zeebe", check: zeebe.HealthCheck})
	srv := newServer(cfg.Observability.MetricsAddress, checks, log)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	log.Info("health/metrics server listening", map[string]interface{}{"address": cfg.Observability.MetricsAddress})

	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("health/metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	for _, w := range workers {
		w.Stop()
	}

	log.Info("worker manager stopped gracefully", nil)
	return nil
}

// backends holds the clients opened for the enabled workers. Any of them may
// be nil.
type backends struct {
	redis    *database.RedisClient
	postgres *database.PostgresClient
	es       *database.ElasticsearchClient
}

func connectBackends(ctx context.Context, cfg *config.Config, log logger.Logger) (*backends, error) {
	b := &backends{}

	if needsRedis(cfg) {
		b.redis = database.NewRedis(cfg.Database.Redis)
		if err := retryWithBackoff(ctx, b.redis.Ping, 10, 2*time.Second, log, "Redis connection"); err != nil {
			b.Close()
			return nil, err
		}
		log.Info("redis connected", nil)
	}

	if config.IsWorkerEnabled(cfg, config.WorkerRenderDocument) && cfg.Template.Source == config.TemplateSourcePostgres {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.postgres = pg
		if err := retryWithBackoff(ctx, pg.Ping, 15, 2*time.Second, log, "PostgreSQL connection"); err != nil {
			b.Close()
			return nil, err
		}
		log.Info("postgres connected", nil)
	}

	if config.IsWorkerEnabled(cfg, config.WorkerRecordEntityStats) {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.es = es
		if err := retryWithBackoff(ctx, es.Ping, 15, 2*time.Second, log, "Elasticsearch connection"); err != nil {
			b.Close()
			return nil, err
		}
		log.Info("elasticsearch connected", nil)
	}

	return b, nil
}

func needsRedis(cfg *config.Config) bool {
	return config.IsWorkerEnabled(cfg, config.WorkerAnonymizeContent) ||
		config.IsWorkerEnabled(cfg, config.WorkerRestoreContent)
}

func (b *backends) readinessChecks() []readinessCheck {
	var checks []readinessCheck
	if b.redis != nil {
		checks = append(checks, readinessCheck{name: "redis", check: b.redis.Ping})
	}
	if b.postgres != nil {
		checks = append(checks, readinessCheck{name: "postgres", check: b.postgres.Ping})
	}
	if b.es != nil {
		checks = append(checks, readinessCheck{name: "elasticsearch", check: b.es.Ping})
	}
	return checks
}

func (b *backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.postgres != nil {
		_ = b.postgres.Close()
	}
}
