// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wedding-vendor-workers/internal/common/config"
	"wedding-vendor-workers/internal/common/database"
	"wedding-vendor-workers/internal/common/logger"
	"wedding-vendor-workers/internal/common/observability"
	"wedding-vendor-workers/internal/matching"
	"wedding-vendor-workers/internal/recommend"
	"wedding-vendor-workers/internal/storage"
	"wedding-vendor-workers/pkg/registry"

	psc "wedding-vendor-workers/internal/workers/discovery/parse-search-criteria"
	rvi "wedding-vendor-workers/internal/workers/discovery/record-vendor-interest"
	rv "wedding-vendor-workers/internal/workers/discovery/recommend-vendors"
	sv "wedding-vendor-workers/internal/workers/discovery/search-vendors"
)

const registryPath = "configs/activity-registry.json"

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Build the matching engine ---
	scoringCfg := buildScoringConfig(cfg.Matching)
	ranker, err := matching.NewRanker(scoringCfg, log)
	if err != nil {
		zapLog.Fatal("invalid scoring configuration", zap.Error(err))
	}
	defer ranker.Release()

	vendors := storage.NewVendorRepository(pg.DB, log)
	recommendations := storage.NewRecommendationRepository(pg.DB, log)
	profiles := storage.NewProfileRepository(
		pg.DB, redis.Client,
		time.Duration(cfg.Matching.ProfileCacheTTL)*time.Second,
		log,
	)
	recommender := recommend.NewService(ranker, recommendations, log)

	zapLog.Info("Matching engine initialized",
		zap.String("distanceUnit", cfg.Matching.DistanceUnit),
		zap.Int("cacheTTLDays", cfg.Matching.CacheTTLDays),
	)

	// --- Registry consistency check ---
	if reg, err := registry.LoadRegistry(registryPath); err != nil {
		zapLog.Warn("activity registry not loaded", zap.Error(err))
	} else {
		for _, taskType := range reg.TaskTypes() {
			if _, ok := cfg.Workers[taskType]; !ok {
				zapLog.Warn("registered activity has no worker configuration",
					zap.String("taskType", taskType))
			}
		}
	}

	// --- Register Discovery Workers (4) ---
	if cfg.Workers[psc.TaskType].Enabled {
		handler := psc.NewHandler(
			&psc.Config{
				Timeout: time.Duration(cfg.Workers[psc.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, psc.TaskType, cfg.Workers[psc.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[sv.TaskType].Enabled {
		handler := sv.NewHandler(
			&sv.Config{
				Timeout:      time.Duration(cfg.Workers[sv.TaskType].Timeout) * time.Millisecond,
				DistanceUnit: scoringCfg.DistanceUnit,
			},
			vendors, log,
		)
		startWorker(zeebeClient, sv.TaskType, cfg.Workers[sv.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[rv.TaskType].Enabled {
		handler := rv.NewHandler(
			&rv.Config{
				Timeout:      time.Duration(cfg.Workers[rv.TaskType].Timeout) * time.Millisecond,
				DefaultLimit: 10,
			},
			profiles, vendors, recommender, log,
		)
		startWorker(zeebeClient, rv.TaskType, cfg.Workers[rv.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[rvi.TaskType].Enabled {
		handler := rvi.NewHandler(
			&rvi.Config{
				Timeout: time.Duration(cfg.Workers[rvi.TaskType].Timeout) * time.Millisecond,
			},
			recommendations, log,
		)
		startWorker(zeebeClient, rvi.TaskType, cfg.Workers[rvi.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All discovery workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = shutdownCtx

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// buildScoringConfig copies the mutable application config into the immutable
// tuning struct the ranking stage consumes.
func buildScoringConfig(m config.MatchingConfig) matching.ScoringConfig {
	cfg := matching.DefaultScoringConfig()

	if m.BudgetWeight+m.StyleWeight+m.LocationWeight+m.RatingWeight+m.AvailabilityWeight+m.PopularityWeight > 0 {
		cfg.Weights = matching.Weights{
			Budget:       m.BudgetWeight,
			Style:        m.StyleWeight,
			Location:     m.LocationWeight,
			Rating:       m.RatingWeight,
			Availability: m.AvailabilityWeight,
			Popularity:   m.PopularityWeight,
		}
	}
	if m.NeutralMidpoint > 0 {
		cfg.NeutralMidpoint = m.NeutralMidpoint
	}
	if m.TierPenalty > 0 {
		cfg.TierPenalty = m.TierPenalty
	}
	if m.MaxUsefulRadius > 0 {
		cfg.MaxUsefulRadius = m.MaxUsefulRadius
	}
	if m.PopularitySaturation > 0 {
		cfg.PopularitySaturation = m.PopularitySaturation
	}
	if m.DistanceUnit != "" {
		cfg.DistanceUnit = matching.DistanceUnit(m.DistanceUnit)
	}
	if m.CacheTTLDays > 0 {
		cfg.CacheTTL = time.Duration(m.CacheTTLDays) * 24 * time.Hour
	}
	cfg.PoolSize = m.ScoringPoolSize

	return cfg
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
