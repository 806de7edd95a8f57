// Package main - entry point for the student analytics service.
//
// The service exposes four stateless analytics engines (dropout risk,
// performance forecasting, activity recommendation, student clustering)
// over a REST API, persists prediction history to PostgreSQL, and warms
// cohort insights in Redis on a background schedule.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: pure engine logic without external dependencies
// - Application: query handlers orchestrating engines, sources, and caches
// - Infrastructure: PostgreSQL repositories, Redis caches, model store, jobs
// - Interface: HTTP endpoints
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	// Application layer
	"github.com/dharanesh-gopal/extra-curricular-module/internal/application/query"

	// Domain layer
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/cluster"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/forecast"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/insight"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/recommend"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/risk"

	// Infrastructure layer
	"github.com/dharanesh-gopal/extra-curricular-module/internal/infrastructure/model"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/infrastructure/persistence/postgres"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/infrastructure/persistence/redis"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/infrastructure/scheduler"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/infrastructure/scheduler/jobs"

	// Interface layer
	httpserver "github.com/dharanesh-gopal/extra-curricular-module/internal/interface/http"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/interface/http/handlers"

	// Packages
	"github.com/dharanesh-gopal/extra-curricular-module/config"
	"github.com/dharanesh-gopal/extra-curricular-module/pkg/logger"
	"github.com/dharanesh-gopal/extra-curricular-module/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run assembles and starts the service. Split out of main so deferred
// cleanup runs before os.Exit.
func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Logging
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})
	slogger := setupSlog(cfg)
	slog.SetDefault(slogger)

	log.Info("starting student analytics service",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug))

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	// Without a database the service still serves inline requests; the
	// history endpoint and the scheduler stay disabled.
	var conn *postgres.Connection
	if cfg.Database.URL != "" {
		err := retry.StartupRetrier().Do(ctx, func(ctx context.Context) error {
			var connErr error
			conn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
			return connErr
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer conn.Close()

		if err := conn.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		log.Info("connected to PostgreSQL")

		if cfg.Database.AutoMigrate {
			migrator := postgres.NewMigrator(conn)
			if err := migrator.Migrate(ctx); err != nil {
				return fmt.Errorf("migrations failed: %w", err)
			}
			if status, err := migrator.Status(ctx); err == nil {
				applied := 0
				for _, m := range status {
					if m.IsApplied {
						applied++
					}
				}
				log.Info("migrations up to date",
					logger.Int("applied", applied),
					logger.Int("total", len(status)))
			}
		}
	} else {
		log.Warn("DATABASE_URL not set, running without persistence")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Redis (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var insightCache *redis.InsightCache
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			// Redis is an optimization, not a requirement.
			log.Warn("Redis unavailable, result caching disabled", logger.Err(err))
		} else {
			redisCache = cache
			insightCache = redis.NewInsightCache(cache, log)
			defer cache.Close()
			log.Info("connected to Redis", logger.String("addr", redisCfg.Addr()))
		}
	} else {
		log.Info("Redis disabled by configuration")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Model artifact
	// ─────────────────────────────────────────────────────────────────────────
	modelStore := model.NewStore(cfg.Model.Path, log)
	_, statErr := os.Stat(cfg.Model.Path)
	if err := modelStore.Load(ctx); err != nil {
		return fmt.Errorf("failed to load model artifact: %w", err)
	}
	if cfg.Model.PersistSynthesized && os.IsNotExist(statErr) {
		if err := modelStore.Save(ctx); err != nil {
			log.Warn("failed to persist synthesized model artifact", logger.Err(err))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. Engines
	// ─────────────────────────────────────────────────────────────────────────
	scorer := risk.NewScorer(modelStore)
	forecaster := forecast.NewForecaster()
	recommender := recommend.NewRecommender()
	clusterer := cluster.NewClusterer()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. Repositories and sources
	// ─────────────────────────────────────────────────────────────────────────
	var (
		metricsRepo *postgres.MetricsRepository
		snapshots   risk.SnapshotSource
		histories   forecast.HistorySource
		enrollments recommend.EnrollmentSource
		cohorts     cluster.CohortSource
		insights    insight.Repository
	)
	if conn != nil {
		metricsRepo = postgres.NewMetricsRepository(conn)
		snapshots = metricsRepo
		histories = metricsRepo
		enrollments = metricsRepo
		cohorts = metricsRepo
		insights = postgres.NewInsightRepository(conn)
	}

	var resultCache insight.ResultCache
	if insightCache != nil {
		resultCache = insightCache
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. Query handlers (CQRS read side)
	// ─────────────────────────────────────────────────────────────────────────
	predictDropout := query.NewPredictDropoutHandler(scorer, snapshots, insights, resultCache, log)
	predictPerformance := query.NewPredictPerformanceHandler(forecaster, histories, insights, resultCache, log)
	recommendActivity := query.NewRecommendActivityHandler(recommender, enrollments, insights, resultCache, log)
	clusterStudents := query.NewClusterStudentsHandler(clusterer, cohorts, insights, resultCache, log)

	var insightHistory *query.GetInsightHistoryHandler
	if insights != nil {
		insightHistory = query.NewGetInsightHistoryHandler(insights)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. Health checks
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	if conn != nil {
		healthChecker.AddCheck("database", handlers.NewDatabaseCheck(conn))
	}
	if redisCache != nil {
		healthChecker.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}
	healthChecker.AddCheck("dropout_model", handlers.NewModelCheck("dropout", scorer))

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP server
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Server.Port
	serverCfg.ReadTimeout = cfg.Server.ReadTimeout
	serverCfg.WriteTimeout = cfg.Server.WriteTimeout
	serverCfg.IdleTimeout = cfg.Server.IdleTimeout
	serverCfg.EnableCORS = cfg.Server.EnableCORS
	serverCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.Server.RateLimitPerMinute
	serverCfg.APIKeyHeader = cfg.Server.APIKeyHeader
	serverCfg.APIKeyHashes = cfg.Server.APIKeyHashes

	deps := httpserver.Dependencies{
		PredictDropoutHandler:     predictDropout,
		PredictPerformanceHandler: predictPerformance,
		RecommendActivityHandler:  recommendActivity,
		ClusterStudentsHandler:    clusterStudents,
		InsightHistoryHandler:     insightHistory,
		Logger:                    log,
		HealthChecker:             healthChecker,
	}
	if insightCache != nil {
		deps.CohortInsights = insightCache
	}

	server := httpserver.NewServer(serverCfg, deps)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. Scheduler
	// ─────────────────────────────────────────────────────────────────────────
	// Both jobs read from PostgreSQL, so the scheduler only runs when a
	// database is connected.
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled && conn != nil {
		sched = scheduler.NewScheduler(scheduler.SchedulerConfig{
			Logger:        slogger,
			Timezone:      cfg.App.Location,
			EnableMetrics: true,
		})

		if insightCache != nil {
			rebuildJob := jobs.NewRebuildCohortInsightsJob(
				clusterer,
				metricsRepo,
				insightCache,
				insights,
				slogger,
				jobs.RebuildCohortInsightsConfig{
					MinCohortSize:   cfg.Scheduler.MinCohortSize,
					PersistInsights: cfg.Scheduler.PersistCohortInsights,
					Timeout:         cfg.Scheduler.JobTimeout,
				},
			)
			interval := scheduler.NewIntervalSchedule(cfg.Scheduler.CohortRebuildInterval)
			if err := sched.Register(rebuildJob, interval); err != nil {
				return fmt.Errorf("failed to register rebuild job: %w", err)
			}
		}

		pruneSchedule, err := scheduler.ParseCronExpression(cfg.Scheduler.PruneSchedule)
		if err != nil {
			return fmt.Errorf("invalid SCHEDULER_PRUNE_SCHEDULE: %w", err)
		}
		pruneJob := jobs.NewPruneInsightsJob(
			postgres.NewInsightRepository(conn),
			slogger,
			jobs.PruneInsightsConfig{
				RetentionDays: cfg.Scheduler.HistoryRetentionDays,
				Timeout:       cfg.Scheduler.JobTimeout,
			},
		)
		if err := sched.Register(pruneJob, pruneSchedule); err != nil {
			return fmt.Errorf("failed to register prune job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		log.Info("scheduler started",
			logger.String("cohort_rebuild", cfg.Scheduler.CohortRebuildInterval.String()),
			logger.String("prune_schedule", cfg.Scheduler.PruneSchedule))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. Start and wait for shutdown
	// ─────────────────────────────────────────────────────────────────────────
	errCh := server.StartAsync()
	log.Info("HTTP server listening", logger.String("addr", serverCfg.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", logger.Err(err))
		}
	case <-ctx.Done():
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 13. Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if sched != nil {
		if err := sched.Stop(); err != nil {
			log.Warn("scheduler stop failed", logger.Err(err))
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown failed", logger.Err(err))
	}

	log.Info("service stopped")
	return nil
}

// setupSlog builds the slog logger used by the scheduler and jobs.
func setupSlog(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Observability.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Observability.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
