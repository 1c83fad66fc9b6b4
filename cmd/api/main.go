package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	_ "go.uber.org/automaxprocs"

	"github.com/zatekoja/symptomchecker/backend/internal/adapters/cache"
	"github.com/zatekoja/symptomchecker/backend/internal/adapters/database"
	"github.com/zatekoja/symptomchecker/backend/internal/adapters/events"
	"github.com/zatekoja/symptomchecker/backend/internal/api/handlers"
	"github.com/zatekoja/symptomchecker/backend/internal/api/middleware"
	"github.com/zatekoja/symptomchecker/backend/internal/api/routes"
	"github.com/zatekoja/symptomchecker/backend/internal/app"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/repositories"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
	"github.com/zatekoja/symptomchecker/backend/pkg/config"
	"github.com/zatekoja/symptomchecker/backend/pkg/retry"
	"github.com/zatekoja/symptomchecker/backend/pkg/secrets"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Secrets from Vault become env vars before config is read
	if res, err := secrets.ExportToEnv(ctx, secrets.LoadVaultConfigFromEnv(), nil); err != nil {
		log.Warn().Err(err).Msg("failed to load secrets from Vault")
	} else if res.Loaded > 0 {
		log.Info().Int("loaded", res.Loaded).Int("skipped", res.Skipped).Msg("secrets loaded from Vault")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env, cfg.LogLevel)
	logger := observability.GetLogger()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Redis is optional; an in-process cache keeps rate limits and photo caching working
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	healthChecks := map[string]routes.HealthCheck{}
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, using in-memory cache and event bus")
		cacheProvider = cache.NewMemoryAdapter()
		eventBus = events.NewMemoryEventBus()
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient.Client())
		eventBus = events.NewRedisEventBus(redisClient)
		healthChecks["redis"] = redisClient.Ping
		logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("redis client initialized")
	}

	var history repositories.AnalysisRepository
	if cfg.History.Enabled {
		policy := retry.DefaultConfig()
		policy.MaxTotalTimeout = 30 * time.Second

		pgClient, err := postgres.NewClient(ctx, &cfg.Database, policy)
		if err != nil {
			logger.Warn().Err(err).Msg("postgres unavailable, analysis history disabled")
		} else {
			defer pgClient.Close()
			adapter := database.NewAnalysisAdapter(pgClient.DB()).WithMetrics(metrics)
			if err := adapter.EnsureSchema(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to prepare analysis history schema, history disabled")
			} else {
				history = adapter
				healthChecks["postgres"] = pgClient.Ping
				logger.Info().Msg("analysis history enabled")
			}
		}
	}

	svc, err := app.NewServices(cfg, history, cacheProvider)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build services")
	}
	svc.Medication.WithEventBus(eventBus)
	if cfg.Model.APIKey == "" {
		logger.Warn().Str("provider", cfg.Model.Provider).Msg("model API key is not set; analyses will return the configuration fallback")
	}
	if cfg.Maps.APIKey == "" {
		logger.Warn().Msg("MAPS_API_KEY is not set; using offline geolocation provider")
	}

	router := routes.NewRouter(
		handlers.NewAnalysisHandler(svc.Diagnosis, cacheProvider).WithTrustedProxies(cfg.Server.TrustedProxies),
		handlers.NewMedicationHandler(svc.Medication),
		handlers.NewSessionStreamHandler(svc.Medication, eventBus).WithMetrics(metrics),
		handlers.NewCareHandler(svc.Care),
		handlers.NewGeolocationHandler(svc.Geo),
		handlers.NewPlacesPhotoHandler(cfg.Maps.APIKey, cacheProvider, metrics),
		middleware.NewCacheMiddleware(cacheProvider, metrics, nil),
		cfg.Server.AllowedOrigins,
		metrics,
	)
	if breaker, ok := svc.Geo.(interface{ Check(context.Context) error }); ok {
		healthChecks["maps"] = breaker.Check
	}
	for name, check := range healthChecks {
		router.WithHealthCheck(name, check)
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Open session streams end when the bus closes
	server.RegisterOnShutdown(func() {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing event bus")
		}
	})

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	// Let pending history writes finish before the pool closes
	svc.Diagnosis.Wait()

	logger.Info().Msg("server stopped")
}
