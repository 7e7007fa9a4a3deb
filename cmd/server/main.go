package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/fdtrend-go/internal/api"
	"github.com/irfndi/fdtrend-go/internal/api/handlers"
	"github.com/irfndi/fdtrend-go/internal/cache"
	"github.com/irfndi/fdtrend-go/internal/config"
	"github.com/irfndi/fdtrend-go/internal/database"
	"github.com/irfndi/fdtrend-go/internal/logging"
	"github.com/irfndi/fdtrend-go/internal/metrics"
	"github.com/irfndi/fdtrend-go/internal/middleware"
	"github.com/irfndi/fdtrend-go/internal/services"
	"github.com/irfndi/fdtrend-go/internal/telemetry"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const serviceName = "fdtrend-go"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type options struct {
	seed        bool
	showVersion bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	flags := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	flags.SetOutput(output)
	flags.BoolVar(&opts.seed, "seed", false, "replace all FD rates with sample data and exit")
	flags.BoolVar(&opts.showVersion, "version", false, "print the version and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return options{}, err
		}
		fmt.Fprintf(output, "%v\nUsage of %s:\n%s", err, serviceName, flags.FlagUsages())
		return options{}, err
	}
	return opts, nil
}

func telemetryConfig(cfg *config.Config) telemetry.TelemetryConfig {
	serviceVersion := cfg.Telemetry.ServiceVersion
	if version != "dev" {
		serviceVersion = version
	}
	return telemetry.TelemetryConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Exporter:       cfg.Telemetry.Exporter,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
	}
}

func run(args []string) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if opts.showVersion {
		fmt.Println(version)
		return nil
	}

	// A missing .env is normal outside local development.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)
	if envErr != nil {
		logger.WithError(envErr).Debug("No .env file loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	traceConfig := telemetryConfig(cfg)
	provider, err := telemetry.InitTelemetry(ctx, traceConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownWithTimeout(logger, "telemetry", provider.Shutdown)

	if traceConfig.Enabled && traceConfig.Exporter == "otlp" {
		hook, err := logging.NewOTLPHook(ctx, logging.OTLPConfig{
			Endpoint:       traceConfig.OTLPEndpoint,
			ServiceName:    traceConfig.ServiceName,
			ServiceVersion: traceConfig.ServiceVersion,
			Environment:    traceConfig.Environment,
		})
		if err != nil {
			logger.WithError(err).Warn("OTLP log export disabled")
		} else {
			logger.AddHook(hook)
			defer shutdownWithTimeout(logger, "log exporter", hook.Shutdown)
		}
	}

	db, err := database.NewPostgresConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	pool := database.NewTracedDB(db.Pool)
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}

	rateRepo := database.NewRateRepository(pool)
	predictionRepo := database.NewPredictionRepository(pool)
	userRepo := database.NewUserRepository(pool)

	if opts.seed {
		count, err := services.NewSeedService(rateRepo, nil, logger).Seed(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed sample data: %w", err)
		}
		logger.WithField("count", count).Info("Sample data seeded successfully")
		return nil
	}

	// The API keeps serving from Postgres when Redis is unavailable.
	var (
		redisHealth  handlers.HealthChecker
		bankCache    services.BankListCache
		profileCache handlers.ProfileCache
	)
	redisClient, err := database.NewRedisConnection(ctx, cfg.Redis, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, caching disabled")
	} else {
		defer redisClient.Close()
		redisHealth = redisClient
		bankCache = cache.NewBankCache(redisClient.Client, cfg.Redis.TTL(), logger)
		profileCache = cache.NewUserCache(redisClient.Client, cfg.Redis.TTL(), logger)
	}

	appMetrics := metrics.New()
	forecastOpts := []services.ForecastServiceOption{
		services.WithForecastRecorder(appMetrics),
		services.WithBusinessTracer(telemetry.NewBusinessTracerWith(provider.Tracer)),
	}
	var notifier *services.NotificationService
	if cfg.Telegram.Enabled {
		notifier, err = services.NewNotificationService(cfg.Telegram.BotToken, logger)
		if err != nil {
			return err
		}
		if notifier.Enabled() {
			forecastOpts = append(forecastOpts, services.WithNotifications(userRepo, notifier))
		} else {
			logger.Warn("Telegram enabled without a bot token, notifications disabled")
		}
	}

	rateService := services.NewRateService(rateRepo, bankCache, logger)
	forecastService := services.NewForecastService(rateRepo, predictionRepo, logger, cfg.Forecast.MaxHistoryWindow, forecastOpts...)

	auth := middleware.NewAuthMiddleware(cfg.Security.JWTSecret)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger)
	limiterStop := make(chan struct{})
	limiter.StartCleanup(5*time.Minute, limiterStop)
	defer close(limiterStop)

	healthHandler := handlers.NewHealthHandler(db, redisHealth, services.NewHostMonitor(10*time.Second), traceConfig.ServiceVersion)
	if notifier != nil && notifier.Enabled() {
		healthHandler.WithNotifier(notifier)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterConfig{
		ServiceName:    traceConfig.ServiceName,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger, appMetrics)
	api.SetupRoutes(router, api.Handlers{
		Users:     handlers.NewUserHandler(userRepo, profileCache, auth, cfg.Security, logger),
		Rates:     handlers.NewRateHandler(rateService, services.NewRateHistoryService(rateRepo), cfg.Forecast.DefaultSMAPeriod, logger),
		Forecasts: handlers.NewForecastHandler(forecastService, logger),
		Seed:      handlers.NewSeedHandler(services.NewSeedService(rateRepo, bankCache, logger), logger),
		Health:    healthHandler,
	}, auth, limiter, appMetrics, cfg.Features.EnableSeedEndpoint)

	cleanupService := services.NewCleanupService(predictionRepo, services.CleanupConfig{
		PredictionRetentionHours: cfg.Forecast.PredictionRetentionHours,
		CleanupIntervalMinutes:   cfg.Forecast.CleanupIntervalMinutes,
	}, logger)
	cleanupService.Start()
	defer cleanupService.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.Duration(cfg.Server.ReadTimeout, 10*time.Second),
		WriteTimeout:      cfg.Server.Duration(cfg.Server.WriteTimeout, 10*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.LogStartup(logger, serviceName, traceConfig.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		logging.LogShutdown(logger, serviceName, "signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Duration(cfg.Server.ShutdownTimeout, 30*time.Second))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited gracefully")
	return nil
}

func shutdownWithTimeout(logger *logrus.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.WithError(err).Errorf("Failed to shutdown %s", name)
	}
}
