// @title Leaf Doctor API
// @version 1.0
// @description Plant disease diagnosis from leaf photos, with trial and premium access.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
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

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	_ "github.com/pratik-mahalle/leafdoctor/docs"
	"github.com/pratik-mahalle/leafdoctor/internal/api/handlers"
	"github.com/pratik-mahalle/leafdoctor/internal/api/middleware"
	"github.com/pratik-mahalle/leafdoctor/internal/api/router"
	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/integrations"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/validator"
	"github.com/pratik-mahalle/leafdoctor/internal/repository/postgres"
	"github.com/pratik-mahalle/leafdoctor/internal/services"
	"github.com/pratik-mahalle/leafdoctor/internal/uploads"
	"github.com/pratik-mahalle/leafdoctor/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorWithErr(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	db, err := postgres.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := postgres.Migrate(ctx, db, cfg.Database.Driver)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"driver":  cfg.Database.Driver,
		"applied": applied,
	}).Info("Database ready")

	store, err := uploads.New(ctx, cfg.Uploads)
	if err != nil {
		return fmt.Errorf("failed to open upload store: %w", err)
	}

	oracle, err := integrations.NewOracle(ctx, cfg.Oracle)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	vision := integrations.NewVisionAdapter(oracle, cfg.Oracle.Timeout, log.WithComponent("vision"))

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	diagnosisRepo := postgres.NewDiagnosisRepository(db)
	analyticsRepo := postgres.NewAnalyticsRepository(db, cfg.Database.Driver)

	// Services
	userService := services.NewUserService(userRepo, cfg.Entitlement, cfg.Auth.BCryptCost, log)
	analyticsService := services.NewAnalyticsService(analyticsRepo, log)
	diagnosisService := services.NewDiagnosisService(diagnosisRepo, analyticsService, vision, store, log)
	authService := services.NewAuthService(userService, analyticsService, cfg.Auth, log)
	assistantService := services.NewAssistantService(oracle, userService, analyticsService, log)
	billingService := services.NewBillingService(userService, analyticsService, cfg.Stripe, cfg.Entitlement, log)

	val := validator.New()
	h := &router.Handlers{
		Health:    handlers.NewHealthHandler(db, cfg.Oracle.Provider, vision, log),
		Auth:      handlers.NewAuthHandler(authService, userService, cfg.Auth, log, val),
		Diagnosis: handlers.NewDiagnosisHandler(diagnosisService, userService, cfg.Uploads.MaxBytes, log),
		Trial:     handlers.NewTrialHandler(userService, analyticsService, log),
		Analytics: handlers.NewAnalyticsHandler(analyticsService, userService, log, val),
		Assistant: handlers.NewAssistantHandler(assistantService, log, val),
		Billing:   handlers.NewBillingHandler(billingService, log, val),
		Uploads:   handlers.NewUploadHandler(store, log),
	}

	limiters, cleaners, closeLimiters, err := newLimiters(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiters()

	if cfg.Housekeeping.Enabled {
		housekeeper := worker.NewHousekeeper(cfg.Housekeeping, store, cfg.Uploads.RetentionDays,
			cfg.RateLimit.LimiterIdleExpiry, log.WithComponent("housekeeping"), cleaners...)
		if err := housekeeper.Start(ctx); err != nil {
			return err
		}
		defer housekeeper.Stop()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h, limiters),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
			"uploads":     store.Backend(),
			"oracle":      cfg.Oracle.Provider,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

// newLimiters builds the request budgets. With Redis enabled the counters
// are shared by every instance; otherwise each process keeps its own.
func newLimiters(ctx context.Context, cfg *config.Config, log *logger.Logger) (router.Limiters, []worker.LimiterCleaner, func(), error) {
	perMinute := cfg.RateLimit.DiagnosePerMinute
	if perMinute <= 0 {
		perMinute = 1
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return router.Limiters{}, nil, nil, fmt.Errorf("redis ping failed: %w", err)
		}
		log.With("addr", cfg.Redis.Addr()).Info("Using Redis rate limits")

		closeFn := func() {
			if err := client.Close(); err != nil {
				log.WarnWithErr(err, "Failed to close Redis client")
			}
		}
		return router.Limiters{
			API:      middleware.NewRedisLimiter(client, "api", cfg.RateLimit.Burst, time.Second),
			Diagnose: middleware.NewRedisLimiter(client, "diagnose", perMinute, time.Minute),
		}, nil, closeFn, nil
	}

	api := middleware.NewMemoryLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	diagnose := middleware.NewMemoryLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	return router.Limiters{API: api, Diagnose: diagnose}, []worker.LimiterCleaner{api, diagnose}, func() {}, nil
}
