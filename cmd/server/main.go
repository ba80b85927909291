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

	"github.com/fjod/go_store/internal/circuitbreaker"
	"github.com/fjod/go_store/internal/config"
	h "github.com/fjod/go_store/internal/http"
	"github.com/fjod/go_store/internal/logger"
	"github.com/fjod/go_store/internal/observability"
	"github.com/fjod/go_store/internal/poller"
	"github.com/fjod/go_store/internal/repository"
	"github.com/fjod/go_store/internal/service"
	"github.com/fjod/go_store/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log.Desugar())

	// run has returned before exitCode looks at it, so its deferred
	// disconnects are done by then.
	if code := exitCode(log, run(cfg, log)); code != 0 {
		os.Exit(code)
	}
}

// exitCode logs a failed run and flushes the logger, since os.Exit skips
// deferred calls.
func exitCode(log *zap.SugaredLogger, err error) int {
	if err == nil {
		return 0
	}
	log.Errorw("server stopped with error", "error", err)
	_ = log.Sync()
	return 1
}

func run(cfg config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Init(ctx, log.Named("otel"), observability.Config{
		ServiceName: "go_store",
		Environment: cfg.AppEnv,
		Version:     cfg.ServiceVersion,
		Export:      cfg.TraceExport,
		Endpoint:    cfg.TraceEndpoint,
		Insecure:    cfg.TraceInsecure,
		Headers:     cfg.TraceHeaders,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warnw("failed to flush traces", "error", err)
		}
	}()

	// Set up MongoDB connection
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer func() {
		if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
			log.Warnw("failed to disconnect from MongoDB", "error", err)
		}
	}()
	log.Infow("connected to MongoDB", "database", cfg.MongoDatabase)

	if err := repository.RunMigrations(mongoDB, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:                "catalog",
		ConsecutiveFailures: uint32(cfg.BreakerFailures),
		OpenTimeout:         cfg.BreakerOpenTimeout,
		IsSuccessful:        repository.IsExpectedError,
	}, log)

	cartRepo := repository.NewMongoCartRepository(mongoDB)
	productRepo := repository.NewGuardedProductRepository(repository.NewMongoProductRepository(mongoDB), breaker)
	userRepo := repository.NewMongoUserRepository(mongoDB)

	cartService := service.NewCartService(cartRepo, productRepo, log.Named("cart"),
		service.WithConflictRetries(cfg.ConflictRetries))
	productService := service.NewProductService(productRepo, log.Named("product"), nil)
	userService := service.NewUserService(userRepo, cartService, log.Named("user"))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Infow("redis ping succeeded", "addr", cfg.RedisAddr)
	sessions := session.NewRedisStore(redisClient, cfg.SessionTTL)

	if len(cfg.KafkaBrokers) > 0 {
		p := poller.NewPoller(cartService, log.Named("poller"), cfg.KafkaBrokers...)
		defer p.Close()
		go p.Run(ctx)
		log.Infow("checkout consumer started", "brokers", cfg.KafkaBrokers, "topic", poller.CheckoutTopic)
	}

	router, err := h.NewRouter(h.RouterConfig{
		Carts:              cartService,
		Products:           productService,
		Users:              userService,
		Sessions:           sessions,
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Log:                log.Named("http"),
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}
