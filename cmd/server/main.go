package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisCache "github.com/juniorjunco/blog-pro/internal/adapter/cache/redis"
	"github.com/juniorjunco/blog-pro/internal/adapter/email"
	"github.com/juniorjunco/blog-pro/internal/adapter/memory"
	mongoAdapter "github.com/juniorjunco/blog-pro/internal/adapter/mongo"
	natsAdapter "github.com/juniorjunco/blog-pro/internal/adapter/nats"
	"github.com/juniorjunco/blog-pro/internal/adapter/screenshot"
	"github.com/juniorjunco/blog-pro/internal/adapter/storage/s3"
	"github.com/juniorjunco/blog-pro/internal/auth"
	"github.com/juniorjunco/blog-pro/internal/config"
	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/juniorjunco/blog-pro/internal/handler"
	"github.com/juniorjunco/blog-pro/internal/middleware"
	"github.com/juniorjunco/blog-pro/internal/platform/logger"
	"github.com/juniorjunco/blog-pro/internal/platform/metrics"
	"github.com/juniorjunco/blog-pro/internal/platform/tracer"
	"github.com/juniorjunco/blog-pro/internal/port"
	"github.com/juniorjunco/blog-pro/internal/router"
	"github.com/juniorjunco/blog-pro/internal/usecase"
	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	newsCollection        = "news"
	englishNewsCollection = "english_news"
)

type repositories struct {
	users  domain.UserRepository
	posts  domain.PostRepository
	newsES domain.NewsRepository
	newsEN domain.NewsRepository
}

func main() {
	defaultConfigPath := "config.yaml"
	if cp := os.Getenv("CONFIG_PATH"); cp != "" {
		defaultConfigPath = cp
	}
	configPath := pflag.String("config", defaultConfigPath, "path to the YAML config file or its directory")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 1. Logger
	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Configuration loaded successfully",
		zap.String("http_port", cfg.HTTP.Port),
		zap.String("database_driver", cfg.Database.Driver),
		zap.Bool("redis_enabled", cfg.Redis.Address != ""),
		zap.Bool("nats_enabled", cfg.NATS.URL != ""),
		zap.Bool("storage_enabled", cfg.Storage.Endpoint != ""),
		zap.String("metrics_port", cfg.Metrics.Port),
	)
	if cfg.UsesDefaultSecret() {
		appLogger.Warn("auth.jwt_secret is the built-in default; set BLOG_AUTH_JWT_SECRET before exposing this server")
	}

	ctx := context.Background()

	// 2. Tracing
	tp, err := tracer.InitTracer(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	checks := make(map[string]handler.Pinger)

	// 3. Storage backend
	var repos repositories
	switch cfg.Database.Driver {
	case "memory":
		appLogger.Warn("Using the in-memory database; data is lost on restart")
		repos = repositories{
			users:  memory.NewUserRepository(),
			posts:  memory.NewPostRepository(),
			newsES: memory.NewNewsRepository(),
			newsEN: memory.NewNewsRepository(),
		}
	default:
		mongoClient, err := mongoAdapter.NewMongoDBConnection(ctx, &cfg.Mongo)
		if err != nil {
			appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				appLogger.Error("Failed to disconnect MongoDB", zap.Error(err))
			} else {
				appLogger.Info("MongoDB connection closed.")
			}
		}()
		appLogger.Info("Successfully connected to MongoDB", zap.String("database", cfg.Mongo.Database))

		db := mongoClient.Database(cfg.Mongo.Database)
		userRepo := mongoAdapter.NewUserRepository(db)
		if err := userRepo.EnsureIndexes(ctx); err != nil {
			appLogger.Fatal("Failed to create user indexes", zap.Error(err))
		}
		repos = repositories{
			users:  userRepo,
			posts:  mongoAdapter.NewPostRepository(db),
			newsES: mongoAdapter.NewNewsRepository(db, newsCollection),
			newsEN: mongoAdapter.NewNewsRepository(db, englishNewsCollection),
		}
		checks["mongo"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) }
	}

	// 4. Optional collaborators
	var publisher port.EventPublisher
	if cfg.NATS.URL != "" {
		natsPublisher, err := natsAdapter.NewPublisher(&cfg.NATS, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	} else {
		appLogger.Info("NATS publisher not initialized (nats.url not set)")
	}

	var newsCache port.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := redisCache.NewRedisClient(ctx, &cfg.Redis, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				appLogger.Error("Failed to close Redis client", zap.Error(err))
			}
		}()
		newsCache = redisCache.NewCache(redisClient, appLogger)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		appLogger.Info("News cache disabled (redis.address not set)")
	}

	var images port.ImageStorage
	switch {
	case cfg.Storage.Endpoint != "":
		s3Storage, err := s3.NewStorage(ctx, &cfg.Storage, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize image storage", zap.Error(err))
		}
		images = s3Storage
	case cfg.Database.Driver == "memory":
		images = memory.NewImageStorage("memory://" + cfg.Storage.Bucket)
	default:
		appLogger.Warn("Image storage not configured (storage.endpoint not set); news image uploads will fail")
	}

	newsOpts := []usecase.NewsOption{usecase.WithPublisher(publisher)}
	if images != nil {
		newsOpts = append(newsOpts, usecase.WithImageStorage(images))
	}
	if newsCache != nil {
		newsOpts = append(newsOpts, usecase.WithCache(newsCache, cfg.Redis.TTL))
	}

	// 5. Use cases
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	metricsManager := metrics.NewMetricsManager(cfg.Metrics.Namespace)

	userUC := usecase.NewUserUseCase(repos.users, tokens, appLogger)
	postUC := usecase.NewPostUseCase(repos.posts, repos.users, publisher, appLogger)
	newsUC := usecase.NewNewsUseCase("es", repos.newsES, appLogger, newsOpts...)
	englishNewsUC := usecase.NewNewsUseCase("en", repos.newsEN, appLogger, newsOpts...)
	contactUC := usecase.NewContactUseCase(
		email.NewSMTPSender(cfg.SMTP, appLogger),
		cfg.Contact.Recipient,
		cfg.Contact.Subject,
		cfg.Contact.MaxAttachments,
		publisher,
		appLogger,
	)
	screenshotUC := usecase.NewScreenshotUseCase(screenshot.NewChromeRenderer(cfg.Screenshot, appLogger), appLogger)

	// 6. HTTP
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, appLogger)
	}

	mux := router.NewRouter(router.Handlers{
		User: handler.NewUserHandler(userUC, appLogger),
		Post: handler.NewPostHandler(postUC, metricsManager, appLogger),
		News: []router.NewsEdition{
			{Prefix: "/news", Handler: handler.NewNewsHandler(newsUC, cfg.HTTP.MaxUploadBytes, appLogger)},
			{Prefix: "/news-en", Handler: handler.NewNewsHandler(englishNewsUC, cfg.HTTP.MaxUploadBytes, appLogger)},
		},
		Contact:    handler.NewContactHandler(contactUC, cfg.HTTP.MaxUploadBytes, metricsManager, appLogger),
		Screenshot: handler.NewScreenshotHandler(screenshotUC, metricsManager, appLogger),
		Health:     handler.NewHealthHandler(checks, appLogger),
	}, router.Options{
		Verifier:       tokens,
		Metrics:        metricsManager,
		RateLimiter:    limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         appLogger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	metricsSrv := metrics.NewMetricsServer(cfg.Metrics.Port, metricsManager, appLogger)
	if metricsSrv != nil {
		go func() {
			appLogger.Info("Starting Prometheus metrics server", zap.String("port", cfg.Metrics.Port))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", zap.Error(err))
			}
		}()
	}

	// 7. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Prometheus metrics server shutdown failed", zap.Error(err))
		}
	}
	appLogger.Info("Server stopped")
}
