package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	applogger "github.com/LakshanUd/sl-go-tour-backend/common/logger"
	commonmw "github.com/LakshanUd/sl-go-tour-backend/common/middleware"
	"github.com/LakshanUd/sl-go-tour-backend/controllers"
	"github.com/LakshanUd/sl-go-tour-backend/database"
	"github.com/LakshanUd/sl-go-tour-backend/middleware"
	"github.com/LakshanUd/sl-go-tour-backend/models"
	awspkg "github.com/LakshanUd/sl-go-tour-backend/pkg/aws"
	"github.com/LakshanUd/sl-go-tour-backend/repository"
	"github.com/LakshanUd/sl-go-tour-backend/routes"
	"github.com/LakshanUd/sl-go-tour-backend/services"
)

func main() {
	_ = godotenv.Load()

	logger, err := applogger.New(os.Getenv("APP_ENV"), nil)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx := context.Background()
	cfg, err := LoadConfig(ctx, logger)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Ship logs to CloudWatch when enabled (disabled by default for local dev)
	if cfg.CloudWatchEnabled {
		if cw, err := newCloudWatchSink(ctx, cfg); err != nil {
			logger.Warn("CloudWatch logging unavailable", zap.Error(err))
		} else if teed, err := applogger.New(cfg.Env, cw); err == nil {
			logger = teed
			logger.Info("CloudWatch logging enabled", zap.String("group", cfg.CloudWatchLogGroup), zap.String("stream", cw.Stream()))
		}
	}
	defer logger.Sync() //nolint:errcheck

	mongoDB, err := database.ConnectMongo(ctx, logger, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoDB.Client().Disconnect(context.Background()) //nolint:errcheck
	if err := database.EnsureIndexes(ctx, mongoDB); err != nil {
		logger.Fatal("Failed to create indexes", zap.Error(err))
	}
	probes := map[string]controllers.Pinger{
		"mongo": func(ctx context.Context) error { return mongoDB.Client().Ping(ctx, nil) },
	}

	// Optional Redis fast path for webhook dedupe
	var events repository.WebhookEventStore = repository.NopWebhookEventStore{}
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable, webhook dedupe relies on MongoDB only", zap.Error(err))
		} else {
			defer rdb.Close() //nolint:errcheck
			events = repository.NewRedisWebhookEventStore(rdb)
			probes["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
	}

	// Optional payments ledger
	var payments repository.PaymentRepository
	if cfg.Postgres.Host != "" {
		gdb, err := database.ConnectPostgres(ctx, logger, cfg.Postgres, &models.Payment{})
		if err != nil {
			logger.Warn("Postgres unavailable, payments ledger disabled", zap.Error(err))
		} else {
			payments = repository.NewGormPaymentRepo(gdb)
			if sqlDB, err := gdb.DB(); err == nil {
				defer sqlDB.Close() //nolint:errcheck
				probes["postgres"] = sqlDB.PingContext
			}
		}
	}

	// AWS clients
	var snsClient awspkg.SNSPublisher
	if cfg.BookingSNSTopicARN != "" {
		awsCfg, endpoint, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			logger.Warn("AWS config unavailable, SNS disabled", zap.Error(err))
		} else {
			snsClient = awspkg.NewSNSClient(awsCfg, endpoint)
		}
	}

	// DI chain
	metrics := commonmw.NewMetrics("booking")
	publisher := services.NewEventPublisher(snsClient, cfg.BookingSNSTopicARN, logger)
	gateway := services.NewStripeGateway(services.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Currency:      cfg.StripeCurrency,
		FrontendURL:   cfg.FrontendURL,
	}, nil)

	cartRepo := repository.NewMongoCartRepository(mongoDB)
	bookingRepo := repository.NewMongoBookingRepository(mongoDB)
	resourceRepo := repository.NewMongoResourceRepository(mongoDB)

	cartService := services.NewCartService(cartRepo, logger)
	checkoutService := services.NewCheckoutService(cartRepo, bookingRepo, payments, gateway, metrics, logger)
	confirmationService := services.NewConfirmationService(services.ConfirmationDeps{
		Bookings:  bookingRepo,
		Carts:     cartRepo,
		Resources: resourceRepo,
		Payments:  payments,
		Events:    events,
		Gateway:   gateway,
		Publisher: publisher,
		Metrics:   metrics,
		EventTTL:  cfg.WebhookEventTTL,
	}, logger)
	bookingService := services.NewBookingService(bookingRepo, resourceRepo, publisher, logger)

	cartController := controllers.NewCartController(cartService, checkoutService, confirmationService, logger)
	bookingController := controllers.NewBookingController(bookingService, logger)
	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.TrustGatewayHeaders)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		applogger.RequestID(),
		commonmw.Recovery(logger),
		commonmw.RequestLogger(logger),
		commonmw.SecurityHeaders(),
		commonmw.CORS(cfg.AllowedOrigins),
		metrics.Middleware(),
		commonmw.Timeout(cfg.RequestTimeout),
	)

	r.GET("/health", controllers.Health(probes))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	limiter := commonmw.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 10*time.Minute)
	api := r.Group("/api", limiter.Middleware())
	routes.RegisterCartRoutes(api, auth, cartController)
	routes.RegisterBookingRoutes(api, auth, bookingController)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n := limiter.Sweep(); n > 0 {
					logger.Debug("Evicted idle rate limiters", zap.Int("count", n))
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Booking service started", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	<-quit
	logger.Info("Shutting down booking service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited cleanly")
}

func newCloudWatchSink(ctx context.Context, cfg *Config) (*awspkg.CloudWatchLogsClient, error) {
	awsCfg, endpoint, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return awspkg.NewCloudWatchLogsClient(ctx, awsCfg, endpoint, cfg.CloudWatchLogGroup, "booking")
}
