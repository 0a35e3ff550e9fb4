package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	authapp "github.com/wyfcoding/distributorhub/internal/auth/application"
	authdomain "github.com/wyfcoding/distributorhub/internal/auth/domain"
	authhttp "github.com/wyfcoding/distributorhub/internal/auth/interfaces/http"
	catalogapp "github.com/wyfcoding/distributorhub/internal/catalog/application"
	catalogpersistence "github.com/wyfcoding/distributorhub/internal/catalog/infrastructure/persistence"
	cataloghttp "github.com/wyfcoding/distributorhub/internal/catalog/interfaces/http"
	distributorapp "github.com/wyfcoding/distributorhub/internal/distributor/application"
	distributorpersistence "github.com/wyfcoding/distributorhub/internal/distributor/infrastructure/persistence"
	distributorhttp "github.com/wyfcoding/distributorhub/internal/distributor/interfaces/http"
	notificationapp "github.com/wyfcoding/distributorhub/internal/notification/application"
	notificationdomain "github.com/wyfcoding/distributorhub/internal/notification/domain"
	notificationpersistence "github.com/wyfcoding/distributorhub/internal/notification/infrastructure/persistence"
	"github.com/wyfcoding/distributorhub/internal/notification/infrastructure/sender"
	notificationhttp "github.com/wyfcoding/distributorhub/internal/notification/interfaces/http"
	onboardingapp "github.com/wyfcoding/distributorhub/internal/onboarding/application"
	onboardingpersistence "github.com/wyfcoding/distributorhub/internal/onboarding/infrastructure/persistence"
	"github.com/wyfcoding/distributorhub/internal/onboarding/infrastructure/storage"
	onboardinghttp "github.com/wyfcoding/distributorhub/internal/onboarding/interfaces/http"
	"github.com/wyfcoding/distributorhub/internal/schema"
	"github.com/wyfcoding/distributorhub/pkg/cache"
	"github.com/wyfcoding/distributorhub/pkg/config"
	"github.com/wyfcoding/distributorhub/pkg/db"
	"github.com/wyfcoding/distributorhub/pkg/logger"
	"github.com/wyfcoding/distributorhub/pkg/metrics"
	"github.com/wyfcoding/distributorhub/pkg/middleware"
	"github.com/wyfcoding/distributorhub/pkg/mq"
	"github.com/wyfcoding/distributorhub/pkg/ratelimit"
	"github.com/wyfcoding/distributorhub/pkg/response"
	"github.com/wyfcoding/distributorhub/pkg/security"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

var configPath = flag.String("config", config.GetEnv("APP_CONFIG", "configs/distributor/config.toml"), "config file path")

const shutdownTimeout = 15 * time.Second

func main() {
	flag.Parse()

	// 1. config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logging
	if _, err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
		Service:    cfg.ServiceName,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("service exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	initialized := logger.LogDuration(ctx, "service initialized", "environment", cfg.Environment)

	// 3. metrics
	m := metrics.New(cfg.ServiceName)

	// 4. database
	database, err := db.Open(ctx, db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Warn("failed to close database", "error", err)
		}
	}()
	if cfg.Database.AutoMigrate {
		if err := schema.Migrate(ctx, database); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// 5. Redis: stats cache and rate limits
	var (
		statsCache cache.Cache = cache.Noop{}
		limiter    ratelimit.RateLimiter
	)
	if cfg.Redis.Enabled {
		rc, err := cache.New(ctx, cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return err
		}
		defer rc.Close()
		statsCache = rc
		if cfg.RateLimit.Enabled {
			limiter = ratelimit.NewRedisRateLimiter(rc.Client())
		}
	}

	// 6. notifications
	notificationRepo := notificationpersistence.NewNotificationRepository(database)
	notificationSender, handoff, closeSender, err := buildSender(cfg)
	if err != nil {
		return err
	}
	defer closeSender()
	dispatcher := notificationapp.NewDispatcher(notificationRepo, notificationSender, m, notificationapp.DispatcherConfig{
		QueueSize: cfg.Notification.QueueSize,
		Workers:   cfg.Notification.Workers,
		Timeout:   cfg.Notification.Timeout,
		Handoff:   handoff,
	})
	dispatcher.Start()

	// 7. repositories
	accountRepo := distributorpersistence.NewAccountRepository(database)
	categoryRepo := catalogpersistence.NewCategoryRepository(database)
	productRepo := catalogpersistence.NewProductRepository(database)
	categoryDirectory := catalogpersistence.NewCategoryDirectory(database)
	applicationRepo := onboardingpersistence.NewApplicationRepository(database)
	documents, err := storage.NewLocalStore(cfg.Uploads.Dir, int64(cfg.Uploads.MaxSizeMB)<<20)
	if err != nil {
		return err
	}

	// 8. application services
	policy := authdomain.DefaultPolicy()
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := security.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.ServiceName)

	authSvc := authapp.NewAuthService(accountRepo, hasher, tokens)
	provisioning := distributorapp.NewProvisioningService(accountRepo, hasher, m)
	accountCmd := distributorapp.NewAccountCommandService(accountRepo, categoryDirectory, hasher, database, dispatcher, m, cfg.Notification.PortalURL)
	accountQuery := distributorapp.NewAccountQueryService(accountRepo, categoryDirectory)
	catalogCmd := catalogapp.NewCatalogCommandService(categoryRepo, productRepo)
	catalogQuery := catalogapp.NewCatalogQueryService(categoryRepo, productRepo, accountQuery)
	intake := onboardingapp.NewIntakeService(applicationRepo, documents, database, statsCache, m)
	review := onboardingapp.NewReviewService(applicationRepo, provisioning, database, dispatcher, statsCache, m, cfg.Notification.PortalURL)
	applicationQuery := onboardingapp.NewQueryService(applicationRepo, policy, statsCache, cfg.Onboarding.StatsTTL)
	notificationQuery := notificationapp.NewNotificationQueryService(notificationRepo)

	if _, err := authSvc.EnsureAdmin(ctx, authapp.AdminSeed{
		Username: cfg.Auth.AdminUsername,
		Email:    cfg.Auth.AdminEmail,
		Password: cfg.Auth.AdminPassword,
	}); err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}

	// 9. HTTP
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	dev := cfg.IsDev()
	r := gin.New()
	r.MaxMultipartMemory = int64(cfg.Uploads.MaxSizeMB) << 20
	r.Use(
		response.Recovery(dev),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(cfg.HTTP.AllowOrigins),
		middleware.GinMetricsMiddleware(m),
		response.ErrorHandler(dev),
	)

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := database.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "service": cfg.ServiceName, "error": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "UP", "service": cfg.ServiceName, "timestamp": time.Now().Unix()})
	})
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	guard := authhttp.NewGuard(authSvc, policy)
	submitLimit, loginLimit := passThrough, passThrough
	if limiter != nil {
		limit := ratelimit.PerMinute(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
		submitLimit = middleware.RateLimitMiddleware(limiter, "submit", limit)
		loginLimit = middleware.RateLimitMiddleware(limiter, "login", limit)
	}

	api := r.Group("/api/v1")
	authhttp.NewHandler(authSvc).RegisterRoutes(api, guard, loginLimit)
	onboardinghttp.NewHandler(intake, review, applicationQuery).RegisterRoutes(api, onboardinghttp.Routes{
		Require:     guard.Require,
		Optional:    guard.Optional(),
		SubmitLimit: submitLimit,
	})
	distributorhttp.NewHandler(accountCmd, accountQuery).RegisterRoutes(api, guard.Require)
	cataloghttp.NewHandler(catalogCmd, catalogQuery).RegisterRoutes(api, guard.Require)
	notificationhttp.NewHandler(notificationQuery).RegisterRoutes(api, guard.Require(authdomain.OpViewNotifications))

	httpSrv := &http.Server{
		Addr:         net.JoinHostPort(cfg.HTTP.Host, fmt.Sprint(cfg.HTTP.Port)),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// 10. gRPC health
	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.GRPCRecoveryInterceptor(),
		middleware.GRPCLoggingInterceptor(m),
	))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)
	healthSrv.SetServingStatus(cfg.ServiceName, healthpb.HealthCheckResponse_SERVING)

	initialized()

	// 11. run
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.GRPC.Enabled {
		g.Go(func() error {
			lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
			if err != nil {
				return err
			}
			slog.Info("gRPC server starting", "addr", lis.Addr().String())
			return grpcSrv.Serve(lis)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down servers...")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		grpcSrv.GracefulStop()
		if stopErr := dispatcher.Stop(shutdownCtx); stopErr != nil {
			slog.Warn("notification dispatcher did not drain", "error", stopErr)
		}
		return err
	})

	return g.Wait()
}

func passThrough(c *gin.Context) { c.Next() }

// buildSender picks the notification sender. handoff is true when delivery is finished
// by cmd/notifier.
func buildSender(cfg *config.Config) (notificationdomain.Sender, bool, func(), error) {
	switch cfg.Notification.Driver {
	case "smtp":
		return sender.NewSMTPSender(smtpConfig(cfg)), false, func() {}, nil
	case "kafka":
		producer, err := mq.NewProducer(kafkaConfig(cfg))
		if err != nil {
			return nil, false, nil, err
		}
		closeFn := func() {
			if err := producer.Close(); err != nil {
				slog.Warn("failed to close kafka producer", "error", err)
			}
		}
		return sender.NewKafkaSender(producer, cfg.Kafka.NotificationTopic), true, closeFn, nil
	default:
		return sender.NewLogSender(), false, func() {}, nil
	}
}

func smtpConfig(cfg *config.Config) sender.SMTPConfig {
	return sender.SMTPConfig{
		Host:     cfg.Notification.SMTPHost,
		Port:     cfg.Notification.SMTPPort,
		Username: cfg.Notification.SMTPUser,
		Password: cfg.Notification.SMTPPass,
		From:     cfg.Notification.From,
	}
}

func kafkaConfig(cfg *config.Config) mq.KafkaConfig {
	return mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}
}
