package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-backoffice/config"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/broker"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/cache"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/database/postgres"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/i18n"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/mailer"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/middleware"
	"github.com/fekuna/omnipos-backoffice/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	catH "github.com/fekuna/omnipos-backoffice/internal/category/handler"
	catRepoPkg "github.com/fekuna/omnipos-backoffice/internal/category/repository"
	catUCPkg "github.com/fekuna/omnipos-backoffice/internal/category/usecase"

	custH "github.com/fekuna/omnipos-backoffice/internal/customer/handler"
	custRepoPkg "github.com/fekuna/omnipos-backoffice/internal/customer/repository"
	custUCPkg "github.com/fekuna/omnipos-backoffice/internal/customer/usecase"

	discH "github.com/fekuna/omnipos-backoffice/internal/discount/handler"
	discRepoPkg "github.com/fekuna/omnipos-backoffice/internal/discount/repository"
	discUCPkg "github.com/fekuna/omnipos-backoffice/internal/discount/usecase"

	invH "github.com/fekuna/omnipos-backoffice/internal/inventory/handler"
	invRepoPkg "github.com/fekuna/omnipos-backoffice/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-backoffice/internal/inventory/usecase"

	loyH "github.com/fekuna/omnipos-backoffice/internal/loyalty/handler"
	loyRepoPkg "github.com/fekuna/omnipos-backoffice/internal/loyalty/repository"
	loyUCPkg "github.com/fekuna/omnipos-backoffice/internal/loyalty/usecase"

	ordH "github.com/fekuna/omnipos-backoffice/internal/order/handler"
	ordListenerPkg "github.com/fekuna/omnipos-backoffice/internal/order/listener"
	ordRepoPkg "github.com/fekuna/omnipos-backoffice/internal/order/repository"
	ordUCPkg "github.com/fekuna/omnipos-backoffice/internal/order/usecase"

	otpH "github.com/fekuna/omnipos-backoffice/internal/otp/handler"
	otpRepoPkg "github.com/fekuna/omnipos-backoffice/internal/otp/repository"
	otpUCPkg "github.com/fekuna/omnipos-backoffice/internal/otp/usecase"

	prodH "github.com/fekuna/omnipos-backoffice/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-backoffice/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-backoffice/internal/product/usecase"

	poH "github.com/fekuna/omnipos-backoffice/internal/purchasing/handler"
	poRepoPkg "github.com/fekuna/omnipos-backoffice/internal/purchasing/repository"
	poUCPkg "github.com/fekuna/omnipos-backoffice/internal/purchasing/usecase"

	retH "github.com/fekuna/omnipos-backoffice/internal/returns/handler"
	retRepoPkg "github.com/fekuna/omnipos-backoffice/internal/returns/repository"
	retUCPkg "github.com/fekuna/omnipos-backoffice/internal/returns/usecase"

	stH "github.com/fekuna/omnipos-backoffice/internal/stocktake/handler"
	stRepoPkg "github.com/fekuna/omnipos-backoffice/internal/stocktake/repository"
	stUCPkg "github.com/fekuna/omnipos-backoffice/internal/stocktake/usecase"

	supH "github.com/fekuna/omnipos-backoffice/internal/supplier/handler"
	supRepoPkg "github.com/fekuna/omnipos-backoffice/internal/supplier/repository"
	supUCPkg "github.com/fekuna/omnipos-backoffice/internal/supplier/usecase"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, gRPC health server and order event listener",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
}

func newLogger(cfg *config.Config) logger.ZapLogger {
	return logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
}

func postgresConfig(cfg *config.Config) *postgres.Config {
	return &postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	}
}

func listenAddr(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.LoadEnv()
	appLogger := newLogger(cfg)
	defer appLogger.Sync()

	if err := i18n.Init(); err != nil {
		appLogger.Warn("Failed to load locales, falling back to English messages", zap.Error(err))
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	pointsPerUnit, err := decimal.NewFromString(cfg.Loyalty.PointsPerUnit)
	if err != nil {
		return fmt.Errorf("invalid LOYALTY_POINTS_PER_UNIT %q: %w", cfg.Loyalty.PointsPerUnit, err)
	}

	db, err := postgres.NewPostgres(postgresConfig(cfg))
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if migrateOnStart {
		applied, err := postgres.Migrate(cmd.Context(), db)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		appLogger.Info("Migrations applied", zap.Strings("files", applied))
	}

	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// Order events go to Kafka when brokers are configured, otherwise they
	// are delivered in-process.
	var (
		publisher     broker.Publisher
		kafkaConsumer *broker.KafkaConsumer
		localBus      *broker.LocalBus
	)
	if len(cfg.Kafka.Brokers) > 0 {
		brokerCfg := &broker.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic, GroupID: cfg.Kafka.GroupID}
		producer := broker.NewProducer(brokerCfg)
		defer producer.Close()
		kafkaConsumer = broker.NewConsumer(brokerCfg)
		defer kafkaConsumer.Close()
		publisher = producer
		appLogger.Info("Using Kafka for order events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	} else {
		localBus = broker.NewLocalBus()
		publisher = localBus
		appLogger.Info("No Kafka brokers configured, delivering order events in-process")
	}

	var sender mailer.Sender
	if cfg.SMTP.Host != "" {
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		sender = mailer.NewLogSender(appLogger)
	}

	// Repositories
	catRepo := catRepoPkg.NewPGRepository(db)
	custRepo := custRepoPkg.NewPGRepository(db)
	supRepo := supRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	discRepo := discRepoPkg.NewPGRepository(db)
	loyRepo := loyRepoPkg.NewPGRepository(db)
	ordRepo := ordRepoPkg.NewPGRepository(db)
	poRepo := poRepoPkg.NewPGRepository(db)
	stRepo := stRepoPkg.NewPGRepository(db)
	retRepo := retRepoPkg.NewPGRepository(db)
	otpRepo := otpRepoPkg.NewPGRepository(db)

	// Use cases
	catUC := catUCPkg.NewCategoryUseCase(catRepo, appLogger)
	custUC := custUCPkg.NewCustomerUseCase(custRepo, appLogger)
	supUC := supUCPkg.NewSupplierUseCase(supRepo, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, redisClient, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, redisClient, appLogger)
	discUC := discUCPkg.NewDiscountUseCase(discRepo, appLogger)
	loyUC := loyUCPkg.NewLoyaltyUseCase(loyRepo, pointsPerUnit, appLogger)
	ordUC := ordUCPkg.NewOrderUseCase(ordRepo, prodUC, discUC, publisher, appLogger)
	poUC := poUCPkg.NewPurchasingUseCase(poRepo, supUC, prodUC, appLogger)
	stUC := stUCPkg.NewStockTakeUseCase(stRepo, prodUC, appLogger)
	retUC := retUCPkg.NewReturnUseCase(retRepo, ordUC, appLogger)
	otpLimiter := middleware.NewKeyedLimiter(rate.Limit(float64(cfg.OTP.SendPerMinute)/60), cfg.OTP.SendBurst)
	otpUC := otpUCPkg.NewOTPUseCase(otpRepo, sender, otpLimiter, cfg.OTP.TTL, appLogger)

	var reader broker.Reader
	if kafkaConsumer != nil {
		reader = kafkaConsumer
	}
	ordListener := ordListenerPkg.NewOrderListener(reader, discUC, loyUC, appLogger)
	if localBus != nil {
		localBus.Subscribe(ordListener.Handle)
	}

	invHandler := invH.NewInventoryHandler(invUC, appLogger)
	discHandler := discH.NewDiscountHandler(discUC, appLogger)

	router := server.NewRouter(server.RouterConfig{
		Logger: appLogger,
		Health: db.PingContext,
		OTP:    otpH.NewOTPHandler(otpUC, appLogger),
		API: []server.RouteRegistrar{
			catH.NewCategoryHandler(catUC, appLogger),
			prodH.NewProductHandler(prodUC, appLogger),
			invHandler,
			custH.NewCustomerHandler(custUC, appLogger),
			supH.NewSupplierHandler(supUC, appLogger),
			discHandler,
			loyH.NewLoyaltyHandler(loyUC, appLogger),
			ordH.NewOrderHandler(ordUC, appLogger),
			poH.NewPurchasingHandler(poUC, appLogger),
			stH.NewStockTakeHandler(stUC, appLogger),
			retH.NewReturnHandler(retUC, appLogger),
		},
	})
	httpServer := &http.Server{
		Addr:              listenAddr(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, healthServer := server.NewGRPCServer(appLogger, invHandler, discHandler)
	lis, err := net.Listen("tcp", listenAddr(cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		appLogger.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		return grpcServer.Serve(lis)
	})

	if kafkaConsumer != nil {
		eg.Go(func() error {
			ordListener.Start(egCtx)
			return nil
		})
	}

	eg.Go(func() error {
		<-egCtx.Done()
		appLogger.Info("Shutting down servers...")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)

		done := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}
		return err
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	appLogger.Info("Server stopped")
	return nil
}
