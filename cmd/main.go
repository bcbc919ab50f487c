package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisCache "github.com/Abdurahmanit/GroupProject/classifieds-service/internal/adapter/cache/redis"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/adapter/email"
	natsAdapter "github.com/Abdurahmanit/GroupProject/classifieds-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/app"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/scheduler"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/usecase"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file (optional, for local development)
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	// 1. Initialize Logger
	appLogger := logger.NewLogger()
	defer appLogger.Sync()

	// 2. Load Configuration
	configPath := "config.yaml"
	if cp := os.Getenv("CONFIG_PATH"); cp != "" {
		configPath = cp
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Configuration loaded successfully",
		zap.String("service_name", cfg.ServiceName),
		zap.String("mongo_database", cfg.Mongo.Database),
		zap.String("nats_url", cfg.NATS.URL),
		zap.String("metrics_port", cfg.Metrics.Port),
	)

	// 3. Connect to MongoDB
	mongoClient, err := mongodb.NewMongoDBConnection(&cfg.Mongo)
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctxDisconnect, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctxDisconnect); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		} else {
			appLogger.Info("MongoDB connection closed.")
		}
	}()
	db := mongoClient.Database(cfg.Mongo.Database)
	appLogger.Info("Successfully connected to MongoDB")

	// 4. Connect to Redis
	redisClient, err := redisCache.NewRedisClient(&cfg.Redis, appLogger.Logger)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	cacheRepo := redisCache.NewRedisCacheRepository(redisClient, appLogger.Logger)

	// 5. Connect to NATS
	publisher, err := natsAdapter.NewNATSPublisher(&cfg.NATS, appLogger.Logger)
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer publisher.Close()

	// 6. Initialize Repositories
	categoryRepo, err := mongodb.NewCategoryRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize category repository", zap.Error(err))
	}
	listingRepo, err := mongodb.NewListingRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize listing repository", zap.Error(err))
	}
	tagRepo, err := mongodb.NewTagRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize tag repository", zap.Error(err))
	}
	favoriteRepo, err := mongodb.NewFavoriteRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize favorite repository", zap.Error(err))
	}
	ratingRepo, err := mongodb.NewRatingRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize rating repository", zap.Error(err))
	}
	conversationRepo, err := mongodb.NewConversationRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize conversation repository", zap.Error(err))
	}
	messageRepo, err := mongodb.NewMessageRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize message repository", zap.Error(err))
	}
	savedSearchRepo, err := mongodb.NewSavedSearchRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize saved search repository", zap.Error(err))
	}
	notificationRepo, err := mongodb.NewNotificationRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize notification repository", zap.Error(err))
	}
	counterStore := mongodb.NewCounterStore(db, appLogger)
	transactor := mongodb.NewTransactor(mongoClient, appLogger)
	userDirectory := mongodb.NewUserDirectory(db, appLogger)

	// 7. Initialize Metrics
	mm := metrics.NewMetricsManager(cfg.ServiceName)
	go func() {
		if err := metrics.StartMetricsServer(cfg.Metrics.Port, appLogger, mm.Registry); err != nil {
			appLogger.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	// 8. Initialize Use Cases
	ledger := usecase.NewAggregateLedger(counterStore, ratingRepo, tagRepo, favoriteRepo, mm, appLogger)
	categoryTree := usecase.NewCategoryTreeUsecase(categoryRepo, counterStore, cacheRepo, appLogger)
	lifecycle := usecase.NewListingLifecycleUsecase(listingRepo, categoryRepo, transactor, ledger, publisher, mm, appLogger)
	mailer := email.NewMailer(&cfg.SMTP, userDirectory.EmailForUser, appLogger.Logger)
	alertMatcher := usecase.NewAlertMatcherUsecase(
		savedSearchRepo, listingRepo, notificationRepo, categoryTree,
		publisher, mailer, mm, appLogger)
	lifecycle.Subscribe(alertMatcher)

	// The gRPC surface registers against this bundle once the transport is
	// added; until then the scheduler is the only in-process driver.
	application := &app.App{
		Categories: categoryTree,
		Ledger:     ledger,
		Lifecycle:  lifecycle,
		Conversations: usecase.NewConversationUsecase(
			conversationRepo, messageRepo, listingRepo, ledger, publisher, mm, appLogger),
		Engagement: usecase.NewEngagementUsecase(
			listingRepo, favoriteRepo, tagRepo, ledger, publisher, appLogger),
		Ratings: usecase.NewRatingUsecase(ratingRepo, ledger, appLogger),
		Alerts:  alertMatcher,
	}
	appLogger.Info("Use cases initialized")

	// 9. Start Schedulers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(application.Lifecycle, application.Alerts, &cfg.Sweep, appLogger)
	go sched.Run(ctx)

	appLogger.Info("Service setup complete.")

	// 10. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	cancel()
}
