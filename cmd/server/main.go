package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/topcoder-platform/topcoder-x-processor/internal/config"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/contest"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/guard"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/jobs"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/messaging"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/notify"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/repositories"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/retry"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/sourcecontrol"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/userdirectory"
	"github.com/topcoder-platform/topcoder-x-processor/internal/interfaces/http/handlers"
	"github.com/topcoder-platform/topcoder-x-processor/internal/interfaces/http/middleware"
	"github.com/topcoder-platform/topcoder-x-processor/internal/usecases"
	"github.com/topcoder-platform/topcoder-x-processor/pkg/logger"
	"github.com/topcoder-platform/topcoder-x-processor/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	openBus   eventBusOpener = defaultOpenBus
	runServer                = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB                 = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

// eventBus is the subset of messaging.Bus used by the bootstrap, plus the
// status-handler methods — factored out so tests can substitute a fake
// without dialing a real broker.
type eventBus interface {
	Subscribe(ctx context.Context, topic string, handler ports.Handler) error
	Publish(ctx context.Context, topic string, envelope []byte) error
	Close()
	IsConnected() bool
	LastDeliveryAt() time.Time
}

type eventBusOpener func(url, exchange string, prefetch int) (eventBus, error)

func defaultOpenBus(url, exchange string, prefetch int) (eventBus, error) {
	return messaging.NewBus(url, exchange, prefetch)
}

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("connected to PostgreSQL via GORM")
	}

	bus, err := openBus(cfg.Bus.URL, cfg.Bus.Exchange, cfg.Bus.Prefetch)
	if err != nil {
		return fmt.Errorf("failed to connect to message bus: %w", err)
	}
	defer bus.Close()

	registry, err := sourcecontrol.NewRegistry(cfg.SourceControl)
	if err != nil {
		return fmt.Errorf("failed to build source control registry: %w", err)
	}

	// Initialize repositories
	issueRepo := repositories.NewIssueRepository(db)
	paymentRepo := repositories.NewCopilotPaymentRepository(db)
	projectRepo := repositories.NewProjectRepository(db)

	keyedMutex := guard.NewKeyedMutex()
	contestClient := contest.NewClient(cfg.Contest)
	userDir := userdirectory.NewDirectory(registry, 5*time.Minute)
	notifier := notify.NewNotifier(bus, cfg.Bus.NotificationTopic)
	retryService := retry.NewService(bus, notifier, cfg.Retry)

	issueStateMachine := usecases.NewIssueStateMachine(issueRepo, projectRepo, contestClient, registry, userDir, keyedMutex, cfg.SourceControl)
	paymentStateMachine := usecases.NewPaymentStateMachine(paymentRepo, projectRepo, contestClient)
	dispatcher := usecases.NewDispatcher(issueStateMachine, paymentStateMachine, retryService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bus.Subscribe(ctx, cfg.Bus.IssueTopic, dispatcher.HandlerFor(cfg.Bus.IssueTopic)); err != nil {
		return fmt.Errorf("failed to subscribe to issue topic: %w", err)
	}
	if err := bus.Subscribe(ctx, cfg.Bus.PaymentTopic, dispatcher.HandlerFor(cfg.Bus.PaymentTopic)); err != nil {
		return fmt.Errorf("failed to subscribe to payment topic: %w", err)
	}

	sweeper := jobs.NewCreationSweeper(issueRepo, cfg.Retry.StaleAfter, cfg.Retry.Interval)
	go sweeper.Start(ctx)

	statusHandler := handlers.NewStatusHandler(bus, keyedMutex)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerStatusRoutes(r, statusHandler)

	log.Println("Registered routes:")
	for _, route := range r.Routes() {
		log.Printf("   %s %s", route.Method, route.Path)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("shutting down")
		sweeper.Stop()
		cancel()
	}()

	log.Printf("topcoder-x-processor starting on port %s", cfg.Server.Port)
	log.Printf("health: http://localhost:%s/health", cfg.Server.Port)
	log.Printf("status: http://localhost:%s/internal/status", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
