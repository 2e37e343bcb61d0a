package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/praveen-kumars/pillremander-sub001/config"
	deliveryHttp "github.com/praveen-kumars/pillremander-sub001/internal/delivery/http"
	"github.com/praveen-kumars/pillremander-sub001/internal/delivery/http/handler"
	"github.com/praveen-kumars/pillremander-sub001/internal/delivery/http/middleware"
	"github.com/praveen-kumars/pillremander-sub001/internal/infrastructure/cache"
	"github.com/praveen-kumars/pillremander-sub001/internal/infrastructure/database"
	"github.com/praveen-kumars/pillremander-sub001/internal/remote"
	"github.com/praveen-kumars/pillremander-sub001/internal/repository"
	"github.com/praveen-kumars/pillremander-sub001/internal/usecase"
	"github.com/praveen-kumars/pillremander-sub001/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application. Every handle is
// constructed exactly once here and passed down; nothing reaches the tiers
// except through the sync usecase.
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Setup logger
	setupLogger()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	logrus.Info("Configuration loaded successfully")

	// Open embedded store
	db, err := database.NewSQLiteConnection(cfg.SQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded store: %w", err)
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	// Initialize all layers
	server, err := initializeServer(cfg, db, redisClient)
	if err != nil {
		return nil, err
	}
	app.Server = server

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

// initializeServer wires repositories, the remote client and the
// coordinator, and runs schema initialization before accepting traffic.
func initializeServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*http.Server, error) {
	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize logger
	log := logrus.StandardLogger()

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, log)

	// Initialize remote client
	remoteClient := remote.NewClient(cfg.Remote, log)
	remoteSvc := remote.NewProfileService(remoteClient, cacheRepo, log)

	// Initialize coordinator
	syncUsecase := usecase.NewSyncUsecase(log, profileRepo, prefRepo, cacheRepo, remoteSvc)

	// Schema must exist before any request touches the store.
	if err := syncUsecase.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize embedded schema: %w", err)
	}
	logrus.Info("Embedded store initialized")

	// Initialize handlers
	authHandler := handler.NewAuthHandler(syncUsecase, customValidator)
	profileHandler := handler.NewProfileHandler(syncUsecase, customValidator)
	onboardingHandler := handler.NewOnboardingHandler(syncUsecase, customValidator)

	// Initialize middleware
	sessionMiddleware := middleware.NewSessionMiddleware(syncUsecase)
	corsMiddleware := middleware.NewCORSMiddleware()

	// Initialize router
	router := deliveryHttp.NewRouter(authHandler, profileHandler, onboardingHandler, sessionMiddleware, corsMiddleware)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:    serverAddr,
		Handler: httpRouter,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
