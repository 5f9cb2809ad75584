// Package main provides the main entry point for the GigShare link and reward service
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gigshare/sharelinks/app/handlers"
	"github.com/gigshare/sharelinks/app/queue"
	"github.com/gigshare/sharelinks/app/router"
	"github.com/gigshare/sharelinks/app/services"
	"github.com/gigshare/sharelinks/app/worker"
	businessflow "github.com/gigshare/sharelinks/business_flow"
	"github.com/gigshare/sharelinks/config"
	"github.com/gigshare/sharelinks/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting GigShare links application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers; order is setup order reversed
	for i := len(app.stopFuncs) - 1; i >= 0; i-- {
		app.stopFuncs[i]()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeRedis initializes the Redis client and verifies connectivity.
// One client serves both the link cache and the redis queue provider.
func initializeRedis(cfg config.CacheConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeCreditingService selects the crediting implementation: the HTTP
// client when an endpoint is configured, the simulated one otherwise.
func initializeCreditingService(cfg *config.ProductionConfig) services.CreditingService {
	if cfg.Crediting.EndpointURL != "" {
		log.Printf("Crediting via %s", cfg.Crediting.EndpointURL)
		return services.NewCreditingService(&cfg.Crediting)
	}
	log.Println("No crediting endpoint configured, credits are simulated")
	return services.NewSimulatedCreditingService(cfg.Crediting.SimulatedDelay)
}

// initializeQueue selects the reward queue implementation by provider.
func initializeQueue(cfg *config.ProductionConfig, rc *redis.Client) (queue.RewardQueue, error) {
	switch cfg.Queue.Provider {
	case "redis":
		if rc == nil {
			return nil, fmt.Errorf("queue provider 'redis' requires a redis connection")
		}
		return queue.NewRedisQueue(rc, cfg.Queue.KeyPrefix, cfg.Queue.DequeueTimeout), nil
	case "memory":
		return queue.NewInProcessQueue(cfg.Queue.BufferSize), nil
	default:
		return nil, fmt.Errorf("unknown queue provider %q", cfg.Queue.Provider)
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database initialization failed: %w", err)
	}

	var stopFuncs []func()

	var rc *redis.Client
	if cfg.Cache.Enabled || cfg.Queue.Provider == "redis" {
		rc, err = initializeRedis(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("redis initialization failed: %w", err)
		}
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, 30*time.Second))
	}

	// Repositories
	linkRepo := repository.NewLinkRepository(db)
	clickRepo := repository.NewClickRepository(db)
	rewardRepo := repository.NewRewardRepository(db)

	// Queue and crediting
	rewardQueue, err := initializeQueue(cfg, rc)
	if err != nil {
		return nil, fmt.Errorf("queue initialization failed: %w", err)
	}
	stopFuncs = append(stopFuncs, func() { _ = rewardQueue.Close() })

	creditingService := initializeCreditingService(cfg)

	// Business flows
	var cacheClient *redis.Client
	if cfg.Cache.Enabled {
		cacheClient = rc
	}
	codeGen := businessflow.NewShortCodeGenerator(linkRepo)
	createFlow := businessflow.NewCreateLinkFlow(linkRepo, codeGen, cfg.Deployment.PublicDomain)
	resolutionFlow := businessflow.NewLinkResolutionFlow(linkRepo, cacheClient, cfg.Cache.RedisPrefix)
	dispatcher := businessflow.NewRewardDispatcher(rewardQueue)
	visitFlow := businessflow.NewLinkVisitFlow(db, resolutionFlow, clickRepo, linkRepo, dispatcher, cfg.Reward.AmountCents)
	reportFlow := businessflow.NewLinkReportFlow(linkRepo, cfg.Deployment.PublicDomain)
	processingFlow := businessflow.NewRewardProcessingFlow(db, creditingService, rewardRepo, clickRepo, linkRepo)

	// Background reward workers
	rewardWorker := worker.NewRewardWorker(rewardQueue, processingFlow, &cfg.Reward, &cfg.Logging)
	stopFuncs = append(stopFuncs, rewardWorker.Start(context.Background()))

	// HTTP layer
	linkHandler := handlers.NewLinkHandler(createFlow, visitFlow, reportFlow)
	r := router.NewFiberRouter(cfg, db, cacheClient, linkHandler)

	return &Application{
		router:    r,
		config:    cfg,
		server:    r.GetApp(),
		stopFuncs: stopFuncs,
	}, nil
}
