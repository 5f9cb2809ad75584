// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gigshare/sharelinks/app/dto"
	"github.com/gigshare/sharelinks/app/handlers"
	"github.com/gigshare/sharelinks/app/middleware"
	"github.com/gigshare/sharelinks/config"
	"github.com/gigshare/sharelinks/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app         *fiber.App
	cfg         *config.ProductionConfig
	db          *gorm.DB
	cache       *redis.Client
	linkHandler handlers.LinkHandlerInterface
}

// NewFiberRouter creates a new Fiber router. db is probed by the health
// endpoint; cache may be nil when the cache is disabled.
func NewFiberRouter(cfg *config.ProductionConfig, db *gorm.DB, cache *redis.Client, linkHandler handlers.LinkHandlerInterface) Router {
	app := fiber.New(fiber.Config{
		AppName:      "GigShare Links API",
		ServerHeader: "GigShare-Links",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ProxyHeader:  cfg.Server.ProxyHeader,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:         app,
		cfg:         cfg,
		db:          db,
		cache:       cache,
		linkHandler: linkHandler,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	r.app.Get("/", r.index)

	// Public redirect routes. Kept outside the API group so short URLs stay
	// short; rate limited separately because they take the bulk of traffic.
	short := r.app.Group("/s", limiter.New(limiter.Config{
		Max:        5000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
	}))
	short.Get("/:code", r.linkHandler.Redirect)

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	api.Use(limiter.New(limiter.Config{
		Max:        2000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
		Next: func(c fiber.Ctx) bool {
			// Skip rate limiting for health checks
			return c.Path() == "/api/v1/health"
		},
	}))

	api.Post("/link", r.linkHandler.CreateLink)
	api.Get("/state", r.linkHandler.State)
	api.Get("/state/export", r.linkHandler.StateExport)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		XDNSPrefetchControl:   "off",
		XDownloadOptions:      "noopen",
		XPermittedCrossDomain: "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins: []string{r.cfg.Deployment.PublicDomain},
		AllowMethods: []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-Requested-With",
			"X-Request-ID",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
		},
		MaxAge: utils.CORSMaxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
			Next: func(c fiber.Ctx) bool {
				// The XLSX export is already compressed
				return contains(c.Path(), "/state/export")
			},
		}))
	}

	// Structured access log
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Skip logging for health checks and metrics scrapes
			return c.Path() == "/api/v1/health" || c.Path() == r.cfg.Metrics.Path
		},
	}))

	// HTTP metrics middleware
	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint: probes the database and reports cache reachability
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	dbStatus := "ok"
	if sqlDB, err := r.db.DB(); err != nil {
		dbStatus = "error"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "error"
	}

	cacheStatus := "disabled"
	if r.cache != nil {
		cacheStatus = "ok"
		if err := r.cache.Ping(ctx).Err(); err != nil {
			cacheStatus = "error"
		}
	}

	status := fiber.StatusOK
	healthy := dbStatus == "ok"
	if !healthy {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(dto.APIResponse{
		Success: healthy,
		Message: "Service health",
		Data: fiber.Map{
			"status":    dbStatus,
			"cache":     cacheStatus,
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.cfg.Deployment.Version,
			"service":   "gigshare-links-api",
		},
	})
}

// index describes the API surface
func (r *FiberRouter) index(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "GigShare Links API",
		Data: fiber.Map{
			"version": r.cfg.Deployment.Version,
			"endpoints": []fiber.Map{
				{"method": "POST", "path": "/api/v1/link", "description": "Create a short link for a seller's gig URL"},
				{"method": "GET", "path": "/s/:code", "description": "Redirect to the original URL and credit the seller"},
				{"method": "GET", "path": "/api/v1/state", "description": "Paginated links report with clicks and credits"},
				{"method": "GET", "path": "/api/v1/state/export", "description": "XLSX export of the links report"},
				{"method": "GET", "path": "/api/v1/health", "description": "Service health"},
			},
		},
	})
}

func rateLimitReached(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
		Success: false,
		Message: "Too many requests. Please try again later.",
		Error: dto.ErrorDetail{
			Code: "RATE_LIMIT_EXCEEDED",
		},
	})
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func contains(str, substr string) bool {
	return strings.Contains(str, substr)
}
