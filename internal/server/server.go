// Package server contains the HTTP handlers for the marketplace moderation API.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	_ "reservo/docs" // swagger docs
	"reservo/internal/authz"
	"reservo/internal/cache"
	"reservo/internal/config"
	"reservo/internal/database"
	"reservo/internal/featureflags"
	"reservo/internal/middleware"
	"reservo/internal/models"
	"reservo/internal/notifications"
	"reservo/internal/observability"
	"reservo/internal/repository"
	"reservo/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config           *config.Config
	db               *gorm.DB
	redis            *redis.Client
	app              *fiber.App
	promMiddleware   *fiberprometheus.FiberPrometheus
	shutdownCtx      context.Context
	shutdownFn       context.CancelFunc
	tracerShutdown   func(context.Context) error
	userRepo         repository.UserRepository
	businessRepo     repository.BusinessRepository
	requestRepo      repository.ModerationRequestRepository
	notificationRepo repository.NotificationRepository
	notifier         *notifications.Notifier
	dispatcher       *notifications.Dispatcher
	featureFlags     *featureflags.Manager
	lifecycle        *service.LifecycleService
	ledger           *service.LedgerService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	requestRepo := repository.NewModerationRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	prom := middleware.InitMetrics("reservo-api")

	server := &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		promMiddleware:   prom,
		userRepo:         userRepo,
		businessRepo:     businessRepo,
		requestRepo:      requestRepo,
		notificationRepo: notificationRepo,
		featureFlags:     featureflags.NewManager(cfg.FeatureFlags),
	}

	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
	}
	server.dispatcher = notifications.NewDispatcher(
		notifications.NewLogSender(), notificationRepo, server.notifier)

	// Lifecycle first: the ledger's reinstatement cascade points back at it.
	server.lifecycle = service.NewLifecycleService(
		businessRepo, userRepo, server.dispatcher, server.featureFlags)
	server.ledger = service.NewLedgerService(
		requestRepo, businessRepo, userRepo, server.dispatcher, server.lifecycle)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// OpenTelemetry request spans
	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Reservo Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Public directory routes
	businesses := api.Group("/businesses")
	businesses.Get("/", s.GetBusinesses)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// Owner routes
	myBusinesses := protected.Group("/businesses")
	myBusinesses.Get("/me", s.GetMyBusinesses)
	myBusinesses.Post("/", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register_business"), s.RegisterBusiness)
	// The ledger's 24h cooldown is the authoritative guard; the Redis limiter
	// in front just keeps retry storms off the database.
	myBusinesses.Post("/:id/unsuspension-request", middleware.RateLimit(
		s.redis, 5, time.Minute, "unsuspension_request"), s.CreateUnsuspensionRequest)
	myBusinesses.Get("/:id/requests", s.GetBusinessRequests)

	// Generic /:id route must be last
	businesses.Get("/:id", s.GetBusiness)

	// Notification routes
	notificationsGroup := protected.Group("/notifications")
	notificationsGroup.Get("/me", s.GetMyNotifications)
	notificationsGroup.Post("/:id/read", s.MarkNotificationRead)

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)

	adminBusinesses := admin.Group("/businesses")
	adminBusinesses.Get("/", s.GetAdminBusinesses)
	adminBusinesses.Post("/:id/approve", s.ApproveBusiness)
	adminBusinesses.Post("/:id/force-approve", s.ForceApproveBusiness)
	adminBusinesses.Post("/:id/reject", s.RejectBusiness)
	adminBusinesses.Post("/:id/suspend", s.SuspendBusiness)
	adminBusinesses.Post("/:id/unsuspend", s.UnsuspendBusiness)

	adminRequests := admin.Group("/requests")
	adminRequests.Get("/", s.GetAdminRequests)
	adminRequests.Post("/:id/approve", s.ApproveRequest)
	adminRequests.Post("/:id/reject", s.RejectRequest)
	adminRequests.Get("/:id", s.GetRequest)
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// In-app notification delivery needs Redis, so readiness reports it.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Reservo",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		admin, err := s.isAdmin(c, userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "reservo-api" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "reservo-client" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}

		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		// Check JTI for revocation
		if jti, exists := claims["jti"].(string); exists && jti != "" {
			if s.redis != nil {
				isBlacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
				if err == nil && isBlacklisted > 0 {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Token has been revoked"))
				}
			}
		}

		// Store user ID in context
		c.Locals("userID", uint(userID))
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// actor builds the capability-check identity for the authenticated user.
func (s *Server) actor(c *fiber.Ctx) (authz.Actor, error) {
	userID := c.Locals("userID").(uint)
	admin, err := s.isAdmin(c, userID)
	if err != nil {
		return authz.Actor{}, err
	}
	return authz.Actor{ID: userID, IsAdmin: admin}, nil
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	tracerShutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "reservo-api",
		ServiceVersion: "1.0",
		Environment:    s.config.Env,
		Enabled:        s.config.OTLPEndpoint != "",
		Exporter:       "otlp",
		OTLPEndpoint:   s.config.OTLPEndpoint,
		SamplerRatio:   1.0,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	s.tracerShutdown = tracerShutdown

	app := fiber.New(fiber.Config{
		AppName: "Reservo Moderation API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	if s.tracerShutdown != nil {
		if terr := s.tracerShutdown(ctx); terr != nil {
			log.Printf("error shutting down tracer: %v", terr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
