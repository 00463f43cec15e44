// Package server contains the HTTP handlers and wiring for the CampingRate API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "campingrate/docs" // swagger docs
	"campingrate/internal/auth"
	"campingrate/internal/cache"
	"campingrate/internal/config"
	"campingrate/internal/database"
	"campingrate/internal/featureflags"
	"campingrate/internal/geocode"
	"campingrate/internal/middleware"
	"campingrate/internal/models"
	"campingrate/internal/observability"
	"campingrate/internal/repository"
	"campingrate/internal/service"
	"campingrate/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	appName   = "CampingRate API"
	bodyLimit = 50 * 1024 * 1024
)

// pinger is implemented by image stores that can report their health.
type pinger interface {
	Ping(ctx context.Context) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *auth.TokenManager
	images         storage.ImageStore
	featureFlags   *featureflags.Manager

	userRepo       repository.UserRepository
	campgroundRepo repository.CampgroundRepository
	reviewRepo     repository.ReviewRepository

	authService       *service.AuthService
	campgroundService *service.CampgroundService
	reviewService     *service.ReviewService
}

// NewServer connects to every backing service described by cfg and returns a
// ready Server.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("image store initialization failed: %w", err)
	}

	geocoder := geocode.NewMapboxClient(cfg.MapboxBaseURL, cfg.MapboxToken, cfg.GeocodeTimeout())

	return NewServerWithDeps(cfg, db, cache.GetClient(), geocoder, images), nil
}

// newImageStore connects to the configured S3-compatible bucket. Outside
// production an unreachable store falls back to process memory.
func newImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	store, err := storage.NewMinioStore(storage.MinioConfig{
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		UseSSL:          cfg.S3UseSSL,
		BucketName:      cfg.S3Bucket,
		Region:          cfg.S3Region,
		PublicURL:       cfg.S3PublicURL,
	})
	if err == nil {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		err = store.EnsureBucket(ctx, cfg.S3Region)
	}
	if err != nil {
		if cfg.IsProduction() {
			return nil, err
		}
		middleware.Logger.Warn("Object store unavailable, keeping images in memory",
			slog.String("endpoint", cfg.S3Endpoint),
			slog.String("error", err.Error()),
		)
		return storage.NewMemoryStore(fmt.Sprintf("http://localhost:%s%s", cfg.Port, localImagePrefix)), nil
	}
	return store, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes the connections.
func NewServerWithDeps(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	geocoder geocode.Geocoder,
	images storage.ImageStore,
) *Server {
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(observability.ServiceName),
		tokens:         auth.NewTokenManager(cfg.JWTSecret),
		images:         images,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       repository.NewUserRepository(db),
		campgroundRepo: repository.NewCampgroundRepository(db),
		reviewRepo:     repository.NewReviewRepository(db),
	}
	server.wireServices(geocoder)
	return server
}

func (s *Server) wireServices(geocoder geocode.Geocoder) {
	cost := auth.DefaultCost
	if s.config.Env == "test" {
		cost = bcrypt.MinCost
	}

	ratings := service.NewRatingAggregator(s.reviewRepo, service.DefaultRatingConcurrency)
	s.authService = service.NewAuthService(s.userRepo, auth.NewPasswordHasher(cost), s.tokens)
	s.campgroundService = service.NewCampgroundService(
		s.campgroundRepo, geocoder, s.images, ratings, s.featureFlags, s.config.ImageMaxUploadBytes())
	s.reviewService = service.NewReviewService(s.reviewRepo, s.campgroundRepo)
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      appName,
		BodyLimit:    bodyLimit,
		ErrorHandler: s.ErrorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// ErrorHandler renders errors that escape handlers with the API error contract.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "Unhandled request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected responses still carry CORS headers.
	origin := s.config.AllowedOrigins
	if origin == "" {
		origin = "http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origin,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests, &models.AppError{
				Code:    models.CodeRateLimited,
				Message: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if _, ok := s.images.(*storage.MemoryStore); ok {
		app.Get(localImagePrefix+"/*", s.ServeLocalImage)
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "CampingRate Metrics"}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	requireAuth := middleware.AuthRequired(s.tokens)
	optionalAuth := middleware.OptionalAuth(s.tokens)

	api.Post("/register", middleware.RateLimit(s.redis, s.config.Env, 5, 10*time.Minute, "register"), s.Register)
	api.Post("/login", middleware.RateLimit(s.redis, s.config.Env, 10, 5*time.Minute, "login"), s.Login)
	api.Get("/profile", optionalAuth, s.Profile)
	api.Post("/logout", s.Logout)

	// Fixed paths are registered before /:id.
	campgrounds := api.Group("/campgrounds")
	campgrounds.Post("/create", requireAuth, s.CreateCampground)
	campgrounds.Get("/top", optionalAuth, s.GetTopCampgrounds)
	campgrounds.Get("/user", requireAuth, s.GetMyCampgrounds)
	campgrounds.Get("/", s.GetCampgrounds)
	campgrounds.Get("/:id", s.GetCampground)
	campgrounds.Delete("/:id", requireAuth, s.DeleteCampground)

	reviews := api.Group("/reviews")
	reviews.Get("/:campgroundId", s.GetReviews)
	reviews.Post("/:campgroundId", requireAuth, s.CreateReview)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database, Redis and the image store answer.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unavailable"
	} else if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	storageStatus := "healthy"
	if p, ok := s.images.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			storageStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" || storageStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  storageStatus,
		},
		"time": time.Now(),
	})
}

// Shutdown releases the server's connections. The Fiber app is stopped first
// so in-flight requests finish before the pools close.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
