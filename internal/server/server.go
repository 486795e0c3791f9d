package server

import (
	"context"
	"fmt"
	"time"

	"pulse/internal/cache"
	"pulse/internal/clock"
	"pulse/internal/config"
	"pulse/internal/database"
	"pulse/internal/lifecycle"
	"pulse/internal/middleware"
	"pulse/internal/notifications"
	"pulse/internal/repository"
	"pulse/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	clock          clock.Clock

	userRepo         repository.UserRepository
	postRepo         repository.PostRepository
	followRepo       repository.FollowRepository
	engagementRepo   repository.EngagementRepository
	commentRepo      repository.CommentRepository
	pollRepo         repository.PollRepository
	hashtagRepo      repository.HashtagRepository
	feedRepo         repository.FeedRepository
	notificationRepo repository.NotificationRepository

	notifier *notifications.Notifier
	engine   *lifecycle.Engine
	sweeper  *lifecycle.Sweeper

	userService         *service.UserService
	postService         *service.PostService
	engagementService   *service.EngagementService
	feedService         *service.FeedService
	notificationService *service.NotificationService

	sweeperCancel context.CancelFunc
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient(), clock.System())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, clk clock.Clock) (*Server, error) {
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("pulse-api"),
		clock:          clk,
	}

	server.userRepo = repository.NewUserRepository(db)
	server.postRepo = repository.NewPostRepository(db)
	server.followRepo = repository.NewFollowRepository(db)
	server.engagementRepo = repository.NewEngagementRepository(db)
	server.commentRepo = repository.NewCommentRepository(db)
	server.pollRepo = repository.NewPollRepository(db)
	server.hashtagRepo = repository.NewHashtagRepository(db)
	server.feedRepo = repository.NewFeedRepository(db)
	server.notificationRepo = repository.NewNotificationRepository(db)

	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
	}

	server.engine = lifecycle.NewEngine(server.postRepo, clk, cfg.InitialLifeSeconds, cfg.LikeExtensionSeconds)
	visibility := service.NewVisibilityPolicy(server.followRepo, clk)

	server.notificationService = service.NewNotificationService(server.notificationRepo, server.notifier)
	server.userService = service.NewUserService(server.userRepo, server.followRepo, server.notificationService)
	server.postService = service.NewPostService(
		server.postRepo, server.pollRepo, server.hashtagRepo, server.userRepo,
		server.followRepo, server.engine, visibility, server.notificationService, clk)
	server.engagementService = service.NewEngagementService(
		server.postRepo, server.engagementRepo, server.commentRepo, server.pollRepo,
		server.userRepo, server.engine, visibility, server.notificationService)
	server.feedService = service.NewFeedService(
		server.feedRepo, server.followRepo, clk, cfg.TrendingWindow(), cfg.TrendingLimit)

	server.sweeper = lifecycle.NewSweeper(server.engine, server.notificationService,
		cfg.SweepInterval(), time.Duration(cfg.ExpiringThresholdSeconds)*time.Second)

	middleware.InitMiddleware(cfg)

	return server, nil
}

// StartSweeper launches the background expiry sweeper. Call Shutdown to
// stop it.
func (s *Server) StartSweeper() {
	ctx, cancel := context.WithCancel(context.Background())
	s.sweeperCancel = cancel
	go s.sweeper.Run(ctx)
}

// Sweeper exposes the expiry sweeper, mainly for tests and admin tooling.
func (s *Server) Sweeper() *lifecycle.Sweeper {
	return s.sweeper
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	app.Use(middleware.StructuredLogger())

	// CORS must run before middlewares that can short-circuit (e.g.
	// limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
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

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public browse routes resolve the viewer when a token is present so
	// privacy rules apply per viewer.
	publicPosts := api.Group("/posts", middleware.AuthOptional)
	publicPosts.Get("/trending", s.GetTrending)
	publicPosts.Get("/tagged/:tag", s.GetPostsByTag)
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)

	publicUsers := api.Group("/users", middleware.AuthOptional)
	publicUsers.Get("/:id/posts", s.GetUserPosts)
	publicUsers.Get("/:id", s.GetUserProfile)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	me := protected.Group("/me")
	me.Get("/", s.GetMyProfile)
	me.Put("/", s.UpdateMyProfile)
	me.Get("/feed", s.GetFeed)

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/like", s.ToggleLike)
	posts.Post("/:id/repost", s.ToggleRepost)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 15, time.Minute, "create_comment"), s.CreateComment)
	posts.Delete("/:id/comments/:commentId", s.DeleteComment)
	posts.Post("/:id/poll/vote", s.VotePoll)
	posts.Put("/:id/pin", s.PinPost)
	posts.Delete("/:id/pin", s.UnpinPost)
	posts.Put("/:id/comments-disabled", s.SetCommentsDisabled)
	posts.Delete("/:id", s.DeletePost)

	follows := protected.Group("/follows")
	follows.Post("/:userId", middleware.RateLimit(
		s.redis, 20, 5*time.Minute, "follow"), s.FollowUser)
	follows.Delete("/:userId", s.UnfollowUser)
	follows.Get("/requests", s.GetFollowRequests)
	follows.Post("/requests/:userId/accept", s.AcceptFollowRequest)
	follows.Post("/requests/:userId/reject", s.RejectFollowRequest)

	notificationsGroup := protected.Group("/notifications")
	notificationsGroup.Get("/", s.GetNotifications)
	notificationsGroup.Get("/unread-count", s.GetUnreadCount)
	notificationsGroup.Post("/read-all", s.MarkAllNotificationsRead)
	notificationsGroup.Post("/:id/read", s.MarkNotificationRead)
	notificationsGroup.Get("/preferences", s.GetNotificationPreferences)
	notificationsGroup.Put("/preferences", s.UpdateNotificationPreferences)
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
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Shutdown stops the sweeper and releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.sweeperCancel != nil {
		s.sweeperCancel()
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	return nil
}
