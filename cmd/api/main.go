package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/internal/cache"
	"github.com/mentorhub/mentorhub-api/internal/database"
	"github.com/mentorhub/mentorhub-api/internal/handlers"
	"github.com/mentorhub/mentorhub-api/internal/middleware"
	"github.com/mentorhub/mentorhub-api/internal/services"
	"github.com/mentorhub/mentorhub-api/internal/tasks"
	"github.com/mentorhub/mentorhub-api/pkg/httpclient"
	"github.com/mentorhub/mentorhub-api/pkg/jwt"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"github.com/mentorhub/mentorhub-api/pkg/profiling"
	"github.com/mentorhub/mentorhub-api/pkg/storage"
	"github.com/mentorhub/mentorhub-api/pkg/tracing"
	"github.com/mentorhub/mentorhub-api/pkg/trigger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// candidateSet serves matching reads and is invalidated by booking writes
type candidateSet interface {
	services.CandidateProvider
	services.CandidateInvalidator
}

type routeHandlers struct {
	health   *handlers.HealthHandler
	matching *handlers.MatchingHandler
	booking  *handlers.BookingHandler
	cache    *handlers.CacheHandler
}

type rateLimiters struct {
	general *middleware.RateLimiter
	booking *middleware.RateLimiter
	sync    *middleware.RateLimiter
}

// registerAPIRoutes registers the versioned student and mentor routes
func registerAPIRoutes(router *gin.Engine, cfg *config.Config, tokenManager *jwt.TokenManager, h routeHandlers, limits rateLimiters) {
	v1 := router.Group("/api/v1")

	// Public read-only routes used by clients to sync availability
	v1.GET("/sessions/:id/available-slots", limits.general.Middleware(), h.booking.GetAvailableSlots)
	v1.GET("/mentors/:id/booked-slots", limits.sync.Middleware(), h.booking.GetMentorBookedSlots)

	authed := v1.Group("")
	authed.Use(middleware.UserSessionMiddleware(tokenManager, cfg.Auth.CookieDomain, cfg.Auth.CookieSecure))

	student := authed.Group("")
	student.Use(middleware.RequireRole(jwt.RoleStudent))
	student.GET("/students/match-mentors", limits.general.Middleware(), h.matching.MatchMentors)
	student.POST("/sessions/book", limits.booking.Middleware(), middleware.BodySizeLimitMiddleware(16*1024), h.booking.BookSession)

	authed.GET("/bookings", limits.general.Middleware(), h.booking.ListBookings)
	authed.GET("/bookings/:id", limits.general.Middleware(), h.booking.GetBooking)
	authed.POST("/bookings/:id/cancel", limits.booking.Middleware(), h.booking.CancelBooking)
	authed.POST("/bookings/:id/payment-slip", limits.booking.Middleware(), middleware.BodySizeLimitMiddleware(4*1024), h.booking.RequestPaymentSlip)
}

// registerOperationalRoutes registers health, metrics and operator endpoints
func registerOperationalRoutes(router *gin.Engine, cfg *config.Config, h routeHandlers, limits rateLimiters) {
	api := router.Group("/api")
	api.GET("/healthcheck", limits.general.Middleware(), h.health.Healthcheck)
	api.GET("/metrics", limits.general.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	internal := api.Group("/internal")
	internal.Use(middleware.InternalAPIAuthMiddleware(cfg.Auth.InternalAPIToken))
	internal.GET("/cache", h.cache.Status)
	internal.POST("/cache/invalidate", h.cache.Invalidate)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting MentorHub API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
		zap.String("store", cfg.Database.Driver),
	)

	// Root context cancelled on shutdown; stops background loops
	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	tracerShutdown, err := tracing.InitTracer(tracing.ServiceInfo{
		Name:        cfg.Observability.ServiceName,
		Namespace:   cfg.Observability.ServiceNamespace,
		Version:     cfg.Observability.ServiceVersion,
		InstanceID:  cfg.Observability.ServiceInstanceID,
		Environment: cfg.Server.AppEnv,
	}, cfg.Observability.ExporterEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiler, err := profiling.InitProfiler(cfg.Profiling, profiling.Labels{
		ServiceName: cfg.Observability.ServiceName,
		Namespace:   cfg.Observability.ServiceNamespace,
		Version:     cfg.Observability.ServiceVersion,
		InstanceID:  cfg.Observability.ServiceInstanceID,
		Environment: cfg.Server.AppEnv,
	})
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer stopProfiler()

	metrics.Init(cfg.Observability.ServiceName)
	metrics.RecordInfrastructureMetrics(rootCtx)

	// NOTE: migrations run separately via cmd/migrate
	store, err := database.Open(rootCtx, cfg)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer func() {
		if closeErr := store.Close(context.Background()); closeErr != nil {
			logger.Error("Failed to close store", zap.Error(closeErr))
		}
	}()

	// Candidate set for matching. Initialized synchronously so the
	// container is only marked healthy once it is warm.
	var (
		candidates      candidateSet
		candidateCache  *cache.CandidateCache
		candidatesReady func() bool
	)
	if cfg.Cache.DisableCandidates {
		logger.Warn("Candidate cache is DISABLED - reading from the store on every request")
		candidates = cache.DirectCandidates{Source: store}
	} else {
		candidateCache = cache.NewCandidateCache(store, cfg.Cache.CandidateTTLSeconds)
		if err := candidateCache.Initialize(rootCtx); err != nil {
			logger.Fatal("Failed to initialize candidate cache", zap.Error(err))
		}
		defer candidateCache.Stop()
		candidates = candidateCache
		candidatesReady = candidateCache.IsReady
	}

	// Redis backs the match result cache and the reminder queue. Both are optional.
	var (
		results   services.MatchResultCache
		reminders tasks.Enqueuer = tasks.NoopEnqueuer{}
	)
	if cfg.Redis.Enabled() {
		redisClient := mustRedis(rootCtx, cfg.Redis)
		defer redisClient.Close()
		results = cache.NewMatchCache(redisClient, cfg.Cache.MatchTTLSeconds)

		queue := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.QueueDB,
		})
		defer queue.Close()
		reminders = tasks.NewAsynqEnqueuer(queue, cfg.Booking.ReminderLeadHours)
	} else {
		logger.Warn("Redis not configured: match cache and reminders disabled")
	}

	var slips services.SlipPresigner
	if cfg.Storage.Enabled() {
		slipStorage, err := storage.NewSlipStorage(storage.Config{
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			BucketName:      cfg.Storage.BucketName,
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			PresignTTL:      time.Duration(cfg.Storage.PresignTTLSeconds) * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to initialize slip storage", zap.Error(err))
		}
		slips = slipStorage
	} else {
		logger.Warn("Slip storage not configured: payment slip uploads disabled")
	}

	triggers := trigger.NewCaller(httpclient.NewStandardClient())
	tokenManager := jwt.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.SessionTTLHours)

	// Initialize services
	matchingService := services.NewMatchingService(store, candidates, results, cfg)
	bookingService := services.NewBookingService(store, services.BookingDeps{
		Candidates: candidates,
		Results:    results,
		Reminders:  reminders,
		Triggers:   triggers,
		Slips:      slips,
	}, cfg)

	var cacheAdmin handlers.CandidateCacheAdmin
	if candidateCache != nil {
		cacheAdmin = candidateCache
	}
	h := routeHandlers{
		health:   handlers.NewHealthHandler(store.Ping, candidatesReady),
		matching: handlers.NewMatchingHandler(matchingService),
		booking:  handlers.NewBookingHandler(bookingService),
		cache:    handlers.NewCacheHandler(cacheAdmin, results),
	}

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// CORS: only configured origins, plus localhost in development
	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.InternalAPITokenHeader, "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true, // session cookie
		MaxAge:           12 * time.Hour,
	}))

	limits := rateLimiters{
		general: middleware.NewRateLimiter(rootCtx, 100, 200), // 100 req/sec, burst of 200
		booking: middleware.NewRateLimiter(rootCtx, 2, 5),     // 2 req/sec, burst of 5
		sync:    middleware.NewRateLimiter(rootCtx, 20, 40),   // client polling
	}

	registerOperationalRoutes(router, cfg, h, limits)
	registerAPIRoutes(router, cfg, tokenManager, h, limits)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func mustRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	return client
}
