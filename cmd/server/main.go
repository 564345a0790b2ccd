package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zaplinker/backend/internal/auth"
	"github.com/zaplinker/backend/internal/cache"
	"github.com/zaplinker/backend/internal/config"
	"github.com/zaplinker/backend/internal/container"
	"github.com/zaplinker/backend/internal/database"
	"github.com/zaplinker/backend/internal/events"
	"github.com/zaplinker/backend/internal/geo"
	"github.com/zaplinker/backend/internal/handlers"
	"github.com/zaplinker/backend/internal/jobs"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/metrics"
	"github.com/zaplinker/backend/internal/middleware"
	"github.com/zaplinker/backend/internal/queue"
	"github.com/zaplinker/backend/internal/redirect"
	"github.com/zaplinker/backend/internal/selector"
	"github.com/zaplinker/backend/internal/telemetry"
	"github.com/zaplinker/backend/internal/validation"
	"go.uber.org/zap"
)

// devJWTSecret signs API tokens when JWT_SECRET is unset in development
const devJWTSecret = "zaplinker-development-secret"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet
		_, _ = os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("=== Zaplinker server starting ===",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	metrics.Initialize()

	tp, err := telemetry.InitTracer(context.Background(), telemetry.Config{
		ServiceName:  telemetry.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.Telemetry.Endpoint,
		Enabled:      cfg.Telemetry.Enabled,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.WarnWithFields("Tracing disabled", err)
	}

	if err := database.Initialize(cfg.Database, cfg.LogLevel == "debug"); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	db := database.DB
	if err := db.Use(telemetry.GORMPlugin()); err != nil {
		logger.WarnWithFields("Failed to register database instrumentation", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	app := container.New().SetDB(db)
	app.OnCleanup("database", func(context.Context) error { return database.Close() })
	app.OnCleanup("tracing", func(ctx context.Context) error { return telemetry.Shutdown(ctx, tp) })

	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
		if err != nil {
			logger.WarnWithFields("Redis unavailable, continuing without shared cache", err)
			redisClient = nil
		}
	}
	if redisClient != nil {
		app.SetCache(redisClient)
		app.OnCleanup("redis", func(context.Context) error { return redisClient.Close() })
	}

	validator := validation.NewServiceValidator(cfg.RequiredServices).
		Register("database", validation.DatabaseCheck(db)).
		Register("redis", validation.RedisCheck(redisClient)).
		Register("nats", validation.NATSCheck(cfg.NATSURL))
	if err := validator.ValidateServices(context.Background()); err != nil {
		logger.FatalWithFields("Required service check failed", err)
	}

	if cfg.NATSURL != "" {
		natsCtx, cancel := context.WithTimeout(context.Background(), cfg.NATSConnectTimeout)
		natsPublisher, err := events.NewNATSPublisher(natsCtx, cfg.NATSURL)
		cancel()
		if err != nil {
			logger.WarnWithFields("NATS unavailable, access events will not be published", err)
		} else {
			app.SetPublisher(natsPublisher)
			app.OnCleanup("nats", func(context.Context) error { return natsPublisher.Close() })
		}
	}

	repos := app.Repositories()

	var resolver geo.Resolver
	if cfg.IPInfoURL != "" {
		resolver = geo.NewIPInfoResolver(cfg.IPInfoURL, cfg.IPInfoToken, redisClient)
	}

	recorder := &redirect.Recorder{
		Analytics: repos.Analytics,
		Numbers:   repos.Numbers,
		Geo:       resolver,
		Publisher: app.Publisher(),
	}
	analyticsQueue := queue.NewAnalyticsQueue(cfg.Queue.Workers, cfg.Queue.Size, recorder.Handle)
	app.SetAnalyticsQueue(analyticsQueue)

	scheduler := jobs.NewScheduler()
	if err := scheduler.ScheduleRetention(cfg.Retention.Schedule, jobs.NewRetentionJob(repos.Analytics, cfg.Retention.Days)); err != nil {
		logger.FatalWithFields("Failed to schedule retention", err)
	}
	app.SetScheduler(scheduler)

	if err := app.Validate(); err != nil {
		logger.FatalWithFields("Server dependencies incomplete", err)
	}

	analyticsQueue.Start()
	app.OnCleanup("analytics queue", analyticsQueue.Stop)
	scheduler.Start()
	app.OnCleanup("scheduler", scheduler.Stop)

	routes := cache.NewRouteCache(redisClient, cfg.RouteCacheTTL, cache.LoadFromRepositories(repos.Workspaces, repos.Numbers))
	svc := &redirect.Service{
		Routes:    routes,
		Analytics: repos.Analytics,
		Picker:    selector.NewPicker(),
		Queue:     analyticsQueue,
	}
	if redisClient != nil {
		svc.Uniques = redisClient
	}

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Log.Warn("JWT_SECRET not set, using the development signing key")
		secret = devJWTSecret
	}
	tokens := auth.NewTokenIssuer([]byte(secret))
	authenticator := &auth.Authenticator{Users: repos.Users, Tokens: tokens}

	h := handlers.NewHandlers(db, repos, routes, svc)
	h.SetTokenIssuer(tokens)
	h.SetRedisClient(redisClient)
	h.SetPublicURL(cfg.BaseURL)
	h.SetVisitorCookie(cfg.VisitorCookie)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.MetricsMiddleware(),
		middleware.TracingMiddleware(telemetry.ServiceName),
	)
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.FatalWithFields("Invalid TRUSTED_PROXIES", err)
	}

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", auth.FirebaseUIDHeader, "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	r.Use(cors.New(corsConfig))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiLimit := middleware.DefaultRateLimitConfig()
	apiLimit.Limit = cfg.APIRateLimit
	redirectLimit := middleware.RedirectRateLimitConfig()
	redirectLimit.Limit = cfg.RedirectRateLimit

	apiLimiter, err := middleware.NewRedisRateLimiter(redisClient, apiLimit)
	if err != nil {
		logger.FatalWithFields("Invalid API rate limit", err)
	}
	redirectLimiter, err := middleware.NewRedisRateLimiter(redisClient, redirectLimit)
	if err != nil {
		logger.FatalWithFields("Invalid redirect rate limit", err)
	}
	app.OnCleanup("rate limiters", func(context.Context) error {
		apiLimiter.Stop()
		redirectLimiter.Stop()
		return nil
	})

	h.RegisterRoutes(r, handlers.RouteOptions{
		Auth: authenticator.Middleware(),
		API: []gin.HandlerFunc{
			gzip.Gzip(gzip.DefaultCompression),
			apiLimiter.Middleware(),
		},
		Redirect: []gin.HandlerFunc{
			redirectLimiter.Middleware(),
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Zaplinker backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}
	// The queue drains only after the server stops submitting jobs
	if err := app.Cleanup(ctx); err != nil {
		logger.ErrorWithFields("Shutdown incomplete", err)
	}

	logger.Log.Info("Server exited")
}
