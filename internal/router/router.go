package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/medilink/care-api/internal/handler/appointment"
	"github.com/medilink/care-api/internal/handler/auth"
	"github.com/medilink/care-api/internal/handler/availability"
	"github.com/medilink/care-api/internal/handler/health"
	"github.com/medilink/care-api/internal/handler/report"
	"github.com/medilink/care-api/internal/handler/session"
	"github.com/medilink/care-api/internal/middleware"
)

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORS           middleware.CORSConfig
	CacheTTL       time.Duration
}

func DefaultConfig() Config {
	return Config{
		RateLimitRPS:   100,
		RateLimitBurst: 200,
		CORS:           middleware.DefaultCORSConfig(),
		CacheTTL:       30 * time.Second,
	}
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware
	cache  *middleware.ResponseCache

	healthH       *health.Handler
	authH         *auth.Handler
	availabilityH *availability.Handler
	appointmentH  *appointment.Handler
	sessionH      *session.Handler
	reportH       *report.Handler
}

func NewRouter(
	authMW *middleware.AuthMiddleware,
	healthH *health.Handler,
	authH *auth.Handler,
	availabilityH *availability.Handler,
	appointmentH *appointment.Handler,
	sessionH *session.Handler,
	reportH *report.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
	)

	engine.Use(middleware.CORS(config.CORS))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  rate.Limit(config.RateLimitRPS),
		Burst: config.RateLimitBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	cache := middleware.NewResponseCache(middleware.CacheConfig{
		TTL:             config.CacheTTL,
		CleanupInterval: 5 * time.Minute,
	})

	return &Router{
		engine:        engine,
		auth:          authMW,
		cache:         cache,
		healthH:       healthH,
		authH:         authH,
		availabilityH: availabilityH,
		appointmentH:  appointmentH,
		sessionH:      sessionH,
		reportH:       reportH,
	}
}

func (r *Router) Setup() {
	r.healthH.RegisterRoutes(r.engine.Group(""))
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	r.authH.RegisterRoutes(api)
	r.availabilityH.RegisterPublicRoutes(api, r.cache)

	protected := api.Group("", r.auth.Authenticate())
	r.availabilityH.RegisterRoutes(protected, r.auth)
	r.appointmentH.RegisterRoutes(protected, r.auth)
	r.sessionH.RegisterRoutes(protected, r.auth)
	r.reportH.RegisterRoutes(protected, r.auth)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
