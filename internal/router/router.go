package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                   // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware" // echo's bundled recover middleware
	"github.com/redis/go-redis/v9"                  // redis backs the rate limiter and the response cache
	"go.uber.org/zap"                               // zap logs each request

	"github.com/iliyamo/lab-registry/internal/config"     // rate limit and cache settings
	"github.com/iliyamo/lab-registry/internal/handler"    // import the handlers that implement the API
	"github.com/iliyamo/lab-registry/internal/metrics"    // prometheus exposition
	"github.com/iliyamo/lab-registry/internal/middleware" // JWT, role, rate limit and cache middleware
)

// Options carries what the router needs besides the handlers. Redis may be
// nil, in which case rate limiting and caching are off.
type Options struct {
	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	Log       *zap.Logger
}

// New builds the echo instance with every route registered.
func New(h *handler.Handler, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(opts.Log))

	RegisterRoutes(e, h)
	api := e.Group(
		"/api/v1",
		middleware.JWTAuth(opts.JWTSecret),
		middleware.RequireRole(middleware.RoleSystemAdmin, middleware.RoleLabManager),
		middleware.NewTokenBucket(opts.RateLimit, opts.Redis, opts.Log),
		middleware.NewRedisCache(opts.Cache, opts.Redis, opts.Log),
	)
	RegisterLab(api, h)
	RegisterZone(api, h)
	RegisterCatalog(api, h)
	if h.Audit != nil { // only when the audit pipeline is enabled
		api.GET("/audit", h.ListAudit)
	}
	return e
}

// RegisterRoutes registers routes that do not require authentication: the
// health check used by load balancers and the Prometheus endpoint.
func RegisterRoutes(e *echo.Echo, h *handler.Handler) {
	e.GET("/healthz", h.Health)
	e.GET("/metrics", metrics.Handler())
}
