package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/irfndi/fdtrend-go/internal/api/handlers"
	"github.com/irfndi/fdtrend-go/internal/metrics"
	"github.com/irfndi/fdtrend-go/internal/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RouterConfig controls the global middleware chain.
type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
}

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Users     *handlers.UserHandler
	Rates     *handlers.RateHandler
	Forecasts *handlers.ForecastHandler
	Seed      *handlers.SeedHandler
	Health    *handlers.HealthHandler
}

// NewRouter builds a gin engine with recovery, tracing, CORS, request logging and metrics.
func NewRouter(cfg RouterConfig, logger *logrus.Logger, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RequestLogger(logger))
	if m != nil {
		router.Use(m.Middleware())
	}
	return router
}

// SetupRoutes mounts health, metrics and the /api/v1 surface.
// Auth endpoints sit behind the rate limiter; /seed additionally needs the feature flag.
func SetupRoutes(router *gin.Engine, h Handlers, auth *middleware.AuthMiddleware, limiter *middleware.RateLimiter, m *metrics.Metrics, seedEnabled bool) {
	router.GET("/health", h.Health.HealthCheck)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		if limiter != nil {
			authGroup.Use(limiter.Middleware())
		}
		{
			authGroup.POST("/signup", h.Users.RegisterUser)
			authGroup.POST("/login", h.Users.LoginUser)
		}

		users := v1.Group("/users", auth.RequireAuth())
		{
			users.GET("/profile", h.Users.GetUserProfile)
			users.PUT("/profile", h.Users.UpdateUserProfile)
		}

		rates := v1.Group("/fd-rates")
		{
			rates.GET("", auth.OptionalAuth(), h.Rates.ListRates)
			rates.GET("/:bankName/:tenure", auth.OptionalAuth(), h.Rates.GetRateSeries)
			rates.POST("", auth.RequireAuth(), h.Rates.CreateRate)
			rates.DELETE("/:id", auth.RequireAuth(), h.Rates.DeleteRate)
		}

		v1.GET("/banks", auth.OptionalAuth(), h.Rates.ListBanks)
		v1.POST("/predict", auth.RequireAuth(), h.Forecasts.Predict)
		v1.GET("/predictions", auth.OptionalAuth(), h.Forecasts.ListPredictions)
		v1.POST("/seed", middleware.FeatureGate(seedEnabled), auth.RequireAuth(), h.Seed.Seed)
	}
}
