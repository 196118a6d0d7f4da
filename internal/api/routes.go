package api

import (
	"github.com/gin-gonic/gin"
	"github.com/irfndi/powerlaw-overtake/internal/api/handlers"
	"github.com/irfndi/powerlaw-overtake/internal/metrics"
	"github.com/irfndi/powerlaw-overtake/internal/middleware"
	"github.com/irfndi/powerlaw-overtake/internal/services"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

// Dependencies are the components the routes are served from. Cache may be nil.
type Dependencies struct {
	Runner         services.Runner
	Dashboard      *services.Dashboard
	Assets         services.AssetRegistry
	Defaults       handlers.Defaults
	Health         *handlers.HealthHandler
	Cache          handlers.RowCacheAdmin
	Metrics        *metrics.Metrics
	Logger         *logrus.Logger
	TracerProvider trace.TracerProvider
	ServiceName    string
	AllowedOrigins []string
}

// NewRouter builds the gin engine with middleware and every route installed.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(deps.ServiceName, otelgin.WithTracerProvider(deps.TracerProvider)))
	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(middleware.RequestTelemetry(deps.Metrics, deps.Logger))

	SetupRoutes(router, deps)
	return router
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", deps.Health.HealthCheck)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	overtakeHandler := handlers.NewOvertakeHandler(deps.Runner, deps.Defaults)
	dashboardHandler := handlers.NewDashboardHandler(deps.Dashboard, deps.Assets, deps.Defaults)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/overtake", overtakeHandler.GetOvertake)

		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("", dashboardHandler.Get)
			dashboard.PUT("", dashboardHandler.Select)
		}

		if deps.Cache != nil {
			cacheHandler := handlers.NewCacheHandler(deps.Cache)
			cache := v1.Group("/cache")
			{
				cache.GET("/stats", cacheHandler.GetCacheStats)
				cache.DELETE("", cacheHandler.ClearCache)
			}
		}
	}
}
