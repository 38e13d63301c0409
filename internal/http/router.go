package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"advisor-finder/internal/service"
)

// RouterConfig agrupa opciones transversales del router.
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	JWT            *service.JWTService
	Gatherer       prometheus.Gatherer
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	cfg RouterConfig,
	advisorH *AdvisorHandler,
	researchH *ResearchHandler,
	studentH *StudentHandler,
	healthH *HealthHandler,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()

	r.Use(
		zapLoggerMiddleware(logger),
		gin.Recovery(),
		corsMiddleware(cfg.AllowedOrigins),
		requestTimeoutMiddleware(cfg.RequestTimeout),
		jsonContentTypeMiddleware(),
	)

	r.GET("/health", healthH.Health)
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	research := api.Group("/research")
	research.GET("/categories", researchH.ListCategories)
	research.GET("/interests", researchH.ListInterests)
	research.GET("/interests/category/:categoryId", researchH.InterestsByCategory)
	research.GET("/interests/search", researchH.SearchInterests)
	research.GET("/facets", researchH.Facets)

	lecturers := api.Group("/lecturers")
	lecturers.GET("/public", advisorH.ListPublic)
	lecturers.GET("/search", advisorH.Search)
	lecturers.GET("/by-interests", advisorH.ByInterests)
	lecturers.GET("/by-category/:categoryId", advisorH.ByCategory)
	lecturers.GET("/by-department", advisorH.ByDepartment)
	lecturers.GET("/:id", advisorH.GetByID)
	lecturers.GET("/:id/contact", OptionalJWTAuthMiddleware(cfg.JWT), advisorH.GetContact)
	lecturers.POST("/register", advisorH.Register)

	students := api.Group("/students")
	students.POST("/register", studentH.Register)
	students.POST("/otp/request", studentH.RequestOTP)
	students.POST("/otp/verify", studentH.VerifyOTP)
	students.POST("/login", studentH.Login)
	students.POST("/refresh", studentH.RefreshToken)
	students.POST("/logout", studentH.Logout)
	students.GET("/check-email", studentH.CheckEmail)
	students.GET("/me", JWTAuthMiddleware(cfg.JWT), studentH.Me)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

// requestTimeoutMiddleware limita la duracion de las llamadas a repositorios de cada request.
func requestTimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
