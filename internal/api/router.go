package api

import (
	"context"
	"net/http"
	"time"

	"github.com/blog-post-pages/internal/config"
	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/render"
	"github.com/blog-post-pages/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(
	services *service.Services,
	renderer *render.Renderer,
	store contentstore.Store,
	cfg *config.Config,
	log zerolog.Logger,
	opts ...RouterOption,
) *gin.Engine {
	var options routerOptions
	for _, opt := range opts {
		opt(&options)
	}

	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	postHandler := NewPostHandler(services, renderer, log)
	commentHandler := NewCommentHandler(services, cfg, log)

	// Health check
	router.GET("/health", healthCheck(options.health))
	router.GET("/metrics", metricsHandler(services, store))

	// Pages
	router.GET("/post/:slug", postHandler.ShowPost)
	router.POST("/post/:slug", postHandler.SubmitComment)

	// JSON API
	api := router.Group("/api")
	{
		api.GET("/paths", postHandler.ListPaths)
		api.GET("/posts/:slug", postHandler.GetPost)
		api.POST("/createComment", commentHandler.CreateComment)
	}

	return router
}

// RouterOption customizes NewRouter
type RouterOption func(*routerOptions)

type routerOptions struct {
	health func(ctx context.Context) error
}

// WithHealthCheck makes /health report unhealthy when check fails
func WithHealthCheck(check func(ctx context.Context) error) RouterOption {
	return func(o *routerOptions) {
		o.health = check
	}
}

// healthCheck returns the health status
func healthCheck(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		body := gin.H{"service": "blog-post-pages"}

		if check != nil {
			ctx, cancel := contextWithTimeout(c, 5*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
				body["error"] = err.Error()
			}
		}

		body["status"] = status
		body["timestamp"] = time.Now().Format(time.RFC3339)
		c.JSON(code, body)
	}
}

// metricsHandler returns page cache counters and, when the store can report
// them, document counts
func metricsHandler(services *service.Services, store contentstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"backend":   store.Name(),
			"cache":     services.Posts.CacheStats(),
			"timestamp": time.Now().Format(time.RFC3339),
		}

		if counter, ok := store.(contentstore.Counter); ok {
			counts, err := counter.Counts(c.Request.Context())
			if err == nil {
				body["database"] = counts
			}
		}

		c.JSON(http.StatusOK, body)
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
