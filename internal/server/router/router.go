package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/checksheet/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
// metricsHandler is served on /metrics when not nil.
func New(handler *handlers.InspectionHandler, metricsHandler http.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}
	r.GET("/users", handler.ListUsers)

	sessions := r.Group("/sessions")
	sessions.POST("", handler.StartSession)
	sessions.GET("/:id", handler.GetSession)
	sessions.DELETE("/:id", handler.EndSession)
	sessions.POST("/:id/scan", handler.Scan)
	sessions.PUT("/:id/container", handler.SelectContainer)
	sessions.GET("/:id/properties", handler.Properties)
	sessions.POST("/:id/checks", handler.SaveCheck)
	sessions.GET("/:id/checks", handler.Summary)
	sessions.POST("/:id/export", handler.Export)
	sessions.GET("/:id/status", handler.Status)
	sessions.POST("/:id/finalize", handler.Finalize)

	packing := sessions.Group("/:id/packing")
	packing.POST("", handler.StartPacking)
	packing.GET("", handler.PackingSnapshot)
	packing.POST("/scan", handler.PackingScan)
	packing.POST("/keys", handler.PackingKeys)
	packing.POST("/reset", handler.PackingReset)

	containers := r.Group("/containers/:code")
	containers.GET("/evaluations", handler.Evaluations)
	containers.GET("/exports", handler.Exports)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
