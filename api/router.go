package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/yt-backup-go/api/handlers"
	"github.com/yourusername/yt-backup-go/api/middleware"
	"github.com/yourusername/yt-backup-go/pkg/logger"
)

// Queue is what the router needs from the request queue
type Queue interface {
	handlers.RequestQueue
	handlers.QueueStatus
}

// RouterConfig wires the services behind the HTTP API
type RouterConfig struct {
	Queue       Queue
	Controller  handlers.RequestController
	Events      handlers.EventSource
	LogsDir     string
	Logger      *zap.Logger
	MultiLogger *logger.MultiLogger
}

// SetupRouter sets up the HTTP router
func SetupRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.Logger(log, cfg.MultiLogger))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(cfg.Queue)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		requestHandler := handlers.NewRequestHandler(cfg.Queue, cfg.Controller, log)
		requests := v1.Group("/requests")
		{
			requests.POST("", requestHandler.AddRequest)
			requests.GET("", requestHandler.ListRequests)
			requests.GET("/stats", requestHandler.GetStats)
			requests.GET("/:id", requestHandler.GetRequest)
			requests.POST("/:id/cancel", requestHandler.CancelRequest)
			requests.POST("/:id/retry", requestHandler.RetryRequest)
			requests.DELETE("/:id", requestHandler.DeleteRequest)
		}

		eventsHandler := handlers.NewEventsHandler(cfg.Events, log)
		v1.GET("/events", eventsHandler.Stream)
		v1.GET("/events/ws", eventsHandler.WebSocket)

		logHandler := handlers.NewLogHandler(cfg.LogsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
