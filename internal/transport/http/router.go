package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/app"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Service        *app.QuizService
	History        app.HistoryRepository // optional
	Logger         zerolog.Logger
	GinMode        string
	AllowedOrigins []string
}

// NewRouter builds the gin engine with REST routes and the WebSocket endpoint.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	setupValidator()

	router := gin.New()
	router.Use(gin.Recovery())

	// Restrict to the configured origins, otherwise allow all so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(requestID())
	router.Use(requestLogger(cfg.Logger))

	router.GET("/healthz", func(c *gin.Context) {
		success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	sessions := NewSessionHandler(cfg.Service, cfg.History, cfg.Logger)
	api := router.Group("/api")
	{
		api.POST("/sessions", sessions.Start)
		api.GET("/sessions/:id", sessions.Get)
		api.POST("/sessions/:id/answer", sessions.Answer)
		api.POST("/sessions/:id/next", sessions.Next)
		api.POST("/sessions/:id/previous", sessions.Previous)
		api.POST("/sessions/:id/jump", sessions.Jump)
		api.POST("/sessions/:id/submit", sessions.Submit)
		api.DELETE("/sessions/:id", sessions.Abandon)
		api.GET("/reports/:id", sessions.Report)
		if cfg.History != nil {
			api.GET("/users/:email/history", sessions.History)
		}
	}

	ws := NewWSHandler(cfg.Service, cfg.Logger, cfg.AllowedOrigins)
	router.GET("/ws", gin.WrapF(ws.ServeWS))

	return router
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("request_id", c.GetString(contextKeyRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
