// Package http serves the analysis API over HTTP using gin.
package http

import (
	"net/http"
	"time"

	"github.com/fwojciec/tranquility"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Public error messages.
const (
	msgMissingMessage = "Missing 'message' string"
	msgMissingAudio   = "Missing or invalid 'audio' base64 string"
	msgEmptyReply     = "Empty response from the model"
	msgServerError    = "Server error"
	msgNotFound       = "Session not found"
)

// Server routes HTTP requests to an analyzer and to per-conversation
// sessions.
type Server struct {
	analyzer       tranquility.Analyzer
	sessions       *Registry
	logger         *zap.Logger
	allowedOrigins []string
	corsMaxAge     time.Duration
	maxBodyBytes   int64
	now            func() time.Time
	upgrader       websocket.Upgrader
	engine         *gin.Engine
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAllowedOrigins sets the CORS allow-list.
func WithAllowedOrigins(origins []string, maxAge time.Duration) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
		s.corsMaxAge = maxAge
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// WithRegistry sets the session registry. By default sessions are backed by
// the server's analyzer.
func WithRegistry(r *Registry) Option {
	return func(s *Server) { s.sessions = r }
}

// WithClock replaces time.Now in responses.
func WithClock(fn func() time.Time) Option {
	return func(s *Server) { s.now = fn }
}

// NewServer creates a [Server] for analyzer.
func NewServer(analyzer tranquility.Analyzer, opts ...Option) *Server {
	s := &Server{
		analyzer:     analyzer,
		logger:       zap.NewNop(),
		maxBodyBytes: 10 << 20,
		now:          time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.sessions == nil {
		s.sessions = NewRegistry(analyzer)
	}
	s.upgrader = s.newUpgrader()
	s.engine = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Registry returns the session registry.
func (s *Server) Registry() *Registry {
	return s.sessions
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), s.requestLogger(), s.limitBody())
	if len(s.allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.allowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       s.corsMaxAge,
		}))
	}

	r.GET("/", s.handleIndex)
	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		api.POST("/chat", s.handleChat)
		api.POST("/audio", s.handleAudio)

		sessions := api.Group("/sessions")
		sessions.POST("", s.handleCreateSession)
		sessions.GET("/:id", s.handleGetSession)
		sessions.POST("/:id/messages", s.handleSessionMessage)
		sessions.POST("/:id/audio", s.handleSessionAudio)
		sessions.GET("/:id/stream", s.handleSessionStream)
		sessions.DELETE("/:id", s.handleDeleteSession)
	}
	return r
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "Tranquility backend is running",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", s.now().Sub(start)))
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("panic serving request", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgServerError})
	})
}

func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.maxBodyBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)
		}
		c.Next()
	}
}
