// Package api exposes the assessment engine over HTTP and websocket.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/config"
	"github.com/patientpathway/assessment-server/internal/conversation"
	"github.com/patientpathway/assessment-server/internal/domain"
	"github.com/patientpathway/assessment-server/internal/middleware"
)

// Server represents the HTTP server.
type Server struct {
	logger  *logrus.Logger
	cfg     config.ServerConfig
	manager *conversation.Manager
	catalog domain.QuizCatalog
	store   domain.LeadStore
	router  *gin.Engine
	server  *http.Server
}

// NewServer creates a new HTTP server instance.
func NewServer(logger *logrus.Logger, cfg config.ServerConfig, manager *conversation.Manager, catalog domain.QuizCatalog, store domain.LeadStore) *Server {
	if logger.GetLevel() == logrus.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())

	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
		router.Use(limiter.Middleware())
	}

	server := &Server{
		logger:  logger,
		cfg:     cfg,
		manager: manager,
		catalog: catalog,
		store:   store,
		router:  router,
	}

	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until the context is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the underlying gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/quizzes", s.handleListQuizzes)
		v1.POST("/conversations", s.handleStartConversation)
		v1.GET("/conversations/:id/prompt", s.handleGetPrompt)
		v1.POST("/conversations/:id/answers", s.handleSubmitAnswer)
		v1.POST("/conversations/:id/contact", s.handleSubmitContact)
		v1.POST("/conversations/:id/finish", s.handleFinish)
		v1.GET("/leads/:id", s.handleGetLead)
		v1.GET("/doctors/:id/leads", s.handleListDoctorLeads)
	}

	s.router.GET("/ws/conversations/:id", s.handleWebsocket)
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   "1.0.0",
	})
}

// corsMiddleware adds CORS headers to responses. Wide-open by intent:
// the quiz widget is embedded on arbitrary clinic websites.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
