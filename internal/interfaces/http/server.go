// Package http is the thin HTTP adapter over the application services: it
// translates requests from the back-office UI into service calls and
// service errors into the response envelope.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harborline/freightdesk/internal/application/service"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP adapter.
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	logger     *zap.Logger
}

// NewServer wires the handlers onto a gin router.
func NewServer(
	config ServerConfig,
	refData service.RefDataService,
	builder service.BuilderService,
	submission service.SubmissionService,
	approval service.ApprovalService,
	summary service.SummaryService,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{config: config, router: router, logger: logger}
	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())
	router.Use(IdentityMiddleware())

	handlers := NewHandlers(refData, builder, submission, approval, summary, logger)

	router.GET("/health", handlers.HealthCheck)

	api := router.Group("/api")
	{
		refdata := api.Group("/refdata")
		{
			refdata.GET("/jobs", handlers.ListJobs)
			refdata.GET("/charge-heads", handlers.ListChargeHeads)
			refdata.GET("/beneficiaries", handlers.ListBeneficiaries)
			refdata.GET("/requestors", handlers.ListRequestors)
			refdata.POST("/refresh", handlers.RefreshRefData)
		}

		drafts := api.Group("/drafts")
		{
			drafts.POST("", handlers.OpenDraft)
			drafts.GET("/:id", handlers.GetDraft)
			drafts.DELETE("/:id", handlers.DiscardDraft)
			drafts.POST("/:id/lines", handlers.AddDraftLine)
			drafts.PATCH("/:id/lines/:lineID", handlers.UpdateDraftLine)
			drafts.DELETE("/:id/lines/:lineID", handlers.RemoveDraftLine)
			drafts.PUT("/:id/requestor", handlers.SelectRequestor)
			drafts.POST("/:id/submit", handlers.SubmitDraft)
		}

		requests := api.Group("/fund-requests")
		{
			requests.GET("", handlers.ListFundRequests)
			requests.GET("/summary", handlers.Summary)
			requests.GET("/:id", handlers.GetFundRequest)
			requests.DELETE("/:id", handlers.DeleteFundRequest)
			requests.GET("/:id/review", handlers.GetReview)
			requests.GET("/:id/history", handlers.GetHistory)
			requests.POST("/:id/approve", handlers.Approve)
			requests.POST("/:id/reject", handlers.Reject)
			requests.POST("/:id/edit", handlers.OpenDraftForEdit)
		}
	}

	return s
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
