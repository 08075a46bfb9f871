// Package http provides the HTTP servers of the card API and their middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cardHTTP "github.com/allisson/cardledger/internal/card/http"
	"github.com/allisson/cardledger/internal/config"
	"github.com/allisson/cardledger/internal/metrics"
)

// Server represents the card API HTTP server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new HTTP server. Call SetupRouter before Start.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: newHTTPServer(host, port),
	}
}

// SetupRouter registers middleware, probes and the card routes.
//
// Mutating card routes are rate limited per client IP when enabled. Every card route
// except issuance requires a holder session token, and :id routes are further
// restricted to the holder of that card. metricsProvider may be nil.
func (s *Server) SetupRouter(
	cfg *config.Config,
	cardHandler *cardHTTP.CardHandler,
	holderVerifier cardHTTP.HolderTokenVerifier,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	mutations := []gin.HandlerFunc{}
	if cfg.RateLimitEnabled {
		mutations = append(mutations, RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}
	withLimit := func(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, mutations...), handlers...)
	}

	holder := cardHTTP.HolderSessionMiddleware(holderVerifier, s.logger)
	owner := cardHandler.CardOwnerMiddleware()

	v1 := router.Group("/v1")
	cards := v1.Group("/cards")
	{
		cards.POST("", withLimit(cardHandler.IssueHandler)...)
		cards.GET("", holder, cardHandler.ListHandler)
		cards.POST("/transfers", withLimit(holder, cardHandler.TransferHandler)...)
		cards.GET("/holders/:tax_id", holder, cardHandler.ListByHolderHandler)
		cards.GET("/:id", holder, owner, cardHandler.GetHandler)
		cards.PATCH("/:id", withLimit(holder, owner, cardHandler.UpdateHandler)...)
		cards.POST("/:id/recharge", withLimit(holder, owner, cardHandler.RechargeHandler)...)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured: call SetupRouter first")
	}
	s.server.Handler = s.router

	return listen(s.server, s.logger, "http server")
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	database := "ok"
	if s.db == nil {
		database = "error"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.Any("error", err))
			database = "error"
		}
	}

	if database != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": database},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": database},
	})
}
