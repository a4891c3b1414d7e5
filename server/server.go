// Package server exposes the calculator and the pagination planner as an
// HTTP JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/etnz/invoicing"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config holds the server settings and the defaults applied to requests that
// do not carry their own.
type Config struct {
	Port    int
	Layout  invoicing.Layout    // used when a request has no layout
	Tax     invoicing.TaxPolicy // used when a request has no tax policy
	TaxRate invoicing.Percent   // rate of the kind default when Tax is zero
}

// Server is the HTTP API.
type Server struct {
	config  Config
	router  *gin.Engine
	logger  *zap.Logger
	metrics *metrics
}

// New creates a server. Metrics are registered in reg and exposed on /metrics.
func New(cfg Config, logger *zap.Logger, reg *prometheus.Registry) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Server{
		config:  cfg,
		router:  gin.New(),
		logger:  logger,
		metrics: newMetrics(reg),
	}
	s.router.Use(gin.Recovery(), s.logRequests())
	s.setupRoutes(reg)
	return s
}

func (s *Server) setupRoutes(reg *prometheus.Registry) {
	s.router.GET("/health", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/totals", s.totals)
		v1.POST("/pages", s.pages)
		v1.POST("/preview", s.preview)
	}
}

// taxPolicy returns the policy of a request without one: the configured
// policy, else the default of kind at the configured rate.
func (s *Server) taxPolicy(kind invoicing.Kind) invoicing.TaxPolicy {
	if !s.config.Tax.IsZero() {
		return s.config.Tax
	}
	return invoicing.DefaultTaxPolicy(kind, s.config.TaxRate)
}

// Handler returns the http.Handler of the API.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves the API until ctx is done, then drains the pending requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	logger := s.logger.Named("http").With(zap.String("addr", srv.Addr))
	go func() {
		defer close(errc)
		logger.Info("invoicing api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutdown requested; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// logRequests logs every request once completed, and counts it.
func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			s.logger.Error("request completed", fields...)
		case status >= http.StatusBadRequest:
			s.logger.Warn("request completed", fields...)
		default:
			s.logger.Info("request completed", fields...)
		}
	}
}
