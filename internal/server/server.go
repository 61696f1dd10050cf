// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package server exposes scenario runs and simulation metrics over HTTP.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/db47h/axisim"
	"github.com/db47h/axisim/internal/config"
	"github.com/db47h/axisim/internal/scenario"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// MaxBody is the largest scenario accepted by POST /run.
//
const MaxBody = 1 << 20

// Server serves the health, metrics and run endpoints. Every run shares the
// server's metrics.
//
type Server struct {
	router  *gin.Engine
	log     zerolog.Logger
	reg     *prometheus.Registry
	metrics *axisim.Metrics
	started time.Time
}

// New returns a server with its own metrics registry.
//
func New(log zerolog.Logger) (*Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m, err := axisim.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		router:  gin.New(),
		log:     log,
		reg:     reg,
		metrics: m,
		started: time.Now(),
	}
	s.router.Use(gin.Recovery(), requestLogger(log))
	s.registerRoutes()
	return s, nil
}

// Handler returns the HTTP handler of the server.
//
func (s *Server) Handler() http.Handler { return s.router }

// Metrics returns the simulation metrics updated by scenario runs.
//
func (s *Server) Metrics() *axisim.Metrics { return s.metrics }

// ListenAndServe serves on addr until ctx is done.
//
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Wrap(srv.Shutdown(sctx), "shutdown")
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(s.started).String(),
		})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})))
	s.router.POST("/run", s.run)
}

func (s *Server) run(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sc, err := config.Parse(string(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": axisim.KindOf(err).String()})
		return
	}
	res, err := scenario.Run(c.Request.Context(), sc, s.log, s.metrics)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  err.Error(),
			"kind":   axisim.KindOf(err).String(),
			"result": res,
		})
		return
	}
	c.JSON(http.StatusOK, res)
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("http_request")
	}
}
