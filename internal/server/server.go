// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the conversion service over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/pdiddy/docling-service/docs"
	"github.com/pdiddy/docling-service/internal/convert"
	"github.com/pdiddy/docling-service/internal/logging"
	"github.com/pdiddy/docling-service/pkg/types"
)

const readHeaderTimeout = 10 * time.Second

// Server routes requests to the handlers. It holds no per-request state;
// the converter's worker slots are the only thing shared between requests.
type Server struct {
	cfg       types.ServiceConfig
	converter convert.Converter
	logger    *logging.Logger
	accessOut io.Writer
	engine    *gin.Engine
}

// Option customizes a Server.
type Option func(*Server)

// WithAccessLog sends the per-request JSON access log to w instead of stdout.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) {
		s.accessOut = w
	}
}

// New wires cfg and conv into a ready-to-serve handler tree. At most
// cfg.Workers Convert calls run at once, and a request waits at most
// cfg.ConversionTimeout for its slot and result together. A timed-out call
// keeps its slot until the backend actually returns.
func New(cfg types.ServiceConfig, conv convert.Converter, logger *logging.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		converter: convert.WithTimeout(convert.WithLimit(conv, cfg.Workers), cfg.ConversionTimeout),
		logger:    logger,
		accessOut: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.routes()
	return s
}

// routes godoc
// @title Docling PDF Processing Service
// @version 1.0.0
// @description Converts uploaded PDF documents to Markdown.
// @BasePath /
// @securityDefinitions.apikey APIKey
// @in header
// @name X-API-Key
func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(
		requestID(s.logger),
		accessLog(s.accessOut),
		recovery(s.logger),
		corsPolicy(s.cfg),
	)

	r.GET("/", s.RootHandler)
	r.GET("/health", s.HealthHandler)
	r.POST("/convert-pdf", s.ConvertPDFHandler)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.NoRoute(notFound)

	return r
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on cfg.Addr until ctx is cancelled, then drains in-flight
// requests for up to cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server_listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown_signal_received", "drain_timeout", s.cfg.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("shutdown_complete")
		return nil
	}
}
