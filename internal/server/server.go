// Copyright 2025 Gosayram Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the HMAC test harness over HTTP.
package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Gosayram/openacvp/internal/authn"
)

const (
	// defaultRequestTimeout is the default timeout for HTTP requests
	defaultRequestTimeout = 60 * time.Second
	// compressionLevel is the gzip level for JSON responses
	compressionLevel = 5
)

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	logger     *zap.Logger
	config     *Config
}

// Config contains server configuration
type Config struct {
	Address           string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RequestTimeout    time.Duration
	TLSEnabled        bool
	TLSCertFile       string
	TLSKeyFile        string
	TLSCACertFile     string
	RequireClientCert bool
	MetricsEnabled    bool
	MetricsPath       string
	// Auth authenticates /v1 requests when set
	Auth *authn.Manager
	// AuthRequired rejects anonymous /v1 requests; otherwise only
	// presented credentials are checked
	AuthRequired bool
}

// NewServer creates a new HTTP server. health may be nil.
func NewServer(config *Config, logger *zap.Logger, health HealthCheck) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := config.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(timeout))
	router.Use(middleware.Compress(compressionLevel, "application/json"))
	router.Use(MetricsMiddleware)
	if config.TLSEnabled {
		router.Use(mTLSMiddleware(logger, config.RequireClientCert))
	}

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status, resp := http.StatusOK, HealthResponse{Status: "healthy", Storage: "ok"}
		if health != nil {
			if err := health(r.Context()); err != nil {
				logger.Warn("Health check failed", zap.Error(err))
				status, resp = http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Storage: err.Error()}
			}
		}
		writeJSON(logger, w, status, resp)
	})

	if config.MetricsEnabled {
		path := config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, promhttp.Handler())
	}

	return &Server{
		router: router,
		logger: logger,
		config: config,
	}
}

// RegisterRoutes registers API routes
func (s *Server) RegisterRoutes(handlers *Handlers) {
	s.router.Route("/v1", func(r chi.Router) {
		if s.config.Auth != nil {
			r.Use(authn.Middleware(s.config.Auth, s.logger, s.config.AuthRequired))
		}
		r.Get("/algorithms", handlers.ListAlgorithms)
		r.Post("/hmac", handlers.ExecuteHMAC)
		r.Post("/vectorsets", handlers.SubmitVectorSet)
		r.Post("/vectorsets/sample", handlers.GenerateVectorSet)
		r.Get("/runs", handlers.ListRuns)
		r.Get("/runs/{id}", handlers.GetRun)
		r.Delete("/runs/{id}", handlers.DeleteRun)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	if s.config.TLSEnabled {
		tlsConfig, err := s.buildTLSConfig()
		if err != nil {
			return fmt.Errorf("failed to build TLS config: %w", err)
		}
		s.httpServer.TLSConfig = tlsConfig
	}

	s.logger.Info("Starting HTTP server",
		zap.String("address", addr),
		zap.Bool("tls_enabled", s.config.TLSEnabled),
	)

	if s.config.TLSEnabled {
		return s.httpServer.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// buildTLSConfig builds the TLS 1.3 configuration, loading the client CA
// when client certificates are required
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS13,
	}

	if s.config.RequireClientCert {
		pem, err := os.ReadFile(s.config.TLSCACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read client CA: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", s.config.TLSCACertFile)
		}

		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return tlsConfig, nil
}

// Router returns the chi router (for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
