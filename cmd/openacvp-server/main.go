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

// Package main provides the openacvp server, which runs HMAC test cases
// and ACVP vector sets over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Gosayram/openacvp/internal/authn"
	"github.com/Gosayram/openacvp/internal/config"
	"github.com/Gosayram/openacvp/internal/cryptoengine"
	"github.com/Gosayram/openacvp/internal/executor"
	"github.com/Gosayram/openacvp/internal/logging"
	"github.com/Gosayram/openacvp/internal/resultstore"
	"github.com/Gosayram/openacvp/internal/server"
	"github.com/Gosayram/openacvp/internal/storage"
	"github.com/Gosayram/openacvp/internal/vectorset"
	"github.com/Gosayram/openacvp/internal/version"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, logger := initializeConfigAndLogger()
	defer func() {
		_ = logger.Sync() // Ignore sync errors on exit
	}()

	logStartupInfo(logger, cfg)

	components := initializeComponents(ctx, cfg, logger)
	defer components.storageBackend.Close()

	httpServer := setupHTTPServer(cfg, logger, components)
	startAndShutdownServer(httpServer, cfg, logger)
}

// appComponents holds all initialized application components
type appComponents struct {
	storageBackend storage.Backend
	resultStore    *resultstore.Store
	cryptoEngine   *cryptoengine.CryptoEngine
	runner         *vectorset.Runner
	authManager    *authn.Manager
}

// initializeConfigAndLogger loads configuration and initializes logger
func initializeConfigAndLogger() (*config.Config, *logging.Logger) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	return cfg, logger
}

// logStartupInfo logs server startup information
func logStartupInfo(logger *logging.Logger, cfg *config.Config) {
	info := version.Info()
	logger.Info("Starting openacvp-server",
		zap.String("version", info["version"]),
		zap.String("commit", info["commit"]),
		zap.String("date", info["date"]),
		zap.String("address", cfg.Server.Address),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Type),
	)
}

// initializeComponents initializes all application components
func initializeComponents(ctx context.Context, cfg *config.Config, logger *logging.Logger) *appComponents {
	storageBackend, err := initializeStorage(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	cryptoEngine := cryptoengine.NewEngine()
	runner := vectorset.NewRunner(executor.New(cryptoEngine), logger, cfg.Runner.Concurrency)

	authManager, err := initializeAuth(cfg, logger.Logger)
	if err != nil {
		logger.Fatal("Failed to initialize authentication", zap.Error(err))
	}

	return &appComponents{
		storageBackend: storageBackend,
		resultStore:    resultstore.NewStore(storageBackend),
		cryptoEngine:   cryptoEngine,
		runner:         runner,
		authManager:    authManager,
	}
}

// initializeAuth builds the authentication manager, nil when /v1 is open
func initializeAuth(cfg *config.Config, logger *zap.Logger) (*authn.Manager, error) {
	if !cfg.Auth.Enabled() {
		logger.Warn("API authentication disabled")
		return nil, nil
	}

	tokens, err := authn.ParseTokens(cfg.Auth.Tokens)
	if err != nil {
		return nil, err
	}

	manager := authn.NewManager(authn.NewStaticProvider(tokens...))
	if cfg.Auth.SPIFFETrustDomain != "" {
		spiffe, err := authn.NewSPIFFEProvider(cfg.Auth.SPIFFETrustDomain)
		if err != nil {
			return nil, err
		}
		manager.WithCertificateProviders(spiffe)
	}

	logger.Info("API authentication enabled",
		zap.Int("static_tokens", len(tokens)),
		zap.Bool("required", cfg.Auth.Required),
		zap.Bool("client_certificates", cfg.Server.RequireClientCert),
		zap.String("spiffe_trust_domain", cfg.Auth.SPIFFETrustDomain),
	)
	return manager, nil
}

// initializeStorage opens the configured storage backend
func initializeStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Backend, error) {
	switch cfg.Storage.Type {
	case storage.TypeEtcd:
		logger.Info("Using etcd storage backend",
			zap.Strings("endpoints", cfg.Storage.Endpoints),
			zap.Duration("dial_timeout", cfg.Storage.DialTimeout),
			zap.Duration("request_timeout", cfg.Storage.RequestTimeout),
		)
	case storage.TypePostgres:
		logger.Info("Using postgres storage backend", zap.Int32("max_conns", cfg.Storage.MaxConns))
	default:
		logger.Info("Using storage backend", zap.String("type", cfg.Storage.Type), zap.String("path", cfg.Storage.Path))
	}

	return storage.Open(ctx, cfg.Storage.Backend())
}

// setupHTTPServer configures and sets up the HTTP server
func setupHTTPServer(cfg *config.Config, logger *logging.Logger, components *appComponents) *server.Server {
	serverConfig := &server.Config{
		Address:           cfg.Server.Address,
		Port:              cfg.Server.Port,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		RequestTimeout:    cfg.Server.RequestTimeout,
		TLSEnabled:        cfg.Server.TLSEnabled,
		TLSCertFile:       cfg.Server.TLSCertFile,
		TLSKeyFile:        cfg.Server.TLSKeyFile,
		TLSCACertFile:     cfg.Server.TLSCACertFile,
		RequireClientCert: cfg.Server.RequireClientCert,
		MetricsEnabled:    cfg.Metrics.Enabled,
		MetricsPath:       cfg.Metrics.Path,
		Auth:              components.authManager,
		AuthRequired:      cfg.Auth.Required,
	}

	httpServer := server.NewServer(serverConfig, logger.Logger, components.storageBackend.Ping)
	handlers := server.NewHandlers(
		logger.Logger,
		components.cryptoEngine,
		components.runner,
		components.resultStore,
		cfg.Server.MaxBodyBytes,
	)
	httpServer.RegisterRoutes(handlers)

	return httpServer
}

// startAndShutdownServer starts the server and handles graceful shutdown
func startAndShutdownServer(httpServer *server.Server, cfg *config.Config, logger *logging.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Info("Server starting...")
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErrChan:
		logger.Error("Server error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
