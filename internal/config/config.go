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

// Package config provides configuration loading for the OpenACVP harness.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Gosayram/openacvp/internal/authn"
	"github.com/Gosayram/openacvp/internal/storage"
)

const (
	// defaultServerPort is the default HTTP server port
	defaultServerPort = 8080
	// defaultReadTimeout is the default read timeout for HTTP server
	defaultReadTimeout = 30 * time.Second
	// defaultWriteTimeout is the default write timeout for HTTP server
	defaultWriteTimeout = 60 * time.Second
	// defaultIdleTimeout is the default idle timeout for HTTP server
	defaultIdleTimeout = 120 * time.Second
	// defaultRequestTimeout bounds a single request, including vector set runs
	defaultRequestTimeout = 60 * time.Second
	// defaultMaxBodyBytes limits request bodies; vector sets can be large
	defaultMaxBodyBytes = 32 << 20
	// defaultEtcdDialTimeout is the default etcd dial timeout
	defaultEtcdDialTimeout = 5 * time.Second
	// defaultEtcdRequestTimeout is the default etcd request timeout
	defaultEtcdRequestTimeout = 3 * time.Second
	// defaultPostgresMaxConns is the default postgres pool size
	defaultPostgresMaxConns = 10
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Logging LoggingConfig
	Metrics MetricsConfig
	Runner  RunnerConfig
	Auth    AuthConfig
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Address           string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RequestTimeout    time.Duration
	MaxBodyBytes      int64
	TLSEnabled        bool
	TLSCertFile       string
	TLSKeyFile        string
	TLSCACertFile     string
	RequireClientCert bool
}

// StorageConfig contains storage backend configuration
type StorageConfig struct {
	Type           string        // "boltdb", "file", "etcd", "postgres"
	Path           string        // for boltdb/file
	Connection     string        // for postgres
	MaxConns       int32         // for postgres
	Endpoints      []string      // for etcd (comma-separated endpoints)
	DialTimeout    time.Duration // for etcd (default: 5s)
	RequestTimeout time.Duration // for etcd (default: 3s)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string // "debug", "info", "warn", "error"
	Format     string // "json", "text"
	OutputPath string
}

// MetricsConfig contains metrics configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// AuthConfig controls API authentication
type AuthConfig struct {
	// Tokens is a comma separated list of identity:token pairs
	Tokens string
	// Required rejects unauthenticated /v1 requests; otherwise they are
	// served anonymously
	Required bool
	// SPIFFETrustDomain, when set, authenticates client certificates as
	// X.509 SVIDs of this trust domain
	SPIFFETrustDomain string
}

// Enabled reports whether the /v1 authentication middleware is installed
func (a AuthConfig) Enabled() bool {
	return a.Required || a.Tokens != "" || a.SPIFFETrustDomain != ""
}

// RunnerConfig controls vector set execution
type RunnerConfig struct {
	// Concurrency is the number of test cases run in parallel, 0 for GOMAXPROCS
	Concurrency int
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address:           getEnv("OPENACVP_SERVER_ADDRESS", "0.0.0.0"),
			Port:              getEnvInt("OPENACVP_SERVER_PORT", defaultServerPort),
			ReadTimeout:       getEnvDuration("OPENACVP_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:      getEnvDuration("OPENACVP_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:       getEnvDuration("OPENACVP_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			RequestTimeout:    getEnvDuration("OPENACVP_SERVER_REQUEST_TIMEOUT", defaultRequestTimeout),
			MaxBodyBytes:      int64(getEnvInt("OPENACVP_SERVER_MAX_BODY_BYTES", defaultMaxBodyBytes)),
			TLSEnabled:        getEnvBool("OPENACVP_TLS_ENABLED", false),
			TLSCertFile:       getEnv("OPENACVP_TLS_CERT_FILE", ""),
			TLSKeyFile:        getEnv("OPENACVP_TLS_KEY_FILE", ""),
			TLSCACertFile:     getEnv("OPENACVP_TLS_CA_CERT_FILE", ""),
			RequireClientCert: getEnvBool("OPENACVP_TLS_REQUIRE_CLIENT_CERT", false),
		},
		Storage: StorageConfig{
			Type:           getEnv("OPENACVP_STORAGE_TYPE", storage.TypeBolt),
			Path:           getEnv("OPENACVP_STORAGE_PATH", "./data/openacvp.db"),
			Connection:     getEnv("OPENACVP_STORAGE_CONNECTION", ""),
			MaxConns:       safeInt32(getEnvInt("OPENACVP_STORAGE_MAX_CONNS", defaultPostgresMaxConns)),
			Endpoints:      getEnvSlice("OPENACVP_STORAGE_ETCD_ENDPOINTS", []string{"localhost:2379"}),
			DialTimeout:    getEnvDuration("OPENACVP_STORAGE_ETCD_DIAL_TIMEOUT", defaultEtcdDialTimeout),
			RequestTimeout: getEnvDuration("OPENACVP_STORAGE_ETCD_REQUEST_TIMEOUT", defaultEtcdRequestTimeout),
		},
		Logging: LoggingConfig{
			Level:      getEnv("OPENACVP_LOG_LEVEL", "info"),
			Format:     getEnv("OPENACVP_LOG_FORMAT", "json"),
			OutputPath: getEnv("OPENACVP_LOG_OUTPUT", ""),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("OPENACVP_METRICS_ENABLED", true),
			Path:    getEnv("OPENACVP_METRICS_PATH", "/metrics"),
		},
		Runner: RunnerConfig{
			Concurrency: getEnvInt("OPENACVP_RUNNER_CONCURRENCY", 0),
		},
		Auth: AuthConfig{
			Tokens:            getEnv("OPENACVP_AUTH_TOKENS", ""),
			Required:          getEnvBool("OPENACVP_AUTH_REQUIRED", false),
			SPIFFETrustDomain: getEnv("OPENACVP_AUTH_SPIFFE_TRUST_DOMAIN", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid max body size: %d", c.Server.MaxBodyBytes)
	}

	if c.Server.TLSEnabled {
		if c.Server.TLSCertFile == "" {
			return fmt.Errorf("TLS enabled but cert file not specified")
		}
		if c.Server.TLSKeyFile == "" {
			return fmt.Errorf("TLS enabled but key file not specified")
		}
		if c.Server.RequireClientCert && c.Server.TLSCACertFile == "" {
			return fmt.Errorf("client cert required but CA cert file not specified")
		}
	}

	switch c.Storage.Type {
	case storage.TypeBolt, storage.TypeFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("%s storage requires a path", c.Storage.Type)
		}
	case storage.TypeEtcd:
		if len(c.Storage.Endpoints) == 0 {
			return fmt.Errorf("etcd storage type requires at least one endpoint")
		}
	case storage.TypePostgres:
		if c.Storage.Connection == "" {
			return fmt.Errorf("postgres storage type requires a connection string")
		}
	case "":
		return fmt.Errorf("storage type not specified")
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if c.Runner.Concurrency < 0 {
		return fmt.Errorf("invalid runner concurrency: %d", c.Runner.Concurrency)
	}

	if _, err := authn.ParseTokens(c.Auth.Tokens); err != nil {
		return fmt.Errorf("invalid auth tokens: %w", err)
	}
	if c.Auth.Required && c.Auth.Tokens == "" && !c.Server.RequireClientCert {
		return fmt.Errorf("authentication required but no tokens or client certificates configured")
	}
	if c.Auth.SPIFFETrustDomain != "" {
		if _, err := authn.NewSPIFFEProvider(c.Auth.SPIFFETrustDomain); err != nil {
			return fmt.Errorf("invalid SPIFFE trust domain: %w", err)
		}
		if !c.Server.TLSEnabled || !c.Server.RequireClientCert {
			return fmt.Errorf("SPIFFE authentication requires TLS with client certificates")
		}
	}

	return nil
}

// Backend converts the storage settings into a storage.Config
func (s StorageConfig) Backend() storage.Config {
	return storage.Config{
		Type: s.Type,
		Path: s.Path,
		Etcd: storage.EtcdConfig{
			Endpoints:      s.Endpoints,
			DialTimeout:    s.DialTimeout,
			RequestTimeout: s.RequestTimeout,
		},
		Postgres: storage.PostgresConfig{
			ConnectionString: s.Connection,
			MaxConns:         s.MaxConns,
		},
	}
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part != "" {
				result = append(result, part)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// safeInt32 converts int to int32, clamping to int32 limits
func safeInt32(value int) int32 {
	const maxInt32 = int32(^uint32(0) >> 1)
	const minInt32 = -maxInt32 - 1

	if value > int(maxInt32) {
		return maxInt32
	}
	if value < int(minInt32) {
		return minInt32
	}
	return int32(value)
}
