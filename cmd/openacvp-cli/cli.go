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

// Package main provides the openacvp CLI. Local commands run test vectors
// in process; remote commands talk to an openacvp server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Gosayram/openacvp/internal/logging"
	"github.com/Gosayram/openacvp/internal/resultstore"
	"github.com/Gosayram/openacvp/internal/storage"
	"github.com/Gosayram/openacvp/internal/version"
	"github.com/Gosayram/openacvp/pkg/sdk"
)

const (
	// defaultClientTimeout is the default timeout for HTTP client requests
	defaultClientTimeout = 30 * time.Second
	// defaultFileMode is the default file mode for output files (read/write for owner only)
	defaultFileMode = 0o600
	// stdinPath selects standard input for file arguments
	stdinPath = "-"
)

// CLI represents the root CLI structure
type CLI struct {
	ServerURL string `name:"server" env:"OPENACVP_SERVER_URL" default:"http://localhost:8080" help:"openacvp server URL"`
	Token     string `name:"token" env:"OPENACVP_TOKEN" help:"Bearer token sent to the server"`
	LogLevel  string `name:"log-level" env:"OPENACVP_LOG_LEVEL" default:"warn" help:"Log level for local commands"`

	Version VersionCmd `cmd:"" help:"Show version information"`
	Exec    ExecCmd    `cmd:"" help:"Run one HMAC test case locally"`
	Run     RunCmd     `cmd:"" help:"Run a vector set file locally"`
	Sample  SampleCmd  `cmd:"" help:"Generate a sample vector set"`
	Runs    RunsCmd    `cmd:"" help:"Inspect locally stored runs"`
	Migrate MigrateCmd `cmd:"" help:"Database migration commands"`
	Health  HealthCmd  `cmd:"" help:"Check server health"`
	Remote  RemoteCmd  `cmd:"" help:"Run test vectors on an openacvp server"`

	stdout io.Writer `kong:"-"`
	stderr io.Writer `kong:"-"`
	stdin  io.Reader `kong:"-"`
}

// StorageFlags selects the backend used by local commands
type StorageFlags struct {
	Type       string   `name:"type" env:"OPENACVP_STORAGE_TYPE" default:"boltdb" enum:"boltdb,file,etcd,postgres" help:"Storage type"`
	Path       string   `name:"path" env:"OPENACVP_STORAGE_PATH" default:"./data/openacvp.db" help:"Storage path (boltdb, file)"`
	Connection string   `name:"connection" env:"OPENACVP_STORAGE_CONNECTION" help:"PostgreSQL connection string"`
	Endpoints  []string `name:"endpoints" env:"OPENACVP_STORAGE_ETCD_ENDPOINTS" default:"localhost:2379" help:"etcd endpoints"`
}

func (s StorageFlags) open(ctx context.Context) (storage.Backend, error) {
	return storage.Open(ctx, storage.Config{
		Type:     s.Type,
		Path:     s.Path,
		Etcd:     storage.EtcdConfig{Endpoints: s.Endpoints},
		Postgres: storage.PostgresConfig{ConnectionString: s.Connection},
	})
}

func (s StorageFlags) openStore(ctx context.Context) (*resultstore.Store, func(), error) {
	backend, err := s.open(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return resultstore.NewStore(backend), func() { _ = backend.Close() }, nil
}

func (c *CLI) out() io.Writer {
	if c.stdout == nil {
		return os.Stdout
	}
	return c.stdout
}

func (c *CLI) errorf(format string, args ...any) {
	w := c.stderr
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, format, args...)
}

func (c *CLI) in() io.Reader {
	if c.stdin == nil {
		return os.Stdin
	}
	return c.stdin
}

// getClient creates an SDK client from CLI configuration
func (c *CLI) getClient() (*sdk.Client, error) {
	config := sdk.Config{
		BaseURL: c.ServerURL,
		Token:   c.Token,
		Timeout: defaultClientTimeout,
	}
	return sdk.NewClient(config)
}

func (c *CLI) logger() *logging.Logger {
	logger, err := logging.New(c.LogLevel, "text", "stderr")
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// readInput reads a file, or stdin for "-"
func (c *CLI) readInput(file string) ([]byte, error) {
	if file == stdinPath {
		return io.ReadAll(c.in())
	}

	// Validate file path to prevent directory traversal
	cleanPath := filepath.Clean(file)
	if cleanPath != file && cleanPath != filepath.Base(file) {
		return nil, fmt.Errorf("invalid file path: %s", file)
	}
	//nolint:gosec // file path is validated above and controlled by user input
	return os.ReadFile(cleanPath)
}

// writeJSON writes v as indented JSON to path, or to stdout when path is empty
func (c *CLI) writeJSON(path string, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	output = append(output, '\n')

	if path == "" {
		_, err = c.out().Write(output)
		return err
	}

	if err := os.WriteFile(path, output, defaultFileMode); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	c.errorf("Output written to %s\n", path)
	return nil
}

// VersionCmd shows version information
type VersionCmd struct {
	CLI *CLI `kong:"-"`
}

// Run executes the version command
func (v *VersionCmd) Run() error {
	info := version.Info()
	_, err := fmt.Fprintf(v.CLI.out(), "openacvp-cli version %s\ncommit: %s\ndate: %s\ngo: %s\n",
		info["version"], info["commit"], info["date"], info["go"])
	return err
}

// HealthCmd checks server health
type HealthCmd struct {
	CLI *CLI `kong:"-"`
}

// Run executes the health command
func (h *HealthCmd) Run() error {
	client, err := h.CLI.getClient()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	if err := client.Health(context.Background()); err != nil {
		return fmt.Errorf("server health check failed: %w", err)
	}

	_, err = fmt.Fprintln(h.CLI.out(), "Server is healthy")
	return err
}

// MigrateCmd manages database migrations
type MigrateCmd struct {
	Up MigrateUpCmd `cmd:"" help:"Apply pending migrations"`
}

// MigrateUpCmd applies pending PostgreSQL migrations
type MigrateUpCmd struct {
	CLI        *CLI   `kong:"-"`
	Connection string `name:"connection" env:"OPENACVP_STORAGE_CONNECTION" required:"" help:"PostgreSQL connection string"`
}

// Run executes the migrate up command
func (m *MigrateUpCmd) Run() error {
	ctx := context.Background()

	backend, err := storage.NewPostgresBackend(ctx, storage.PostgresConfig{ConnectionString: m.Connection})
	if err != nil {
		return err
	}
	defer backend.Close()

	version, err := backend.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(m.CLI.out(), "Schema is at version %d\n", version)
	return err
}
