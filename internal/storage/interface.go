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

// Package storage provides the key-value backends that hold run reports:
// bbolt for a single node, plain files for development, etcd and
// PostgreSQL for reports shared between harness instances.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key is not found
	ErrNotFound = errors.New("key not found")
	// ErrInvalidKey is returned for keys that cannot be stored
	ErrInvalidKey = errors.New("invalid key")
	// ErrClosed is returned when a backend is used after Close
	ErrClosed = errors.New("backend is closed")
)

// Backend defines the interface for storage backends
type Backend interface {
	// Get retrieves a value by key
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores a value with the given key
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes a key-value pair
	Delete(ctx context.Context, key string) error
	// List returns all keys with the given prefix in lexical order
	List(ctx context.Context, prefix string) ([]string, error)
	// Close closes the backend and releases resources
	Close() error
	// Ping checks if the backend is available
	Ping(ctx context.Context) error
}

// Backend types accepted by Open
const (
	TypeBolt     = "boltdb"
	TypeFile     = "file"
	TypeEtcd     = "etcd"
	TypePostgres = "postgres"
)

// Config selects and configures a backend
type Config struct {
	Type     string
	Path     string
	Etcd     EtcdConfig
	Postgres PostgresConfig
}

// Open creates the backend described by cfg
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Type {
	case TypeBolt, "":
		return NewBoltBackend(cfg.Path)
	case TypeFile:
		return NewFileBackend(cfg.Path)
	case TypeEtcd:
		return NewEtcdBackend(ctx, cfg.Etcd)
	case TypePostgres:
		return NewPostgresBackend(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	return nil
}
