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

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	// defaultEtcdDialTimeout is the default timeout for establishing connection to etcd
	defaultEtcdDialTimeout = 5 * time.Second
	// defaultEtcdRequestTimeout is the default timeout for etcd requests
	defaultEtcdRequestTimeout = 3 * time.Second
	// defaultEtcdKeyPrefix is the default prefix for all keys stored in etcd
	defaultEtcdKeyPrefix = "/openacvp/"
	// defaultEtcdRetryMaxAttempts is the maximum number of attempts for failed operations
	defaultEtcdRetryMaxAttempts = 3
	// defaultEtcdRetryBackoff is the backoff duration between retries
	defaultEtcdRetryBackoff = 100 * time.Millisecond
)

// EtcdConfig holds etcd connection configuration
type EtcdConfig struct {
	// Endpoints is a list of etcd endpoints (e.g., ["localhost:2379"])
	Endpoints []string
	// DialTimeout is the timeout for establishing connection (default: 5s)
	DialTimeout time.Duration
	// RequestTimeout is the timeout for etcd requests (default: 3s)
	RequestTimeout time.Duration
	// KeyPrefix is the prefix for all keys (default: "/openacvp/")
	KeyPrefix string
	// RetryMaxAttempts is the maximum number of attempts (default: 3)
	RetryMaxAttempts int
	// RetryBackoff is the initial backoff between attempts (default: 100ms)
	RetryBackoff time.Duration
}

func (c EtcdConfig) withDefaults() EtcdConfig {
	if c.DialTimeout == 0 {
		c.DialTimeout = defaultEtcdDialTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultEtcdRequestTimeout
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaultEtcdKeyPrefix
	}
	if !strings.HasSuffix(c.KeyPrefix, "/") {
		c.KeyPrefix += "/"
	}
	if c.RetryMaxAttempts == 0 {
		c.RetryMaxAttempts = defaultEtcdRetryMaxAttempts
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = defaultEtcdRetryBackoff
	}
	return c
}

// EtcdBackend stores reports in etcd so several harness instances can
// share them
type EtcdBackend struct {
	client *clientv3.Client
	cfg    EtcdConfig
	mu     sync.RWMutex
	closed bool
}

// NewEtcdBackend connects to etcd and checks the first endpoint
func NewEtcdBackend(ctx context.Context, config EtcdConfig) (*EtcdBackend, error) {
	if len(config.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one etcd endpoint is required")
	}
	cfg := config.withDefaults()

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Context:     ctx,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	statusCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if _, err := client.Status(statusCtx, cfg.Endpoints[0]); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &EtcdBackend{client: client, cfg: cfg}, nil
}

func (e *EtcdBackend) prefixKey(key string) string {
	return e.cfg.KeyPrefix + key
}

func (e *EtcdBackend) stripPrefix(key string) string {
	return strings.TrimPrefix(key, e.cfg.KeyPrefix)
}

// retryOperation retries an operation with exponential backoff
func (e *EtcdBackend) retryOperation(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error
	backoff := e.cfg.RetryBackoff

	for attempt := range e.cfg.RetryMaxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		requestCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
		err := operation(requestCtx)
		cancel()
		if err == nil {
			return nil
		}

		lastErr = err
		if !isRetryableError(err) || ctx.Err() != nil {
			return err
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", e.cfg.RetryMaxAttempts, lastErr)
}

// isRetryableError reports transient connection and leadership errors
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "unavailable") ||
		strings.Contains(errStr, "leader")
}

func (e *EtcdBackend) checkOpen() error {
	if e.closed {
		return ErrClosed
	}
	return nil
}

// Get retrieves a value by key
func (e *EtcdBackend) Get(ctx context.Context, key string) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	var resp *clientv3.GetResponse
	err := e.retryOperation(ctx, func(ctx context.Context) error {
		var opErr error
		resp, opErr = e.client.Get(ctx, e.prefixKey(key))
		return opErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get value: %w", err)
	}

	if len(resp.Kvs) == 0 {
		return nil, ErrNotFound
	}
	return resp.Kvs[0].Value, nil
}

// Put stores a value with the given key
func (e *EtcdBackend) Put(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.checkOpen(); err != nil {
		return err
	}

	err := e.retryOperation(ctx, func(ctx context.Context) error {
		_, opErr := e.client.Put(ctx, e.prefixKey(key), string(value))
		return opErr
	})
	if err != nil {
		return fmt.Errorf("failed to put value: %w", err)
	}
	return nil
}

// Delete removes a key-value pair
func (e *EtcdBackend) Delete(ctx context.Context, key string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.checkOpen(); err != nil {
		return err
	}

	var resp *clientv3.DeleteResponse
	err := e.retryOperation(ctx, func(ctx context.Context) error {
		var opErr error
		resp, opErr = e.client.Delete(ctx, e.prefixKey(key))
		return opErr
	})
	if err != nil {
		return fmt.Errorf("failed to delete value: %w", err)
	}

	if resp.Deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all keys with the given prefix
func (e *EtcdBackend) List(ctx context.Context, prefix string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	var resp *clientv3.GetResponse
	err := e.retryOperation(ctx, func(ctx context.Context) error {
		var opErr error
		resp, opErr = e.client.Get(ctx, e.prefixKey(prefix),
			clientv3.WithPrefix(),
			clientv3.WithKeysOnly(),
			clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
		)
		return opErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	keys := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		keys = append(keys, e.stripPrefix(string(kv.Key)))
	}
	return keys, nil
}

// Close closes the backend
func (e *EtcdBackend) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.client.Close()
}

// Ping checks if the backend is available
func (e *EtcdBackend) Ping(ctx context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.checkOpen(); err != nil {
		return err
	}

	requestCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	_, err := e.client.Status(requestCtx, e.client.Endpoints()[0])
	return err
}
