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

// Package cryptoengine provides the keyed-hash backend driven by the
// test-case executor.
package cryptoengine

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sort"
	"sync"
)

// CryptoEngine implements the Engine interface
type CryptoEngine struct {
	mu            sync.RWMutex
	hmacProviders map[string]HMACProvider
	randReader    io.Reader
}

// NewEngine creates a new crypto engine
func NewEngine() *CryptoEngine {
	engine := &CryptoEngine{
		hmacProviders: make(map[string]HMACProvider),
		randReader:    rand.Reader,
	}

	// Register default providers
	engine.registerDefaultProviders()

	return engine
}

// registerDefaultProviders registers all default HMAC providers
func (e *CryptoEngine) registerDefaultProviders() {
	for _, p := range defaultHMACProviders() {
		e.RegisterHMACProvider(p)
	}
}

// RegisterHMACProvider registers a new HMAC provider
func (e *CryptoEngine) RegisterHMACProvider(provider HMACProvider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hmacProviders[provider.Algorithm()] = provider
}

// Provider returns the provider registered for algorithm
func (e *CryptoEngine) Provider(algorithm string) (HMACProvider, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	provider, ok := e.hmacProviders[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithm)
	}
	return provider, nil
}

// Algorithms lists the registered algorithm names in sorted order
func (e *CryptoEngine) Algorithms() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.hmacProviders))
	for name := range e.hmacProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HMAC computes HMAC of data using the given key
//
//nolint:revive // ctx parameter is required by Engine interface
func (e *CryptoEngine) HMAC(ctx context.Context, key []byte, algorithm string, data []byte) ([]byte, error) {
	provider, err := e.Provider(algorithm)
	if err != nil {
		return nil, err
	}

	return provider.HMAC(key, data), nil
}

// GenerateRandom generates random bytes
//
//nolint:revive // ctx parameter is required by Engine interface
func (e *CryptoEngine) GenerateRandom(ctx context.Context, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid random byte count: %d", n)
	}

	bytes := make([]byte, n)
	if _, err := io.ReadFull(e.randReader, bytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return bytes, nil
}
