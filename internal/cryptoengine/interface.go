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

package cryptoengine

import (
	"context"
	"errors"
)

// ErrUnknownAlgorithm is returned when no provider is registered for an algorithm
var ErrUnknownAlgorithm = errors.New("unknown HMAC algorithm")

// Engine defines the interface for the keyed-hash operations under test
type Engine interface {
	// HMAC computes HMAC of data using the given key
	HMAC(ctx context.Context, key []byte, algorithm string, data []byte) ([]byte, error)

	// GenerateRandom generates random bytes
	GenerateRandom(ctx context.Context, n int) ([]byte, error)

	// Algorithms lists the registered algorithm names
	Algorithms() []string
}

// HMACProvider represents an HMAC algorithm provider
type HMACProvider interface {
	// Algorithm returns the algorithm name
	Algorithm() string

	// Size returns the full tag size in bytes
	Size() int

	// HMAC computes HMAC
	HMAC(key []byte, data []byte) []byte
}
