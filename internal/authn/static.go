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

package authn

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"
	"time"
)

// StaticToken represents a static authentication token
type StaticToken struct {
	Token     string
	Identity  string
	ExpiresAt *time.Time
	Metadata  map[string]string
}

type storedToken struct {
	digest    [sha256.Size]byte
	identity  string
	expiresAt *time.Time
	metadata  map[string]string
}

// StaticProvider implements static token authentication. Only SHA-256
// digests of the tokens are kept.
type StaticProvider struct {
	tokens []storedToken
	mu     sync.RWMutex
	now    func() time.Time
}

// NewStaticProvider creates a new static token provider
func NewStaticProvider(tokens ...StaticToken) *StaticProvider {
	s := &StaticProvider{now: time.Now}
	for _, t := range tokens {
		s.AddToken(t)
	}
	return s
}

// ParseTokens parses a comma separated list of identity:token pairs
func ParseTokens(list string) ([]StaticToken, error) {
	var tokens []StaticToken
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		identity, token, ok := strings.Cut(entry, ":")
		if !ok || identity == "" || token == "" {
			return nil, fmt.Errorf("invalid token entry %q: want identity:token", identity)
		}
		tokens = append(tokens, StaticToken{Identity: identity, Token: token})
	}
	return tokens, nil
}

// AddToken adds a static token, replacing any entry for the same token
func (s *StaticProvider) AddToken(token StaticToken) {
	digest := sha256.Sum256([]byte(token.Token))

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tokens {
		if s.tokens[i].digest == digest {
			s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
			break
		}
	}
	s.tokens = append(s.tokens, storedToken{
		digest:    digest,
		identity:  token.Identity,
		expiresAt: token.ExpiresAt,
		metadata:  token.Metadata,
	})
}

// Len returns the number of configured tokens
func (s *StaticProvider) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Authenticate authenticates using a static token
func (s *StaticProvider) Authenticate(_ context.Context, token string) (*Identity, error) {
	digest := sha256.Sum256([]byte(token))

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Compare against every entry so timing does not depend on the match
	var match *storedToken
	for i := range s.tokens {
		if subtle.ConstantTimeCompare(digest[:], s.tokens[i].digest[:]) == 1 {
			match = &s.tokens[i]
		}
	}
	if match == nil {
		return nil, ErrInvalidToken
	}

	if match.expiresAt != nil && s.now().After(*match.expiresAt) {
		return nil, fmt.Errorf("%w: %s", ErrTokenExpired, match.identity)
	}

	return &Identity{
		ID:       match.identity,
		Type:     "token",
		Metadata: match.metadata,
	}, nil
}
