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

// Package authn authenticates API clients by bearer token or client
// certificate.
package authn

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidToken is returned when token is invalid
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when token has expired
	ErrTokenExpired = errors.New("token expired")
)

// Identity represents an authenticated identity
type Identity struct {
	ID       string
	Type     string // "token", "mtls", "spiffe"
	Metadata map[string]string
}

// Provider defines the interface for authentication providers
type Provider interface {
	// Authenticate authenticates a token and returns its identity
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

// CertificateProvider authenticates the client certificate of a request
type CertificateProvider interface {
	AuthenticateFromRequest(r *http.Request) (*Identity, error)
}

// Manager manages authentication providers
type Manager struct {
	providers     []Provider
	certProviders []CertificateProvider
}

// NewManager creates a new authentication manager. Client certificates are
// authenticated by an MTLSProvider until WithCertificateProviders replaces it.
func NewManager(providers ...Provider) *Manager {
	return &Manager{
		providers:     providers,
		certProviders: []CertificateProvider{NewMTLSProvider()},
	}
}

// WithCertificateProviders replaces the client certificate providers
func (m *Manager) WithCertificateProviders(providers ...CertificateProvider) *Manager {
	m.certProviders = providers
	return m
}

// Authenticate tries every provider in order
func (m *Manager) Authenticate(ctx context.Context, token string) (*Identity, error) {
	for _, provider := range m.providers {
		if identity, err := provider.Authenticate(ctx, token); err == nil {
			return identity, nil
		}
	}

	return nil, ErrUnauthorized
}

// AuthenticateRequest tries every certificate provider on the client
// certificate of r
func (m *Manager) AuthenticateRequest(r *http.Request) (*Identity, error) {
	if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
		return nil, ErrUnauthorized
	}

	var lastErr error = ErrUnauthorized
	for _, provider := range m.certProviders {
		identity, err := provider.AuthenticateFromRequest(r)
		if err == nil {
			return identity, nil
		}
		lastErr = err
	}

	return nil, lastErr
}
