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
	"crypto/x509"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/svid/x509svid"
)

// SPIFFEProvider authenticates X.509 SVIDs from one trust domain. The TLS
// stack must already have chained the certificate to the trust bundle.
type SPIFFEProvider struct {
	trustDomain spiffeid.TrustDomain
}

// NewSPIFFEProvider creates a provider for trustDomain, e.g. "lab.example.org"
func NewSPIFFEProvider(trustDomain string) (*SPIFFEProvider, error) {
	if trustDomain == "" {
		return nil, fmt.Errorf("trust domain is required")
	}

	td, err := spiffeid.TrustDomainFromString(trustDomain)
	if err != nil {
		return nil, fmt.Errorf("invalid trust domain: %w", err)
	}

	return &SPIFFEProvider{trustDomain: td}, nil
}

// TrustDomain returns the configured trust domain
func (s *SPIFFEProvider) TrustDomain() spiffeid.TrustDomain {
	return s.trustDomain
}

// AuthenticateFromRequest authenticates the client SVID of r
func (s *SPIFFEProvider) AuthenticateFromRequest(r *http.Request) (*Identity, error) {
	if r.TLS == nil {
		return nil, fmt.Errorf("no TLS connection: %w", ErrUnauthorized)
	}

	if len(r.TLS.PeerCertificates) == 0 {
		return nil, fmt.Errorf("no client certificate: %w", ErrUnauthorized)
	}

	return s.authenticateFromCertificate(r.TLS.PeerCertificates[0])
}

// Authenticate rejects tokens; SVIDs are only accepted from certificates
func (s *SPIFFEProvider) Authenticate(_ context.Context, _ string) (*Identity, error) {
	return nil, ErrInvalidToken
}

func (s *SPIFFEProvider) authenticateFromCertificate(cert *x509.Certificate) (*Identity, error) {
	id, err := x509svid.IDFromCert(cert)
	if err != nil {
		return nil, fmt.Errorf("no SPIFFE ID in certificate: %w: %w", ErrUnauthorized, err)
	}

	if !id.MemberOf(s.trustDomain) {
		return nil, fmt.Errorf("SPIFFE ID trust domain %s does not match %s: %w",
			id.TrustDomain(), s.trustDomain, ErrUnauthorized)
	}

	metadata := map[string]string{
		"spiffe_id":    id.String(),
		"trust_domain": s.trustDomain.String(),
		"serial":       serial(cert),
		"not_after":    cert.NotAfter.UTC().Format(time.RFC3339),
	}
	for i, segment := range strings.Split(strings.TrimPrefix(id.Path(), "/"), "/") {
		if segment != "" {
			metadata[fmt.Sprintf("path_%d", i)] = segment
		}
	}
	if cert.Subject.CommonName != "" {
		metadata["cn"] = cert.Subject.CommonName
	}

	return &Identity{
		ID:       id.String(),
		Type:     "spiffe",
		Metadata: metadata,
	}, nil
}
