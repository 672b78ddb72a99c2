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
	"crypto/x509"
	"fmt"
	"net/http"
	"time"
)

// MTLSProvider authenticates verified client certificates
type MTLSProvider struct{}

// NewMTLSProvider creates a new mTLS authentication provider
func NewMTLSProvider() *MTLSProvider {
	return &MTLSProvider{}
}

// AuthenticateFromRequest returns the identity of the client certificate
func (m *MTLSProvider) AuthenticateFromRequest(r *http.Request) (*Identity, error) {
	if r.TLS == nil {
		return nil, fmt.Errorf("no TLS connection: %w", ErrUnauthorized)
	}

	if len(r.TLS.PeerCertificates) == 0 {
		return nil, fmt.Errorf("no client certificate: %w", ErrUnauthorized)
	}

	cert := r.TLS.PeerCertificates[0]

	return &Identity{
		ID:   extractIdentityFromCert(cert),
		Type: "mtls",
		Metadata: map[string]string{
			"cn":        cert.Subject.CommonName,
			"serial":    serial(cert),
			"issuer":    cert.Issuer.String(),
			"not_after": cert.NotAfter.UTC().Format(time.RFC3339),
		},
	}, nil
}

func serial(cert *x509.Certificate) string {
	if cert.SerialNumber == nil {
		return ""
	}
	return cert.SerialNumber.String()
}

// extractIdentityFromCert extracts identity from certificate
func extractIdentityFromCert(cert *x509.Certificate) string {
	if len(cert.URIs) > 0 {
		return cert.URIs[0].String()
	}

	if len(cert.DNSNames) > 0 {
		return cert.DNSNames[0]
	}

	if len(cert.EmailAddresses) > 0 {
		return cert.EmailAddresses[0]
	}

	if cert.Subject.CommonName != "" {
		return cert.Subject.CommonName
	}

	return serial(cert)
}
