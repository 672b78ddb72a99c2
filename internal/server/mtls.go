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

package server

import (
	"crypto/x509"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Headers set from the verified client certificate
const (
	HeaderClientIdentity = "X-Client-Identity"
	HeaderClientCN       = "X-Client-CN"
)

// mTLSMiddleware rejects plain connections and, when requireClientCert is
// set, connections without a usable client certificate. The client
// identity is passed on in request headers.
func mTLSMiddleware(logger *zap.Logger, requireClientCert bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil {
				logger.Warn("Non-TLS connection attempt", zap.String("remote_addr", r.RemoteAddr))
				http.Error(w, "TLS required", http.StatusBadRequest)
				return
			}

			// Never trust identity headers sent by the client
			r.Header.Del(HeaderClientIdentity)
			r.Header.Del(HeaderClientCN)

			if requireClientCert {
				if len(r.TLS.PeerCertificates) == 0 {
					logger.Warn("Client certificate not provided")
					http.Error(w, "Client certificate required", http.StatusUnauthorized)
					return
				}

				if err := verifyClientCertificate(r.TLS.PeerCertificates[0], time.Now()); err != nil {
					logger.Warn("Client certificate verification failed", zap.Error(err))
					http.Error(w, "Invalid client certificate", http.StatusUnauthorized)
					return
				}
			}

			if len(r.TLS.PeerCertificates) > 0 {
				cert := r.TLS.PeerCertificates[0]
				r.Header.Set(HeaderClientIdentity, extractIdentity(cert))
				r.Header.Set(HeaderClientCN, cert.Subject.CommonName)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// verifyClientCertificate checks the validity window of a certificate the
// TLS stack already chained to the configured CA
func verifyClientCertificate(cert *x509.Certificate, now time.Time) error {
	if cert == nil {
		return fmt.Errorf("certificate is nil")
	}
	if cert.NotAfter.Before(cert.NotBefore) {
		return fmt.Errorf("certificate has invalid validity period")
	}
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return fmt.Errorf("certificate is not valid at %s", now.UTC().Format(time.RFC3339))
	}
	return nil
}

// extractIdentity prefers a URI SAN, then a DNS SAN, then the common name
func extractIdentity(cert *x509.Certificate) string {
	if len(cert.URIs) > 0 {
		return cert.URIs[0].String()
	}
	if len(cert.DNSNames) > 0 {
		return cert.DNSNames[0]
	}
	return cert.Subject.CommonName
}

// GetClientIdentity returns the identity set by the TLS middleware
func GetClientIdentity(r *http.Request) string {
	return r.Header.Get(HeaderClientIdentity)
}
