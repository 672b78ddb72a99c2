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
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseTokens(t *testing.T) {
	tokens, err := ParseTokens(" lab-a:s3cret , lab-b:other:with:colons,")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, StaticToken{Identity: "lab-a", Token: "s3cret"}, tokens[0])
	assert.Equal(t, "other:with:colons", tokens[1].Token)

	for _, bad := range []string{"no-colon", ":token", "lab:"} {
		_, err := ParseTokens(bad)
		assert.Error(t, err, bad)
	}

	tokens, err = ParseTokens("")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestStaticProvider(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Minute)

	provider := NewStaticProvider(
		StaticToken{Token: "alpha", Identity: "lab-a"},
		StaticToken{Token: "beta", Identity: "lab-b", ExpiresAt: &expired},
	)
	provider.now = func() time.Time { return now }

	identity, err := provider.Authenticate(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "lab-a", identity.ID)
	assert.Equal(t, "token", identity.Type)

	_, err = provider.Authenticate(ctx, "beta")
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = provider.Authenticate(ctx, "gamma")
	assert.ErrorIs(t, err, ErrInvalidToken)

	provider.AddToken(StaticToken{Token: "alpha", Identity: "lab-c"})
	assert.Equal(t, 2, provider.Len())
	identity, err = provider.Authenticate(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "lab-c", identity.ID)
}

func TestManager(t *testing.T) {
	manager := NewManager(
		NewStaticProvider(StaticToken{Token: "one", Identity: "first"}),
		NewStaticProvider(StaticToken{Token: "two", Identity: "second"}),
	)

	identity, err := manager.Authenticate(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, "second", identity.ID)

	_, err = manager.Authenticate(context.Background(), "three")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMiddleware(t *testing.T) {
	manager := NewManager(NewStaticProvider(StaticToken{Token: "alpha", Identity: "lab-a"}))
	handler := Middleware(manager, zap.NewNop(), true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(IdentityID(r.Context())))
	}))

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		status   int
		identity string
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized, ""},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer alpha") }, http.StatusOK, "lab-a"},
		{"lowercase scheme", func(r *http.Request) { r.Header.Set("Authorization", "bearer alpha") }, http.StatusOK, "lab-a"},
		{"api token header", func(r *http.Request) { r.Header.Set("X-API-Token", "alpha") }, http.StatusOK, "lab-a"},
		{"wrong token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, ""},
		{"basic auth ignored", func(r *http.Request) { r.Header.Set("Authorization", "Basic YWxwaGE=") }, http.StatusUnauthorized, ""},
		{"query token ignored", func(r *http.Request) { r.URL.RawQuery = "token=alpha" }, http.StatusUnauthorized, ""},
		{"client certificate", func(r *http.Request) {
			r.TLS = &tls.ConnectionState{PeerCertificates: []*x509.Certificate{{
				Subject:      pkix.Name{CommonName: "acvp-lab"},
				SerialNumber: big.NewInt(7),
			}}}
		}, http.StatusOK, "acvp-lab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.identity, rec.Body.String())
			} else {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestOptionalMiddleware(t *testing.T) {
	manager := NewManager(NewStaticProvider(StaticToken{Token: "alpha", Identity: "lab-a"}))
	handler := Middleware(manager, zap.NewNop(), false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(IdentityID(r.Context())))
	}))

	tests := []struct {
		name     string
		header   string
		status   int
		identity string
	}{
		{"anonymous", "", http.StatusOK, ""},
		{"valid token", "Bearer alpha", http.StatusOK, "lab-a"},
		{"wrong token", "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.identity, rec.Body.String())
			}
		})
	}
}

func svidCert(t *testing.T, rawURIs ...string) *x509.Certificate {
	t.Helper()
	cert := &x509.Certificate{
		Subject:      pkix.Name{CommonName: "workload"},
		SerialNumber: big.NewInt(11),
		NotAfter:     time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, raw := range rawURIs {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		cert.URIs = append(cert.URIs, u)
	}
	return cert
}

func TestNewSPIFFEProvider(t *testing.T) {
	provider, err := NewSPIFFEProvider("lab.example.org")
	require.NoError(t, err)
	assert.Equal(t, "lab.example.org", provider.TrustDomain().String())

	_, err = NewSPIFFEProvider("")
	assert.Error(t, err)

	_, err = NewSPIFFEProvider("Not A Domain!")
	assert.Error(t, err)
}

func TestSPIFFEProvider_AuthenticateFromRequest(t *testing.T) {
	provider, err := NewSPIFFEProvider("lab.example.org")
	require.NoError(t, err)

	tests := []struct {
		name    string
		state   *tls.ConnectionState
		wantID  string
		wantErr bool
	}{
		{"no TLS", nil, "", true},
		{"no certificate", &tls.ConnectionState{}, "", true},
		{"member", &tls.ConnectionState{PeerCertificates: []*x509.Certificate{
			svidCert(t, "spiffe://lab.example.org/acvp/client-1"),
		}}, "spiffe://lab.example.org/acvp/client-1", false},
		{"foreign trust domain", &tls.ConnectionState{PeerCertificates: []*x509.Certificate{
			svidCert(t, "spiffe://other.example.org/acvp/client-1"),
		}}, "", true},
		{"not a SPIFFE ID", &tls.ConnectionState{PeerCertificates: []*x509.Certificate{
			svidCert(t, "https://lab.example.org/client"),
		}}, "", true},
		{"no URI SAN", &tls.ConnectionState{PeerCertificates: []*x509.Certificate{svidCert(t)}}, "", true},
		{"two URI SANs", &tls.ConnectionState{PeerCertificates: []*x509.Certificate{
			svidCert(t, "spiffe://lab.example.org/a", "spiffe://lab.example.org/b"),
		}}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
			req.TLS = tt.state

			identity, err := provider.AuthenticateFromRequest(req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, identity.ID)
			assert.Equal(t, "spiffe", identity.Type)
			assert.Equal(t, "acvp", identity.Metadata["path_0"])
			assert.Equal(t, "client-1", identity.Metadata["path_1"])
			assert.Equal(t, "11", identity.Metadata["serial"])
		})
	}

	_, err = provider.Authenticate(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware_SPIFFE(t *testing.T) {
	spiffe, err := NewSPIFFEProvider("lab.example.org")
	require.NoError(t, err)
	manager := NewManager(NewStaticProvider(StaticToken{Token: "alpha", Identity: "lab-a"})).
		WithCertificateProviders(spiffe)
	handler := Middleware(manager, zap.NewNop(), true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(IdentityID(r.Context())))
	}))

	serve := func(cert *x509.Certificate, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
		req.TLS = &tls.ConnectionState{PeerCertificates: []*x509.Certificate{cert}}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(svidCert(t, "spiffe://lab.example.org/acvp/client-1"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "spiffe://lab.example.org/acvp/client-1", rec.Body.String())

	// Certificates outside the trust domain are rejected
	rec = serve(svidCert(t, "spiffe://other.example.org/acvp/client-1"), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(svidCert(t, "spiffe://other.example.org/acvp/client-1"), "alpha")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "lab-a", rec.Body.String())
}

func TestExtractIdentityFromCert(t *testing.T) {
	cert := &x509.Certificate{SerialNumber: big.NewInt(42)}
	assert.Equal(t, "42", extractIdentityFromCert(cert))

	cert.Subject.CommonName = "cn"
	assert.Equal(t, "cn", extractIdentityFromCert(cert))

	cert.EmailAddresses = []string{"lab@example.org"}
	assert.Equal(t, "lab@example.org", extractIdentityFromCert(cert))

	cert.DNSNames = []string{"lab.example.org"}
	assert.Equal(t, "lab.example.org", extractIdentityFromCert(cert))
}
