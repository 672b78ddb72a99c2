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
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	// authHeaderPartsCount is the expected number of parts in Authorization header (scheme and token)
	authHeaderPartsCount = 2
)

// Middleware authenticates requests by client certificate, then by token.
// A presented token that is rejected always gets 401. Otherwise
// unauthenticated requests get 401 when requireAuth is set and continue
// anonymously when it is not.
func Middleware(manager *Manager, logger *zap.Logger, requireAuth bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var err error
			if r.TLS != nil && len(r.TLS.PeerCertificates) > 0 {
				identity, certErr := manager.AuthenticateRequest(r)
				if certErr == nil {
					next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
					return
				}
				err = certErr
			}

			token := extractToken(r)
			if token != "" {
				identity, authErr := manager.Authenticate(r.Context(), token)
				if authErr == nil {
					next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
					return
				}
				err = authErr
			}

			if token != "" || requireAuth {
				logger.Warn("Authentication failed",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.Error(err),
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="openacvp"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads a bearer token from the Authorization header, or the
// X-API-Token header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", authHeaderPartsCount)
		if len(parts) == authHeaderPartsCount && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	return r.Header.Get("X-API-Token")
}
