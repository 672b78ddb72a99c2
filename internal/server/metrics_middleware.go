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
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Gosayram/openacvp/internal/metrics"
)

const (
	// httpStatusClientError is the minimum HTTP status code for client errors
	httpStatusClientError = 400
	// httpStatusServerError is the minimum HTTP status code for server errors
	httpStatusServerError = 500
)

// MetricsMiddleware records metrics for HTTP requests
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		duration := time.Since(start).Seconds()
		operation := extractOperation(r)
		status := strconv.Itoa(ww.statusCode)
		statusLabel := "success"
		if ww.statusCode >= httpStatusClientError {
			statusLabel = "error"
		}

		metrics.RecordOperation(operation, statusLabel, duration)
		metrics.OperationTotal.WithLabelValues(operation, status).Inc()

		if ww.statusCode >= httpStatusClientError {
			errorType := "client_error"
			if ww.statusCode >= httpStatusServerError {
				errorType = "server_error"
			}
			metrics.RecordError(operation, errorType)
		}
	})
}

// RequestLogger logs one line per request with its status, size and
// duration. Bodies are never logged: they carry key material.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("uri", r.URL.Path),
				zap.Int("status", ww.statusCode),
				zap.Int("size", ww.size),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// extractOperation names the operation after the matched route pattern so
// run ids do not end up in metric labels
func extractOperation(r *http.Request) string {
	path := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			path = pattern
		}
	}

	switch path {
	case "/health":
		return "health_check"
	case "/metrics":
		return "metrics"
	}

	path = strings.TrimPrefix(path, "/v1")
	var parts []string
	for _, part := range strings.Split(path, "/") {
		if part != "" && !strings.HasPrefix(part, "{") {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return r.Method + "_root"
	}

	return r.Method + "_" + strings.Join(parts, "_")
}
