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

package sdk

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := NewClient(Config{BaseURL: ts.URL + "/", RetryBackoff: time.Millisecond})
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	client, err := NewClient(Config{BaseURL: "http://localhost:8080/", MaxRetries: -1})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.Equal(t, 0, client.maxRetries)
	assert.Equal(t, defaultRetryBackoff, client.backoff)
}

func TestExecuteHMAC(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/hmac", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"algorithm":"HMAC-SHA2-256","key":"4A656665","msg":null,"macLen":128}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"algorithm":"HMAC-SHA2-256","code":"MISSING_INPUT","error":"missing input: message"}`))
	})

	key := "4A656665"
	resp, err := client.ExecuteHMAC(t.Context(), HMACRequest{Algorithm: "HMAC-SHA2-256", Key: &key, MACLen: 128})
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, "MISSING_INPUT", resp.Code)
}

func TestSubmitVectorSet(t *testing.T) {
	vs := []byte(`{"vsId":5,"algorithm":"HMAC-SHA-1","testGroups":[]}`)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/vectorsets", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("store"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, vs, body)

		_, _ = w.Write([]byte(`{"vsId":5,"algorithm":"HMAC-SHA-1","summary":{"total":0,"passed":0,"failed":0,"errors":0},"response":{"vsId":5,"testGroups":[]}}`))
	})

	report, err := client.SubmitVectorSet(t.Context(), vs, false)
	require.NoError(t, err)
	assert.Empty(t, report.ID)
	assert.Equal(t, 5, report.VectorSetID)
	assert.JSONEq(t, `{"vsId":5,"testGroups":[]}`, string(report.Response))
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"algorithms": []string{"HMAC-SHA-1"}})
	})

	algs, err := client.ListAlgorithms(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"HMAC-SHA-1"}, algs)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryExhausted(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to list runs","details":"bolt closed"}`))
	})

	_, err := client.ListRuns(t.Context())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "failed to list runs", apiErr.Message)
	assert.Equal(t, int32(defaultMaxRetries+1), calls.Load())
}

func TestGetRunNotFound(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/runs/abc%2Fdef", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"run not found"}`))
	})

	_, err := client.GetRun(t.Context(), "abc/def")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestHealth(t *testing.T) {
	var unhealthy atomic.Bool
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if unhealthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	assert.NoError(t, client.Health(t.Context()))
	unhealthy.Store(true)
	assert.Error(t, client.Health(t.Context()))
}
