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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Gosayram/openacvp/internal/authn"
	"github.com/Gosayram/openacvp/internal/cryptoengine"
	"github.com/Gosayram/openacvp/internal/executor"
	"github.com/Gosayram/openacvp/internal/logging"
	"github.com/Gosayram/openacvp/internal/resultstore"
	"github.com/Gosayram/openacvp/internal/storage"
	"github.com/Gosayram/openacvp/internal/vectorset"
)

const (
	jefeKeyHex = "4A656665"
	jefeMsgHex = "7768617420646F2079612077616E7420666F72206E6F7468696E673F"
	jefeMAC256 = "5BDCC146BF60754E6A042426089575C75A003F089D2739839DEC58B964EC3843"
)

type testEnv struct {
	ts    *httptest.Server
	store *resultstore.Store
}

// setupTestServer creates a test server backed by a temporary bolt database
func setupTestServer(t *testing.T, logger *zap.Logger, withStore bool) *testEnv {
	t.Helper()

	if logger == nil {
		logger = zap.NewNop()
	}

	var store *resultstore.Store
	if withStore {
		backend, err := storage.NewBoltBackend(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("Failed to create backend: %v", err)
		}
		t.Cleanup(func() { _ = backend.Close() })
		store = resultstore.NewStore(backend)
	}

	engine := cryptoengine.NewEngine()
	runner := vectorset.NewRunner(executor.New(engine), logging.FromZap(logger), 4)
	handlers := NewHandlers(logger, engine, runner, store, 0)

	srv := NewServer(&Config{MetricsEnabled: true}, logger, nil)
	srv.RegisterRoutes(handlers)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return v
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func TestExecuteHMAC_KnownAnswer(t *testing.T) {
	env := setupTestServer(t, nil, false)

	resp := env.do(t, http.MethodPost, "/v1/hmac", HMACRequest{
		Algorithm: "HMAC-SHA2-256",
		Key:       strPtr(jefeKeyHex),
		Msg:       strPtr(jefeMsgHex),
		MAC:       jefeMAC256,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	out := decodeBody[HMACResponse](t, resp)
	if out.Code != "SUCCESS" {
		t.Errorf("Expected SUCCESS, got %s (%s)", out.Code, out.Error)
	}
	if out.MAC != jefeMAC256 {
		t.Errorf("Expected MAC %s, got %s", jefeMAC256, out.MAC)
	}
	if out.Passed == nil || !*out.Passed {
		t.Errorf("Expected testPassed=true, got %v", out.Passed)
	}
}

func TestExecuteHMAC_Truncated(t *testing.T) {
	env := setupTestServer(t, nil, false)

	resp := env.do(t, http.MethodPost, "/v1/hmac", HMACRequest{
		Algorithm: "HMAC-SHA2-256",
		Key:       strPtr(jefeKeyHex),
		Msg:       strPtr(jefeMsgHex),
		MACLen:    128,
	})
	out := decodeBody[HMACResponse](t, resp)
	if out.MAC != jefeMAC256[:32] {
		t.Errorf("Expected truncated MAC %s, got %s", jefeMAC256[:32], out.MAC)
	}
	if out.Passed != nil {
		t.Errorf("Expected no verdict without an expected MAC, got %v", *out.Passed)
	}
}

func TestExecuteHMAC_TrialFailures(t *testing.T) {
	env := setupTestServer(t, nil, false)

	tests := []struct {
		name string
		req  HMACRequest
		code string
	}{
		{
			name: "missing message",
			req:  HMACRequest{Algorithm: "HMAC-SHA-1", Key: strPtr(jefeKeyHex)},
			code: "MISSING_INPUT",
		},
		{
			name: "missing key",
			req:  HMACRequest{Algorithm: "HMAC-SHA-1", Msg: strPtr(jefeMsgHex)},
			code: "MISSING_INPUT",
		},
		{
			name: "invalid hex",
			req:  HMACRequest{Algorithm: "HMAC-SHA-1", Key: strPtr("4G"), Msg: strPtr(jefeMsgHex)},
			code: "DECODE_FAILURE",
		},
		{
			name: "odd hex",
			req:  HMACRequest{Algorithm: "HMAC-SHA-1", Key: strPtr(jefeKeyHex), Msg: strPtr("ABC"), MsgLen: intPtr(16)},
			code: "DECODE_FAILURE",
		},
		{
			name: "declared key length differs",
			req:  HMACRequest{Algorithm: "HMAC-SHA-1", Key: strPtr(jefeKeyHex), KeyLen: intPtr(64), Msg: strPtr(jefeMsgHex)},
			code: "LENGTH_MISMATCH",
		},
		{
			name: "fractional message length",
			req:  HMACRequest{Algorithm: "HMAC-SHA-1", Key: strPtr(jefeKeyHex), Msg: strPtr(jefeMsgHex), MsgLen: intPtr(221)},
			code: "LENGTH_MISMATCH",
		},
		{
			name: "mac longer than digest",
			req:  HMACRequest{Algorithm: "HMAC-SHA-1", Key: strPtr(jefeKeyHex), Msg: strPtr(jefeMsgHex), MACLen: 256},
			code: "LENGTH_MISMATCH",
		},
		{
			name: "wrong expected mac",
			req:  HMACRequest{Algorithm: "HMAC-SHA2-256", Key: strPtr(jefeKeyHex), Msg: strPtr(jefeMsgHex), MAC: strings.Repeat("00", 32)},
			code: "MISMATCH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/v1/hmac", tt.req)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", resp.StatusCode)
			}
			out := decodeBody[HMACResponse](t, resp)
			if out.Code != tt.code {
				t.Errorf("Expected code %s, got %s (%s)", tt.code, out.Code, out.Error)
			}
			if out.Error == "" {
				t.Error("Expected an error description")
			}
		})
	}
}

func TestExecuteHMAC_EmptyMessage(t *testing.T) {
	env := setupTestServer(t, nil, false)

	resp := env.do(t, http.MethodPost, "/v1/hmac", HMACRequest{
		Algorithm: "HMAC-SHA2-256",
		Key:       strPtr(jefeKeyHex),
		Msg:       strPtr(""),
	})
	out := decodeBody[HMACResponse](t, resp)
	if out.Code != "SUCCESS" || len(out.MAC) != 64 {
		t.Errorf("Expected a full MAC over the empty message, got %s %q", out.Code, out.MAC)
	}
}

func TestExecuteHMAC_BadRequests(t *testing.T) {
	env := setupTestServer(t, nil, false)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"algorithm":`},
		{"unknown algorithm", `{"algorithm":"HMAC-MD5","key":"00","msg":"00"}`},
		{"unknown field", `{"algorithm":"HMAC-SHA-1","data":"00"}`},
		{"negative length", `{"algorithm":"HMAC-SHA-1","key":"00","msg":"00","msgLen":-8}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/v1/hmac", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", resp.StatusCode)
			}
			out := decodeBody[ErrorResponse](t, resp)
			if out.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

const submitSet = `[{"acvVersion":"1.0"},{
  "vsId": 42,
  "algorithm": "HMAC-SHA2-256",
  "revision": "1.0",
  "testGroups": [{
    "tgId": 1, "testType": "AFT", "keyLen": 32, "msgLen": 224, "macLen": 256,
    "tests": [
      {"tcId": 1, "key": "` + jefeKeyHex + `", "msg": "` + jefeMsgHex + `", "mac": "` + jefeMAC256 + `"},
      {"tcId": 2, "msg": "` + jefeMsgHex + `"}
    ]
  }]
}]`

func TestSubmitVectorSet_Lifecycle(t *testing.T) {
	env := setupTestServer(t, nil, true)

	resp := env.do(t, http.MethodPost, "/v1/vectorsets", submitSet)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}
	report := decodeBody[resultstore.Report](t, resp)
	if report.ID == "" {
		t.Fatal("Expected a run id")
	}
	if got := resp.Header.Get("Location"); got != "/v1/runs/"+report.ID {
		t.Errorf("Unexpected Location %q", got)
	}
	if report.VectorSetID != 42 || report.Summary.Total != 2 || report.Summary.Passed != 1 || report.Summary.Errors != 1 {
		t.Errorf("Unexpected summary: %+v", report.Summary)
	}

	tests := report.Response.Groups[0].Tests
	if tests[0].MAC != jefeMAC256 || tests[1].Code != "MISSING_INPUT" {
		t.Errorf("Unexpected results: %+v", tests)
	}

	resp = env.do(t, http.MethodGet, "/v1/runs/"+report.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	got := decodeBody[resultstore.Report](t, resp)
	if got.ID != report.ID || got.Summary.Total != 2 {
		t.Errorf("Stored run differs: %+v", got)
	}

	resp = env.do(t, http.MethodGet, "/v1/runs", nil)
	list := decodeBody[ListRunsResponse](t, resp)
	if len(list.Runs) != 1 || list.Runs[0].ID != report.ID {
		t.Errorf("Unexpected run list: %+v", list.Runs)
	}

	resp = env.do(t, http.MethodDelete, "/v1/runs/"+report.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/v1/runs/"+report.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", resp.StatusCode)
	}
}

func TestSubmitVectorSet_WithoutStore(t *testing.T) {
	env := setupTestServer(t, nil, true)

	resp := env.do(t, http.MethodPost, "/v1/vectorsets?store=false", submitSet)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	report := decodeBody[resultstore.Report](t, resp)
	if report.ID != "" {
		t.Errorf("Expected an unsaved report, got id %s", report.ID)
	}

	runs, err := env.store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("Expected no stored runs, got %d", len(runs))
	}

	resp = env.do(t, http.MethodPost, "/v1/vectorsets?store=maybe", submitSet)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a bad store parameter, got %d", resp.StatusCode)
	}
}

func TestSubmitVectorSet_Invalid(t *testing.T) {
	env := setupTestServer(t, nil, true)

	for _, body := range []string{
		`not json`,
		`{"vsId":1,"algorithm":"HMAC-MD5","testGroups":[]}`,
		`{"vsId":1,"algorithm":"HMAC-SHA-1","testGroups":[{"tgId":1,"keyLen":7,"tests":[]}]}`,
	} {
		resp := env.do(t, http.MethodPost, "/v1/vectorsets", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s, got %d", body, resp.StatusCode)
		}
	}
}

func TestGetRun_Errors(t *testing.T) {
	env := setupTestServer(t, nil, true)

	resp := env.do(t, http.MethodGet, "/v1/runs/not-a-uuid", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/v1/runs/6f1c7d2e-9a43-4c55-8f0e-1b2a3c4d5e6f", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}

func TestRuns_StorageDisabled(t *testing.T) {
	env := setupTestServer(t, nil, false)

	resp := env.do(t, http.MethodGet, "/v1/runs", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/v1/vectorsets", submitSet)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200 without storage, got %d", resp.StatusCode)
	}
}

func TestGenerateVectorSet_RoundTrip(t *testing.T) {
	env := setupTestServer(t, nil, false)

	resp := env.do(t, http.MethodPost, "/v1/vectorsets/sample", GenerateRequest{
		Algorithm:       "HMAC-SHA3-384",
		Groups:          3,
		TestsPerGroup:   4,
		IncludeExpected: true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	vs := decodeBody[vectorset.VectorSet](t, resp)
	if vs.Count() != 12 {
		t.Fatalf("Expected 12 tests, got %d", vs.Count())
	}

	resp = env.do(t, http.MethodPost, "/v1/vectorsets", vs)
	report := decodeBody[resultstore.Report](t, resp)
	if !report.Summary.OK() || report.Summary.Passed != 12 {
		t.Errorf("Expected every generated test to pass, got %+v", report.Summary)
	}

	resp = env.do(t, http.MethodPost, "/v1/vectorsets/sample", GenerateRequest{Algorithm: "HMAC-SHA-1", Groups: 1, TestsPerGroup: 1})
	stripped := decodeBody[vectorset.VectorSet](t, resp)
	if stripped.Groups[0].Tests[0].MAC != "" {
		t.Error("Expected the expected MAC to be stripped")
	}

	for _, req := range []GenerateRequest{
		{Algorithm: "HMAC-SHA-1", Groups: 0, TestsPerGroup: 1},
		{Algorithm: "nope", Groups: 1, TestsPerGroup: 1},
		{Algorithm: "HMAC-SHA-1", Groups: 1000, TestsPerGroup: 1000},
		{Algorithm: "HMAC-SHA-1", Groups: 1, TestsPerGroup: -1},
		{Algorithm: "HMAC-SHA-1", Groups: math.MaxInt>>1 + 1, TestsPerGroup: 4},
		{Algorithm: "HMAC-SHA-1", Groups: math.MaxInt, TestsPerGroup: 2},
	} {
		resp = env.do(t, http.MethodPost, "/v1/vectorsets/sample", req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %+v, got %d", req, resp.StatusCode)
		}
	}
}

func TestListAlgorithms(t *testing.T) {
	env := setupTestServer(t, nil, false)

	resp := env.do(t, http.MethodGet, "/v1/algorithms", nil)
	out := decodeBody[AlgorithmsResponse](t, resp)
	if len(out.Algorithms) != 11 {
		t.Errorf("Expected 11 algorithms, got %v", out.Algorithms)
	}
}

func TestHealth(t *testing.T) {
	srv := NewServer(&Config{}, nil, func(context.Context) error { return errors.New("bolt closed") })

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}

	srv = NewServer(&Config{}, nil, nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected metrics to be disabled, got %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	backend, err := storage.NewBoltBackend(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })

	engine := cryptoengine.NewEngine()
	runner := vectorset.NewRunner(executor.New(engine), nil, 2)
	manager := authn.NewManager(authn.NewStaticProvider(authn.StaticToken{Token: "lab-secret", Identity: "lab-a"}))

	srv := NewServer(&Config{Auth: manager, AuthRequired: true}, nil, nil)
	srv.RegisterRoutes(NewHandlers(nil, engine, runner, resultstore.NewStore(backend), 0))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	env := &testEnv{ts: ts}

	resp := env.do(t, http.MethodGet, "/v1/algorithms", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected status 401 without a token, got %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected /health to stay open, got %d", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/vectorsets", strings.NewReader(submitSet))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer lab-secret")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer authed.Body.Close()
	if authed.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201 with a token, got %d", authed.StatusCode)
	}

	report := decodeBody[resultstore.Report](t, authed)
	if report.SubmittedBy != "lab-a" {
		t.Errorf("Expected the run to record lab-a, got %q", report.SubmittedBy)
	}
}

func TestAuthOptional(t *testing.T) {
	engine := cryptoengine.NewEngine()
	runner := vectorset.NewRunner(executor.New(engine), nil, 2)
	manager := authn.NewManager(authn.NewStaticProvider(authn.StaticToken{Token: "lab-secret", Identity: "lab-a"}))

	srv := NewServer(&Config{Auth: manager, AuthRequired: false}, nil, nil)
	srv.RegisterRoutes(NewHandlers(nil, engine, runner, nil, 0))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	env := &testEnv{ts: ts}

	resp := env.do(t, http.MethodGet, "/v1/algorithms", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected anonymous requests to pass, got %d", resp.StatusCode)
	}

	for _, tc := range []struct {
		token  string
		status int
	}{
		{"lab-secret", http.StatusOK},
		{"wrong", http.StatusUnauthorized},
	} {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/algorithms", nil)
		if err != nil {
			t.Fatalf("Failed to build request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tc.token)
		got, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		got.Body.Close()
		if got.StatusCode != tc.status {
			t.Errorf("Expected status %d for token %q, got %d", tc.status, tc.token, got.StatusCode)
		}
	}
}

func TestExtractOperation(t *testing.T) {
	tests := []struct {
		method  string
		path    string
		pattern string
		want    string
	}{
		{http.MethodGet, "/health", "", "health_check"},
		{http.MethodGet, "/metrics", "", "metrics"},
		{http.MethodPost, "/v1/hmac", "", "POST_hmac"},
		{http.MethodPost, "/v1/vectorsets/sample", "", "POST_vectorsets_sample"},
		{http.MethodGet, "/v1/runs/0d9b", "/v1/runs/{id}", "GET_runs"},
		{http.MethodGet, "/", "", "GET_root"},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(tt.method, tt.path, nil)
		if tt.pattern != "" {
			rctx := chi.NewRouteContext()
			rctx.RoutePatterns = []string{tt.pattern}
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
		}
		if got := extractOperation(r); got != tt.want {
			t.Errorf("extractOperation(%s %s) = %q, want %q", tt.method, tt.path, got, tt.want)
		}
	}
}
