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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Gosayram/openacvp/internal/authn"
	"github.com/Gosayram/openacvp/internal/cryptoengine"
	"github.com/Gosayram/openacvp/internal/executor"
	"github.com/Gosayram/openacvp/internal/resultstore"
	"github.com/Gosayram/openacvp/internal/testcase"
	"github.com/Gosayram/openacvp/internal/vectorset"
)

// DefaultMaxBodyBytes bounds request bodies; vector sets can be large
const DefaultMaxBodyBytes = 32 << 20

// Handlers contains all HTTP handlers
type Handlers struct {
	logger       *zap.Logger
	engine       cryptoengine.Engine
	runner       *vectorset.Runner
	store        *resultstore.Store
	maxBodyBytes int64
}

// NewHandlers creates new HTTP handlers. store may be nil, in which case
// runs are never persisted and the /v1/runs endpoints answer 503.
func NewHandlers(logger *zap.Logger, engine cryptoengine.Engine, runner *vectorset.Runner, store *resultstore.Store, maxBodyBytes int64) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handlers{
		logger:       logger,
		engine:       engine,
		runner:       runner,
		store:        store,
		maxBodyBytes: maxBodyBytes,
	}
}

// ListAlgorithms lists the HMAC algorithms the engine implements
func (h *Handlers) ListAlgorithms(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, AlgorithmsResponse{Algorithms: h.engine.Algorithms()})
}

// ExecuteHMAC runs one trial. Trial failures such as a missing key are
// reported with 200 and a non-success code; only malformed requests get 400.
func (h *Handlers) ExecuteHMAC(w http.ResponseWriter, r *http.Request) {
	var req HMACRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	alg, err := testcase.ParseAlgorithm(req.Algorithm)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "unsupported algorithm", err)
		return
	}

	group := &vectorset.Group{
		KeyBits: bitsOrHexLen(req.KeyLen, req.Key),
		MsgBits: bitsOrHexLen(req.MsgLen, req.Msg),
		MACBits: req.MACLen,
	}
	if group.KeyBits < 0 || group.MsgBits < 0 || group.MACBits < 0 {
		h.respondError(w, http.StatusBadRequest, "lengths must not be negative", nil)
		return
	}

	res := h.runner.RunTest(r.Context(), alg, group, &vectorset.Test{
		Key: req.Key,
		Msg: req.Msg,
		MAC: req.MAC,
	})

	code := res.Code
	if code == "" {
		code = executor.CodeSuccess.String()
	}

	h.respondJSON(w, http.StatusOK, HMACResponse{
		Algorithm: alg.String(),
		Code:      code,
		MAC:       res.MAC,
		Passed:    res.Passed,
		Error:     res.Error,
	})
}

// SubmitVectorSet runs a vector set and stores the report unless the
// store=false query parameter is given
func (h *Handlers) SubmitVectorSet(w http.ResponseWriter, r *http.Request) {
	persist := true
	if v := r.URL.Query().Get("store"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid store parameter", err)
			return
		}
		persist = b
	}

	vs, err := vectorset.Parse(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid vector set", err)
		return
	}

	resp, summary, err := h.runner.Run(r.Context(), vs)
	if err != nil {
		if errors.Is(err, vectorset.ErrInvalidVectorSet) {
			h.respondError(w, http.StatusBadRequest, "invalid vector set", err)
			return
		}
		h.respondError(w, http.StatusServiceUnavailable, "vector set run aborted", err)
		return
	}

	report := resultstore.NewReport(resp, summary)
	report.SubmittedBy = authn.IdentityID(r.Context())
	if !persist || h.store == nil {
		h.respondJSON(w, http.StatusOK, report)
		return
	}

	if err := h.store.Save(r.Context(), report); err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to store run", err)
		return
	}

	h.logger.Info("Vector set run stored",
		zap.String("run_id", report.ID),
		zap.Int("vs_id", report.VectorSetID),
		zap.String("identity", report.SubmittedBy),
		zap.Bool("ok", summary.OK()),
	)

	w.Header().Set("Location", "/v1/runs/"+report.ID)
	h.respondJSON(w, http.StatusCreated, report)
}

// GenerateVectorSet builds a sample vector set with random inputs
func (h *Handlers) GenerateVectorSet(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	alg, err := testcase.ParseAlgorithm(req.Algorithm)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "unsupported algorithm", err)
		return
	}
	if req.Groups < 1 || req.TestsPerGroup < 1 {
		h.respondError(w, http.StatusBadRequest, "groups and testsPerGroup must be positive", nil)
		return
	}
	if req.Groups > vectorset.MaxGeneratedTests/req.TestsPerGroup {
		h.respondError(w, http.StatusBadRequest, "too many tests requested", nil)
		return
	}

	vs, err := vectorset.Generate(r.Context(), h.engine, alg, req.Groups, req.TestsPerGroup)
	if err != nil {
		if errors.Is(err, vectorset.ErrInvalidVectorSet) {
			h.respondError(w, http.StatusBadRequest, "invalid generation request", err)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to generate vector set", err)
		return
	}
	if !req.IncludeExpected {
		vs = vectorset.StripExpected(vs)
	}

	h.respondJSON(w, http.StatusOK, vs)
}

// ListRuns lists stored runs, newest first
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}

	runs, err := h.store.List(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to list runs", err)
		return
	}
	if runs == nil {
		runs = []resultstore.Info{}
	}

	h.respondJSON(w, http.StatusOK, ListRunsResponse{Runs: runs})
}

// GetRun returns a stored run report
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}

	report, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, "failed to get run", err)
		return
	}

	h.respondJSON(w, http.StatusOK, report)
}

// DeleteRun removes a stored run report
func (h *Handlers) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}

	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondStoreError(w, "failed to delete run", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		h.respondError(w, http.StatusServiceUnavailable, "result storage is disabled", nil)
		return false
	}
	return true
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// bitsOrHexLen returns the declared bit length, or the length of the hex
// string in bits when none was declared
func bitsOrHexLen(bits *int, hex *string) int {
	if bits != nil {
		return *bits
	}
	if hex != nil {
		return len(*hex) * 4
	}
	return 0
}

func (h *Handlers) respondStoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, resultstore.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "run not found", err)
	case errors.Is(err, resultstore.ErrInvalidID):
		h.respondError(w, http.StatusBadRequest, "invalid run id", err)
	default:
		h.respondError(w, http.StatusInternalServerError, message, err)
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(h.logger, w, status, data)
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string, err error) {
	details := ""
	if err != nil {
		details = err.Error()
	}

	if status >= httpStatusServerError {
		h.logger.Error(message, zap.Error(err))
	} else {
		h.logger.Debug(message, zap.Error(err))
	}

	h.respondJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}
