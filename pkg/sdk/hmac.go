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
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// HMACRequest describes a single trial. Nil Key or Msg is sent as null.
type HMACRequest struct {
	Algorithm string  `json:"algorithm"`
	Key       *string `json:"key"`
	KeyLen    *int    `json:"keyLen,omitempty"`
	Msg       *string `json:"msg"`
	MsgLen    *int    `json:"msgLen,omitempty"`
	MACLen    int     `json:"macLen,omitempty"`
	MAC       string  `json:"mac,omitempty"`
}

// HMACResponse is the outcome of a trial
type HMACResponse struct {
	Algorithm string `json:"algorithm"`
	Code      string `json:"code"`
	MAC       string `json:"mac,omitempty"`
	Passed    *bool  `json:"testPassed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// OK reports whether the trial succeeded
func (r *HMACResponse) OK() bool {
	return r.Code == "SUCCESS"
}

// RunSummary counts the outcomes of a vector set run
type RunSummary struct {
	Total  int            `json:"total"`
	Passed int            `json:"passed"`
	Failed int            `json:"failed"`
	Errors int            `json:"errors"`
	ByCode map[string]int `json:"byCode,omitempty"`
}

// RunInfo describes a stored run
type RunInfo struct {
	ID          string      `json:"id"`
	CreatedAt   time.Time   `json:"createdAt"`
	VectorSetID int         `json:"vsId"`
	Algorithm   string      `json:"algorithm"`
	SubmittedBy string      `json:"submittedBy,omitempty"`
	Summary     *RunSummary `json:"summary"`
}

// RunReport is a run with its ACVP response left as raw JSON
type RunReport struct {
	RunInfo
	Response json.RawMessage `json:"response"`
}

// GenerateRequest asks the server for a sample vector set
type GenerateRequest struct {
	Algorithm       string `json:"algorithm"`
	Groups          int    `json:"groups"`
	TestsPerGroup   int    `json:"testsPerGroup"`
	IncludeExpected bool   `json:"includeExpected"`
}

// ExecuteHMAC runs one trial on the server
func (c *Client) ExecuteHMAC(ctx context.Context, req HMACRequest) (*HMACResponse, error) {
	resp, err := c.doRequestWithRetry(ctx, http.MethodPost, "/v1/hmac", req)
	if err != nil {
		return nil, err
	}

	var out HMACResponse
	if err := c.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitVectorSet runs a JSON encoded vector set on the server. When store
// is false the report is returned without being saved and has no ID.
func (c *Client) SubmitVectorSet(ctx context.Context, vectorSet []byte, store bool) (*RunReport, error) {
	path := "/v1/vectorsets"
	if !store {
		path += "?store=false"
	}

	resp, err := c.doRequestWithRetry(ctx, http.MethodPost, path, vectorSet)
	if err != nil {
		return nil, err
	}

	var out RunReport
	if err := c.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateVectorSet returns a sample vector set as raw JSON
func (c *Client) GenerateVectorSet(ctx context.Context, req GenerateRequest) (json.RawMessage, error) {
	resp, err := c.doRequestWithRetry(ctx, http.MethodPost, "/v1/vectorsets/sample", req)
	if err != nil {
		return nil, err
	}

	var out json.RawMessage
	if err := c.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAlgorithms returns the algorithms the server implements
func (c *Client) ListAlgorithms(ctx context.Context) ([]string, error) {
	resp, err := c.doRequestWithRetry(ctx, http.MethodGet, "/v1/algorithms", nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Algorithms []string `json:"algorithms"`
	}
	if err := c.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return out.Algorithms, nil
}

// ListRuns returns stored runs, newest first
func (c *Client) ListRuns(ctx context.Context) ([]RunInfo, error) {
	resp, err := c.doRequestWithRetry(ctx, http.MethodGet, "/v1/runs", nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Runs []RunInfo `json:"runs"`
	}
	if err := c.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return out.Runs, nil
}

// GetRun fetches a stored run
func (c *Client) GetRun(ctx context.Context, id string) (*RunReport, error) {
	resp, err := c.doRequestWithRetry(ctx, http.MethodGet, "/v1/runs/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var out RunReport
	if err := c.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRun removes a stored run
func (c *Client) DeleteRun(ctx context.Context, id string) error {
	resp, err := c.doRequestWithRetry(ctx, http.MethodDelete, "/v1/runs/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.parseResponse(resp, nil)
}

// Health checks the server health endpoint
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	return c.parseResponse(resp, nil)
}
