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
	"github.com/Gosayram/openacvp/internal/resultstore"
	"github.com/Gosayram/openacvp/internal/vectorset"
)

// Request/Response models

// HMACRequest describes one trial. Key and Msg are hex; null or missing
// means the field was not provided. Lengths are in bits and default to
// the length of the hex string.
type HMACRequest struct {
	Algorithm string  `json:"algorithm"`
	Key       *string `json:"key"`
	KeyLen    *int    `json:"keyLen,omitempty"`
	Msg       *string `json:"msg"`
	MsgLen    *int    `json:"msgLen,omitempty"`
	MACLen    int     `json:"macLen,omitempty"`
	MAC       string  `json:"mac,omitempty"`
}

// HMACResponse is the outcome of one trial
type HMACResponse struct {
	Algorithm string `json:"algorithm"`
	Code      string `json:"code"`
	MAC       string `json:"mac,omitempty"`
	Passed    *bool  `json:"testPassed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// GenerateRequest asks for a sample vector set
type GenerateRequest struct {
	Algorithm     string `json:"algorithm"`
	Groups        int    `json:"groups"`
	TestsPerGroup int    `json:"testsPerGroup"`
	// IncludeExpected keeps the expected MACs in the generated tests
	IncludeExpected bool `json:"includeExpected"`
}

// SubmitVectorSetResponse is returned after a vector set run
type SubmitVectorSetResponse = resultstore.Report

// ListRunsResponse lists stored runs
type ListRunsResponse struct {
	Runs []resultstore.Info `json:"runs"`
}

// AlgorithmsResponse lists the algorithms the backend implements
type AlgorithmsResponse struct {
	Algorithms []string `json:"algorithms"`
}

// GenerateResponse wraps a generated vector set
type GenerateResponse = vectorset.VectorSet

// HealthResponse is returned by /health
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
