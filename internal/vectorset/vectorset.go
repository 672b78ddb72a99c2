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

// Package vectorset reads ACVP HMAC vector sets, runs every test case
// through an executor and produces the ACVP response.
package vectorset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Gosayram/openacvp/internal/testcase"
)

// ErrInvalidVectorSet is returned for vector sets that cannot be run
var ErrInvalidVectorSet = errors.New("invalid vector set")

// VectorSet is an ACVP HMAC vector set
type VectorSet struct {
	ID        int     `json:"vsId"`
	Algorithm string  `json:"algorithm"`
	Revision  string  `json:"revision,omitempty"`
	Groups    []Group `json:"testGroups"`
}

// Group is a test group; lengths are in bits
type Group struct {
	ID      uint64 `json:"tgId"`
	Type    string `json:"testType"`
	KeyBits int    `json:"keyLen"`
	MsgBits int    `json:"msgLen"`
	MACBits int    `json:"macLen"`
	Tests   []Test `json:"tests"`
}

// Test is a single test case. Nil Key or Msg means the field was missing
// or null, which is not the same as an empty string.
type Test struct {
	ID  uint64  `json:"tcId"`
	Key *string `json:"key"`
	Msg *string `json:"msg"`
	MAC string  `json:"mac,omitempty"`
}

// Response is the ACVP response for a vector set
type Response struct {
	ID        int             `json:"vsId"`
	Algorithm string          `json:"algorithm"`
	Revision  string          `json:"revision,omitempty"`
	Groups    []GroupResponse `json:"testGroups"`
}

// GroupResponse holds the results of one test group
type GroupResponse struct {
	ID    uint64         `json:"tgId"`
	Tests []TestResponse `json:"tests"`
}

// TestResponse is the result of one test case. MAC is set on success;
// Passed is set when the vector carried an expected MAC.
type TestResponse struct {
	ID     uint64 `json:"tcId"`
	MAC    string `json:"mac,omitempty"`
	Passed *bool  `json:"testPassed,omitempty"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Parse reads a vector set from r. Both a bare vector set object and the
// ACVP array form [{"acvVersion": ...}, {vector set}] are accepted.
func Parse(r io.Reader) (*VectorSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read vector set: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		data, err = unwrapArray(data)
		if err != nil {
			return nil, err
		}
	}

	var vs VectorSet
	if err := json.Unmarshal(data, &vs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVectorSet, err)
	}
	if err := vs.Validate(); err != nil {
		return nil, err
	}
	return &vs, nil
}

func unwrapArray(data []byte) ([]byte, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVectorSet, err)
	}
	for _, part := range parts {
		var probe struct {
			Groups json.RawMessage `json:"testGroups"`
		}
		if err := json.Unmarshal(part, &probe); err == nil && probe.Groups != nil {
			return part, nil
		}
	}
	return nil, fmt.Errorf("%w: no testGroups in array", ErrInvalidVectorSet)
}

// Validate checks the vector-set level fields. Per-test problems such as a
// missing key are not errors here; they become failed test results.
func (vs *VectorSet) Validate() error {
	if _, err := testcase.ParseAlgorithm(vs.Algorithm); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidVectorSet, err)
	}

	seen := make(map[uint64]bool, len(vs.Groups))
	for _, g := range vs.Groups {
		if seen[g.ID] {
			return fmt.Errorf("%w: duplicate test group %d", ErrInvalidVectorSet, g.ID)
		}
		seen[g.ID] = true

		if g.KeyBits < 0 || g.MsgBits < 0 || g.MACBits < 0 {
			return fmt.Errorf("%w: negative length in test group %d", ErrInvalidVectorSet, g.ID)
		}
		if g.KeyBits%8 != 0 || g.MsgBits%8 != 0 || g.MACBits%8 != 0 {
			return fmt.Errorf("%w: test group %d: %w", ErrInvalidVectorSet, g.ID, testcase.ErrFractionalBits)
		}
		if g.KeyBits > testcase.KeyMaxBytes*8 {
			return fmt.Errorf("%w: %d bit key in test group %d exceeds limit", ErrInvalidVectorSet, g.KeyBits, g.ID)
		}
		if g.MsgBits > testcase.MsgMaxBytes*8 {
			return fmt.Errorf("%w: %d bit message in test group %d exceeds limit", ErrInvalidVectorSet, g.MsgBits, g.ID)
		}
	}
	return nil
}

// Count returns the number of test cases in the vector set
func (vs *VectorSet) Count() int {
	n := 0
	for _, g := range vs.Groups {
		n += len(g.Tests)
	}
	return n
}
