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

// Package executor runs a single HMAC test case against a keyed-hash
// backend and reports the outcome as an error classified by CodeOf.
//
// An Executor holds nothing but its backend, so one value may be shared by
// any number of goroutines, each driving its own test case. Execute never
// keeps a reference to the key, message or tag buffer after it returns.
package executor

import (
	"context"
	"crypto/hmac"
	"fmt"

	"github.com/Gosayram/openacvp/internal/testcase"
)

//go:generate mockgen -destination=mocks/backend_mock.go -package=mocks github.com/Gosayram/openacvp/internal/executor Backend

// Backend is the keyed-hash primitive under test
type Backend interface {
	HMAC(ctx context.Context, key []byte, algorithm string, data []byte) ([]byte, error)
}

// Executor validates test cases and dispatches them to a Backend
type Executor struct {
	backend Backend
}

// New creates an executor over backend
func New(backend Backend) *Executor {
	return &Executor{backend: backend}
}

// Execute checks the preconditions of tc, computes its tag and writes it
// into tc.Tag. Preconditions are checked in this order: message present,
// key present, tag buffer allocated, declared lengths consistent. The
// backend is not called unless all of them hold.
func (e *Executor) Execute(ctx context.Context, tc *testcase.HMACTestCase) error {
	if err := validate(tc); err != nil {
		return err
	}

	tag, err := e.compute(ctx, tc)
	if err != nil {
		return err
	}

	want := tc.MACLen
	if want == 0 {
		want = len(tag)
	}
	if want > len(tag) {
		return fmt.Errorf("%w: %s returned %d bytes, need %d", ErrBackendFailure, tc.Algorithm(), len(tag), want)
	}

	tc.Tag.Write(tag[:want])
	return nil
}

// Compare checks the produced tag of tc against expected in constant time
func Compare(tc *testcase.HMACTestCase, expected []byte) error {
	if tc == nil || !tc.Tag.Allocated() {
		return ErrInvalidOutputTarget
	}
	if !hmac.Equal(tc.Tag.Bytes(), expected) {
		return fmt.Errorf("%w: got %s, want %s", ErrMismatch,
			testcase.EncodeHex(tc.Tag.Bytes()), testcase.EncodeHex(expected))
	}
	return nil
}

func validate(tc *testcase.HMACTestCase) error {
	if tc == nil {
		return fmt.Errorf("%w: no test case", ErrMissingInput)
	}
	if !tc.Msg.IsPresent() {
		return fmt.Errorf("%w: message", ErrMissingInput)
	}
	if !tc.Key.IsPresent() {
		return fmt.Errorf("%w: key", ErrMissingInput)
	}
	if !tc.Tag.Allocated() {
		return ErrInvalidOutputTarget
	}

	if tc.MsgLen != tc.Msg.Len() {
		return fmt.Errorf("%w: message is %d bytes, declared %d", ErrLengthMismatch, tc.Msg.Len(), tc.MsgLen)
	}
	if tc.KeyLen != tc.Key.Len() {
		return fmt.Errorf("%w: key is %d bytes, declared %d", ErrLengthMismatch, tc.Key.Len(), tc.KeyLen)
	}
	if limit := min(tc.Algorithm().DigestSize(), tc.Tag.Cap()); tc.MACLen < 0 || tc.MACLen > limit {
		return fmt.Errorf("%w: mac length %d outside [0, %d]", ErrLengthMismatch, tc.MACLen, limit)
	}

	return nil
}

// compute calls the backend, turning a panic in it into ErrBackendFailure
func (e *Executor) compute(ctx context.Context, tc *testcase.HMACTestCase) (tag []byte, err error) {
	if e == nil || e.backend == nil {
		return nil, fmt.Errorf("%w: no backend configured", ErrBackendFailure)
	}

	defer func() {
		if r := recover(); r != nil {
			tag = nil
			err = fmt.Errorf("%w: %s panicked: %v", ErrBackendFailure, tc.Algorithm(), r)
		}
	}()

	tag, err = e.backend.HMAC(ctx, tc.Key.Bytes(), tc.Algorithm().String(), tc.Msg.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendFailure, tc.Algorithm(), err)
	}
	return tag, nil
}
