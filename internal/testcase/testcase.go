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

// Package testcase provides the in-memory model of a single HMAC trial and
// the hex decoding used to build it from test vector text.
package testcase

import (
	"fmt"
)

// HMACTestCase describes one HMAC trial. It owns no cryptographic logic.
type HMACTestCase struct {
	algorithm Algorithm

	// Key and KeyLen describe the HMAC key; KeyLen is in bytes
	Key    Field
	KeyLen int

	// Msg and MsgLen describe the message; MsgLen is in bytes
	Msg    Field
	MsgLen int

	// MACLen is the requested tag length in bytes, 0 for the full digest
	MACLen int

	// Tag receives the computed tag. Nil means the harness did not allocate it.
	Tag *TagBuffer
}

// Params carries the hex encoded inputs of a trial. Nil hex pointers mean
// the field was not provided. Lengths are in bits, as in test vectors.
type Params struct {
	Algorithm   Algorithm
	KeyHex      *string
	KeyBits     int
	MsgHex      *string
	MsgBits     int
	MACBits     int
	AllocateTag bool
}

// NewHMACTestCase returns a test case for alg with no inputs set
func NewHMACTestCase(alg Algorithm) *HMACTestCase {
	return &HMACTestCase{algorithm: alg}
}

// New decodes p into a test case. Key and message are decoded from their
// own hex strings. Decoding errors wrap ErrDecode.
func New(p Params) (*HMACTestCase, error) {
	if !p.Algorithm.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(p.Algorithm))
	}

	msgLen, err := BitsToBytes(p.MsgBits)
	if err != nil {
		return nil, fmt.Errorf("message length: %w", err)
	}
	keyLen, err := BitsToBytes(p.KeyBits)
	if err != nil {
		return nil, fmt.Errorf("key length: %w", err)
	}
	macLen, err := BitsToBytes(p.MACBits)
	if err != nil {
		return nil, fmt.Errorf("mac length: %w", err)
	}

	tc := NewHMACTestCase(p.Algorithm)
	tc.MsgLen = msgLen
	tc.KeyLen = keyLen
	tc.MACLen = macLen

	if p.AllocateTag {
		tc.Tag = NewTagBuffer()
	}

	tc.Msg, err = DecodeField(p.MsgHex, MsgMaxBytes)
	if err != nil {
		return nil, fmt.Errorf("message: %w", err)
	}

	tc.Key, err = DecodeField(p.KeyHex, KeyMaxBytes)
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}

	return tc, nil
}

// Algorithm returns the keyed-hash variant selected for this trial
func (tc *HMACTestCase) Algorithm() Algorithm {
	return tc.algorithm
}

// Release drops references to the trial buffers so they can be collected
func (tc *HMACTestCase) Release() {
	tc.Key = Absent()
	tc.Msg = Absent()
	tc.Tag = nil
}
