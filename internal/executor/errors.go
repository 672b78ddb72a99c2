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

package executor

import (
	"errors"

	"github.com/Gosayram/openacvp/internal/testcase"
)

var (
	// ErrMissingInput is returned when the message or key is absent
	ErrMissingInput = errors.New("missing input")
	// ErrInvalidOutputTarget is returned when the tag buffer was not allocated
	ErrInvalidOutputTarget = errors.New("output buffer not allocated")
	// ErrBackendFailure wraps errors reported by the HMAC backend
	ErrBackendFailure = errors.New("backend failure")
	// ErrLengthMismatch is returned when declared lengths disagree with the buffers
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrMismatch is returned when a produced tag differs from the expected one
	ErrMismatch = errors.New("tag mismatch")
)

// Code is the numeric result of a trial. CodeSuccess is zero and every
// failure kind has its own non-zero value.
type Code int

// Result codes
const (
	CodeSuccess Code = iota
	CodeMissingInput
	CodeDecodeFailure
	CodeInvalidOutputTarget
	CodeBackendFailure
	CodeLengthMismatch
	CodeMismatch
	CodeUnknown
)

var codeNames = map[Code]string{
	CodeSuccess:             "SUCCESS",
	CodeMissingInput:        "MISSING_INPUT",
	CodeDecodeFailure:       "DECODE_FAILURE",
	CodeInvalidOutputTarget: "INVALID_OUTPUT_TARGET",
	CodeBackendFailure:      "BACKEND_FAILURE",
	CodeLengthMismatch:      "LENGTH_MISMATCH",
	CodeMismatch:            "MISMATCH",
	CodeUnknown:             "UNKNOWN",
}

// String returns the name of the code
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return codeNames[CodeUnknown]
}

// MarshalText implements encoding.TextMarshaler
func (c Code) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Code) UnmarshalText(text []byte) error {
	for code, name := range codeNames {
		if name == string(text) {
			*c = code
			return nil
		}
	}
	*c = CodeUnknown
	return nil
}

// CodeOf classifies err into a result code
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeSuccess
	case errors.Is(err, ErrMissingInput):
		return CodeMissingInput
	case errors.Is(err, testcase.ErrDecode):
		return CodeDecodeFailure
	case errors.Is(err, ErrInvalidOutputTarget):
		return CodeInvalidOutputTarget
	case errors.Is(err, ErrBackendFailure):
		return CodeBackendFailure
	case errors.Is(err, ErrLengthMismatch), errors.Is(err, testcase.ErrFractionalBits):
		return CodeLengthMismatch
	case errors.Is(err, ErrMismatch):
		return CodeMismatch
	default:
		return CodeUnknown
	}
}
