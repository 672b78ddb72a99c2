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

package testcase

import (
	"errors"
	"fmt"
)

// ErrUnknownAlgorithm is returned when an algorithm name is not recognized
var ErrUnknownAlgorithm = errors.New("unknown HMAC algorithm")

// Algorithm identifies a keyed-hash variant
type Algorithm int

// Supported HMAC algorithms
const (
	AlgorithmUnknown Algorithm = iota
	HMACSHA1
	HMACSHA2224
	HMACSHA2256
	HMACSHA2384
	HMACSHA2512
	HMACSHA2512224
	HMACSHA2512256
	HMACSHA3224
	HMACSHA3256
	HMACSHA3384
	HMACSHA3512
)

type algorithmInfo struct {
	name       string
	digestSize int
}

// algorithms maps each algorithm to its ACVP name and digest size in bytes
var algorithms = map[Algorithm]algorithmInfo{
	HMACSHA1:       {name: "HMAC-SHA-1", digestSize: 20},
	HMACSHA2224:    {name: "HMAC-SHA2-224", digestSize: 28},
	HMACSHA2256:    {name: "HMAC-SHA2-256", digestSize: 32},
	HMACSHA2384:    {name: "HMAC-SHA2-384", digestSize: 48},
	HMACSHA2512:    {name: "HMAC-SHA2-512", digestSize: 64},
	HMACSHA2512224: {name: "HMAC-SHA2-512/224", digestSize: 28},
	HMACSHA2512256: {name: "HMAC-SHA2-512/256", digestSize: 32},
	HMACSHA3224:    {name: "HMAC-SHA3-224", digestSize: 28},
	HMACSHA3256:    {name: "HMAC-SHA3-256", digestSize: 32},
	HMACSHA3384:    {name: "HMAC-SHA3-384", digestSize: 48},
	HMACSHA3512:    {name: "HMAC-SHA3-512", digestSize: 64},
}

// Algorithms returns every supported algorithm in declaration order
func Algorithms() []Algorithm {
	out := make([]Algorithm, 0, len(algorithms))
	for a := HMACSHA1; a <= HMACSHA3512; a++ {
		out = append(out, a)
	}
	return out
}

// ParseAlgorithm resolves an ACVP algorithm name such as "HMAC-SHA2-256"
func ParseAlgorithm(name string) (Algorithm, error) {
	for a, info := range algorithms {
		if info.name == name {
			return a, nil
		}
	}
	return AlgorithmUnknown, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// String returns the ACVP name of the algorithm
func (a Algorithm) String() string {
	if info, ok := algorithms[a]; ok {
		return info.name
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Valid reports whether a is a supported algorithm
func (a Algorithm) Valid() bool {
	_, ok := algorithms[a]
	return ok
}

// DigestSize returns the untruncated tag size in bytes, or 0 for unknown algorithms
func (a Algorithm) DigestSize() int {
	return algorithms[a].digestSize
}

// MarshalText implements encoding.TextMarshaler
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
