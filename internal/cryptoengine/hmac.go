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

package cryptoengine

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // SHA-1 is a required ACVP HMAC variant
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/sha3"
)

// ACVP algorithm names
const (
	AlgorithmHMACSHA1       = "HMAC-SHA-1"
	AlgorithmHMACSHA2224    = "HMAC-SHA2-224"
	AlgorithmHMACSHA2256    = "HMAC-SHA2-256"
	AlgorithmHMACSHA2384    = "HMAC-SHA2-384"
	AlgorithmHMACSHA2512    = "HMAC-SHA2-512"
	AlgorithmHMACSHA2512224 = "HMAC-SHA2-512/224"
	AlgorithmHMACSHA2512256 = "HMAC-SHA2-512/256"
	AlgorithmHMACSHA3224    = "HMAC-SHA3-224"
	AlgorithmHMACSHA3256    = "HMAC-SHA3-256"
	AlgorithmHMACSHA3384    = "HMAC-SHA3-384"
	AlgorithmHMACSHA3512    = "HMAC-SHA3-512"
)

// HashHMACProvider implements HMAC over any hash.Hash constructor
type HashHMACProvider struct {
	name    string
	newHash func() hash.Hash
	size    int
}

// NewHashHMACProvider creates an HMAC provider named name over newHash
func NewHashHMACProvider(name string, newHash func() hash.Hash) *HashHMACProvider {
	return &HashHMACProvider{
		name:    name,
		newHash: newHash,
		size:    newHash().Size(),
	}
}

// NewHMACSHA256Provider creates a new HMAC-SHA2-256 provider
func NewHMACSHA256Provider() *HashHMACProvider {
	return NewHashHMACProvider(AlgorithmHMACSHA2256, sha256.New)
}

// defaultHMACProviders returns one provider per supported ACVP HMAC variant
func defaultHMACProviders() []HMACProvider {
	return []HMACProvider{
		NewHashHMACProvider(AlgorithmHMACSHA1, sha1.New),
		NewHashHMACProvider(AlgorithmHMACSHA2224, sha256.New224),
		NewHMACSHA256Provider(),
		NewHashHMACProvider(AlgorithmHMACSHA2384, sha512.New384),
		NewHashHMACProvider(AlgorithmHMACSHA2512, sha512.New),
		NewHashHMACProvider(AlgorithmHMACSHA2512224, sha512.New512_224),
		NewHashHMACProvider(AlgorithmHMACSHA2512256, sha512.New512_256),
		NewHashHMACProvider(AlgorithmHMACSHA3224, sha3.New224),
		NewHashHMACProvider(AlgorithmHMACSHA3256, sha3.New256),
		NewHashHMACProvider(AlgorithmHMACSHA3384, sha3.New384),
		NewHashHMACProvider(AlgorithmHMACSHA3512, sha3.New512),
	}
}

// Algorithm returns the algorithm name
func (p *HashHMACProvider) Algorithm() string {
	return p.name
}

// Size returns the full tag size in bytes
func (p *HashHMACProvider) Size() int {
	return p.size
}

// HMAC computes the HMAC of data
func (p *HashHMACProvider) HMAC(key, data []byte) []byte {
	mac := hmac.New(p.newHash, key)
	mac.Write(data)
	return mac.Sum(nil)
}
