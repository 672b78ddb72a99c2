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
	"context"
	"encoding/hex"
	"errors"
	"testing"
)

// RFC 2202 / RFC 4231 test case 2
var (
	jefeKey  = []byte("Jefe")
	jefeData = []byte("what do ya want for nothing?")
)

func TestHashHMACProvider_KnownAnswers(t *testing.T) {
	tests := []struct {
		algorithm string
		want      string
	}{
		{AlgorithmHMACSHA1, "effcdf6ae5eb2fa2d27416d5f184df9c259a7c79"},
		{AlgorithmHMACSHA2224, "a30e01098bc6dbbf45690f3a7e9e6d0f8bbea2a39e6148008fd05e44"},
		{AlgorithmHMACSHA2256, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"},
		{AlgorithmHMACSHA2384, "af45d2e376484031617f78d2b58a6b1b9c7ef464f5a01b47e42ec3736322445e" +
			"8e2240ca5e69e2c78b3239ecfab21649"},
		{AlgorithmHMACSHA2512, "164b7a7bfcf819e2e395fbe73b56e0a387bd64222e831fd610270cd7ea250554" +
			"9758bf75c05a994a6d034f65f8f0e6fdcaeab1a34d4a6b4b636e070a38bce737"},
	}

	engine := NewEngine()
	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			provider, err := engine.Provider(tt.algorithm)
			if err != nil {
				t.Fatalf("Provider(%q) err = %v, want nil", tt.algorithm, err)
			}
			got := hex.EncodeToString(provider.HMAC(jefeKey, jefeData))
			if got != tt.want {
				t.Errorf("HMAC() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHashHMACProvider_Sizes(t *testing.T) {
	sizes := map[string]int{
		AlgorithmHMACSHA1:       20,
		AlgorithmHMACSHA2224:    28,
		AlgorithmHMACSHA2256:    32,
		AlgorithmHMACSHA2384:    48,
		AlgorithmHMACSHA2512:    64,
		AlgorithmHMACSHA2512224: 28,
		AlgorithmHMACSHA2512256: 32,
		AlgorithmHMACSHA3224:    28,
		AlgorithmHMACSHA3256:    32,
		AlgorithmHMACSHA3384:    48,
		AlgorithmHMACSHA3512:    64,
	}

	engine := NewEngine()
	if got := len(engine.Algorithms()); got != len(sizes) {
		t.Fatalf("len(Algorithms()) = %d, want %d", got, len(sizes))
	}

	for name, size := range sizes {
		provider, err := engine.Provider(name)
		if err != nil {
			t.Fatalf("Provider(%q) err = %v, want nil", name, err)
		}
		if provider.Size() != size {
			t.Errorf("%s: Size() = %d, want %d", name, provider.Size(), size)
		}
		if mac := provider.HMAC([]byte("test key"), []byte("test data")); len(mac) != size {
			t.Errorf("%s: len(HMAC()) = %d, want %d", name, len(mac), size)
		}
	}
}

func TestCryptoEngine_UnknownAlgorithm(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	if _, err := engine.HMAC(ctx, jefeKey, "HMAC-MD5", jefeData); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("HMAC() err = %v, want %v", err, ErrUnknownAlgorithm)
	}
}

func TestCryptoEngine_GenerateRandom(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	b, err := engine.GenerateRandom(ctx, 32)
	if err != nil {
		t.Fatalf("GenerateRandom(32) err = %v, want nil", err)
	}
	if len(b) != 32 {
		t.Errorf("len(GenerateRandom(32)) = %d, want 32", len(b))
	}

	if b, err := engine.GenerateRandom(ctx, 0); err != nil || len(b) != 0 {
		t.Errorf("GenerateRandom(0) = %x, %v, want empty, nil", b, err)
	}

	if _, err := engine.GenerateRandom(ctx, -1); err == nil {
		t.Error("GenerateRandom(-1) err = nil, want error")
	}
}
