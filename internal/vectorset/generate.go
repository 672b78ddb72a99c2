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

package vectorset

import (
	"context"
	"fmt"

	"github.com/Gosayram/openacvp/internal/cryptoengine"
	"github.com/Gosayram/openacvp/internal/testcase"
)

const (
	// GeneratedRevision is the revision written into generated vector sets
	GeneratedRevision = "1.0"

	// MaxGeneratedTests bounds the number of test cases Generate produces
	MaxGeneratedTests = 10000
)

// Generate builds a vector set for alg with random keys and messages and
// the expected MAC of every test, computed with engine. Key and message
// lengths grow with the group index; odd groups request a truncated MAC.
func Generate(ctx context.Context, engine cryptoengine.Engine, alg testcase.Algorithm, groups, testsPerGroup int) (*VectorSet, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %d", testcase.ErrUnknownAlgorithm, int(alg))
	}
	if groups < 1 || testsPerGroup < 1 {
		return nil, fmt.Errorf("%w: need at least one group and one test", ErrInvalidVectorSet)
	}
	if groups > MaxGeneratedTests/testsPerGroup {
		return nil, fmt.Errorf("%w: more than %d test cases requested", ErrInvalidVectorSet, MaxGeneratedTests)
	}

	vs := &VectorSet{
		ID:        1,
		Algorithm: alg.String(),
		Revision:  GeneratedRevision,
		Groups:    make([]Group, 0, groups),
	}

	tcID := uint64(1)
	for gi := range groups {
		keyLen := min(16*(gi+1), testcase.KeyMaxBytes)
		msgLen := min(32*(gi+1)+gi, testcase.MsgMaxBytes)
		macLen := alg.DigestSize()
		if gi%2 == 1 {
			macLen /= 2
		}

		group := Group{
			ID:      uint64(gi + 1),
			Type:    "AFT",
			KeyBits: keyLen * 8,
			MsgBits: msgLen * 8,
			MACBits: macLen * 8,
			Tests:   make([]Test, 0, testsPerGroup),
		}

		for range testsPerGroup {
			test, err := generateTest(ctx, engine, alg, tcID, keyLen, msgLen, macLen)
			if err != nil {
				return nil, fmt.Errorf("test case %d: %w", tcID, err)
			}
			group.Tests = append(group.Tests, test)
			tcID++
		}
		vs.Groups = append(vs.Groups, group)
	}

	return vs, nil
}

func generateTest(ctx context.Context, engine cryptoengine.Engine, alg testcase.Algorithm, id uint64, keyLen, msgLen, macLen int) (Test, error) {
	key, err := engine.GenerateRandom(ctx, keyLen)
	if err != nil {
		return Test{}, err
	}
	msg, err := engine.GenerateRandom(ctx, msgLen)
	if err != nil {
		return Test{}, err
	}

	mac, err := engine.HMAC(ctx, key, alg.String(), msg)
	if err != nil {
		return Test{}, err
	}
	if len(mac) < macLen {
		return Test{}, fmt.Errorf("%s returned %d bytes, need %d", alg, len(mac), macLen)
	}

	keyHex := testcase.EncodeHex(key)
	msgHex := testcase.EncodeHex(msg)
	return Test{
		ID:  id,
		Key: &keyHex,
		Msg: &msgHex,
		MAC: testcase.EncodeHex(mac[:macLen]),
	}, nil
}

// StripExpected returns a copy of vs without expected MACs, as an ACVP
// server would send it for a generation test.
func StripExpected(vs *VectorSet) *VectorSet {
	out := *vs
	out.Groups = make([]Group, len(vs.Groups))
	for i, g := range vs.Groups {
		g.Tests = append([]Test(nil), g.Tests...)
		for j := range g.Tests {
			g.Tests[j].MAC = ""
		}
		out.Groups[i] = g
	}
	return &out
}
