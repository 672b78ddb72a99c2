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
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHex_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 31, 64, 1000, 2836, MsgMaxBytes} {
		want := make([]byte, n)
		_, err := rand.Read(want)
		require.NoError(t, err)

		dst := make([]byte, n)
		got, err := DecodeHex(dst, hex.EncodeToString(want))
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, n, got)
		assert.True(t, bytes.Equal(want, dst[:got]), "n=%d: decoded bytes differ", n)

		// Upper-case encoding decodes to the same bytes
		got, err = DecodeHex(dst, EncodeHex(want))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(want, dst[:got]))
	}
}

func TestDecodeHex_Failures(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		dstLen  int
		wantErr error
	}{
		{name: "odd length", src: "abc", dstLen: 8, wantErr: ErrOddLength},
		{name: "single digit", src: "a", dstLen: 8, wantErr: ErrOddLength},
		{name: "invalid character", src: "zz", dstLen: 8, wantErr: ErrInvalidHex},
		{name: "invalid character at end", src: "aabbccdg", dstLen: 8, wantErr: ErrInvalidHex},
		{name: "whitespace", src: "aa bb ", dstLen: 8, wantErr: ErrInvalidHex},
		{name: "capacity exceeded", src: "aabbccdd", dstLen: 3, wantErr: ErrCapacityExceeded},
		{name: "zero capacity", src: "00", dstLen: 0, wantErr: ErrCapacityExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := bytes.Repeat([]byte{0xA5}, tt.dstLen)
			n, err := DecodeHex(dst, tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrDecode)
			assert.Zero(t, n)
			assert.Equal(t, bytes.Repeat([]byte{0xA5}, tt.dstLen), dst, "destination must be left untouched")
		})
	}
}

func TestDecodeField_AbsentVersusEmpty(t *testing.T) {
	absent, err := DecodeField(nil, KeyMaxBytes)
	require.NoError(t, err)
	assert.False(t, absent.IsPresent())
	assert.Nil(t, absent.Bytes())

	empty := ""
	present, err := DecodeField(&empty, KeyMaxBytes)
	require.NoError(t, err)
	assert.True(t, present.IsPresent())
	assert.NotNil(t, present.Bytes())
	assert.Zero(t, present.Len())
}

func TestDecodeField_RespectsMaximum(t *testing.T) {
	src := hex.EncodeToString(make([]byte, MACMaxBytes+1))
	_, err := DecodeField(&src, MACMaxBytes)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("DecodeField() err = %v, want %v", err, ErrCapacityExceeded)
	}

	src = "0102"
	f, err := DecodeField(&src, MACMaxBytes)
	if err != nil {
		t.Fatalf("DecodeField(%q) err = %v, want nil", src, err)
	}
	if !bytes.Equal(f.Bytes(), []byte{1, 2}) {
		t.Errorf("DecodeField(%q) = %x, want 0102", src, f.Bytes())
	}
}

func TestBitsToBytes(t *testing.T) {
	n, err := BitsToBytes(22688)
	require.NoError(t, err)
	assert.Equal(t, 2836, n)

	_, err = BitsToBytes(12)
	assert.ErrorIs(t, err, ErrFractionalBits)

	_, err = BitsToBytes(-8)
	assert.Error(t, err)
}
