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
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// KeyMaxBytes is the largest key accepted (524288 bits)
	KeyMaxBytes = 524288 >> 3
	// MsgMaxBytes is the largest message accepted
	MsgMaxBytes = 65536
	// MACMaxBytes is the capacity of a tag buffer (512 bits)
	MACMaxBytes = 512 >> 3
)

var (
	// ErrDecode is wrapped by every hex decoding failure
	ErrDecode = errors.New("hex decode failure")
	// ErrOddLength is returned for hex strings with an odd number of digits
	ErrOddLength = fmt.Errorf("%w: odd length", ErrDecode)
	// ErrInvalidHex is returned when a non-hex character is found
	ErrInvalidHex = fmt.Errorf("%w: invalid character", ErrDecode)
	// ErrCapacityExceeded is returned when the decoded bytes would not fit the destination
	ErrCapacityExceeded = fmt.Errorf("%w: capacity exceeded", ErrDecode)
	// ErrFractionalBits is returned for bit lengths that are not whole bytes
	ErrFractionalBits = errors.New("bit length is not a multiple of 8")
)

// DecodeHex decodes src into dst and returns the number of bytes written.
// len(dst) is the capacity. The whole of src is checked before dst is
// written, so on failure it returns 0 and dst is left as it was.
func DecodeHex(dst []byte, src string) (int, error) {
	if len(src)%2 != 0 {
		return 0, fmt.Errorf("%w (%d digits)", ErrOddLength, len(src))
	}

	n := hex.DecodedLen(len(src))
	if n > len(dst) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrCapacityExceeded, n, len(dst))
	}

	for i := 0; i < len(src); i++ {
		if !isHexDigit(src[i]) {
			return 0, fmt.Errorf("%w: %#U at offset %d", ErrInvalidHex, rune(src[i]), i)
		}
	}

	if _, err := hex.Decode(dst[:n], []byte(src)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return n, nil
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// DecodeField decodes an optional hex string into a buffer of at most
// maxLen bytes. A nil src yields an absent field; an empty string yields a
// present, zero-length field.
func DecodeField(src *string, maxLen int) (Field, error) {
	if src == nil {
		return Absent(), nil
	}

	buf := make([]byte, min(hex.DecodedLen(len(*src)), maxLen))
	n, err := DecodeHex(buf, *src)
	if err != nil {
		return Absent(), err
	}

	return Present(buf[:n]), nil
}

// EncodeHex returns the upper-case hex encoding used in ACVP responses
func EncodeHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// BitsToBytes converts a declared bit length to bytes
func BitsToBytes(bits int) (int, error) {
	if bits < 0 {
		return 0, fmt.Errorf("negative bit length: %d", bits)
	}
	if bits%8 != 0 {
		return 0, fmt.Errorf("%w: %d", ErrFractionalBits, bits)
	}
	return bits / 8, nil
}
