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

// Field is an input that is either absent or present with some bytes.
// A present field may be empty; it is never confused with an absent one.
type Field struct {
	data    []byte
	present bool
}

// Absent returns a field that was not provided
func Absent() Field {
	return Field{}
}

// Present returns a provided field holding b. A nil b is an empty value.
func Present(b []byte) Field {
	if b == nil {
		b = []byte{}
	}
	return Field{data: b, present: true}
}

// IsPresent reports whether the field was provided
func (f Field) IsPresent() bool {
	return f.present
}

// Bytes returns the field contents, nil when absent
func (f Field) Bytes() []byte {
	if !f.present {
		return nil
	}
	return f.data
}

// Len returns the number of bytes held, 0 when absent
func (f Field) Len() int {
	return len(f.data)
}
