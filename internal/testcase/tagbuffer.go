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

// TagBuffer is the output slot for a computed tag. It can only be
// allocated through NewTagBuffer; a nil pointer or a zero value means the
// harness never allocated it.
type TagBuffer struct {
	buf []byte
	n   int
}

// NewTagBuffer allocates a tag buffer with MACMaxBytes of capacity
func NewTagBuffer() *TagBuffer {
	return &TagBuffer{buf: make([]byte, MACMaxBytes)}
}

// Allocated reports whether t is usable as an output target
func (t *TagBuffer) Allocated() bool {
	return t != nil && t.buf != nil
}

// Cap returns the maximum number of tag bytes the buffer can hold
func (t *TagBuffer) Cap() int {
	if t == nil {
		return 0
	}
	return len(t.buf)
}

// Len returns the produced tag length
func (t *TagBuffer) Len() int {
	if t == nil {
		return 0
	}
	return t.n
}

// Bytes returns a copy of the produced tag
func (t *TagBuffer) Bytes() []byte {
	if t == nil || t.n == 0 {
		return nil
	}
	out := make([]byte, t.n)
	copy(out, t.buf[:t.n])
	return out
}

// Write stores tag, bounded by the buffer capacity, and returns the
// number of bytes kept. Previous contents are cleared first.
func (t *TagBuffer) Write(tag []byte) int {
	clear(t.buf)
	t.n = copy(t.buf, tag)
	return t.n
}

// Reset clears the produced tag so the buffer can be reused
func (t *TagBuffer) Reset() {
	if t == nil {
		return
	}
	clear(t.buf)
	t.n = 0
}
