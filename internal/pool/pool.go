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

// Package pool provides a typed wrapper over sync.Pool for values that can
// reset their own state.
package pool

import "sync"

// Resetter is implemented by values that can clear their state before reuse
type Resetter interface {
	Reset()
}

// Pool is a type-safe sync.Pool for Resetter values
type Pool[T Resetter] struct {
	p *sync.Pool
}

// New creates a pool; newFn builds a fresh value when the pool is empty
func New[T Resetter](newFn func() T) *Pool[T] {
	if newFn == nil {
		panic("pool: newFn must not be nil")
	}

	return &Pool[T]{
		p: &sync.Pool{
			New: func() any {
				return newFn()
			},
		},
	}
}

// Get returns a value from the pool, or a new one from newFn
func (p *Pool[T]) Get() T {
	v := p.p.Get()
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// Put resets v and returns it to the pool
func (p *Pool[T]) Put(v T) {
	v.Reset()
	p.p.Put(v)
}
