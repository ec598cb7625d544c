/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package bounded provides a fixed-capacity FIFO that evicts its oldest
// element when full. It is not safe for concurrent use.
package bounded

import "iter"

// Buffer is a ring buffer of at most Cap elements.
type Buffer[T any] struct {
	items []T
	head  int
	size  int
}

// New returns an empty buffer holding at most capacity elements. A
// non-positive capacity yields a buffer on which Push is a no-op.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 0 {
		capacity = 0
	}

	return &Buffer[T]{items: make([]T, capacity)}
}

// Cap returns the capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// Len returns the number of stored elements.
func (b *Buffer[T]) Len() int {
	return b.size
}

// Push appends v, evicting the oldest element when the buffer is full.
func (b *Buffer[T]) Push(v T) {
	capacity := len(b.items)
	if capacity == 0 {
		return
	}

	if b.size < capacity {
		b.items[(b.head+b.size)%capacity] = v
		b.size++

		return
	}

	b.items[b.head] = v
	b.head = (b.head + 1) % capacity
}

// At returns the i-th element, 0 being the oldest.
func (b *Buffer[T]) At(i int) (T, bool) {
	var zero T

	if i < 0 || i >= b.size {
		return zero, false
	}

	return b.items[(b.head+i)%len(b.items)], true
}

// First returns the oldest element.
func (b *Buffer[T]) First() (T, bool) {
	return b.At(0)
}

// Last returns the newest element.
func (b *Buffer[T]) Last() (T, bool) {
	return b.At(b.size - 1)
}

// Clear drops all elements, keeping the capacity.
func (b *Buffer[T]) Clear() {
	var zero T

	for i := range b.items {
		b.items[i] = zero
	}

	b.head = 0
	b.size = 0
}

// All iterates from oldest to newest.
func (b *Buffer[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < b.size; i++ {
			if !yield(b.items[(b.head+i)%len(b.items)]) {
				return
			}
		}
	}
}

// Backward iterates from newest to oldest.
func (b *Buffer[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := b.size - 1; i >= 0; i-- {
			if !yield(b.items[(b.head+i)%len(b.items)]) {
				return
			}
		}
	}
}

// Slice copies the contents oldest first.
func (b *Buffer[T]) Slice() []T {
	out := make([]T, 0, b.size)
	for v := range b.All() {
		out = append(out, v)
	}

	return out
}

// Clone returns an independent copy with the same capacity. Elements are
// copied shallowly.
func (b *Buffer[T]) Clone() *Buffer[T] {
	c := New[T](len(b.items))
	for v := range b.All() {
		c.Push(v)
	}

	return c
}
