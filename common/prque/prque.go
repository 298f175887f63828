// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package prque implements a priority queue ordered by the lowest priority
// value popping first. It exists in this tree because the upstream package
// of this name was not present in the retrieval this module was built from;
// its API mirrors exactly what callers elsewhere in this codebase expect
// (New, Push, PopItem, Empty, Size).
package prque

import "container/heap"

// Prque is a priority queue data structure that pops the item with the
// lowest priority value first.
type Prque[P int64 | float32 | float64, V any] struct {
	cont *sstack[P, V]
}

// New creates a new priority queue.
func New[P int64 | float32 | float64, V any](setIndex SetIndexCallback[V]) *Prque[P, V] {
	return &Prque[P, V]{newSstack[P, V](setIndex)}
}

// Push adds an item with the given priority into the queue.
func (p *Prque[P, V]) Push(data V, priority P) {
	heap.Push(p.cont, &item[P, V]{data, priority})
}

// Peek returns the value with the lowest priority, without popping it.
func (p *Prque[P, V]) Peek() (V, P) {
	it := p.cont.blocks[0][0]
	return it.value, it.priority
}

// PopItem pops the value with the lowest priority, dropping the priority.
func (p *Prque[P, V]) PopItem() V {
	return heap.Pop(p.cont).(*item[P, V]).value
}

// Pop pops the value with the lowest priority and returns it together with
// the priority it was pushed with.
func (p *Prque[P, V]) Pop() (V, P) {
	it := heap.Pop(p.cont).(*item[P, V])
	return it.value, it.priority
}

// Remove removes the item at the given index.
func (p *Prque[P, V]) Remove(i int) V {
	return heap.Remove(p.cont, i).(*item[P, V]).value
}

// Empty reports whether the queue holds no items.
func (p *Prque[P, V]) Empty() bool {
	return p.cont.Len() == 0
}

// Size returns the number of items currently in the queue.
func (p *Prque[P, V]) Size() int {
	return p.cont.Len()
}

// Reset clears the queue, discarding all items.
func (p *Prque[P, V]) Reset() {
	*p.cont = *newSstack[P, V](p.cont.setIndex)
}
