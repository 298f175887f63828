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

package prque

// SetIndexCallback is called whenever an item's position in the backing
// store changes, so the caller can keep an external index up to date.
// Pass nil when no such bookkeeping is needed.
type SetIndexCallback[V any] func(data V, index int)

type item[P int64 | float32 | float64, V any] struct {
	value    V
	priority P
}

const blockSize = 4096

// sstack is a slice-of-blocks stack implementing heap.Interface, ordered so
// the lowest priority value is always at the root.
type sstack[P int64 | float32 | float64, V any] struct {
	setIndex SetIndexCallback[V]
	size     int
	capacity int
	offset   int

	blocks [][]*item[P, V]
	active []*item[P, V]
}

func newSstack[P int64 | float32 | float64, V any](setIndex SetIndexCallback[V]) *sstack[P, V] {
	result := new(sstack[P, V])
	result.setIndex = setIndex
	result.capacity = blockSize
	result.active = make([]*item[P, V], blockSize)
	result.blocks = [][]*item[P, V]{result.active}
	return result
}

func (s *sstack[P, V]) Len() int { return s.size }

func (s *sstack[P, V]) Less(i, j int) bool {
	return s.blocks[i/blockSize][i%blockSize].priority < s.blocks[j/blockSize][j%blockSize].priority
}

func (s *sstack[P, V]) Swap(i, j int) {
	ib, io, jb, jo := i/blockSize, i%blockSize, j/blockSize, j%blockSize
	s.blocks[ib][io], s.blocks[jb][jo] = s.blocks[jb][jo], s.blocks[ib][io]
	if s.setIndex != nil {
		s.setIndex(s.blocks[ib][io].value, i)
		s.setIndex(s.blocks[jb][jo].value, j)
	}
}

func (s *sstack[P, V]) Push(x any) {
	it := x.(*item[P, V])
	if s.size == s.capacity {
		s.active = make([]*item[P, V], blockSize)
		s.blocks = append(s.blocks, s.active)
		s.capacity += blockSize
	}
	s.active[s.size%blockSize] = it
	if s.setIndex != nil {
		s.setIndex(it.value, s.size)
	}
	s.size++
}

func (s *sstack[P, V]) Pop() any {
	s.size--
	ib, io := s.size/blockSize, s.size%blockSize
	it := s.blocks[ib][io]
	s.blocks[ib][io] = nil

	if s.setIndex != nil {
		s.setIndex(it.value, -1)
	}
	if io == 0 && len(s.blocks) > 1 {
		s.blocks = s.blocks[:len(s.blocks)-1]
		s.capacity -= blockSize
		s.active = s.blocks[len(s.blocks)-1]
	}
	return it
}
