// Copyright 2019 The go-ethereum Authors
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

//go:build go1.19

package log

import "sync/atomic"

// swapHandler wraps a value of type T that may be swapped out dynamically
// at runtime in a thread-safe fashion. The root logger uses it to let
// SetDefault replace the active Logger without a lock.
type swapHandler[T any] struct {
	handler atomic.Pointer[T]
}

func (h *swapHandler[T]) Swap(newHandler T) {
	h.handler.Store(&newHandler)
}

func (h *swapHandler[T]) Get() T {
	return *h.handler.Load()
}
