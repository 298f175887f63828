// Copyright 2014 The go-ethereum Authors
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

// Package consensus declares the HeaderValidator contract the sync
// engine treats as an external, pure predicate: headers either pass or
// they don't, and the engine never re-derives the judgment itself.
package consensus

import (
	"errors"

	"github.com/chainsync/node/core/types"
)

var (
	// ErrUnknownAncestor is returned when a header's parent hasn't
	// been seen.
	ErrUnknownAncestor = errors.New("consensus: unknown ancestor")

	// ErrFutureBlock is returned when a header's timestamp is too far
	// in the future to verify yet. The importer logs a chain import
	// failing with it at debug level rather than as an error; Ingress
	// header validation rejects a batch on it like on any other error.
	ErrFutureBlock = errors.New("consensus: block in the future")

	// ErrInvalidPoW is returned when a header's proof-of-work does not
	// satisfy its declared difficulty.
	ErrInvalidPoW = errors.New("consensus: invalid proof-of-work")
)

// HeaderValidator is the pure predicate the spec names: a function from
// header to valid/invalid. The sync engine never implements PoW
// checking itself — it calls this and logs the validator's own error.
type HeaderValidator interface {
	VerifyHeader(header *types.Header) error
}

// HeaderValidatorFunc adapts a plain function to HeaderValidator.
type HeaderValidatorFunc func(header *types.Header) error

func (f HeaderValidatorFunc) VerifyHeader(header *types.Header) error { return f(header) }
