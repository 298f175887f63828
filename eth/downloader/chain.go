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

package downloader

import "github.com/chainsync/node/core/types"

// ImportResult is the outcome Chain.TryConnect reports for a single
// block import attempt.
type ImportResult int

const (
	ImportedBest ImportResult = iota
	ImportedNotBest
	Exists
	NoParent
	InvalidBlock
)

func (r ImportResult) String() string {
	switch r {
	case ImportedBest:
		return "IMPORTED_BEST"
	case ImportedNotBest:
		return "IMPORTED_NOT_BEST"
	case Exists:
		return "EXISTS"
	case NoParent:
		return "NO_PARENT"
	case InvalidBlock:
		return "INVALID_BLOCK"
	default:
		return "UNKNOWN"
	}
}

// Chain is the local chain-import collaborator. Its contract is the
// only piece of the import subsystem this module depends on; chain
// reorganization, state-trie sync and persistence are its concern, not
// the downloader's.
type Chain interface {
	// TryConnect attempts to import block onto the local chain.
	TryConnect(block *types.Block) (ImportResult, error)
	// CurrentHeader returns the chain's current head header. The
	// downloader polls this at startup to learn when the chain
	// subsystem has become queryable (see the chainReady argument of New).
	CurrentHeader() *types.Header
}
