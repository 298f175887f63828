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

// Package downloader implements the block synchronization engine: the
// header/body fetch loops, the SyncQueue reassembly structure, the
// transaction-sender prefetch pipeline, and the single-threaded
// importer that feeds assembled blocks to the local chain.
package downloader

import (
	"time"

	"github.com/chainsync/node/core/types"
)

// HeaderWrapper pairs a header with the id of the peer it arrived from.
type HeaderWrapper struct {
	Header *types.Header
	NodeID string
}

// BlockWrapper pairs a block with its provenance. IsNewBlock is true
// iff the block arrived as a spontaneous announcement of the peer's own
// head rather than as a backfill response — this is the flag the
// Importer uses to decide whether an IMPORTED_BEST result should trip
// syncDone.
type BlockWrapper struct {
	Block      *types.Block
	NodeID     string
	IsNewBlock bool
	ReceivedAt time.Time
}
