// Copyright 2020 The go-ethereum Authors
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

// Package eth defines the wire-level request/response shapes the
// downloader's fetch loops issue against a peer. The actual wire
// encoding and network transport are out of scope for this module —
// only the contracts the downloader depends on live here.
package eth

import (
	"errors"

	"github.com/chainsync/node/common"
	"github.com/chainsync/node/core/types"
)

// GetBlockHeadersPacket requests a contiguous run of headers, either
// ascending from Origin or descending if Reverse is set.
type GetBlockHeadersPacket struct {
	Origin  HashOrNumber
	Amount  uint64
	Skip    uint64
	Reverse bool
}

// HashOrNumber anchors a header request at either a known hash or a
// block number; exactly one of the two is meaningful at a time.
type HashOrNumber struct {
	Hash   common.Hash
	Number uint64
}

// BlockHeadersPacket is the response to a GetBlockHeadersPacket.
type BlockHeadersPacket []*types.Header

// GetBlockBodiesPacket requests the transaction bodies for a set of
// known block hashes.
type GetBlockBodiesPacket []common.Hash

// BlockBodiesPacket is the response to a GetBlockBodiesPacket, one body
// (as a transaction list) per requested hash, in the same order;
// missing bodies are omitted rather than padded with an empty slot, so
// callers must re-correlate each body by its Hash field rather than by
// position alone.
type BlockBodiesPacket []BlockBody

// BlockBody is the transaction list for a single requested block.
type BlockBody struct {
	Hash         common.Hash
	Transactions []*types.Transaction
}

var (
	// ErrRequestTimeout describes a Request whose Cancel channel fired
	// before a Response arrived. The downloader's fetch loops do not
	// receive it; they stop waiting when Cancel fires.
	ErrRequestTimeout = errors.New("eth: request timed out")
	// ErrNoPeer is returned by a Peer that has gone away mid-flight.
	ErrNoPeer = errors.New("eth: peer no longer connected")
)

// Request tracks a single outstanding wire request. Cancel is closed by
// the caller (or the peer's teardown path) to abandon the wait; Peer
// identifies who the request was sent to, for bookkeeping in callers
// that fan out across several peers at once.
type Request struct {
	Peer   string
	Cancel chan struct{}
}

// Close abandons the request, signaling any goroutine waiting on its
// response channel to stop waiting.
func (r *Request) Close() error {
	select {
	case <-r.Cancel:
	default:
		close(r.Cancel)
	}
	return nil
}

// Response is delivered on the channel passed to a Peer's Request*
// method once the corresponding wire reply arrives.
type Response struct {
	Req  *Request
	Res  interface{}
	Time int64 // arrival timestamp, unix nanos
}
