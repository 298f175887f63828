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

import (
	"github.com/chainsync/node/common"
	"github.com/chainsync/node/core/types"
	"github.com/chainsync/node/eth/protocols/eth"
)

// PeerHandler is the capability interface a connected peer exposes to
// the fetch loops: send a headers or bodies request, get a Request back
// to correlate (and cancel) the eventual Response. Peer/channel
// management and selection live outside this module; a PeerHandler is
// handed to us already resolved to a live connection.
type PeerHandler interface {
	ID() string
	SendGetBlockHeaders(start uint64, count uint64, reverse bool, sink chan *eth.Response) (*eth.Request, error)
	SendGetBlockBodies(headers []*types.Header, sink chan *eth.Response) (*eth.Request, error)
}

// PeerPool yields an idle peer, or none, without blocking. Peer
// selection policy (round-robin, least-loaded, …) is the pool's
// business, not the fetch loops'.
type PeerPool interface {
	AnyIdle() (PeerHandler, bool)
}

// ethPeerHandler adapts an eth.Peer to PeerHandler.
type ethPeerHandler struct {
	peer *eth.Peer
}

// NewPeerHandler wraps a wire-level eth.Peer as a PeerHandler.
func NewPeerHandler(peer *eth.Peer) PeerHandler {
	return &ethPeerHandler{peer: peer}
}

func (h *ethPeerHandler) ID() string { return h.peer.ID() }

func (h *ethPeerHandler) SendGetBlockHeaders(start uint64, count uint64, reverse bool, sink chan *eth.Response) (*eth.Request, error) {
	return h.peer.RequestHeadersByNumber(start, count, 0, reverse, sink)
}

func (h *ethPeerHandler) SendGetBlockBodies(headers []*types.Header, sink chan *eth.Response) (*eth.Request, error) {
	return h.peer.RequestBodies(headerHashes(headers), sink)
}

func headerHashes(headers []*types.Header) []common.Hash {
	hashes := make([]common.Hash, len(headers))
	for i, h := range headers {
		hashes[i] = h.Hash()
	}
	return hashes
}
