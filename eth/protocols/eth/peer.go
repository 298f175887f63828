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

package eth

import "github.com/chainsync/node/common"

// Peer is the minimal contract the downloader needs out of a connected
// `eth` protocol peer. The real transport (dialing, framing, rlp
// encoding) belongs to the network layer and is out of scope here —
// Peer is the seam the downloader's fetch loops call through.
type Peer struct {
	id string

	requestHeaders func(GetBlockHeadersPacket, chan *Response) (*Request, error)
	requestBodies  func(GetBlockBodiesPacket, chan *Response) (*Request, error)
}

// NewPeer wraps the given send functions as a Peer identified by id.
// Network layers construct one of these per connected `eth` peer and
// hand it to the downloader through PeerPool.
func NewPeer(id string,
	requestHeaders func(GetBlockHeadersPacket, chan *Response) (*Request, error),
	requestBodies func(GetBlockBodiesPacket, chan *Response) (*Request, error),
) *Peer {
	return &Peer{id: id, requestHeaders: requestHeaders, requestBodies: requestBodies}
}

func (p *Peer) ID() string { return p.id }

// RequestHeadersByNumber sends a GetBlockHeaders request anchored at a
// block number.
func (p *Peer) RequestHeadersByNumber(origin uint64, amount uint64, skip uint64, reverse bool, sink chan *Response) (*Request, error) {
	return p.requestHeaders(GetBlockHeadersPacket{
		Origin:  HashOrNumber{Number: origin},
		Amount:  amount,
		Skip:    skip,
		Reverse: reverse,
	}, sink)
}

// RequestBodies sends a GetBlockBodies request for the given hashes.
func (p *Peer) RequestBodies(hashes []common.Hash, sink chan *Response) (*Request, error) {
	return p.requestBodies(GetBlockBodiesPacket(hashes), sink)
}
