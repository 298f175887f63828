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
	"time"

	"github.com/chainsync/node/consensus"
	"github.com/chainsync/node/core/types"
	"github.com/chainsync/node/log"
)

// Ingress is the set of methods wire handlers call directly, on their
// own goroutine, whenever headers or blocks arrive from peers. Every
// method is safe to call concurrently with every other.
type Ingress struct {
	queue     *SyncQueue
	validator consensus.HeaderValidator
	prefetch  *senderPrefetch

	onHeadersArrived func()
	onBodiesArrived  func()
}

func newIngress(queue *SyncQueue, validator consensus.HeaderValidator, prefetch *senderPrefetch, onHeadersArrived, onBodiesArrived func()) *Ingress {
	return &Ingress{
		queue:            queue,
		validator:        validator,
		prefetch:         prefetch,
		onHeadersArrived: onHeadersArrived,
		onBodiesArrived:  onBodiesArrived,
	}
}

// AddList is called on a GetBlockBodies response. A newly-assembled
// block is wrapped IsNewBlock if the queue still has it marked
// announced — that happens when an earlier ValidateAndAddNewBlock
// couldn't complete the assembly itself (no parent yet) and this
// backfill delivery is what finally completes it.
func (in *Ingress) AddList(blocks []*types.Block, nodeID string) {
	ready := in.queue.AddBlocks(blocks)
	if len(ready) == 0 {
		in.onBodiesArrived()
		return
	}
	now := time.Now()
	wrappers := make([]*BlockWrapper, len(ready))
	for i, b := range ready {
		wrappers[i] = &BlockWrapper{Block: b, NodeID: nodeID}
		if in.queue.TakeAnnounced(b.Hash()) {
			wrappers[i].IsNewBlock = true
			wrappers[i].ReceivedAt = now
		}
	}
	in.prefetch.Submit(wrappers)
	in.onBodiesArrived()
}

// ValidateAndAddNewBlock is called on a spontaneous block announcement.
// It validates the header, marks the hash announced, then adds header
// and body together. The announced mark outlives this call: if the
// block's parent isn't present yet, assembly doesn't complete here,
// and the mark sits in the queue until a later AddList backfill
// completes it and reports IsNewBlock on Importer's behalf instead.
func (in *Ingress) ValidateAndAddNewBlock(block *types.Block, nodeID string) bool {
	if err := in.validator.VerifyHeader(block.Header); err != nil {
		log.Warn("rejected announced block with invalid header", "number", block.Number(), "hash", block.Hash(), "peer", nodeID, "err", err)
		return false
	}

	in.queue.MarkAnnounced(block.Hash())
	in.queue.AddHeaders([]*HeaderWrapper{{Header: block.Header, NodeID: nodeID}})
	ready := in.queue.AddBlocks([]*types.Block{block})

	in.onHeadersArrived()
	if len(ready) == 0 {
		return true
	}

	now := time.Now()
	wrappers := make([]*BlockWrapper, len(ready))
	for i, b := range ready {
		wrappers[i] = &BlockWrapper{Block: b, NodeID: nodeID}
		if in.queue.TakeAnnounced(b.Hash()) {
			wrappers[i].IsNewBlock = true
			wrappers[i].ReceivedAt = now
		}
	}
	in.prefetch.Submit(wrappers)
	in.onBodiesArrived()
	return true
}

// ValidateAndAddHeaders is called on a GetBlockHeaders response. Any
// single invalid header rejects the entire batch.
func (in *Ingress) ValidateAndAddHeaders(headers []*types.Header, nodeID string) bool {
	for _, h := range headers {
		if err := in.validator.VerifyHeader(h); err != nil {
			log.Warn("rejected header batch", "peer", nodeID, "bad_number", h.Number, "err", err)
			return false
		}
	}

	wrappers := make([]*HeaderWrapper, len(headers))
	for i, h := range headers {
		wrappers[i] = &HeaderWrapper{Header: h, NodeID: nodeID}
	}
	in.queue.AddHeaders(wrappers)
	in.onHeadersArrived()
	return true
}
