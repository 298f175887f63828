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
	"sync/atomic"
	"time"

	"github.com/chainsync/node/common"
	"github.com/chainsync/node/consensus"
	"github.com/chainsync/node/event"
	"github.com/chainsync/node/log"
	"github.com/chainsync/node/metrics"
)

var (
	importedMeter = metrics.NewRegisteredMeter("downloader/import/done", nil)
	noParentMeter = metrics.NewRegisteredMeter("downloader/import/noparent", nil)
)

// importer is the single-threaded consumer of the import queue. A
// single thread is load-bearing, not incidental: Chain.TryConnect is
// where the local chain actually mutates, and serializing every call
// through one goroutine is what keeps that mutation race-free without
// Chain needing its own locking.
type importer struct {
	chain  Chain
	events event.SyncEvents

	input chan *BlockWrapper

	syncDone atomic.Bool
}

func newImporter(chain Chain, events event.SyncEvents, queueCap int) *importer {
	return &importer{
		chain:  chain,
		events: events,
		input:  make(chan *BlockWrapper, queueCap),
	}
}

// Enqueue hands a wrapper to the importer, blocking if the import queue
// is already at capacity (the queue's bound is the backpressure
// BodyFetcher and SenderPrefetch observe).
func (im *importer) Enqueue(w *BlockWrapper) {
	im.input <- w
}

// Len reports the current import queue depth, used by BodyFetcher to
// decide whether it's safe to request more bodies.
func (im *importer) Len() int { return len(im.input) }

func (im *importer) run(quit <-chan struct{}) {
	defer log.Debug("importer loop exiting")

	for {
		select {
		case <-quit:
			im.drain()
			return
		case w := <-im.input:
			im.importOne(w)
		}
	}
}

// drain processes whatever is already queued before the loop exits, so
// a shutdown doesn't silently discard blocks that were already
// assembled and handed off.
func (im *importer) drain() {
	for {
		select {
		case w := <-im.input:
			im.importOne(w)
		default:
			return
		}
	}
}

// importOne never lets the loop die: every error and result is logged
// and the loop continues. Panics, unexpected results, and chain errors
// other than ErrUnknownAncestor/ErrFutureBlock are logged with the
// block's encoded dump.
func (im *importer) importOne(w *BlockWrapper) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("importer panicked on block, dropping", "number", w.Block.Number(), "dump", w.Block.Encoded(), "err", r)
		}
	}()

	result, err := im.chain.TryConnect(w.Block)
	if err != nil {
		// Ancestor/future-block races are expected while the local head
		// is still catching up and resolve themselves once it does;
		// anything else is a chain-level fault worth a louder log.
		if common.AnyError(err, consensus.ErrUnknownAncestor, consensus.ErrFutureBlock) {
			log.Debug("chain import deferred", "number", w.Block.Number(), "hash", w.Block.Hash(), "err", err)
		} else {
			log.Error("chain import returned an error", "number", w.Block.Number(), "hash", w.Block.Hash(), "dump", w.Block.Encoded(), "err", err)
		}
		return
	}

	switch result {
	case ImportedBest:
		importedMeter.Mark(1)
		if w.IsNewBlock {
			delay := common.PrettyDuration(time.Since(w.ReceivedAt))
			log.Info("imported new chain head", "number", w.Block.Number(), "hash", w.Block.Hash(), "new", w.IsNewBlock, "delay", delay)
		} else {
			log.Info("imported new chain head", "number", w.Block.Number(), "hash", w.Block.Hash(), "new", w.IsNewBlock)
		}
		if w.IsNewBlock && im.syncDone.CompareAndSwap(false, true) {
			im.events.OnSyncDone(event.SyncEvent{Head: w.Block.Number()})
		}
	case ImportedNotBest:
		log.Info("imported side chain block", "number", w.Block.Number(), "hash", w.Block.Hash())
	case NoParent:
		noParentMeter.Mark(1)
		log.Error("import attempted on block with missing parent", "number", w.Block.Number(), "hash", w.Block.Hash(), "parent", w.Block.ParentHash())
	case Exists:
		log.Debug("block already imported", "number", w.Block.Number(), "hash", w.Block.Hash())
	default:
		log.Error("unexpected import result", "number", w.Block.Number(), "hash", w.Block.Hash(), "result", result, "dump", w.Block.Encoded())
	}
}
