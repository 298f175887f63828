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
	"sync"
	"time"

	"github.com/chainsync/node/log"
	"github.com/chainsync/node/metrics"
)

var senderRecoverTimer = metrics.NewRegisteredTimer("downloader/senderprefetch/recover", nil)

// senderBatch is a batch of wrappers submitted to SenderPrefetch
// together; they must exit the ordering tail in the same relative
// order they entered, per the spec's ordering guarantee for a single
// addList/addBlocks call.
type senderBatch struct {
	seq      uint64
	wrappers []*BlockWrapper
}

// senderPrefetch forces tx.Sender() on every transaction of every
// submitted block across a fixed pool of workers, off the Importer's
// critical path, then hands batches to a single ordering tail so
// siblings from the same call reach the import queue in submission
// order despite being processed concurrently.
type senderPrefetch struct {
	input chan senderBatch

	workers int

	mu      sync.Mutex
	nextSeq uint64

	// reorder buffers out-of-order worker completions until the
	// lowest outstanding sequence number is ready, then drains
	// everything contiguous in one go.
	pending map[uint64][]*BlockWrapper
	emit    func([]*BlockWrapper)
}

func newSenderPrefetch(workers, buffer int, emit func([]*BlockWrapper)) *senderPrefetch {
	return &senderPrefetch{
		input:   make(chan senderBatch, buffer),
		workers: workers,
		pending: make(map[uint64][]*BlockWrapper),
		emit:    emit,
	}
}

// Submit enqueues wrappers as one ordered batch, blocking if the input
// buffer is full (the spec's stated overflow policy: block producer).
func (p *senderPrefetch) Submit(wrappers []*BlockWrapper) {
	p.mu.Lock()
	seq := p.nextSeq
	p.nextSeq++
	p.mu.Unlock()

	p.input <- senderBatch{seq: seq, wrappers: wrappers}
}

func (p *senderPrefetch) run(quit <-chan struct{}) {
	var wg sync.WaitGroup
	results := make(chan senderBatch, p.workers)

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(quit, results)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	p.tail(quit, results)
}

// worker pulls batches off the shared input channel and recovers every
// transaction's sender. A batch whose recovery panics is logged and
// dropped entirely — SyncQueue's gap detection will cause it to be
// re-requested.
func (p *senderPrefetch) worker(quit <-chan struct{}, results chan<- senderBatch) {
	for {
		select {
		case <-quit:
			return
		case batch, ok := <-p.input:
			if !ok {
				return
			}
			p.recover(&batch)
			select {
			case results <- batch:
			case <-quit:
				return
			}
		}
	}
}

func (p *senderPrefetch) recover(batch *senderBatch) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("sender prefetch worker panicked, dropping batch", "seq", batch.seq, "err", r)
			batch.wrappers = nil
		}
	}()

	start := time.Now()
	for _, w := range batch.wrappers {
		for _, tx := range w.Block.Transactions {
			if _, err := tx.Sender(); err != nil {
				log.Debug("dropping transaction with unrecoverable sender", "hash", tx.Hash(), "err", err)
			}
		}
	}
	senderRecoverTimer.UpdateSince(start)
}

// tail is the single-thread ordering stage: it holds completed batches
// until the lowest outstanding sequence number is available, then
// emits every contiguous run it can, preserving submission order.
func (p *senderPrefetch) tail(quit <-chan struct{}, results <-chan senderBatch) {
	nextEmit := uint64(0)

	for {
		select {
		case <-quit:
			return
		case batch, ok := <-results:
			if !ok {
				return
			}
			p.pending[batch.seq] = batch.wrappers
			for {
				wrappers, ok := p.pending[nextEmit]
				if !ok {
					break
				}
				delete(p.pending, nextEmit)
				nextEmit++
				if len(wrappers) > 0 {
					p.emit(wrappers)
				}
			}
		}
	}
}
