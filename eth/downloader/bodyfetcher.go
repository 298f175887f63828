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

	"github.com/chainsync/node/core/types"
	"github.com/chainsync/node/eth/protocols/eth"
	"github.com/chainsync/node/log"
	"github.com/chainsync/node/metrics"
)

var bodyFetchMeter = metrics.NewRegisteredMeter("downloader/bodies/fetch", nil)

// bodyFetcher requests bodies for headers the queue is still missing,
// fanning a batch out across however many idle peers are available.
type bodyFetcher struct {
	queue *SyncQueue
	pool  PeerPool

	deliver func(blocks []*types.Block, peerID string)

	importQueueCap  int
	importQueueSize func() int
	requestBatch    int
	requestChunk    int
	waitTimeout     time.Duration

	arrived chan struct{}
}

func newBodyFetcher(queue *SyncQueue, pool PeerPool, importQueueCap, requestBatch, requestChunk int, waitTimeout time.Duration, importQueueSize func() int, deliver func([]*types.Block, string)) *bodyFetcher {
	return &bodyFetcher{
		queue:           queue,
		pool:            pool,
		deliver:         deliver,
		importQueueCap:  importQueueCap,
		importQueueSize: importQueueSize,
		requestBatch:    requestBatch,
		requestChunk:    requestChunk,
		waitTimeout:     waitTimeout,
		arrived:         make(chan struct{}, 1),
	}
}

func (f *bodyFetcher) notifyArrived() {
	select {
	case f.arrived <- struct{}{}:
	default:
	}
}

func (f *bodyFetcher) run(quit <-chan struct{}) {
	defer log.Debug("body fetcher loop exiting")

	for {
		select {
		case <-quit:
			return
		default:
		}

		f.cycle()

		select {
		case <-quit:
			return
		case <-f.arrived:
		case <-time.After(f.waitTimeout):
		}
	}
}

// cycle issues as many chunk requests as it can find idle peers for,
// and returns the number dispatched.
func (f *bodyFetcher) cycle() int {
	if f.importQueueSize() >= f.importQueueCap {
		return 0
	}
	req := f.queue.RequestBlocks(f.requestBatch)
	if len(req.Headers) == 0 {
		return 0
	}

	dispatched := 0
	for _, chunk := range req.Split(f.requestChunk) {
		peer, ok := f.pool.AnyIdle()
		if !ok {
			break // remaining chunks retried next cycle
		}
		sink := make(chan *eth.Response, 1)
		request, err := peer.SendGetBlockBodies(chunk.Headers, sink)
		if err != nil {
			log.Debug("body request failed", "peer", peer.ID(), "err", err)
			continue
		}
		bodyFetchMeter.Mark(int64(len(chunk.Headers)))
		dispatched++
		go f.await(chunk.Headers, request, sink, peer.ID())
	}
	return dispatched
}

func (f *bodyFetcher) await(requested []*types.Header, request *eth.Request, sink chan *eth.Response, peerID string) {
	select {
	case res := <-sink:
		packet, ok := res.Res.(eth.BlockBodiesPacket)
		if !ok {
			log.Debug("body response had unexpected type", "peer", peerID)
			return
		}
		byHash := make(map[string]*types.Header, len(requested))
		for _, h := range requested {
			byHash[string(h.Hash().Bytes())] = h
		}
		blocks := make([]*types.Block, 0, len(packet))
		for _, body := range packet {
			h, ok := byHash[string(body.Hash.Bytes())]
			if !ok {
				continue
			}
			blocks = append(blocks, types.NewBlock(h, body.Transactions))
		}
		f.deliver(blocks, peerID)
		f.notifyArrived()
	case <-request.Cancel:
	case <-time.After(f.waitTimeout * 3):
		request.Close()
	}
}
