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

var headerFetchMeter = metrics.NewRegisteredMeter("downloader/headers/fetch", nil)

// headerFetcher repeatedly asks an idle peer for the next gap of
// missing headers, sleeping on an arrival signal between cycles rather
// than busy-polling. One instance runs for the lifetime of a
// Downloader.
type headerFetcher struct {
	queue *SyncQueue
	pool  PeerPool

	// deliver hands a response's headers to Ingress.ValidateAndAddHeaders;
	// wired up by the owning Downloader.
	deliver func(headers []*types.Header, peerID string)

	backlogCap  int
	waitTimeout time.Duration
	arrived     chan struct{} // non-blocking "headers arrived" token
}

func newHeaderFetcher(queue *SyncQueue, pool PeerPool, backlogCap int, waitTimeout time.Duration, deliver func([]*types.Header, string)) *headerFetcher {
	return &headerFetcher{
		queue:       queue,
		pool:        pool,
		deliver:     deliver,
		backlogCap:  backlogCap,
		waitTimeout: waitTimeout,
		arrived:     make(chan struct{}, 1),
	}
}

// notifyArrived trips the arrival signal; Ingress calls this whenever it
// accepts headers, and await after each delivered response, so the loop
// re-probes promptly instead of waiting out
// its full timeout. A signal tripped before the loop installs its wait
// simply causes the next wait to return immediately — a benign race the
// spec explicitly accepts.
func (f *headerFetcher) notifyArrived() {
	select {
	case f.arrived <- struct{}{}:
	default:
	}
}

func (f *headerFetcher) run(quit <-chan struct{}) {
	defer log.Debug("header fetcher loop exiting")

	for {
		select {
		case <-quit:
			return
		default:
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("header fetcher cycle panicked", "err", r)
				}
			}()
			f.cycle()
		}()

		select {
		case <-quit:
			return
		case <-f.arrived:
		case <-time.After(f.waitTimeout):
		}
	}
}

func (f *headerFetcher) cycle() {
	if f.queue.GetHeadersCount() >= f.backlogCap {
		return
	}
	peer, ok := f.pool.AnyIdle()
	if !ok {
		return
	}
	req := f.queue.RequestHeaders()
	if req.Count == 0 {
		return // every pipelined range is still outstanding and unexpired
	}

	sink := make(chan *eth.Response, 1)
	request, err := peer.SendGetBlockHeaders(req.Start, req.Count, req.Reverse, sink)
	if err != nil {
		log.Debug("header request failed", "peer", peer.ID(), "start", req.Start, "err", err)
		return
	}
	headerFetchMeter.Mark(int64(req.Count))

	go f.await(request, sink, peer.ID())
}

// await blocks off the fetch loop's own goroutine waiting for a single
// peer's response, so one slow peer never stalls the cycle that issues
// the next request.
func (f *headerFetcher) await(request *eth.Request, sink chan *eth.Response, peerID string) {
	select {
	case res := <-sink:
		packet, ok := res.Res.(eth.BlockHeadersPacket)
		if !ok {
			log.Debug("header response had unexpected type", "peer", peerID)
			return
		}
		f.deliver([]*types.Header(packet), peerID)
		f.notifyArrived()
	case <-request.Cancel:
	case <-time.After(f.waitTimeout * 3):
		request.Close()
	}
}
