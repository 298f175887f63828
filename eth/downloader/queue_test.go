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
	"testing"
	"time"

	"github.com/chainsync/node/common"
	"github.com/chainsync/node/core/types"
	"github.com/stretchr/testify/require"
)

// chain builds a linear header/block chain of n blocks on top of
// genesis, each correctly linking ParentHash to the prior hash.
func chain(n int) []*types.Block {
	genesis := &types.Header{Number: 0}
	blocks := make([]*types.Block, n)
	parent := genesis
	for i := 0; i < n; i++ {
		h := &types.Header{Number: uint64(i + 1), ParentHash: parent.Hash(), Time: uint64(i + 1)}
		blocks[i] = types.NewBlock(h, nil)
		parent = h
	}
	return blocks
}

func genesisHeader() *types.Header { return &types.Header{Number: 0} }

func TestAddHeadersThenBlocksLinearFetch(t *testing.T) {
	q := NewSyncQueue(genesisHeader())
	blocks := chain(10)

	wrappers := make([]*HeaderWrapper, len(blocks))
	for i, b := range blocks {
		wrappers[i] = &HeaderWrapper{Header: b.Header}
	}
	q.AddHeaders(wrappers)
	require.Equal(t, 10, q.GetHeadersCount())

	ready := q.AddBlocks(blocks)
	require.Len(t, ready, 10)
	for i, b := range ready {
		require.Equal(t, uint64(i+1), b.Number())
	}
	require.Equal(t, uint64(10), q.ChainHead().Number)
	require.Equal(t, 0, q.GetHeadersCount())
}

func TestAddBlocksContiguityAndMonotonicity(t *testing.T) {
	q := NewSyncQueue(genesisHeader())
	blocks := chain(5)

	ready := q.AddBlocks(blocks)
	require.Len(t, ready, 5)

	var prevHash common.Hash
	for i, b := range ready {
		if i == 0 {
			require.Equal(t, genesisHeader().Hash(), b.ParentHash())
		} else {
			require.Equal(t, prevHash, b.ParentHash())
		}
		prevHash = b.Hash()
	}
}

func TestAnnouncementThenBackfill(t *testing.T) {
	q := NewSyncQueue(genesisHeader())
	blocks := chain(5)

	// Announce block 5 first: not importable, no parent present yet.
	ready := q.AddBlocks([]*types.Block{blocks[4]})
	require.Empty(t, ready)
	require.Equal(t, uint64(0), q.ChainHead().Number)

	// Backfill 1..4; the whole run including 5 should now be ready.
	ready = q.AddBlocks(blocks[:4])
	require.Len(t, ready, 5)
	require.Equal(t, uint64(5), ready[len(ready)-1].Number())
	require.Equal(t, uint64(5), q.ChainHead().Number)
}

// When two headers compete for one height with different parents, only
// one can ever be promoted; the other must be discarded entirely once
// the height settles, not just removed as the walk's chosen winner.
func TestWalkReadyDiscardsLosingSiblingBucketEntirely(t *testing.T) {
	q := NewSyncQueue(genesisHeader())

	winner := &types.Header{Number: 1, ParentHash: genesisHeader().Hash()}
	orphanParent := &types.Header{Number: 0, Time: 99}
	loser := &types.Header{Number: 1, ParentHash: orphanParent.Hash()}
	require.NotEqual(t, winner.Hash(), loser.Hash())

	q.AddHeaders([]*HeaderWrapper{{Header: winner}, {Header: loser}})
	require.Equal(t, 2, q.GetHeadersCount())

	winnerBlock := types.NewBlock(winner, nil)
	ready := q.AddBlocks([]*types.Block{winnerBlock})
	require.Len(t, ready, 1)
	require.Equal(t, winner.Hash(), ready[0].Hash())

	// The loser must not linger in q.headers once height 1 settles, or
	// GetHeadersCount (the header-backlog cap input in headerfetcher.go)
	// stays inflated forever and BodyFetcher keeps chasing a body that
	// can never land.
	require.Equal(t, 0, q.GetHeadersCount())
}

func TestIdempotentAddHeadersAndAddBlocks(t *testing.T) {
	q := NewSyncQueue(genesisHeader())
	blocks := chain(3)

	wrapper := &HeaderWrapper{Header: blocks[0].Header}
	q.AddHeaders([]*HeaderWrapper{wrapper})
	q.AddHeaders([]*HeaderWrapper{wrapper})
	require.Equal(t, 1, q.GetHeadersCount())

	ready1 := q.AddBlocks([]*types.Block{blocks[0]})
	require.Len(t, ready1, 1)

	// Duplicate delivery of an already-assembled block must not
	// re-emit it.
	ready2 := q.AddBlocks([]*types.Block{blocks[0]})
	require.Empty(t, ready2)
}

func TestHeadersCountBoundedByBacklogPlusWindow(t *testing.T) {
	q := NewSyncQueue(genesisHeader())
	blocks := chain(1000)
	const backlogCap = 500

	// Keep requesting and fully answering header ranges while the backlog
	// is under its cap, the way HeaderFetcher gates its requests.
	for q.GetHeadersCount() < backlogCap {
		req := q.RequestHeaders()
		if req.Count == 0 {
			break
		}
		wrappers := make([]*HeaderWrapper, 0, req.Count)
		for _, b := range blocks[req.Start-1 : req.Start-1+req.Count] {
			wrappers = append(wrappers, &HeaderWrapper{Header: b.Header})
		}
		q.AddHeaders(wrappers)
	}
	require.LessOrEqual(t, q.GetHeadersCount(), backlogCap+requestWindow)
}

func TestRequestHeadersAnchorsAtChainHeadWhenEmpty(t *testing.T) {
	q := NewSyncQueue(genesisHeader())
	req := q.RequestHeaders()
	require.Equal(t, uint64(1), req.Start)
	require.Equal(t, uint64(requestWindow), req.Count)
	require.False(t, req.Reverse)
}

// A second call before the first range is fulfilled must not abandon it:
// with the pipeline nowhere near its cap, the queue mints the next window
// forward instead of repeating or losing the first one.
func TestRequestHeadersPipelinesAheadOfFulfillment(t *testing.T) {
	q := NewSyncQueue(genesisHeader())
	first := q.RequestHeaders()
	second := q.RequestHeaders()

	require.NotEqual(t, first.Start, second.Start)
	require.Equal(t, first.Start+first.Count, second.Start)
	require.Len(t, q.pendingHeaderRanges, 2)
}

// A range whose request never got a response (peer send failed, or the
// wait timed out) must eventually be re-offered rather than permanently
// stranding that height range — simulated here by forcing its expiry
// into the past instead of sleeping headerRangeExpiry in the test.
func TestRequestHeadersReoffersExpiredRangeInsteadOfLosingIt(t *testing.T) {
	q := NewSyncQueue(genesisHeader())
	first := q.RequestHeaders()
	require.Len(t, q.pendingHeaderRanges, 1)

	q.pendingHeaderRanges[0].expires = time.Now().Add(-time.Second)

	second := q.RequestHeaders()
	require.Equal(t, first.Start, second.Start)
	require.Equal(t, first.Count, second.Count)
	require.Len(t, q.pendingHeaderRanges, 1) // re-offered, not duplicated
}

// Once every height in a pending range is actually covered by arrived
// headers, it retires instead of being re-offered, and the next call
// mints fresh work rather than repeating settled ground.
func TestRequestHeadersRetiresFullyCoveredRange(t *testing.T) {
	q := NewSyncQueue(genesisHeader())
	req := q.RequestHeaders()

	blocks := chain(int(req.Count))
	wrappers := make([]*HeaderWrapper, len(blocks))
	for i, b := range blocks {
		wrappers[i] = &HeaderWrapper{Header: b.Header}
	}
	q.AddHeaders(wrappers)

	next := q.RequestHeaders()
	require.Equal(t, req.Start+req.Count, next.Start)
	require.Len(t, q.pendingHeaderRanges, 1) // the covered range retired, one fresh mint remains
}

// Once the pipeline is saturated with unfulfilled ranges, RequestHeaders
// reports nothing to do rather than minting past the cap.
func TestRequestHeadersReturnsEmptyWhenPipelineFull(t *testing.T) {
	q := NewSyncQueue(genesisHeader())
	for i := 0; i < maxPendingHeaderRanges; i++ {
		q.RequestHeaders()
	}
	req := q.RequestHeaders()
	require.Equal(t, uint64(0), req.Count)
}

func TestRequestBlocksReturnsAscendingMissingBodies(t *testing.T) {
	q := NewSyncQueue(genesisHeader())
	blocks := chain(5)

	wrappers := make([]*HeaderWrapper, len(blocks))
	for i, b := range blocks {
		wrappers[i] = &HeaderWrapper{Header: b.Header}
	}
	q.AddHeaders(wrappers)

	req := q.RequestBlocks(10)
	require.Len(t, req.Headers, 5)
	for i := 1; i < len(req.Headers); i++ {
		require.Less(t, req.Headers[i-1].Number, req.Headers[i].Number)
	}
}

func TestBlocksRequestSplit(t *testing.T) {
	blocks := chain(10)
	headers := make([]*types.Header, len(blocks))
	for i, b := range blocks {
		headers[i] = b.Header
	}
	req := BlocksRequest{Headers: headers}
	chunks := req.Split(3)
	require.Len(t, chunks, 4)
	require.Len(t, chunks[0].Headers, 3)
	require.Len(t, chunks[3].Headers, 1)
}
