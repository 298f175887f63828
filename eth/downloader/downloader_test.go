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
	"testing"
	"time"

	"github.com/chainsync/node/core/types"
	"github.com/chainsync/node/event"
	"github.com/stretchr/testify/require"
)

// fakeChain is a local-chain stand-in: it imports whatever connects to
// its current head and reports NO_PARENT otherwise, exactly the
// contract the downloader depends on.
type fakeChain struct {
	mu   sync.Mutex
	head *types.Header
}

func newFakeChain(head *types.Header) *fakeChain { return &fakeChain{head: head} }

func (c *fakeChain) CurrentHeader() *types.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head
}

func (c *fakeChain) TryConnect(block *types.Block) (ImportResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if block.ParentHash() != c.head.Hash() {
		return NoParent, nil
	}
	c.head = block.Header
	return ImportedBest, nil
}

func TestImporterOnSyncDoneFiresAtMostOnce(t *testing.T) {
	chn := newFakeChain(genesisHeader())
	events := event.NewFeedSyncEvents()

	done := make(chan SyncEvent, 4)
	sub := events.Subscribe(done)
	defer sub.Unsubscribe()

	imp := newImporter(chn, events, 100)
	quit := make(chan struct{})
	go imp.run(quit)
	defer close(quit)

	blocks := chain(5)
	for i, b := range blocks {
		imp.Enqueue(&BlockWrapper{Block: b, IsNewBlock: i == len(blocks)-1})
	}

	fired := 0
	timeout := time.After(2 * time.Second)
	for fired < 1 {
		select {
		case <-done:
			fired++
		case <-timeout:
			t.Fatal("timed out waiting for OnSyncDone")
		}
	}

	select {
	case <-done:
		t.Fatal("OnSyncDone fired more than once")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestImporterDropsNoParentWithoutDying(t *testing.T) {
	chn := newFakeChain(genesisHeader())
	events := event.NewFeedSyncEvents()
	imp := newImporter(chn, events, 10)

	quit := make(chan struct{})
	go imp.run(quit)
	defer close(quit)

	orphanParent := types.Header{Number: 7}
	orphan := types.NewBlock(&types.Header{Number: 99, ParentHash: orphanParent.Hash()}, nil)
	imp.Enqueue(&BlockWrapper{Block: orphan})

	// The loop must survive the NO_PARENT result and keep serving.
	good := chain(1)[0]
	imp.Enqueue(&BlockWrapper{Block: good})

	require.Eventually(t, func() bool {
		return chn.CurrentHeader().Number == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDefaultConfigMatchesSpecDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.True(t, cfg.SyncEnabled)
	require.Equal(t, 20000, cfg.HeaderBacklogCap)
	require.Equal(t, 20000, cfg.ImportQueueCap)
	require.Equal(t, 1000, cfg.BodyRequestBatch)
	require.Equal(t, 100, cfg.BodyRequestChunk)
	require.Equal(t, 4, cfg.PrefetchWorkers)
	require.Equal(t, 1000, cfg.PrefetchBuffer)
	require.Equal(t, 2*time.Second, cfg.FetchWaitTimeout)
	require.Equal(t, 30*time.Second, cfg.LogInterval)
}

type alwaysEmptyPool struct{}

func (alwaysEmptyPool) AnyIdle() (PeerHandler, bool) { return nil, false }

// permissiveValidator accepts every header.
type permissiveValidator struct{}

func (permissiveValidator) VerifyHeader(*types.Header) error { return nil }

func TestDownloaderStartStopRunsEveryLoopAndShutsDownCleanly(t *testing.T) {
	chn := newFakeChain(genesisHeader())
	cfg := DefaultConfig()
	cfg.FetchWaitTimeout = 20 * time.Millisecond
	cfg.LogInterval = 20 * time.Millisecond

	ready := true
	d := New(cfg, alwaysEmptyPool{}, chn, permissiveValidator{}, event.NewFeedSyncEvents(), func() bool { return ready })
	d.Start()

	// Give every loop at least one cycle with no peers available.
	time.Sleep(60 * time.Millisecond)

	err := d.Stop()
	require.NoError(t, err)

	// Stop must be idempotent: a second call can't re-close the quit
	// channel or deadlock waiting on an errgroup already drained.
	require.NoError(t, d.Stop())
}

// countingEmptyPool never has an idle peer and counts how often it was asked.
type countingEmptyPool struct {
	mu    sync.Mutex
	polls int
}

func (p *countingEmptyPool) AnyIdle() (PeerHandler, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polls++
	return nil, false
}

func TestPeerStarvationDoesNotBusyLoop(t *testing.T) {
	queue := NewSyncQueue(genesisHeader())
	calls := 0
	var mu sync.Mutex
	pool := &countingEmptyPool{}

	fetcher := newHeaderFetcher(queue, pool, 20000, 50*time.Millisecond, func([]*types.Header, string) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	quit := make(chan struct{})
	go fetcher.run(quit)
	time.Sleep(220 * time.Millisecond)
	close(quit)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 0, calls) // no peer ever answered, so no header delivery

	// One poll per 50ms wait over ~220ms is five; allow one for sleep overshoot.
	pool.mu.Lock()
	defer pool.mu.Unlock()
	require.LessOrEqual(t, pool.polls, 6)
}
