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
	"errors"
	"testing"
	"time"

	"github.com/chainsync/node/consensus"
	"github.com/chainsync/node/core/types"
	"github.com/stretchr/testify/require"
)

// rejectingValidator fails validation for any header whose Extra field
// equals "bad".
type rejectingValidator struct{}

func (rejectingValidator) VerifyHeader(h *types.Header) error {
	if string(h.Extra) == "bad" {
		return errors.New("bad header")
	}
	return nil
}

func newTestIngress(t *testing.T, validator consensus.HeaderValidator) (*Ingress, *SyncQueue, chan []*BlockWrapper) {
	t.Helper()

	queue := NewSyncQueue(genesisHeader())
	emitted := make(chan []*BlockWrapper, 16)
	prefetch := newSenderPrefetch(2, 16, func(w []*BlockWrapper) { emitted <- w })

	quit := make(chan struct{})
	t.Cleanup(func() { close(quit) })
	go prefetch.run(quit)

	noop := func() {}
	in := newIngress(queue, validator, prefetch, noop, noop)
	return in, queue, emitted
}

func TestValidateAndAddHeadersRejectsWholeBatchOnOneBadHeader(t *testing.T) {
	in, queue, _ := newTestIngress(t, rejectingValidator{})

	good1 := &types.Header{Number: 1, ParentHash: genesisHeader().Hash()}
	bad := &types.Header{Number: 2, ParentHash: good1.Hash(), Extra: []byte("bad")}
	good2 := &types.Header{Number: 3, ParentHash: bad.Hash()}

	ok := in.ValidateAndAddHeaders([]*types.Header{good1, bad, good2}, "peerA")
	require.False(t, ok)
	require.Equal(t, 0, queue.GetHeadersCount())
}

func TestValidateAndAddNewBlockMarksIsNewBlock(t *testing.T) {
	in, queue, emitted := newTestIngress(t, rejectingValidator{})

	h := &types.Header{Number: 1, ParentHash: genesisHeader().Hash()}
	block := types.NewBlock(h, nil)

	ok := in.ValidateAndAddNewBlock(block, "peerA")
	require.True(t, ok)
	require.Equal(t, uint64(1), queue.ChainHead().Number)

	select {
	case wrappers := <-emitted:
		require.Len(t, wrappers, 1)
		require.True(t, wrappers[0].IsNewBlock)
		require.Equal(t, h.Hash(), wrappers[0].Block.Hash())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sender-prefetch emission")
	}
}

// Announcing a block whose parent isn't present yet, then backfilling
// the gap via AddList, must still report IsNewBlock on the announced
// hash even though AddList's own call is what actually completes the
// assembly.
func TestAnnouncedBlockCompletedByLaterBackfillStillReportsIsNewBlock(t *testing.T) {
	in, queue, emitted := newTestIngress(t, rejectingValidator{})

	blocks := chain(5)

	ok := in.ValidateAndAddNewBlock(blocks[4], "peerA")
	require.True(t, ok)
	require.Equal(t, uint64(0), queue.ChainHead().Number)

	in.AddList(blocks[:4], "peerB")

	select {
	case wrappers := <-emitted:
		require.Len(t, wrappers, 5)
		last := wrappers[len(wrappers)-1]
		require.Equal(t, blocks[4].Hash(), last.Block.Hash())
		require.True(t, last.IsNewBlock)
		for _, w := range wrappers[:len(wrappers)-1] {
			require.False(t, w.IsNewBlock)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for backfill emission")
	}
	require.Equal(t, uint64(5), queue.ChainHead().Number)
}

func TestAddListDuplicateBodyEmitsOnce(t *testing.T) {
	in, _, emitted := newTestIngress(t, rejectingValidator{})

	blocks := chain(1)
	in.AddList(blocks, "peerA")
	in.AddList(blocks, "peerA") // duplicate delivery

	select {
	case wrappers := <-emitted:
		require.Len(t, wrappers, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first emission")
	}

	select {
	case wrappers := <-emitted:
		t.Fatalf("unexpected second emission: %v", wrappers)
	case <-time.After(200 * time.Millisecond):
	}
}
