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
	"sort"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/chainsync/node/common"
	"github.com/chainsync/node/common/prque"
	"github.com/chainsync/node/core/types"
)

// requestWindow bounds a single forward header request so HeaderFetcher
// never asks for an unbounded range in one shot.
const requestWindow = 192

// maxPendingHeaderRanges caps how many requestWindow-sized ranges can be
// outstanding at once, bounding how far RequestHeaders mints ahead of
// what's actually been fulfilled.
const maxPendingHeaderRanges = 8

// headerRangeExpiry is how long a minted range is given before
// RequestHeaders considers it stale and re-offers it to another peer.
// It's deliberately longer than a single HeaderFetcher waitTimeout cycle
// so a slow-but-alive peer isn't immediately raced against a second one.
const headerRangeExpiry = 8 * time.Second

// seenCacheBytes sizes the small fastcache used to fast-path duplicate
// body deliveries without walking the bodies map.
const seenCacheBytes = 1 << 20

// HeadersRequest is what HeaderFetcher issues against a PeerHandler.
type HeadersRequest struct {
	Start   uint64
	Count   uint64
	Reverse bool
}

// BlocksRequest is what BodyFetcher issues, naming the headers whose
// bodies are still missing.
type BlocksRequest struct {
	Headers []*types.Header
}

// headerRange is a requestWindow-sized span that's been minted by
// RequestHeaders and not yet fully covered by arrived headers. It stays
// in SyncQueue.pendingHeaderRanges until every height in it is either
// covered or below the chain head, however many times it has to be
// re-offered to get there.
type headerRange struct {
	start   uint64
	count   uint64
	expires time.Time
}

// Split partitions a BlocksRequest into sub-requests of at most
// chunkSize headers each, for fan-out across several idle peers.
func (r BlocksRequest) Split(chunkSize int) []BlocksRequest {
	if chunkSize <= 0 || len(r.Headers) == 0 {
		return nil
	}
	var chunks []BlocksRequest
	for i := 0; i < len(r.Headers); i += chunkSize {
		end := i + chunkSize
		if end > len(r.Headers) {
			end = len(r.Headers)
		}
		chunks = append(chunks, BlocksRequest{Headers: r.Headers[i:end]})
	}
	return chunks
}

// SyncQueue is the in-memory reassembly structure: it tracks known
// headers by height, the gaps that still need fetching, and bodies
// awaiting attachment to their header, and emits contiguous runs of
// importable blocks as they complete. Every exported method serializes
// on a single mutex — the spec requires operations be atomic with
// respect to the queue's own invariants, and the access pattern here
// (occasional inserts, frequent small reads) doesn't reward anything
// fancier than one lock.
type SyncQueue struct {
	mu sync.Mutex

	head *types.Header // last block known-imported by the local chain

	headers map[uint64]map[common.Hash]*HeaderWrapper // height -> competing candidates
	bodies  map[common.Hash]*types.Block               // header hash -> body awaiting attachment

	// pendingBodies tracks, by ascending height, headers that have no
	// body yet — the "closest item first" gap BodyFetcher drains.
	pendingBodies *prque.Prque[int64, common.Hash]

	headerCursor uint64 // lowest height never yet minted into a headerRange

	// pendingHeaderRanges holds every minted range that isn't fully
	// covered by arrived headers yet. RequestHeaders re-offers an
	// expired entry here rather than always minting forward, so a
	// dropped request or a peer that never answers doesn't strand the
	// range for the lifetime of the queue.
	pendingHeaderRanges []*headerRange

	// announced holds hashes that arrived via a spontaneous block
	// announcement and haven't yet been reported back out as such.
	// Whichever caller's AddBlocks call eventually completes the
	// assembly for one of these hashes — ValidateAndAddNewBlock's own
	// immediate walk, or a later AddList backfill — is the one that
	// gets to consume the mark via TakeAnnounced.
	announced map[common.Hash]struct{}

	seen *fastcache.Cache // dedups addBlocks deliveries without a full map probe
}

// NewSyncQueue creates a queue anchored at head. Callers must not
// construct a queue before the chain subsystem reports a queryable
// head (see the chainReady argument of New in downloader.go).
func NewSyncQueue(head *types.Header) *SyncQueue {
	return &SyncQueue{
		head:          head,
		headers:       make(map[uint64]map[common.Hash]*HeaderWrapper),
		bodies:        make(map[common.Hash]*types.Block),
		pendingBodies: prque.New[int64, common.Hash](nil),
		headerCursor:  head.Number + 1,
		announced:     make(map[common.Hash]struct{}),
		seen:          fastcache.New(seenCacheBytes),
	}
}

// MarkAnnounced records that hash arrived via a spontaneous block
// announcement, so that whichever AddBlocks call eventually completes
// its assembly can still report it as newly announced, even if that
// turns out to be a later backfill delivery rather than the
// announcement itself.
func (q *SyncQueue) MarkAnnounced(hash common.Hash) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.announced[hash] = struct{}{}
}

// TakeAnnounced reports whether hash was marked announced, consuming
// the mark so it's reported exactly once.
func (q *SyncQueue) TakeAnnounced(hash common.Hash) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.announced[hash]; ok {
		delete(q.announced, hash)
		return true
	}
	return false
}

// ChainHead returns the queue's current notion of the local chain head.
func (q *SyncQueue) ChainHead() *types.Header {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.head
}

// AddHeaders inserts headers, ignoring any at or below the chain head
// and any already present at their (number, hash). Neither PoW nor
// parent linkage is validated here — that's HeaderValidator's job,
// enforced by Ingress before headers ever reach the queue.
func (q *SyncQueue) AddHeaders(wrappers []*HeaderWrapper) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, w := range wrappers {
		num := w.Header.Number
		if num <= q.head.Number {
			continue
		}
		bucket := q.headers[num]
		if bucket == nil {
			bucket = make(map[common.Hash]*HeaderWrapper)
			q.headers[num] = bucket
		}
		hash := w.Header.Hash()
		if _, exists := bucket[hash]; exists {
			continue
		}
		bucket[hash] = w
		if _, hasBody := q.bodies[hash]; !hasBody {
			q.pendingBodies.Push(hash, int64(num))
		}
	}
}

// AddBlocks stores each block's body and, where a contiguous run from
// the chain head is now fully assembled, walks it forward, advancing the
// queue's head. It returns the newly-ready prefix in ascending order.
func (q *SyncQueue) AddBlocks(blocks []*types.Block) []*types.Block {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, b := range blocks {
		hash := b.Hash()
		if b.Number() <= q.head.Number {
			continue
		}
		if q.seen.Has(hash.Bytes()) {
			continue // duplicate delivery of an already-assembled block
		}
		// The header may not have been registered yet (the
		// announcement path adds header and body together); register
		// it so the forward walk below has something to match against.
		bucket := q.headers[b.Number()]
		if bucket == nil {
			bucket = make(map[common.Hash]*HeaderWrapper)
			q.headers[b.Number()] = bucket
		}
		if _, ok := bucket[hash]; !ok {
			bucket[hash] = &HeaderWrapper{Header: b.Header}
		}
		if _, already := q.bodies[hash]; !already {
			q.bodies[hash] = b
		}
	}

	return q.walkReady()
}

// walkReady extends the chain head as far as contiguous header+body
// pairs allow, resolving competing same-height headers by preferring
// the one whose parent hash matches the current tip, and returns the
// newly-ready run in ascending order. Callers hold q.mu.
func (q *SyncQueue) walkReady() []*types.Block {
	var newlyReady []*types.Block

	for {
		next := q.head.Number + 1
		bucket := q.headers[next]
		if len(bucket) == 0 {
			break
		}

		var winner *HeaderWrapper
		if len(bucket) == 1 {
			for _, w := range bucket {
				winner = w
			}
		} else {
			for _, w := range bucket {
				if w.Header.ParentHash == q.head.Hash() {
					winner = w
					break
				}
			}
			if winner == nil {
				break // competing candidates, none resolved against the tip yet
			}
		}

		hash := winner.Header.Hash()
		if winner.Header.ParentHash != q.head.Hash() {
			break // orphan at this height; wait for ancestry to resolve
		}
		block, ok := q.bodies[hash]
		if !ok {
			break // header ready, body still missing
		}

		q.discardHeight(next, hash)

		q.head = block.Header
		newlyReady = append(newlyReady, block)
	}

	return newlyReady
}

// discardHeight retires every candidate header at height, not just the
// one that won promotion into the chain: once a height is superseded,
// its losing siblings can never be promoted, so every candidate's header
// entry and stored body are cleared and its seen mark is set, and the
// losers' announced marks are deleted. The winner's announced mark is
// kept so the caller's TakeAnnounced can still report it. Leaving a loser in
// q.headers would otherwise inflate GetHeadersCount forever and keep
// BodyFetcher re-requesting a body that can never be used; RequestBlocks
// already drops a pendingBodies entry whose header is gone, so no
// separate cleanup is needed there. Callers hold q.mu.
func (q *SyncQueue) discardHeight(height uint64, winner common.Hash) {
	bucket := q.headers[height]
	for hash := range bucket {
		delete(q.bodies, hash)
		q.seen.Set(hash.Bytes(), nil)
		if hash != winner {
			delete(q.announced, hash)
		}
	}
	delete(q.headers, height)
}

// RequestHeaders computes the next header range to fetch. It first
// retires any pending range that's now fully covered by arrived
// headers, then re-offers the oldest range past its expiry (a dropped
// send or a peer that never answered) before minting a brand new one
// from the cursor. A minted or re-offered range stays in
// pendingHeaderRanges until headers actually fill it — unlike a
// monotonic cursor, a lost response can't strand a gap forever.
func (q *SyncQueue) RequestHeaders() HeadersRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	kept := q.pendingHeaderRanges[:0]
	var reoffer *headerRange
	for _, r := range q.pendingHeaderRanges {
		if q.headerRangeFilled(r.start, r.count) {
			continue // fully covered now; retire
		}
		if reoffer == nil && now.After(r.expires) {
			r.expires = now.Add(headerRangeExpiry)
			reoffer = r
		}
		kept = append(kept, r)
	}
	q.pendingHeaderRanges = kept

	if reoffer != nil {
		return HeadersRequest{Start: reoffer.start, Count: reoffer.count, Reverse: false}
	}

	if q.headerCursor <= q.head.Number {
		q.headerCursor = q.head.Number + 1
	}
	if len(q.pendingHeaderRanges) >= maxPendingHeaderRanges {
		// Already pipelining as many ranges as allowed and none of them
		// are stale yet; nothing new to offer this cycle.
		return HeadersRequest{}
	}

	start := q.headerCursor
	q.headerCursor += requestWindow
	q.pendingHeaderRanges = append(q.pendingHeaderRanges, &headerRange{
		start:   start,
		count:   requestWindow,
		expires: now.Add(headerRangeExpiry),
	})
	return HeadersRequest{Start: start, Count: requestWindow, Reverse: false}
}

// headerRangeFilled reports whether every height in [start, start+count)
// is either already behind the chain head or has a header bucket
// present. Callers hold q.mu.
func (q *SyncQueue) headerRangeFilled(start, count uint64) bool {
	for h := start; h < start+count; h++ {
		if h <= q.head.Number {
			continue
		}
		if len(q.headers[h]) == 0 {
			return false
		}
	}
	return true
}

// RequestBlocks returns up to maxCount headers (ascending by number)
// whose bodies are not yet present.
func (q *SyncQueue) RequestBlocks(maxCount int) BlocksRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	var picked []*types.Header
	var deferred []struct {
		hash common.Hash
		num  int64
	}

	for q.pendingBodies.Size() > 0 && len(picked) < maxCount {
		hash := q.pendingBodies.PopItem()
		if _, has := q.bodies[hash]; has {
			continue // satisfied since it was queued; drop
		}
		var found *types.Header
		var num uint64
	findHeader:
		for n, bucket := range q.headers {
			if w, ok := bucket[hash]; ok {
				found = w.Header
				num = n
				break findHeader
			}
		}
		if found == nil {
			continue // header was removed (assembled/discarded) since queuing
		}
		picked = append(picked, found)
		deferred = append(deferred, struct {
			hash common.Hash
			num  int64
		}{hash, int64(num)})
	}

	// Re-queue everything we pulled off: RequestBlocks is a read, not a
	// consuming dequeue — the same gap may need to be reported again
	// next cycle if this chunk's peer never answers.
	for _, d := range deferred {
		q.pendingBodies.Push(d.hash, d.num)
	}

	sortHeadersByNumber(picked)
	return BlocksRequest{Headers: picked}
}

// GetHeadersCount returns the current header backlog: headers known to
// the queue whose bodies are not yet attached.
func (q *SyncQueue) GetHeadersCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, bucket := range q.headers {
		count += len(bucket)
	}
	return count
}

func sortHeadersByNumber(headers []*types.Header) {
	sort.Slice(headers, func(i, j int) bool { return headers[i].Number < headers[j].Number })
}
