// Copyright 2014 The go-ethereum Authors
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

// Package types holds the block-sync data model: Header, Block and
// Transaction, plus the lazy ECDSA sender-recovery the SenderPrefetch
// pipeline exists to parallelize.
package types

import (
	"bytes"
	"encoding/binary"
	"sync/atomic"

	"github.com/chainsync/node/common"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Header is a block header: the piece carried by GetBlockHeaders
// responses, sufficient to validate PoW and parent linkage without the
// (much larger) transaction body.
type Header struct {
	ParentHash  common.Hash
	Number      uint64
	Time        uint64
	Difficulty  *uint256.Int
	GasLimit    uint64
	GasUsed     uint64
	TxHash      common.Hash
	Extra       []byte

	// hash caches the header's own hash, computed lazily and once.
	hash atomic.Pointer[common.Hash]
}

// Hash returns the header's hash, computing and caching it on first
// access. Mirrors the teacher's own lazy, atomic-cached Header.Hash.
func (h *Header) Hash() common.Hash {
	if cached := h.hash.Load(); cached != nil {
		return *cached
	}
	sum := hashHeader(h)
	h.hash.Store(&sum)
	return sum
}

func hashHeader(h *Header) common.Hash {
	d := sha3.NewLegacyKeccak256()
	d.Write(h.ParentHash.Bytes())

	var numBuf [8]byte
	binary.BigEndian.PutUint64(numBuf[:], h.Number)
	d.Write(numBuf[:])

	var timeBuf [8]byte
	binary.BigEndian.PutUint64(timeBuf[:], h.Time)
	d.Write(timeBuf[:])

	if h.Difficulty != nil {
		d.Write(h.Difficulty.Bytes())
	}
	d.Write(h.TxHash.Bytes())
	d.Write(h.Extra)

	return common.BytesToHash(d.Sum(nil))
}

// Encoded returns a deterministic byte encoding of the header (parent
// hash, number and extra data), used for the import-failure dump the
// importer logs on unexpected errors. Hash does not use it.
func (h *Header) Encoded() []byte {
	var buf bytes.Buffer
	buf.Write(h.ParentHash.Bytes())

	var numBuf [8]byte
	binary.BigEndian.PutUint64(numBuf[:], h.Number)
	buf.Write(numBuf[:])
	buf.Write(h.Extra)
	return buf.Bytes()
}
