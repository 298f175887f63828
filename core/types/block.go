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

package types

import (
	"bytes"

	"github.com/chainsync/node/common"
)

// Block pairs a Header with its transaction body. It is the unit the
// importer hands to the chain, and the unit SenderPrefetch forces
// sender recovery on before it gets there.
type Block struct {
	Header       *Header
	Transactions []*Transaction
}

// NewBlock wraps a header and its transaction body.
func NewBlock(header *Header, txs []*Transaction) *Block {
	return &Block{Header: header, Transactions: txs}
}

func (b *Block) Number() uint64           { return b.Header.Number }
func (b *Block) Hash() common.Hash        { return b.Header.Hash() }
func (b *Block) ParentHash() common.Hash  { return b.Header.ParentHash }

// Encoded returns a deterministic dump of the block, used by the
// importer to log the offending block on an unexpected import error.
func (b *Block) Encoded() []byte {
	var buf bytes.Buffer
	buf.Write(b.Header.Encoded())
	for _, tx := range b.Transactions {
		h := tx.Hash()
		buf.Write(h.Bytes())
	}
	return buf.Bytes()
}
