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
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/chainsync/node/common"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

var (
	// ErrInvalidSig is returned by Sender when the signature embedded
	// in the transaction does not recover to a valid public key.
	ErrInvalidSig = errors.New("types: invalid transaction v, r, s values")
)

// Transaction is a signed transaction as carried in a block body. Sender
// recovery is the one genuinely expensive operation on the hot import
// path (an ECDSA public-key recovery plus a Keccak256 hash), which is
// exactly why SenderPrefetch exists: to force this computation, cache
// it, and get it off the Importer's single-threaded critical path.
type Transaction struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address
	Value    *big.Int
	Data     []byte

	V byte
	R [32]byte
	S [32]byte

	// from caches the recovered sender address. nil until Sender() is
	// first called; from is never rewritten afterwards.
	from atomic.Pointer[common.Address]
}

// signingHash returns the hash covering every field but the signature
// itself, the digest the signature was produced over.
func (tx *Transaction) signingHash() common.Hash {
	d := sha3.NewLegacyKeccak256()

	var nonceBuf [8]byte
	for i := 0; i < 8; i++ {
		nonceBuf[i] = byte(tx.Nonce >> (56 - 8*i))
	}
	d.Write(nonceBuf[:])

	if tx.GasPrice != nil {
		d.Write(tx.GasPrice.Bytes())
	}

	var gasBuf [8]byte
	for i := 0; i < 8; i++ {
		gasBuf[i] = byte(tx.Gas >> (56 - 8*i))
	}
	d.Write(gasBuf[:])

	if tx.To != nil {
		d.Write(tx.To.Bytes())
	}
	if tx.Value != nil {
		d.Write(tx.Value.Bytes())
	}
	d.Write(tx.Data)

	return common.BytesToHash(d.Sum(nil))
}

// Sender recovers and caches the transaction's sender address from its
// signature. Repeated calls after the first are a cheap atomic load;
// the first call pays the full secp256k1 recovery cost, which is why
// SenderPrefetch calls this eagerly off the import path rather than
// letting the Importer pay for it inline.
func (tx *Transaction) Sender() (common.Address, error) {
	if cached := tx.from.Load(); cached != nil {
		return *cached, nil
	}

	sighash := tx.signingHash()

	sig := make([]byte, 65)
	copy(sig[0:32], tx.R[:])
	copy(sig[32:64], tx.S[:])
	sig[64] = tx.V

	pub, _, err := ecdsaRecoverCompact(sig, sighash.Bytes())
	if err != nil {
		return common.Address{}, ErrInvalidSig
	}

	addr := publicKeyToAddress(pub)
	tx.from.Store(&addr)
	return addr, nil
}

// ecdsaRecoverCompact wraps secp256k1's signature recovery so Sender
// doesn't need to know the library's own compact-signature conventions.
func ecdsaRecoverCompact(sig, hash []byte) (*secp256k1.PublicKey, bool, error) {
	compact := make([]byte, 65)
	compact[0] = sig[64] + 27
	copy(compact[1:], sig[:64])

	pub, wasCompressed, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, false, err
	}
	return pub, wasCompressed, nil
}

// publicKeyToAddress derives the 20-byte account address from an
// uncompressed secp256k1 public key, Ethereum-style: the low 20 bytes
// of Keccak256(pubkey.X || pubkey.Y).
func publicKeyToAddress(pub *secp256k1.PublicKey) common.Address {
	d := sha3.NewLegacyKeccak256()
	d.Write(pub.SerializeUncompressed()[1:])
	sum := d.Sum(nil)
	return common.BytesToAddress(sum[len(sum)-20:])
}

// Hash returns the transaction hash (over every field including the
// signature), used to identify transactions in log lines and in
// Block.Encoded's dump.
func (tx *Transaction) Hash() common.Hash {
	d := sha3.NewLegacyKeccak256()
	sh := tx.signingHash()
	d.Write(sh.Bytes())
	d.Write(tx.R[:])
	d.Write(tx.S[:])
	d.Write([]byte{tx.V})
	return common.BytesToHash(d.Sum(nil))
}
