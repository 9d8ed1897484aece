// Copyright 2026 The shardcore Authors
// This file is part of the shardcore chunks library.
//
// The shardcore chunks library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The shardcore chunks library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the shardcore chunks library. If not, see <http://www.gnu.org/licenses/>.

// Package chunkstypes defines the wire and cache data model shared by the
// chunk distribution engine, the Reed-Solomon codec, and the external
// collaborator interfaces: chunk identifiers, headers, parts, receipt
// proofs, and the flattened PartialChunk/ShardChunk records handed to the
// client once a chunk is complete.
package chunkstypes

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// HashLength is the length in bytes of every identifier in this package.
const HashLength = 32

// Hash is a fixed-width, content-addressed identifier. ChunkID, AccountID,
// EpochID and BlockHash are all defined in terms of it, the same
// way the teacher's common.Hash backs both block and transaction hashes.
type Hash [HashLength]byte

// BytesToHash right-aligns b into a Hash, truncating from the left if b is
// longer than HashLength.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hash) UnmarshalText(text []byte) error {
	s := string(text)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("chunkstypes: invalid hash %q: %w", string(text), err)
	}
	if len(b) != HashLength {
		return fmt.Errorf("chunkstypes: invalid hash length %d", len(b))
	}
	copy(h[:], b)
	return nil
}

// HashBytes returns the canonical content hash (Keccak-256) of b, used to
// derive chunk identifiers from headers and account identifiers from
// validator public keys.
func HashBytes(b []byte) Hash {
	var h Hash
	d := sha3.NewLegacyKeccak256()
	d.Write(b)
	d.Sum(h[:0])
	return h
}

// ChunkID uniquely names a chunk; it is the Keccak-256 hash of the chunk
// header's canonical encoding.
type ChunkID = Hash

// AccountID names a validator account.
type AccountID = Hash

// EpochID names an epoch.
type EpochID = Hash

// ShardID is a small dense index; it is not hash-sized, unlike the
// identifiers above, because shard counts are bounded and shard ids are
// used directly as slice/map indices throughout the engine.
type ShardID uint64

// BlockHash names a block.
type BlockHash = Hash
