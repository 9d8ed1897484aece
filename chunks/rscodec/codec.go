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

// Package rscodec implements the authenticated Reed-Solomon codec: a
// chunk's payload is split into D data shards, extended to N shards with
// Reed-Solomon parity, and each of the N shards is committed to a binary
// Merkle tree whose root becomes the chunk header's encoded-Merkle-root.
package rscodec

import (
	"github.com/klauspost/reedsolomon"
	"github.com/shardcore/chunks/chunkstypes"
)

// DecodeOutcome classifies the result of Decode, matching spec.md §4.3's
// three-way outcome.
type DecodeOutcome int

const (
	DecodeIncomplete DecodeOutcome = iota // fewer than D parts known
	DecodeComplete                        // payload recovered, root matches
	DecodeInvalid                         // decode failed or root mismatch
)

// Codec encodes/decodes chunk payloads with a fixed (D, N) shape.
type Codec struct {
	D, N int
}

// New returns a Codec for the given data/parity shard counts. D and N must
// both be positive and N must exceed D; this is checked once at
// construction so Encode/Decode never need to re-validate configuration.
func New(d, n int) (*Codec, error) {
	if d <= 0 || n <= d {
		return nil, errInvalidShardConfig
	}
	return &Codec{D: d, N: n}, nil
}

// TotalParts returns N, the number of Reed-Solomon shards a chunk is split
// into, satisfying the chunks package's shardCounter interface.
func (c *Codec) TotalParts() int { return c.N }

func (c *Codec) shardSize(payloadLen int) int {
	size := payloadLen / c.D
	if payloadLen%c.D != 0 {
		size++
	}
	return size
}

// Encode splits payload into D data shards (zero-padded to an even shard
// size), extends to N shards via Reed-Solomon parity, and commits all N
// shards to a Merkle tree. It returns the resulting parts (payload +
// per-shard proof) and the tree's root, which becomes the chunk header's
// EncodedMerkleRoot.
func (c *Codec) Encode(payload []byte) (parts []chunkstypes.Part, root chunkstypes.Hash, err error) {
	enc, err := reedsolomon.New(c.D, c.N-c.D)
	if err != nil {
		return nil, root, errInvalidShardConfig
	}

	shardSize := c.shardSize(len(payload))
	shards := make([][]byte, c.N)
	padded := make([]byte, shardSize*c.D)
	copy(padded, payload)
	for i := 0; i < c.D; i++ {
		shards[i] = padded[i*shardSize : (i+1)*shardSize]
	}
	for i := c.D; i < c.N; i++ {
		shards[i] = make([]byte, shardSize)
	}
	if err := enc.Encode(shards); err != nil {
		return nil, root, errEncodeFailed
	}

	treeRoot, proofs := buildMerkleTree(shards)
	parts = make([]chunkstypes.Part, c.N)
	for i := 0; i < c.N; i++ {
		proof := make(chunkstypes.MerkleProof, len(proofs[i]))
		copy(proof, proofs[i])
		parts[i] = chunkstypes.Part{
			PartIndex: uint64(i),
			Payload:   shards[i],
			Proof:     proof,
		}
	}
	return parts, chunkstypes.Hash(treeRoot), nil
}

// VerifyPart checks part's Merkle proof against root. It never touches the
// reconstructed payload, so it is safe to call on parts received from
// untrusted peers before any decode is attempted.
func (c *Codec) VerifyPart(root chunkstypes.Hash, part chunkstypes.Part) error {
	if part.PartIndex >= uint64(c.N) {
		return errInvalidChunkPartID
	}
	ok := verifyMerkleProof([32]byte(root), part.PartIndex, part.Payload, [][32]byte(part.Proof))
	if !ok {
		return errInvalidMerkleProof
	}
	return nil
}

// Decode reconstructs payload (truncated to encodedLength) from the given
// parts, keyed by part index. It requires at least D known parts and
// recomputes the Merkle root over all N reconstructed shards, comparing it
// against expectedRoot, to guard against a data shard silently differing
// from what was originally encoded (e.g. a byzantine producer who
// distributed inconsistent shards to different peers).
func (c *Codec) Decode(known map[uint64][]byte, encodedLength uint64, expectedRoot chunkstypes.Hash) ([]byte, []chunkstypes.MerkleProof, DecodeOutcome) {
	if len(known) < c.D {
		return nil, nil, DecodeIncomplete
	}

	var shardSize int
	for _, s := range known {
		shardSize = len(s)
		break
	}
	shards := make([][]byte, c.N)
	for i, s := range known {
		if int(i) >= c.N || len(s) != shardSize {
			return nil, nil, DecodeInvalid
		}
		shards[i] = s
	}

	enc, err := reedsolomon.New(c.D, c.N-c.D)
	if err != nil {
		return nil, nil, DecodeInvalid
	}
	if err := enc.Reconstruct(shards); err != nil {
		return nil, nil, DecodeInvalid
	}

	root, proofs := buildMerkleTree(shards)
	if chunkstypes.Hash(root) != expectedRoot {
		return nil, nil, DecodeInvalid
	}

	payload := make([]byte, 0, shardSize*c.D)
	for i := 0; i < c.D; i++ {
		payload = append(payload, shards[i]...)
	}
	if uint64(len(payload)) < encodedLength {
		return nil, nil, DecodeInvalid
	}
	payload = payload[:encodedLength]

	mproofs := make([]chunkstypes.MerkleProof, c.N)
	for i := range proofs {
		p := make(chunkstypes.MerkleProof, len(proofs[i]))
		copy(p, proofs[i])
		mproofs[i] = p
	}
	return payload, mproofs, DecodeComplete
}
