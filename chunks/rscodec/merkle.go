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

package rscodec

import (
	"github.com/minio/sha256-simd"
)

// leafHash and nodeHash use distinct domain-separation prefixes so an
// inner node can never be replayed as a leaf, the usual defense for
// binary Merkle trees built over attacker-reachable leaves.
const (
	leafPrefix = 0x00
	nodePrefix = 0x01
)

func leafHash(data []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte{leafPrefix})
	h.Write(data)
	var out [32]byte
	h.Sum(out[:0])
	return out
}

func nodeHash(left, right [32]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte{nodePrefix})
	h.Write(left[:])
	h.Write(right[:])
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// buildMerkleTree returns the root over len(shards) leaves and, for each
// leaf index, the sibling path from that leaf to the root. Leaf count need
// not be a power of two: an odd node at any level is paired with itself,
// so every leaf gets exactly one sibling per height and the proof matches
// the index arithmetic of verifyMerkleProof.
func buildMerkleTree(shards [][]byte) (root [32]byte, proofs [][][32]byte) {
	n := len(shards)
	level := make([][32]byte, n)
	for i, s := range shards {
		level[i] = leafHash(s)
	}

	proofs = make([][][32]byte, n)
	// indices tracks, for each original leaf, its position within the
	// current level so we can collect its sibling at each height.
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				// odd one out: paired with itself.
				next = append(next, nodeHash(level[i], level[i]))
				continue
			}
			next = append(next, nodeHash(level[i], level[i+1]))
		}

		for leaf, idx := range indices {
			if idx >= len(level) {
				continue
			}
			if idx%2 == 1 {
				proofs[leaf] = append(proofs[leaf], level[idx-1])
			} else if idx+1 < len(level) {
				proofs[leaf] = append(proofs[leaf], level[idx+1])
			} else {
				// odd-one-out nodes are their own sibling at this height.
				proofs[leaf] = append(proofs[leaf], level[idx])
			}
			indices[leaf] = idx / 2
		}
		level = next
	}
	if len(level) == 1 {
		root = level[0]
	}
	return root, proofs
}

// verifyMerkleProof checks that leafData, combined with proof, folds up to
// root. It is intentionally agnostic to which side of each pairing the
// sibling belongs on: the proof was generated by buildMerkleTree using the
// same index arithmetic, so the parity of the index at each height
// determines pairing order, which is why VerifyPart takes the leaf index
// explicitly rather than trying to infer it from the proof alone.
func verifyMerkleProof(root [32]byte, index uint64, leafData []byte, proof [][32]byte) bool {
	h := leafHash(leafData)
	idx := index
	for _, sib := range proof {
		if idx%2 == 0 {
			h = nodeHash(h, sib)
		} else {
			h = nodeHash(sib, h)
		}
		idx /= 2
	}
	return h == root
}
