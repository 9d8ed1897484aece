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
	"github.com/shardcore/chunks/chunkstypes"
)

// EncodeReceipts commits the per-shard outgoing-receipt lists of a chunk to
// a binary Merkle tree, one leaf per shard in [0, shardCount), producing
// the header's OutgoingReceiptRoot and a proof per shard. A shard's leaf is
// still hashed even when it has no outgoing receipts for this chunk, so
// recipients can prove absence as well as presence.
func EncodeReceipts(shardCount int, receiptsByShard map[chunkstypes.ShardID][]chunkstypes.OutgoingReceipt) (chunkstypes.Hash, map[chunkstypes.ShardID]chunkstypes.MerkleProof) {
	leaves := make([][]byte, shardCount)
	for i := 0; i < shardCount; i++ {
		leaves[i] = chunkstypes.EncodeReceiptsLeaf(receiptsByShard[chunkstypes.ShardID(i)])
	}
	root, proofs := buildMerkleTree(leaves)

	out := make(map[chunkstypes.ShardID]chunkstypes.MerkleProof, shardCount)
	for i := 0; i < shardCount; i++ {
		p := make(chunkstypes.MerkleProof, len(proofs[i]))
		copy(p, proofs[i])
		out[chunkstypes.ShardID(i)] = p
	}
	return chunkstypes.Hash(root), out
}

// VerifyReceiptProof checks proof's receipts, and the shard they are
// destined for, against root. The shard index doubles as the Merkle leaf
// index, the same dense-index convention part indices use.
func VerifyReceiptProof(root chunkstypes.Hash, proof chunkstypes.ReceiptProof) error {
	leaf := chunkstypes.EncodeReceiptsLeaf(proof.Receipts)
	if !verifyMerkleProof([32]byte(root), uint64(proof.ToShard), leaf, [][32]byte(proof.Proof)) {
		return errInvalidReceiptsProof
	}
	return nil
}
