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

package chunkstypes

import (
	"encoding/binary"
)

// ChunkHeader is the authenticated header a block carries for one shard at
// one height. Everything else about a chunk (parts, receipts) is fetched or
// reconstructed separately and validated against the fields here.
type ChunkHeader struct {
	ProtocolVersion     uint32 // must match a version this node supports
	PrevBlockHash       BlockHash
	HeightCreated       uint64
	ShardID             ShardID
	EncodedLength       uint64 // payload length in bytes, before parity
	EncodedMerkleRoot   Hash   // root over all N Reed-Solomon shards
	OutgoingReceiptRoot Hash   // root over per-shard outgoing receipt lists
	ProducerID          AccountID
	Signature           []byte // producer signature over the canonical encoding
}

// CanonicalBytes returns the bytes the producer signs and that this
// header's ChunkID is derived from. Signature is intentionally excluded.
func (h *ChunkHeader) CanonicalBytes() []byte {
	buf := make([]byte, 0, 4+32+8+8+8+32+32+32)
	buf = binary.BigEndian.AppendUint32(buf, h.ProtocolVersion)
	buf = append(buf, h.PrevBlockHash[:]...)
	buf = binary.BigEndian.AppendUint64(buf, h.HeightCreated)
	buf = binary.BigEndian.AppendUint64(buf, uint64(h.ShardID))
	buf = binary.BigEndian.AppendUint64(buf, h.EncodedLength)
	buf = append(buf, h.EncodedMerkleRoot[:]...)
	buf = append(buf, h.OutgoingReceiptRoot[:]...)
	buf = append(buf, h.ProducerID[:]...)
	return buf
}

// ID returns the chunk identifier derived from this header.
func (h *ChunkHeader) ID() ChunkID { return HashBytes(h.CanonicalBytes()) }

// Part is one Reed-Solomon shard of a chunk's encoded payload.
type Part struct {
	PartIndex uint64
	Payload   []byte
	Proof     MerkleProof
}

// MerkleProof is a sibling-hash path from a leaf to the encoded-Merkle-root.
type MerkleProof [][32]byte

// OutgoingReceipt is a single cross-shard receipt produced while executing
// this chunk, destined for DestShard.
type OutgoingReceipt struct {
	DestShard ShardID
	Data      []byte
}

// ReceiptProof carries every outgoing receipt destined for one shard,
// together with the Merkle proof that ties that list to the header's
// OutgoingReceiptRoot.
type ReceiptProof struct {
	ToShard  ShardID
	Receipts []OutgoingReceipt
	Proof    MerkleProof
}

// PartialChunk is the flattened, serializable record handed to the client
// once a cache entry is complete: the header plus every part and receipt
// proof the cache entry held at completion. Parts and receipts the node
// neither owns nor tracks are not filtered out. It can be reconstructed
// byte-for-byte from (header, parts, sorted receipts).
type PartialChunk struct {
	Header   ChunkHeader
	Parts    []Part
	Receipts []ReceiptProof // sorted by ToShard
}

// ShardChunk is the fully reconstructed payload of a chunk the node tracks:
// the decoded transactions/receipts, from which all N parts can be
// re-derived by re-encoding.
type ShardChunk struct {
	Header           ChunkHeader
	Transactions     []byte // opaque, serialized transaction list
	OutgoingReceipts []OutgoingReceipt
}
