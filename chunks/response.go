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

package chunks

import (
	"sort"

	"github.com/shardcore/chunks/chunks/rscodec"
	"github.com/shardcore/chunks/chunkstypes"
	"github.com/shardcore/chunks/collaborators"
)

// SourceTag tags where a response's content came from, observable for
// metrics only (spec.md §4.5).
type SourceTag int

const (
	SourceCache SourceTag = iota
	SourcePersistedPartial
	SourcePersistedFull
	SourceEmpty
)

// ResponseBuilder implements spec.md §4.5: in-memory cache, then persisted
// partial chunk, then persisted full chunk (recomputing parts and proofs),
// stopping as soon as both the part and receipt sets requested are full.
type ResponseBuilder struct {
	cache     *ChunkCache
	store     collaborators.Store
	codec     encoder
	numShards int
	log       logFn
}

// encoder is the subset of rscodec.Codec the response builder needs to
// recompute parts/proofs from a fully reconstructed payload.
type encoder interface {
	Encode(payload []byte) ([]chunkstypes.Part, chunkstypes.Hash, error)
}

type logFn func(msg string, kv ...any)

// NewResponseBuilder builds a ResponseBuilder. enc recomputes the N parts
// and Merkle proofs when falling back to a persisted full chunk; numShards
// is the dense shard count used to rebuild the outgoing-receipts tree.
func NewResponseBuilder(cache *ChunkCache, store collaborators.Store, enc encoder, numShards int, log logFn) *ResponseBuilder {
	return &ResponseBuilder{cache: cache, store: store, codec: enc, numShards: numShards, log: log}
}

// Build answers a PartialChunkRequest, returning the source it was
// ultimately satisfied from (for metrics) and the response itself. An
// empty request (nothing found anywhere) is still returned, tagged
// SourceEmpty, never an error — per spec.md §4.5 "a response where both
// sets are empty is still returned".
func (b *ResponseBuilder) Build(req collaborators.PartialChunkRequest) (SourceTag, collaborators.PartialChunkResponse) {
	wantParts := toSet(req.PartIndices)
	wantReceipts := toSet64(req.ReceiptShards)

	resp := collaborators.PartialChunkResponse{ChunkID: req.ChunkID}
	tag := SourceEmpty

	if entry, ok := b.cache.Get(req.ChunkID); ok {
		for idx := range wantParts {
			if p, ok := entry.Parts[idx]; ok {
				resp.Parts = append(resp.Parts, p)
				delete(wantParts, idx)
			}
		}
		for shard := range wantReceipts {
			if r, ok := entry.Receipts[chunkstypes.ShardID(shard)]; ok {
				resp.Receipts = append(resp.Receipts, r)
				delete(wantReceipts, shard)
			}
		}
		if len(resp.Parts) > 0 || len(resp.Receipts) > 0 {
			tag = SourceCache
		}
	}
	if len(wantParts) == 0 && len(wantReceipts) == 0 {
		sortReceipts(resp.Receipts)
		return tag, resp
	}

	if b.store != nil {
		if partial, ok, err := b.store.GetPartialChunk(req.ChunkID); err == nil && ok {
			for idx := range wantParts {
				for _, p := range partial.Parts {
					if p.PartIndex == idx {
						resp.Parts = append(resp.Parts, p)
						delete(wantParts, idx)
						break
					}
				}
			}
			for shard := range wantReceipts {
				for _, r := range partial.Receipts {
					if uint64(r.ToShard) == shard {
						resp.Receipts = append(resp.Receipts, r)
						delete(wantReceipts, shard)
						break
					}
				}
			}
			if tag == SourceEmpty && (len(resp.Parts) > 0 || len(resp.Receipts) > 0) {
				tag = SourcePersistedPartial
			}
		}
	}
	if len(wantParts) == 0 && len(wantReceipts) == 0 {
		sortReceipts(resp.Receipts)
		return tag, resp
	}

	if b.store != nil {
		if full, ok, err := b.store.GetShardChunk(req.ChunkID); err == nil && ok {
			payload := chunkstypes.PackPayload(full.Transactions, full.OutgoingReceipts)
			parts, merkleRoot, err := b.codec.Encode(payload)
			if err != nil {
				b.logf("response builder: re-encode failed", "chunk_id", req.ChunkID, "err", err)
				return tag, resp
			}
			if merkleRoot != full.Header.EncodedMerkleRoot || uint64(len(payload)) != full.Header.EncodedLength {
				b.logf("response builder: recomputed root/length mismatch", "chunk_id", req.ChunkID)
				return tag, resp
			}
			byIndex := map[uint64]chunkstypes.Part{}
			for _, p := range parts {
				byIndex[p.PartIndex] = p
			}
			for idx := range wantParts {
				if p, ok := byIndex[idx]; ok {
					resp.Parts = append(resp.Parts, p)
				}
			}
			receiptsByShard := map[chunkstypes.ShardID][]chunkstypes.OutgoingReceipt{}
			for _, r := range full.OutgoingReceipts {
				receiptsByShard[r.DestShard] = append(receiptsByShard[r.DestShard], r)
			}
			_, receiptProofs := rscodec.EncodeReceipts(b.numShards, receiptsByShard)
			for shard := range wantReceipts {
				s := chunkstypes.ShardID(shard)
				resp.Receipts = append(resp.Receipts, chunkstypes.ReceiptProof{
					ToShard:  s,
					Receipts: receiptsByShard[s],
					Proof:    receiptProofs[s],
				})
			}
			if len(resp.Parts) > 0 || len(resp.Receipts) > 0 {
				tag = SourcePersistedFull
			}
		}
	}

	sortReceipts(resp.Receipts)
	return tag, resp
}

func (b *ResponseBuilder) logf(msg string, kv ...any) {
	if b.log != nil {
		b.log(msg, kv...)
	}
}

func sortReceipts(r []chunkstypes.ReceiptProof) {
	sort.Slice(r, func(i, j int) bool { return r[i].ToShard < r[j].ToShard })
}

func toSet(idx []uint64) map[uint64]struct{} {
	out := make(map[uint64]struct{}, len(idx))
	for _, i := range idx {
		out[i] = struct{}{}
	}
	return out
}

func toSet64(shards []chunkstypes.ShardID) map[uint64]struct{} {
	out := make(map[uint64]struct{}, len(shards))
	for _, s := range shards {
		out[uint64(s)] = struct{}{}
	}
	return out
}
