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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shardcore/chunks/chunks/rscodec"
	"github.com/shardcore/chunks/chunkstypes"
	"github.com/shardcore/chunks/collaborators"
)

func TestResponseBuilder_Build_FromCache(t *testing.T) {
	cache := NewChunkCache(5, func(chunkstypes.ChunkID) bool { return false })
	h := header(10, 0, chunkstypes.BlockHash{1})
	cache.GetOrInsertFromHeader(h)
	id := h.ID()
	cache.MergePartsAndReceipts(id, []chunkstypes.Part{{PartIndex: 0}, {PartIndex: 2}}, []chunkstypes.ReceiptProof{{ToShard: 1}})

	codec, err := rscodec.New(2, 4)
	require.NoError(t, err)
	b := NewResponseBuilder(cache, nil, codec, 2, nil)

	tag, resp := b.Build(collaborators.PartialChunkRequest{
		ChunkID:       id,
		PartIndices:   []uint64{0, 2},
		ReceiptShards: []chunkstypes.ShardID{1},
	})
	require.Equal(t, SourceCache, tag)
	require.Len(t, resp.Parts, 2)
	require.Len(t, resp.Receipts, 1)
}

func TestResponseBuilder_Build_FallsBackToPersistedPartial(t *testing.T) {
	cache := NewChunkCache(5, func(chunkstypes.ChunkID) bool { return false })
	store := collaborators.NewMockStore()
	id := chunkstypes.ChunkID{7}
	require.NoError(t, store.PutPartialChunk(id, &chunkstypes.PartialChunk{
		Parts: []chunkstypes.Part{{PartIndex: 0}, {PartIndex: 1}},
	}))

	codec, err := rscodec.New(2, 4)
	require.NoError(t, err)
	b := NewResponseBuilder(cache, store, codec, 2, nil)

	tag, resp := b.Build(collaborators.PartialChunkRequest{ChunkID: id, PartIndices: []uint64{0, 1}})
	require.Equal(t, SourcePersistedPartial, tag)
	require.Len(t, resp.Parts, 2)
}

func TestResponseBuilder_Build_FallsBackToPersistedFull(t *testing.T) {
	cache := NewChunkCache(5, func(chunkstypes.ChunkID) bool { return false })
	store := collaborators.NewMockStore()
	codec, err := rscodec.New(2, 4)
	require.NoError(t, err)

	transactions := []byte("some serialized transactions")
	receipts := []chunkstypes.OutgoingReceipt{{DestShard: 1, Data: []byte("r")}}
	payload := chunkstypes.PackPayload(transactions, receipts)
	parts, root, err := codec.Encode(payload)
	require.NoError(t, err)

	h := chunkstypes.ChunkHeader{
		HeightCreated:       10,
		ShardID:             0,
		EncodedMerkleRoot:   root,
		EncodedLength:       uint64(len(payload)),
		OutgoingReceiptRoot: chunkstypes.Hash{},
	}
	id := h.ID()
	require.NoError(t, store.PutShardChunk(id, &chunkstypes.ShardChunk{
		Header:           h,
		Transactions:     transactions,
		OutgoingReceipts: receipts,
	}))

	b := NewResponseBuilder(cache, store, codec, 2, nil)
	tag, resp := b.Build(collaborators.PartialChunkRequest{
		ChunkID:       id,
		PartIndices:   []uint64{parts[0].PartIndex, parts[1].PartIndex},
		ReceiptShards: []chunkstypes.ShardID{1},
	})
	require.Equal(t, SourcePersistedFull, tag)
	require.Len(t, resp.Parts, 2)
	require.Len(t, resp.Receipts, 1)
	require.Equal(t, chunkstypes.ShardID(1), resp.Receipts[0].ToShard)
}

func TestResponseBuilder_Build_NothingFound_ReturnsSourceEmpty(t *testing.T) {
	cache := NewChunkCache(5, func(chunkstypes.ChunkID) bool { return false })
	codec, err := rscodec.New(2, 4)
	require.NoError(t, err)
	b := NewResponseBuilder(cache, collaborators.NewMockStore(), codec, 2, nil)

	tag, resp := b.Build(collaborators.PartialChunkRequest{ChunkID: chunkstypes.ChunkID{9}, PartIndices: []uint64{0}})
	require.Equal(t, SourceEmpty, tag)
	require.Empty(t, resp.Parts)
	require.Empty(t, resp.Receipts)
}
