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

// Scenario tests: one per named end-to-end case, driven through the
// engine's unexported handlers directly so each runs deterministically on
// the test goroutine rather than racing the mailbox loop.
package chunks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shardcore/chunks/chunkstypes"
	"github.com/shardcore/chunks/collaborators"
	"github.com/shardcore/chunks/config"
)

func newScenarioEngine(t *testing.T, dataParts, totalParts int) (*Engine, *collaborators.MockEpochManager, *collaborators.MockShardTracker, *collaborators.MockStore, *collaborators.RecordingNetwork, *collaborators.RecordingClient) {
	t.Helper()
	cfg := config.Default()
	cfg.DataParts = dataParts
	cfg.TotalParts = totalParts
	cfg.RetryProcessingDelay = time.Hour // never let the one-shot retry timer fire mid-test

	em := collaborators.NewMockEpochManager()
	st := collaborators.NewMockShardTracker(false)
	store := collaborators.NewMockStore()
	net := collaborators.NewRecordingNetwork()
	client := collaborators.NewRecordingClient()

	e, err := NewEngine(cfg, accountFixture(1), em, st, store, net, client, fixedRNG{}, nil, nil)
	require.NoError(t, err)
	return e, em, st, store, net, client
}

// buildEncodedChunk Reed-Solomon-encodes payload with e's codec and returns
// a header whose EncodedLength/EncodedMerkleRoot match the encoding,
// together with the parts that header commits to.
func buildEncodedChunk(t *testing.T, e *Engine, height uint64, shard chunkstypes.ShardID, prev chunkstypes.BlockHash, producer chunkstypes.AccountID, payload []byte) (chunkstypes.ChunkHeader, []chunkstypes.Part) {
	t.Helper()
	parts, root, err := e.codec.Encode(payload)
	require.NoError(t, err)
	h := chunkstypes.ChunkHeader{
		ProtocolVersion:   1,
		PrevBlockHash:     prev,
		HeightCreated:     height,
		ShardID:           shard,
		EncodedLength:     uint64(len(payload)),
		EncodedMerkleRoot: root,
		ProducerID:        producer,
	}
	return h, parts
}

// S1: a resend must never re-request a part already received, and must not
// fire early if the retry interval hasn't elapsed since the last send.
func TestScenario_S1_ResendSkipsAlreadyReceivedParts(t *testing.T) {
	e, em, st, _, net, _ := newScenarioEngine(t, 3, 6)
	st.Default = true // cares about the shard: request_full
	owner := accountFixture(50)
	producer := accountFixture(51)
	prev := testBlockHash(10)
	epoch := testEpoch(1)

	em.BlockEpoch[prev] = epoch
	em.Layouts[epoch] = []chunkstypes.ShardID{0}
	em.SetChunkProducer(epoch, 20, 0, producer)
	for i := uint64(0); i < 6; i++ {
		em.SetPartOwner(epoch, i, owner)
	}

	payload := []byte("S1 scenario payload, long enough to split across three data shards")
	header, parts := buildEncodedChunk(t, e, 20, 0, prev, producer, payload)

	_, err := e.processPartialChunk(header, []chunkstypes.Part{parts[0]}, nil, false)
	require.NoError(t, err)

	e.handleRequestChunks([]chunkstypes.ChunkHeader{header}, prev)
	reqs, _, _, _ := net.Snapshot()
	require.Equal(t, 1, reqs)
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, net.Requests[len(net.Requests)-1].Req.PartIndices)

	time.Sleep(110 * time.Millisecond)
	e.handlePeriodicRetry()
	reqs, _, _, _ = net.Snapshot()
	require.Equal(t, 2, reqs, "part 0 is never re-requested, but the rest resend once the retry interval elapses")
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, net.Requests[len(net.Requests)-1].Req.PartIndices)

	_, err = e.processPartialChunk(header, []chunkstypes.Part{parts[1]}, nil, false)
	require.NoError(t, err)

	time.Sleep(110 * time.Millisecond)
	e.handlePeriodicRetry()
	reqs, _, _, _ = net.Snapshot()
	require.Equal(t, 3, reqs)
	require.Equal(t, []uint64{2, 3, 4, 5}, net.Requests[len(net.Requests)-1].Req.PartIndices)

	e.handlePeriodicRetry()
	reqs, _, _, _ = net.Snapshot()
	require.Equal(t, 3, reqs, "an immediate resend with no elapsed retry interval must not re-request anything")
}

// S2: a part index at or beyond N is rejected outright, and nothing from
// that message is merged into the cache.
func TestScenario_S2_InvalidPartIndexRejected(t *testing.T) {
	e, em, _, _, _, _ := newScenarioEngine(t, 3, 6)
	epoch := testEpoch(2)
	prev := testBlockHash(11)
	em.BlockEpoch[prev] = epoch
	em.Layouts[epoch] = []chunkstypes.ShardID{0}

	header, _ := buildEncodedChunk(t, e, 30, 0, prev, accountFixture(60), []byte("S2 payload"))
	badPart := chunkstypes.Part{PartIndex: uint64(e.codec.N)}

	_, err := e.processPartialChunk(header, []chunkstypes.Part{badPart}, nil, false)
	require.ErrorIs(t, err, ErrInvalidChunkPartID)

	entry, ok := e.cache.Get(header.ID())
	require.True(t, ok, "the header is cached even though the offending part was rejected")
	require.Empty(t, entry.Parts, "no part from a rejected message is ever merged")
}

// S3: a part owner forwards its own owned part only on the first message
// that carries it; repeats (even bundled with other new, unowned parts)
// produce no further outbound forward of that part.
func TestScenario_S3_ForwardDeduplicationOnRepeat(t *testing.T) {
	e, em, st, _, net, _ := newScenarioEngine(t, 3, 6)
	st.Default = true
	me := e.me
	other := accountFixture(70)
	recipient := accountFixture(71)
	epoch, nextEpoch := testEpoch(3), testEpoch(4)
	prev := testBlockHash(12)

	em.BlockEpoch[prev] = epoch
	em.Layouts[epoch] = []chunkstypes.ShardID{0}
	em.NextEpoch[epoch] = nextEpoch
	em.BlockProducerSet[epoch] = []chunkstypes.AccountID{recipient}
	em.SetChunkProducer(epoch, 40, 0, accountFixture(72))
	em.SetPartOwner(epoch, 0, me)
	for i := uint64(1); i < 6; i++ {
		em.SetPartOwner(epoch, i, other)
	}

	payload := chunkstypes.PackPayload([]byte("S3 scenario payload data exercised for the forward dedup case"), nil)
	header, parts := buildEncodedChunk(t, e, 40, 0, prev, accountFixture(72), payload)

	_, err := e.processPartialChunk(header, []chunkstypes.Part{parts[0], parts[1]}, nil, false)
	require.NoError(t, err)
	_, _, _, fwdsAfter1 := net.Snapshot()
	require.Equal(t, 1, fwdsAfter1, "the first appearance of our owned part triggers exactly one forward")

	_, err = e.processPartialChunk(header, []chunkstypes.Part{parts[0], parts[2]}, nil, false)
	require.NoError(t, err)
	_, _, _, fwdsAfter2 := net.Snapshot()
	require.Equal(t, fwdsAfter1, fwdsAfter2, "the owned part is not new anymore, and part 2 isn't ours to forward")

	_, err = e.processPartialChunk(header, []chunkstypes.Part{parts[0], parts[3]}, nil, false)
	require.NoError(t, err)
	_, _, _, fwdsAfter3 := net.Snapshot()
	require.Equal(t, fwdsAfter1, fwdsAfter3, "a third repeat of the owned part still forwards nothing new")
}

// S4: a forward for most of a chunk's parts can arrive before this node
// knows the chunk's header at all; it is held until the header (and later
// the exact previous block) becomes known, with no request ever sent for
// parts the forward already supplied.
func TestScenario_S4_ForwardBeforeHeader(t *testing.T) {
	e, em, st, _, net, client := newScenarioEngine(t, 2, 4)
	st.Default = true
	epoch := testEpoch(5)
	prev := testBlockHash(13)
	head := testBlockHash(14)
	producer := accountFixture(80)

	em.BlockEpoch[head] = epoch
	em.Layouts[epoch] = []chunkstypes.ShardID{0}
	em.SetChunkProducer(epoch, 50, 0, producer)
	e.heads = ChainHeads{HeadLastBlockHash: head}

	payload := chunkstypes.PackPayload([]byte("S4 transactions covering four reed-solomon shards"), nil)
	header, parts := buildEncodedChunk(t, e, 50, 0, prev, producer, payload)
	id := header.ID()

	fwd := collaborators.PartialChunkForward{
		ChunkID:           id,
		HeightCreated:     header.HeightCreated,
		ShardID:           header.ShardID,
		PrevBlockHash:     header.PrevBlockHash,
		EncodedMerkleRoot: header.EncodedMerkleRoot,
		ProducerID:        header.ProducerID,
		Parts:             []chunkstypes.Part{parts[0], parts[1], parts[2]},
	}
	require.NoError(t, e.processForward(fwd))
	_, ok := e.cache.Get(id)
	require.False(t, ok, "the header is not yet known: the forward only lands in the forward cache")

	result, err := e.processPartialChunk(header, []chunkstypes.Part{parts[3]}, nil, false)
	require.NoError(t, err)
	require.Equal(t, NeedBlock, result, "the epoch resolves via the cached head, but try_finalize's own lookup needs PrevBlockHash itself confirmed")

	reqs, _, _, _ := net.Snapshot()
	require.Zero(t, reqs, "no outbound request is ever sent for a chunk completed entirely from forwards")
	require.Zero(t, client.CompletedCount())

	em.BlockEpoch[prev] = epoch
	e.handleCheckIncompleteChunks(prev)
	require.Equal(t, 1, client.CompletedCount(), "the parent block arriving retries finalize and completes the chunk")
}

// S5: prepare_response must source from whichever layer actually holds the
// chunk, in order: in-memory cache, persisted partial chunk, persisted full
// chunk (re-encoded on the fly).
func TestScenario_S5_ResponseSources(t *testing.T) {
	t.Run("from cache after distribute", func(t *testing.T) {
		e, em, st, _, _, _ := newScenarioEngine(t, 2, 4)
		st.Default = false
		epoch := testEpoch(6)
		prev := testBlockHash(20)
		em.BlockEpoch[prev] = epoch
		em.Layouts[epoch] = []chunkstypes.ShardID{0}

		payload := chunkstypes.PackPayload([]byte("S5a transactions"), nil)
		header, parts := buildEncodedChunk(t, e, 60, 0, prev, accountFixture(90), payload)
		e.handleDistribute(chunkstypes.PartialChunk{Header: header}, parts, nil)

		tag, resp := e.response.Build(collaborators.PartialChunkRequest{
			ChunkID:     header.ID(),
			PartIndices: []uint64{0, 1, 2, 3},
		})
		require.Equal(t, SourceCache, tag)
		require.Len(t, resp.Parts, 4)
	})

	t.Run("from cache after process_partial_chunk(all)", func(t *testing.T) {
		e, em, st, _, _, _ := newScenarioEngine(t, 2, 4)
		st.Default = false
		epoch := testEpoch(7)
		prev := testBlockHash(21)
		em.BlockEpoch[prev] = epoch
		em.Layouts[epoch] = []chunkstypes.ShardID{0}

		payload := chunkstypes.PackPayload([]byte("S5b transactions"), nil)
		header, parts := buildEncodedChunk(t, e, 61, 0, prev, accountFixture(91), payload)
		_, err := e.processPartialChunk(header, parts, nil, false)
		require.NoError(t, err)

		tag, resp := e.response.Build(collaborators.PartialChunkRequest{
			ChunkID:     header.ID(),
			PartIndices: []uint64{0, 1, 2, 3},
		})
		require.Equal(t, SourceCache, tag)
		require.Len(t, resp.Parts, 4)
	})

	t.Run("from persisted partial chunk", func(t *testing.T) {
		e, _, _, store, _, _ := newScenarioEngine(t, 2, 4)
		id := chunkstypes.ChunkID{22}
		require.NoError(t, store.PutPartialChunk(id, &chunkstypes.PartialChunk{
			Parts: []chunkstypes.Part{{PartIndex: 0}, {PartIndex: 1}, {PartIndex: 2}, {PartIndex: 3}},
		}))

		tag, resp := e.response.Build(collaborators.PartialChunkRequest{ChunkID: id, PartIndices: []uint64{0, 1, 2, 3}})
		require.Equal(t, SourcePersistedPartial, tag)
		require.Len(t, resp.Parts, 4)
	})

	t.Run("from persisted full chunk", func(t *testing.T) {
		e, _, _, store, _, _ := newScenarioEngine(t, 2, 4)
		payload := chunkstypes.PackPayload([]byte("S5d transactions"), nil)
		parts, root, err := e.codec.Encode(payload)
		require.NoError(t, err)
		h := chunkstypes.ChunkHeader{HeightCreated: 62, ShardID: 0, EncodedMerkleRoot: root, EncodedLength: uint64(len(payload))}
		id := h.ID()
		require.NoError(t, store.PutShardChunk(id, &chunkstypes.ShardChunk{Header: h, Transactions: []byte("S5d transactions")}))

		tag, resp := e.response.Build(collaborators.PartialChunkRequest{
			ChunkID:     id,
			PartIndices: []uint64{parts[0].PartIndex, parts[1].PartIndex, parts[2].PartIndex, parts[3].PartIndex},
		})
		require.Equal(t, SourcePersistedFull, tag)
		require.Len(t, resp.Parts, 4)
	})
}

// S6: a request listing the same part index repeatedly must be served
// deduplicated, never with a duplicate part in the response.
func TestScenario_S6_DuplicatePartIndicesInRequestAreDeduped(t *testing.T) {
	e, _, _, store, _, _ := newScenarioEngine(t, 2, 4)
	payload := chunkstypes.PackPayload([]byte("S6 transactions"), nil)
	parts, root, err := e.codec.Encode(payload)
	require.NoError(t, err)
	h := chunkstypes.ChunkHeader{HeightCreated: 70, ShardID: 0, EncodedMerkleRoot: root, EncodedLength: uint64(len(payload))}
	id := h.ID()
	require.NoError(t, store.PutShardChunk(id, &chunkstypes.ShardChunk{Header: h, Transactions: []byte("S6 transactions")}))

	tag, resp := e.response.Build(collaborators.PartialChunkRequest{
		ChunkID:     id,
		PartIndices: []uint64{parts[0].PartIndex, parts[1].PartIndex, parts[0].PartIndex, parts[1].PartIndex, parts[0].PartIndex, parts[1].PartIndex, parts[0].PartIndex, parts[1].PartIndex},
	})
	require.Equal(t, SourcePersistedFull, tag)
	require.Len(t, resp.Parts, 2, "eight requested indices naming only two distinct parts must yield exactly two parts")
	seen := map[uint64]bool{}
	for _, p := range resp.Parts {
		require.False(t, seen[p.PartIndex], "no part index may appear twice in the response")
		seen[p.PartIndex] = true
	}
}

// S7: ChunkHeaderReadyForInclusion fires exactly once per chunk, even if
// the triggering message is processed again afterward.
func TestScenario_S7_HeaderReadyForInclusionFiresOnce(t *testing.T) {
	e, em, st, _, _, client := newScenarioEngine(t, 2, 4)
	st.Default = false // an observer that neither owns parts nor cares about the shard
	epoch := testEpoch(8)
	prev := testBlockHash(30)
	producer := accountFixture(100)

	em.BlockEpoch[prev] = epoch
	em.Layouts[epoch] = []chunkstypes.ShardID{0}
	em.SetChunkProducer(epoch, 80, 0, producer)

	header := chunkstypes.ChunkHeader{ProtocolVersion: 1, PrevBlockHash: prev, HeightCreated: 80, ShardID: 0, ProducerID: producer}

	result, err := e.processPartialChunk(header, nil, nil, false)
	require.NoError(t, err)
	require.Equal(t, HaveAllPartsAndReceipts, result)
	require.Equal(t, 1, client.ReadyForInclusionCount())

	result, err = e.processPartialChunk(header, nil, nil, false)
	require.NoError(t, err)
	require.Equal(t, Known, result, "the chunk is already complete, so the second message is a no-op")
	require.Equal(t, 1, client.ReadyForInclusionCount(), "no further ready-for-inclusion notification fires")
}
