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

package main

import (
	"fmt"
	"sync"

	"github.com/shardcore/chunks/chunkstypes"
	"github.com/shardcore/chunks/collaborators"
	"github.com/shardcore/chunks/internal/clog"
)

// demoShardTracker reports the same fixed set of shards for every account
// and ancestor block: there is no real chain client wired into this binary
// to ask "which shards did block B assign account X".
type demoShardTracker struct {
	shards map[chunkstypes.ShardID]bool
}

func newDemoShardTracker(shards []chunkstypes.ShardID) *demoShardTracker {
	t := &demoShardTracker{shards: map[chunkstypes.ShardID]bool{}}
	for _, s := range shards {
		t.shards[s] = true
	}
	return t
}

func (t *demoShardTracker) Cares(_ chunkstypes.AccountID, _ chunkstypes.BlockHash, shard chunkstypes.ShardID) bool {
	return t.shards[shard]
}

// demoSink is the Network + Client + Store side of the wiring: a logging,
// one-way outbound adapter and an in-memory persisted-chunk store. A real
// deployment replaces this with a p2p adapter and a disk-backed database;
// this exists to exercise the engine's full message surface end to end.
type demoSink struct {
	log *clog.Logger

	mu       sync.Mutex
	partials map[chunkstypes.ChunkID]*chunkstypes.PartialChunk
	shards   map[chunkstypes.ChunkID]*chunkstypes.ShardChunk
}

func newDemoSink(log *clog.Logger) *demoSink {
	return &demoSink{
		log:      log,
		partials: map[chunkstypes.ChunkID]*chunkstypes.PartialChunk{},
		shards:   map[chunkstypes.ChunkID]*chunkstypes.ShardChunk{},
	}
}

// --- Store ---

func (s *demoSink) GetPartialChunk(id chunkstypes.ChunkID) (*chunkstypes.PartialChunk, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partials[id]
	return p, ok, nil
}

func (s *demoSink) PutPartialChunk(id chunkstypes.ChunkID, p *chunkstypes.PartialChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partials[id] = p
	return nil
}

func (s *demoSink) GetShardChunk(id chunkstypes.ChunkID) (*chunkstypes.ShardChunk, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.shards[id]
	return c, ok, nil
}

func (s *demoSink) PutShardChunk(id chunkstypes.ChunkID, c *chunkstypes.ShardChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shards[id] = c
	return nil
}

// --- Network ---

func (s *demoSink) SendPartialChunkRequest(target collaborators.Target, req collaborators.PartialChunkRequest) {
	s.log.Debug("send partial chunk request", "chunk_id", req.ChunkID, "target", targetString(target), "parts", len(req.PartIndices), "receipt_shards", len(req.ReceiptShards))
}

func (s *demoSink) SendPartialChunkResponse(routeBack collaborators.RouteToken, resp collaborators.PartialChunkResponse) {
	s.log.Debug("send partial chunk response", "chunk_id", resp.ChunkID, "parts", len(resp.Parts), "receipts", len(resp.Receipts))
}

func (s *demoSink) SendPartialChunkMessage(account chunkstypes.AccountID, msg collaborators.PartialChunkMessage) {
	s.log.Debug("send partial chunk message", "chunk_id", msg.Header.ID(), "to", account, "parts", len(msg.Parts))
}

func (s *demoSink) SendPartialChunkForward(account chunkstypes.AccountID, fwd collaborators.PartialChunkForward) {
	s.log.Debug("send partial chunk forward", "chunk_id", fwd.ChunkID, "to", account, "parts", len(fwd.Parts))
}

func targetString(t collaborators.Target) string {
	if t.Account != nil {
		return t.Account.String()
	}
	return fmt.Sprintf("any-peer(shard=%d,min_height=%d)", t.Shard, t.MinHeight)
}

// --- Client ---

func (s *demoSink) ChunkCompleted(partial *chunkstypes.PartialChunk, shard *chunkstypes.ShardChunk) {
	s.log.Info("chunk completed", "chunk_id", partial.Header.ID(), "shard", partial.Header.ShardID, "height", partial.Header.HeightCreated, "reconstructed", shard != nil)
}

func (s *demoSink) ChunkHeaderReadyForInclusion(header chunkstypes.ChunkHeader, producer chunkstypes.AccountID) {
	s.log.Info("chunk header ready for inclusion", "chunk_id", header.ID(), "producer", producer)
}

func (s *demoSink) InvalidChunk(header chunkstypes.ChunkHeader) {
	s.log.Warn("invalid chunk rejected", "chunk_id", header.ID(), "shard", header.ShardID, "height", header.HeightCreated)
}
