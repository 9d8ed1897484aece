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
	"github.com/shardcore/chunks/chunkstypes"
)

// CacheEntry is the cache's unit of bookkeeping per spec.md §3 "Cache
// entry". Every field is owned exclusively by the Encoded-Chunk Cache
// until Complete is set, at which point a flattened PartialChunk is
// handed to the client as an immutable value.
type CacheEntry struct {
	Header               chunkstypes.ChunkHeader
	HeaderFullyValidated bool
	Parts                map[uint64]chunkstypes.Part
	Receipts             map[chunkstypes.ShardID]chunkstypes.ReceiptProof
	Complete             bool
	MarkedForInclusion   bool
}

type heightShardKey struct {
	Height uint64
	Shard  chunkstypes.ShardID
}

// ChunkCache is the Encoded-Chunk Cache: entries keyed by chunk id,
// secondarily indexed by (height, shard) and by prev-block hash.
type ChunkCache struct {
	entries    map[chunkstypes.ChunkID]*CacheEntry
	byHeight   map[heightShardKey]chunkstypes.ChunkID
	byPrevHash map[chunkstypes.BlockHash]map[chunkstypes.ChunkID]struct{}

	headHeight uint64
	horizon    uint64

	inPool func(chunkstypes.ChunkID) bool
}

// NewChunkCache builds an empty cache. inPool lets the cache consult the
// Request Pool without owning it, so update_horizon can honor "never
// remove an entry still in the Request Pool" (spec.md §4.2).
func NewChunkCache(horizon uint64, inPool func(chunkstypes.ChunkID) bool) *ChunkCache {
	return &ChunkCache{
		entries:    map[chunkstypes.ChunkID]*CacheEntry{},
		byHeight:   map[heightShardKey]chunkstypes.ChunkID{},
		byPrevHash: map[chunkstypes.BlockHash]map[chunkstypes.ChunkID]struct{}{},
		horizon:    horizon,
		inPool:     inPool,
	}
}

func (c *ChunkCache) Get(id chunkstypes.ChunkID) (*CacheEntry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// GetOrInsertFromHeader returns the existing entry for header.ID(), or
// creates one initialized per spec.md §4.2.
func (c *ChunkCache) GetOrInsertFromHeader(header chunkstypes.ChunkHeader) *CacheEntry {
	id := header.ID()
	if e, ok := c.entries[id]; ok {
		return e
	}
	e := &CacheEntry{
		Header:   header,
		Parts:    map[uint64]chunkstypes.Part{},
		Receipts: map[chunkstypes.ShardID]chunkstypes.ReceiptProof{},
	}
	c.entries[id] = e
	key := heightShardKey{Height: header.HeightCreated, Shard: header.ShardID}
	c.byHeight[key] = id
	if c.byPrevHash[header.PrevBlockHash] == nil {
		c.byPrevHash[header.PrevBlockHash] = map[chunkstypes.ChunkID]struct{}{}
	}
	c.byPrevHash[header.PrevBlockHash][id] = struct{}{}
	return e
}

// MergePartsAndReceipts merges parts and receipts into id's entry,
// returning the set of part indices that were not previously present.
func (c *ChunkCache) MergePartsAndReceipts(id chunkstypes.ChunkID, parts []chunkstypes.Part, receipts []chunkstypes.ReceiptProof) map[uint64]struct{} {
	e, ok := c.entries[id]
	if !ok {
		return nil
	}
	newIndices := map[uint64]struct{}{}
	for _, p := range parts {
		if _, exists := e.Parts[p.PartIndex]; !exists {
			newIndices[p.PartIndex] = struct{}{}
		}
		e.Parts[p.PartIndex] = p
	}
	for _, r := range receipts {
		e.Receipts[r.ToShard] = r
	}
	return newIndices
}

func (c *ChunkCache) MarkValidated(id chunkstypes.ChunkID) {
	if e, ok := c.entries[id]; ok {
		e.HeaderFullyValidated = true
	}
}

func (c *ChunkCache) MarkComplete(id chunkstypes.ChunkID) {
	if e, ok := c.entries[id]; ok {
		e.Complete = true
	}
}

// MarkForInclusion returns true iff this call newly set MarkedForInclusion
// (i.e. it was false before), so the Processor can emit
// ChunkHeaderReadyForInclusion exactly once per chunk (spec.md §9
// "Completion ordering", scenario S7).
func (c *ChunkCache) MarkForInclusion(id chunkstypes.ChunkID) bool {
	e, ok := c.entries[id]
	if !ok {
		return false
	}
	if e.MarkedForInclusion {
		return false
	}
	e.MarkedForInclusion = true
	return true
}

// IncompleteChunksByPrev returns every incomplete chunk id whose header's
// PrevBlockHash is prevHash, used by CheckIncompleteChunks (spec.md §6).
func (c *ChunkCache) IncompleteChunksByPrev(prevHash chunkstypes.BlockHash) []chunkstypes.ChunkID {
	var out []chunkstypes.ChunkID
	for id := range c.byPrevHash[prevHash] {
		if e, ok := c.entries[id]; ok && !e.Complete {
			out = append(out, id)
		}
	}
	return out
}

// HeightWithinHorizon reports whether height is within the retention
// window around the cached head height.
func (c *ChunkCache) HeightWithinHorizon(height uint64) bool {
	if height > c.headHeight {
		return true
	}
	return c.headHeight-height <= c.horizon
}

// ChunkHashByHeightShard looks up the chunk id already known at
// (height, shard), used for the duplicate-at-height check (spec.md §4.8
// step 3).
func (c *ChunkCache) ChunkHashByHeightShard(height uint64, shard chunkstypes.ShardID) (chunkstypes.ChunkID, bool) {
	id, ok := c.byHeight[heightShardKey{Height: height, Shard: shard}]
	return id, ok
}

// UpdateHorizon advances the cached head height and removes every entry
// whose HeightCreated lies more than the horizon below it, except entries
// still tracked by the Request Pool (spec.md §4.2).
func (c *ChunkCache) UpdateHorizon(headHeight uint64) {
	c.headHeight = headHeight
	for id, e := range c.entries {
		if e.Header.HeightCreated > headHeight {
			continue
		}
		if headHeight-e.Header.HeightCreated <= c.horizon {
			continue
		}
		if c.inPool != nil && c.inPool(id) {
			continue
		}
		c.remove(id)
	}
}

// Remove deletes id unconditionally, used when header validation or
// decoding fails hard. Entries that fall out of the retention horizon are
// dropped by UpdateHorizon through remove.
func (c *ChunkCache) Remove(id chunkstypes.ChunkID) { c.remove(id) }

func (c *ChunkCache) remove(id chunkstypes.ChunkID) {
	e, ok := c.entries[id]
	if !ok {
		return
	}
	delete(c.entries, id)
	key := heightShardKey{Height: e.Header.HeightCreated, Shard: e.Header.ShardID}
	if existing, ok := c.byHeight[key]; ok && existing == id {
		delete(c.byHeight, key)
	}
	if set, ok := c.byPrevHash[e.Header.PrevBlockHash]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(c.byPrevHash, e.Header.PrevBlockHash)
		}
	}
}

func (c *ChunkCache) Len() int { return len(c.entries) }
