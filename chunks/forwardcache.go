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
	lru "github.com/hashicorp/golang-lru"
	"github.com/shardcore/chunks/chunkstypes"
)

// ForwardCache holds parts that arrived before the header that would
// validate them, bounded by a fixed number of chunk ids with LRU eviction
// (spec.md §3 "Forward-cache entry", §5 "CHUNK_FORWARD_CACHE_SIZE"). Its
// contents are untrusted until the matching header arrives; it is never
// persisted.
type ForwardCache struct {
	lru     *lru.Cache
	onEvict func()
}

// NewForwardCache builds a forward cache of the given capacity. onEvict, if
// non-nil, is called once per eviction for metrics.
func NewForwardCache(size int, onEvict func()) *ForwardCache {
	fc := &ForwardCache{onEvict: onEvict}
	cache, _ := lru.NewWithEvict(size, func(key, value interface{}) {
		if fc.onEvict != nil {
			fc.onEvict()
		}
	})
	fc.lru = cache
	return fc
}

// Add merges part into the entry for id, creating it if absent.
func (fc *ForwardCache) Add(id chunkstypes.ChunkID, part chunkstypes.Part) {
	var parts map[uint64]chunkstypes.Part
	if v, ok := fc.lru.Get(id); ok {
		parts = v.(map[uint64]chunkstypes.Part)
	} else {
		parts = map[uint64]chunkstypes.Part{}
	}
	parts[part.PartIndex] = part
	fc.lru.Add(id, parts)
}

// PopAll removes and returns every part cached for id, or nil if none.
func (fc *ForwardCache) PopAll(id chunkstypes.ChunkID) []chunkstypes.Part {
	v, ok := fc.lru.Get(id)
	if !ok {
		return nil
	}
	// lru.Remove fires the eviction callback; a pop is not an eviction.
	onEvict := fc.onEvict
	fc.onEvict = nil
	fc.lru.Remove(id)
	fc.onEvict = onEvict
	parts := v.(map[uint64]chunkstypes.Part)
	out := make([]chunkstypes.Part, 0, len(parts))
	for _, p := range parts {
		out = append(out, p)
	}
	return out
}

func (fc *ForwardCache) Len() int { return fc.lru.Len() }
