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
	"time"

	"github.com/shardcore/chunks/chunkstypes"
)

// RequestInfo is the Request Pool's record for one pending chunk, per
// spec.md §3 "Request info".
type RequestInfo struct {
	Height        uint64
	AncestorHash  chunkstypes.BlockHash
	PrevBlockHash chunkstypes.BlockHash
	Shard         chunkstypes.ShardID
	AddedAt       time.Time
	LastSentAt    time.Time
}

// RequestPool maps chunk ids to pending request metadata and drives
// retries. It is exclusively owned by the Processor's goroutine; nothing
// else may touch requests.
type RequestPool struct {
	entries map[chunkstypes.ChunkID]*RequestInfo
}

func NewRequestPool() *RequestPool {
	return &RequestPool{entries: map[chunkstypes.ChunkID]*RequestInfo{}}
}

func (p *RequestPool) Contains(id chunkstypes.ChunkID) bool {
	_, ok := p.entries[id]
	return ok
}

func (p *RequestPool) Get(id chunkstypes.ChunkID) (*RequestInfo, bool) {
	info, ok := p.entries[id]
	return info, ok
}

func (p *RequestPool) Insert(id chunkstypes.ChunkID, info *RequestInfo) {
	p.entries[id] = info
}

func (p *RequestPool) Remove(id chunkstypes.ChunkID) {
	delete(p.entries, id)
}

func (p *RequestPool) Len() int { return len(p.entries) }

// DueEntry pairs a chunk id with its request info for due() results.
type DueEntry struct {
	ChunkID chunkstypes.ChunkID
	Info    RequestInfo
}

// Due scans every entry and returns those whose last send is at least
// retryInterval in the past, updating LastSentAt to now for each one
// returned. Entries older than maxTotalWindow since AddedAt are removed
// instead, without being returned, per spec.md §4.1.
func (p *RequestPool) Due(now time.Time, retryInterval, maxTotalWindow time.Duration) []DueEntry {
	var due []DueEntry
	for id, info := range p.entries {
		if now.Sub(info.AddedAt) >= maxTotalWindow {
			delete(p.entries, id)
			continue
		}
		if now.Sub(info.LastSentAt) >= retryInterval {
			info.LastSentAt = now
			due = append(due, DueEntry{ChunkID: id, Info: *info})
		}
	}
	return due
}
