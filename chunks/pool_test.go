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
	"time"

	"github.com/shardcore/chunks/chunkstypes"
	"github.com/stretchr/testify/require"
)

func TestRequestPool_InsertContainsRemove(t *testing.T) {
	p := NewRequestPool()
	id := chunkstypes.ChunkID{1}
	require.False(t, p.Contains(id))

	p.Insert(id, &RequestInfo{Height: 10, AddedAt: time.Now()})
	require.True(t, p.Contains(id))
	require.Equal(t, 1, p.Len())

	info, ok := p.Get(id)
	require.True(t, ok)
	require.Equal(t, uint64(10), info.Height)

	p.Remove(id)
	require.False(t, p.Contains(id))
	require.Equal(t, 0, p.Len())
}

func TestRequestPool_Due_RetryIntervalAndWindow(t *testing.T) {
	p := NewRequestPool()
	start := time.Now()

	fresh := chunkstypes.ChunkID{1}
	p.Insert(fresh, &RequestInfo{AddedAt: start, LastSentAt: start})

	stale := chunkstypes.ChunkID{2}
	p.Insert(stale, &RequestInfo{AddedAt: start.Add(-time.Second), LastSentAt: start.Add(-time.Second)})

	expired := chunkstypes.ChunkID{3}
	p.Insert(expired, &RequestInfo{AddedAt: start.Add(-time.Hour), LastSentAt: start.Add(-time.Hour)})

	now := start.Add(100 * time.Millisecond)
	due := p.Due(now, 500*time.Millisecond, 30*time.Minute)

	var seen []chunkstypes.ChunkID
	for _, d := range due {
		seen = append(seen, d.ChunkID)
	}
	require.Contains(t, seen, stale)
	require.NotContains(t, seen, fresh)
	require.NotContains(t, seen, expired)
	require.False(t, p.Contains(expired), "entries past max_total_window are dropped, not returned")

	info, ok := p.Get(stale)
	require.True(t, ok)
	require.True(t, info.LastSentAt.Equal(now), "Due must stamp LastSentAt for every entry it returns")
}
