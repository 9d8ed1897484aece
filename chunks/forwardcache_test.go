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

	"github.com/shardcore/chunks/chunkstypes"
	"github.com/stretchr/testify/require"
)

func TestForwardCache_AddAndPopAll(t *testing.T) {
	fc := NewForwardCache(4, nil)
	id := chunkstypes.ChunkID{1}

	require.Nil(t, fc.PopAll(id))

	fc.Add(id, chunkstypes.Part{PartIndex: 0, Payload: []byte("a")})
	fc.Add(id, chunkstypes.Part{PartIndex: 1, Payload: []byte("b")})
	require.Equal(t, 1, fc.Len())

	parts := fc.PopAll(id)
	require.Len(t, parts, 2)
	require.Nil(t, fc.PopAll(id), "PopAll must remove the entry it returns")
}

func TestForwardCache_EvictsLRUAndReportsIt(t *testing.T) {
	evictions := 0
	fc := NewForwardCache(1, func() { evictions++ })

	fc.Add(chunkstypes.ChunkID{1}, chunkstypes.Part{PartIndex: 0})
	fc.Add(chunkstypes.ChunkID{2}, chunkstypes.Part{PartIndex: 0})

	require.Equal(t, 1, evictions)
	require.Nil(t, fc.PopAll(chunkstypes.ChunkID{1}))
	require.NotNil(t, fc.PopAll(chunkstypes.ChunkID{2}))
}
