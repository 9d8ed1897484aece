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

	"github.com/shardcore/chunks/chunkstypes"
	"github.com/shardcore/chunks/collaborators"
)

func forwarderFixture(t *testing.T, cares bool) (*Forwarder, *collaborators.MockEpochManager, *collaborators.RecordingNetwork) {
	t.Helper()
	em := collaborators.NewMockEpochManager()
	st := collaborators.NewMockShardTracker(cares)
	net := collaborators.NewRecordingNetwork()
	return NewForwarder(em, st, net, nil), em, net
}

func TestForwarder_Forward_FansOutToBothEpochsAndNextChunkProducer(t *testing.T) {
	f, em, net := forwarderFixture(t, true)
	me := accountFixture(1)
	p1, p2, p3, nextProducer := accountFixture(2), accountFixture(3), accountFixture(4), accountFixture(5)
	curEpoch, nextEpoch := testEpoch(1), testEpoch(2)

	em.BlockProducerSet[curEpoch] = []chunkstypes.AccountID{p1, p2, me}
	em.BlockProducerSet[nextEpoch] = []chunkstypes.AccountID{p3}
	em.SetNextChunkProducer(curEpoch, 0, nextProducer)
	em.SetPartOwner(curEpoch, 0, me)

	header := chunkstypes.ChunkHeader{HeightCreated: 10, ShardID: 0}
	allParts := map[uint64]chunkstypes.Part{0: {PartIndex: 0, Payload: []byte("x")}}
	newParts := map[uint64]struct{}{0: {}}

	err := f.Forward(header, chunkstypes.BlockHash{}, newParts, allParts, curEpoch, nextEpoch, me)
	require.NoError(t, err)

	_, _, _, fwds := net.Snapshot()
	require.Equal(t, 4, fwds, "p1, p2, p3, and the next chunk producer, but not me")
	seen := map[chunkstypes.AccountID]bool{}
	for _, rec := range net.Forwards {
		seen[rec.Account] = true
		require.Len(t, rec.Fwd.Parts, 1)
	}
	require.True(t, seen[p1])
	require.True(t, seen[p2])
	require.True(t, seen[p3])
	require.True(t, seen[nextProducer])
	require.False(t, seen[me])
}

func TestForwarder_Forward_SkipsPartsNotOwnedByMe(t *testing.T) {
	f, em, net := forwarderFixture(t, true)
	me := accountFixture(1)
	other := accountFixture(9)
	curEpoch, nextEpoch := testEpoch(1), testEpoch(2)
	em.SetPartOwner(curEpoch, 0, other)
	em.BlockProducerSet[curEpoch] = []chunkstypes.AccountID{accountFixture(2)}

	header := chunkstypes.ChunkHeader{HeightCreated: 10, ShardID: 0}
	allParts := map[uint64]chunkstypes.Part{0: {PartIndex: 0}}
	newParts := map[uint64]struct{}{0: {}}

	err := f.Forward(header, chunkstypes.BlockHash{}, newParts, allParts, curEpoch, nextEpoch, me)
	require.NoError(t, err)
	_, _, _, fwds := net.Snapshot()
	require.Zero(t, fwds, "a part we don't own is never forwarded, even to interested recipients")
}

func TestForwarder_Forward_NoNewParts_NoOp(t *testing.T) {
	f, _, net := forwarderFixture(t, true)
	header := chunkstypes.ChunkHeader{HeightCreated: 10, ShardID: 0}

	err := f.Forward(header, chunkstypes.BlockHash{}, nil, nil, testEpoch(1), testEpoch(2), accountFixture(1))
	require.NoError(t, err)
	_, _, _, fwds := net.Snapshot()
	require.Zero(t, fwds)
}

func TestForwarder_Forward_OwnerNotTrackingShardStillForwardsToInterestedRecipients(t *testing.T) {
	f, em, net := forwarderFixture(t, false)
	me := accountFixture(1)
	recipient := accountFixture(2)
	curEpoch, nextEpoch := testEpoch(1), testEpoch(2)
	em.SetPartOwner(curEpoch, 0, me)
	em.BlockProducerSet[curEpoch] = []chunkstypes.AccountID{recipient}

	header := chunkstypes.ChunkHeader{HeightCreated: 10, ShardID: 0}
	allParts := map[uint64]chunkstypes.Part{0: {PartIndex: 0}}
	newParts := map[uint64]struct{}{0: {}}

	st := f.shardTracker.(*collaborators.MockShardTracker)
	st.PerAccount[recipient] = true

	err := f.Forward(header, chunkstypes.BlockHash{}, newParts, allParts, curEpoch, nextEpoch, me)
	require.NoError(t, err)
	_, _, _, fwds := net.Snapshot()
	require.Equal(t, 1, fwds, "the owner's own tracking status is irrelevant to whether an interested recipient gets the forward")
}

func TestForwarder_Forward_SkipsRecipientsNotTrackingShard(t *testing.T) {
	f, em, net := forwarderFixture(t, false)
	me := accountFixture(1)
	curEpoch, nextEpoch := testEpoch(1), testEpoch(2)
	em.SetPartOwner(curEpoch, 0, me)
	em.BlockProducerSet[curEpoch] = []chunkstypes.AccountID{accountFixture(2)}

	header := chunkstypes.ChunkHeader{HeightCreated: 10, ShardID: 0}
	allParts := map[uint64]chunkstypes.Part{0: {PartIndex: 0}}
	newParts := map[uint64]struct{}{0: {}}

	err := f.Forward(header, chunkstypes.BlockHash{}, newParts, allParts, curEpoch, nextEpoch, me)
	require.NoError(t, err)
	_, _, _, fwds := net.Snapshot()
	require.Zero(t, fwds, "a recipient not tracking the shard is never sent a forward")
}
