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
	"github.com/shardcore/chunks/collaborators"
)

// Forwarder implements spec.md §4.6: fan out newly-owned parts of a chunk
// to every block producer of the current and next epoch, plus the next
// chunk producer for the shard, deduplicated per invocation.
type Forwarder struct {
	epochManager collaborators.EpochManager
	shardTracker collaborators.ShardTracker
	network      collaborators.Network
	metrics      *engineMetrics
}

func NewForwarder(em collaborators.EpochManager, st collaborators.ShardTracker, net collaborators.Network, m *engineMetrics) *Forwarder {
	return &Forwarder{epochManager: em, shardTracker: st, network: net, metrics: m}
}

// Forward sends one PartialChunkForward per distinct recipient for the
// subset of newParts owned by me, to every recipient in
// block_producers(currentEpoch) ∪ block_producers(nextEpoch) ∪
// {next_chunk_producer(shard)} that is not me and tracks the shard.
func (f *Forwarder) Forward(header chunkstypes.ChunkHeader, ancestorHash chunkstypes.BlockHash, newParts map[uint64]struct{}, allParts map[uint64]chunkstypes.Part, currentEpoch, nextEpoch chunkstypes.EpochID, me chunkstypes.AccountID) error {
	if len(newParts) == 0 {
		return nil
	}

	var owned []chunkstypes.Part
	for idx := range newParts {
		owner, err := f.epochManager.PartOwner(currentEpoch, idx)
		if err != nil {
			return err
		}
		if owner != me {
			continue
		}
		owned = append(owned, allParts[idx])
	}
	if len(owned) == 0 {
		return nil
	}

	recipients := map[chunkstypes.AccountID]struct{}{}
	for _, epoch := range []chunkstypes.EpochID{currentEpoch, nextEpoch} {
		producers, err := f.epochManager.BlockProducers(epoch)
		if err != nil {
			continue
		}
		for _, p := range producers {
			recipients[p] = struct{}{}
		}
	}
	if next, err := f.epochManager.NextChunkProducer(currentEpoch, header.ShardID); err == nil {
		recipients[next] = struct{}{}
	}
	delete(recipients, me)

	fwd := collaborators.PartialChunkForward{
		ChunkID:           header.ID(),
		HeightCreated:     header.HeightCreated,
		ShardID:           header.ShardID,
		PrevBlockHash:     header.PrevBlockHash,
		EncodedMerkleRoot: header.EncodedMerkleRoot,
		ProducerSignature: header.Signature,
		ProducerID:        header.ProducerID,
		Parts:             owned,
	}

	for recipient := range recipients {
		if !f.shardTracker.Cares(recipient, ancestorHash, header.ShardID) {
			continue
		}
		f.network.SendPartialChunkForward(recipient, fwd)
		if f.metrics != nil {
			f.metrics.partsForwarded.Mark(int64(len(owned)))
		}
	}
	return nil
}
