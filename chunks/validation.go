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

// MinSupportedProtocolVersion and MaxSupportedProtocolVersion bound the
// protocol-version compatibility check in validateHeader (spec.md §4.7).
const (
	MinSupportedProtocolVersion = 1
	MaxSupportedProtocolVersion = 1
)

// epochResolution carries the result of resolving an epoch id for header
// validation, per spec.md §4.7's ordered fallback chain.
type epochResolution struct {
	epoch     chunkstypes.EpochID
	confirmed bool
}

// resolveEpochForValidation implements the three-step fallback: the
// previous block's epoch if accepted, else the request-pool entry's
// ancestor epoch if one exists, else the cached head's epoch (marked
// unconfirmed).
func resolveEpochForValidation(em collaborators.EpochManager, prevBlockHash chunkstypes.BlockHash, ancestorHash *chunkstypes.BlockHash, headLastBlockHash chunkstypes.BlockHash) (epochResolution, error) {
	if epoch, err := em.EpochID(prevBlockHash); err == nil {
		return epochResolution{epoch: epoch, confirmed: true}, nil
	} else if !isSoftErr(err) {
		return epochResolution{}, err
	}

	if ancestorHash != nil {
		if epoch, err := em.EpochID(*ancestorHash); err == nil {
			return epochResolution{epoch: epoch, confirmed: true}, nil
		} else if !isSoftErr(err) {
			return epochResolution{}, err
		}
	}

	epoch, err := em.EpochID(headLastBlockHash)
	if err != nil {
		return epochResolution{}, ErrChainStateMissing
	}
	return epochResolution{epoch: epoch, confirmed: false}, nil
}

func isSoftErr(err error) bool {
	_, ok := err.(*collaborators.ErrChainStateMissing)
	return ok
}

// validateHeader runs the partial-or-full header check of spec.md §4.7.
// When epochConfirmed is false, any authenticated failure degrades to the
// soft ErrChainStateMissing ("retry once we have more chain state")
// instead of a hard rejection.
func validateHeader(em collaborators.EpochManager, header *chunkstypes.ChunkHeader, res epochResolution) error {
	if header.ProtocolVersion < MinSupportedProtocolVersion || header.ProtocolVersion > MaxSupportedProtocolVersion {
		if !res.confirmed {
			return ErrChainStateMissing
		}
		return ErrInvalidChunkHeader
	}

	layout, err := em.ShardLayout(res.epoch)
	if err != nil {
		if isSoftErr(err) {
			return ErrChainStateMissing
		}
		return err
	}
	found := false
	for _, s := range layout {
		if s == header.ShardID {
			found = true
			break
		}
	}
	if !found {
		if !res.confirmed {
			return ErrChainStateMissing
		}
		return ErrInvalidChunkShardID
	}

	if err := em.VerifyProducerSignature(res.epoch, header); err != nil {
		if isSoftErr(err) {
			return ErrChainStateMissing
		}
		if !res.confirmed {
			return ErrChainStateMissing
		}
		return ErrInvalidChunkSignature
	}
	return nil
}
