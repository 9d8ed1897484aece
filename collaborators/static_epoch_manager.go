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

package collaborators

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/shardcore/chunks/chunkstypes"
)

// StaticEpochManager is a single-epoch EpochManager backed by real
// secp256k1 keys: every validator is assigned part ownership and block
// production round-robin, and signatures are verified for real rather
// than stubbed. It is used by the CLI demo (cmd/shardchunksd).
type StaticEpochManager struct {
	Epoch      chunkstypes.EpochID
	NextEpoch  chunkstypes.EpochID
	Shards     []chunkstypes.ShardID
	NumParts   int
	Validators []*btcec.PublicKey
}

func (s *StaticEpochManager) accountID(i int) chunkstypes.AccountID {
	return AccountIDFromPubKey(s.Validators[i%len(s.Validators)])
}

func (s *StaticEpochManager) EpochID(blockHash chunkstypes.BlockHash) (chunkstypes.EpochID, error) {
	return s.Epoch, nil
}

func (s *StaticEpochManager) NextEpochID(epoch chunkstypes.EpochID) (chunkstypes.EpochID, error) {
	return s.NextEpoch, nil
}

func (s *StaticEpochManager) ChunkProducer(epoch chunkstypes.EpochID, height uint64, shard chunkstypes.ShardID) (chunkstypes.AccountID, error) {
	return s.accountID(int(height) + int(shard)), nil
}

func (s *StaticEpochManager) NextChunkProducer(epoch chunkstypes.EpochID, shard chunkstypes.ShardID) (chunkstypes.AccountID, error) {
	return s.accountID(int(shard) + 1), nil
}

func (s *StaticEpochManager) PartOwner(epoch chunkstypes.EpochID, partIndex uint64) (chunkstypes.AccountID, error) {
	return s.accountID(int(partIndex)), nil
}

func (s *StaticEpochManager) BlockProducers(epoch chunkstypes.EpochID) ([]chunkstypes.AccountID, error) {
	out := make([]chunkstypes.AccountID, len(s.Validators))
	for i := range s.Validators {
		out[i] = s.accountID(i)
	}
	return out, nil
}

func (s *StaticEpochManager) ShardLayout(epoch chunkstypes.EpochID) ([]chunkstypes.ShardID, error) {
	return append([]chunkstypes.ShardID(nil), s.Shards...), nil
}

func (s *StaticEpochManager) VerifyProducerSignature(epoch chunkstypes.EpochID, header *chunkstypes.ChunkHeader) error {
	producer, err := s.ChunkProducer(epoch, header.HeightCreated, header.ShardID)
	if err != nil {
		return err
	}
	if producer != header.ProducerID {
		return &ErrChainStateMissing{Reason: "producer mismatch"}
	}
	for _, v := range s.Validators {
		if AccountIDFromPubKey(v) == header.ProducerID {
			if !VerifySignature(v, header.CanonicalBytes(), header.Signature) {
				return &invalidSignatureError{}
			}
			return nil
		}
	}
	return &invalidSignatureError{}
}

func (s *StaticEpochManager) IsValidator(epoch chunkstypes.EpochID, me chunkstypes.AccountID) (bool, error) {
	for _, v := range s.Validators {
		if AccountIDFromPubKey(v) == me {
			return true, nil
		}
	}
	return false, nil
}

type invalidSignatureError struct{}

func (e *invalidSignatureError) Error() string { return "invalid producer signature" }
