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

func testEpoch(b byte) chunkstypes.EpochID {
	var e chunkstypes.EpochID
	e[0] = b
	return e
}

func testBlockHash(b byte) chunkstypes.BlockHash {
	var h chunkstypes.BlockHash
	h[0] = b
	return h
}

func TestResolveEpochForValidation_PrevBlockKnown(t *testing.T) {
	em := collaborators.NewMockEpochManager()
	prev := testBlockHash(1)
	em.BlockEpoch[prev] = testEpoch(9)

	res, err := resolveEpochForValidation(em, prev, nil, testBlockHash(0))
	require.NoError(t, err)
	require.Equal(t, testEpoch(9), res.epoch)
	require.True(t, res.confirmed)
}

func TestResolveEpochForValidation_FallsBackToAncestor(t *testing.T) {
	em := collaborators.NewMockEpochManager()
	ancestor := testBlockHash(2)
	em.BlockEpoch[ancestor] = testEpoch(7)

	res, err := resolveEpochForValidation(em, testBlockHash(1), &ancestor, testBlockHash(0))
	require.NoError(t, err)
	require.Equal(t, testEpoch(7), res.epoch)
	require.True(t, res.confirmed)
}

func TestResolveEpochForValidation_FallsBackToHead(t *testing.T) {
	em := collaborators.NewMockEpochManager()
	head := testBlockHash(3)
	em.BlockEpoch[head] = testEpoch(5)

	res, err := resolveEpochForValidation(em, testBlockHash(1), nil, head)
	require.NoError(t, err)
	require.Equal(t, testEpoch(5), res.epoch)
	require.False(t, res.confirmed)
}

func TestResolveEpochForValidation_NothingKnown(t *testing.T) {
	em := collaborators.NewMockEpochManager()
	_, err := resolveEpochForValidation(em, testBlockHash(1), nil, testBlockHash(2))
	require.ErrorIs(t, err, ErrChainStateMissing)
}

func validHeaderFixture(epoch chunkstypes.EpochID, shard chunkstypes.ShardID) (*chunkstypes.ChunkHeader, *collaborators.MockEpochManager) {
	em := collaborators.NewMockEpochManager()
	em.Layouts[epoch] = []chunkstypes.ShardID{shard}
	return &chunkstypes.ChunkHeader{
		ProtocolVersion: 1,
		ShardID:         shard,
	}, em
}

func TestValidateHeader_Confirmed_Valid(t *testing.T) {
	header, em := validHeaderFixture(testEpoch(1), 3)
	err := validateHeader(em, header, epochResolution{epoch: testEpoch(1), confirmed: true})
	require.NoError(t, err)
}

func TestValidateHeader_Confirmed_BadShard_IsHardFailure(t *testing.T) {
	header, em := validHeaderFixture(testEpoch(1), 3)
	header.ShardID = 99
	err := validateHeader(em, header, epochResolution{epoch: testEpoch(1), confirmed: true})
	require.ErrorIs(t, err, ErrInvalidChunkShardID)
}

func TestValidateHeader_Confirmed_BadSignature_IsHardFailure(t *testing.T) {
	header, em := validHeaderFixture(testEpoch(1), 3)
	em.SignatureError = errInvalidSigForTest{}
	err := validateHeader(em, header, epochResolution{epoch: testEpoch(1), confirmed: true})
	require.ErrorIs(t, err, ErrInvalidChunkSignature)
}

func TestValidateHeader_Unconfirmed_BadShard_IsSoftFailure(t *testing.T) {
	header, em := validHeaderFixture(testEpoch(1), 3)
	header.ShardID = 99
	err := validateHeader(em, header, epochResolution{epoch: testEpoch(1), confirmed: false})
	require.ErrorIs(t, err, ErrChainStateMissing)
}

func TestValidateHeader_Unconfirmed_BadSignature_IsSoftFailure(t *testing.T) {
	header, em := validHeaderFixture(testEpoch(1), 3)
	em.SignatureError = errInvalidSigForTest{}
	err := validateHeader(em, header, epochResolution{epoch: testEpoch(1), confirmed: false})
	require.ErrorIs(t, err, ErrChainStateMissing)
}

func TestValidateHeader_UnsupportedProtocolVersion(t *testing.T) {
	header, em := validHeaderFixture(testEpoch(1), 3)
	header.ProtocolVersion = 99
	err := validateHeader(em, header, epochResolution{epoch: testEpoch(1), confirmed: true})
	require.ErrorIs(t, err, ErrInvalidChunkHeader)
}

func TestValidateHeader_LayoutUnknown_IsSoftFailure(t *testing.T) {
	em := collaborators.NewMockEpochManager()
	header := &chunkstypes.ChunkHeader{ProtocolVersion: 1, ShardID: 3}
	err := validateHeader(em, header, epochResolution{epoch: testEpoch(1), confirmed: true})
	require.ErrorIs(t, err, ErrChainStateMissing)
}

type errInvalidSigForTest struct{}

func (errInvalidSigForTest) Error() string { return "invalid signature" }
