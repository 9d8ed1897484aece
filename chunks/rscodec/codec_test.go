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

package rscodec

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	c, err := New(3, 6)
	require.NoError(t, err)

	payload := make([]byte, 257)
	rand.New(rand.NewSource(1)).Read(payload)

	parts, root, err := c.Encode(payload)
	require.NoError(t, err)
	require.Len(t, parts, 6)

	for _, p := range parts {
		require.NoError(t, c.VerifyPart(root, p))
	}

	known := map[uint64][]byte{
		parts[1].PartIndex: parts[1].Payload,
		parts[3].PartIndex: parts[3].Payload,
		parts[5].PartIndex: parts[5].Payload,
	}
	decoded, proofs, outcome := c.Decode(known, uint64(len(payload)), root)
	require.Equal(t, DecodeComplete, outcome)
	require.True(t, bytes.Equal(decoded, payload))
	require.Len(t, proofs, 6)
}

func TestDecodeIncomplete(t *testing.T) {
	c, err := New(4, 8)
	require.NoError(t, err)
	payload := []byte("hello world, this is a chunk payload")
	parts, root, err := c.Encode(payload)
	require.NoError(t, err)

	known := map[uint64][]byte{
		parts[0].PartIndex: parts[0].Payload,
		parts[1].PartIndex: parts[1].Payload,
	}
	_, _, outcome := c.Decode(known, uint64(len(payload)), root)
	require.Equal(t, DecodeIncomplete, outcome)
}

func TestDecodeInvalidRootMismatch(t *testing.T) {
	c, err := New(3, 6)
	require.NoError(t, err)
	payload := []byte("another chunk payload for testing purposes here")
	parts, root, err := c.Encode(payload)
	require.NoError(t, err)

	corrupted := map[uint64][]byte{
		parts[0].PartIndex: append([]byte(nil), parts[0].Payload...),
		parts[1].PartIndex: parts[1].Payload,
		parts[2].PartIndex: parts[2].Payload,
	}
	corrupted[parts[0].PartIndex][0] ^= 0xFF

	_, _, outcome := c.Decode(corrupted, uint64(len(payload)), root)
	require.Equal(t, DecodeInvalid, outcome)
}

func TestVerifyPartInvalidIndex(t *testing.T) {
	c, err := New(3, 6)
	require.NoError(t, err)
	payload := []byte("payload")
	parts, root, err := c.Encode(payload)
	require.NoError(t, err)

	bad := parts[0]
	bad.PartIndex = 6 // == N, out of range
	err = c.VerifyPart(root, bad)
	require.ErrorIs(t, err, ErrInvalidChunkPartID)
}

func TestVerifyPartInvalidProof(t *testing.T) {
	c, err := New(3, 6)
	require.NoError(t, err)
	payload := []byte("payload for a merkle proof mismatch test case")
	parts, root, err := c.Encode(payload)
	require.NoError(t, err)

	bad := parts[0]
	bad.Payload = append([]byte(nil), bad.Payload...)
	bad.Payload[0] ^= 0x01
	err = c.VerifyPart(root, bad)
	require.ErrorIs(t, err, ErrInvalidMerkleProof)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(0, 6)
	require.Error(t, err)
	_, err = New(4, 4)
	require.Error(t, err)
}
