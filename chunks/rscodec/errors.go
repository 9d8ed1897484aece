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

import "github.com/cockroachdb/errors"

// errInvalidShardConfig is a configuration error: arithmetic limits on D/N
// were violated by the caller, not by network input.
var errInvalidShardConfig = errors.New("rscodec: invalid shard configuration")
var errEncodeFailed = errors.New("rscodec: encode failed")

// ErrInvalidMerkleProof and ErrInvalidChunkPartID are returned to callers
// verifying untrusted parts; see mapPartError in chunks/processor.go for how the Processor
// maps these onto the spec's error taxonomy.
var (
	errInvalidMerkleProof   = errors.New("rscodec: invalid merkle proof")
	errInvalidChunkPartID   = errors.New("rscodec: invalid chunk part id")
	errInvalidReceiptsProof = errors.New("rscodec: invalid receipts proof")
	ErrInvalidMerkleProof   = errInvalidMerkleProof
	ErrInvalidChunkPartID   = errInvalidChunkPartID
	ErrInvalidReceiptsProof = errInvalidReceiptsProof
)
