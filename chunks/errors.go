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

import "github.com/cockroachdb/errors"

// Kind classifies an error along the lines of spec.md §7's taxonomy table,
// so the Processor can decide whether to purge state and propagate, retry
// softly, or just reject a message without touching the cache.
type Kind int

const (
	// KindUnknownChunk: header not in cache when required.
	KindUnknownChunk Kind = iota
	// KindAuthenticatedFailure: InvalidChunk*, DuplicateChunkHeight — fatal
	// for that chunk; purge cache & request-pool, propagate.
	KindAuthenticatedFailure
	// KindMessageRejected: InvalidMerkleProof, InvalidChunkPartID,
	// InvalidPartMessage, InvalidReceiptsProof — reject the message, no
	// cache mutation.
	KindMessageRejected
	// KindSoftChainStateMissing: epoch id / previous block not resolvable
	// yet — non-fatal, caller retries later.
	KindSoftChainStateMissing
	// KindEncodingFailure: arithmetic/encoding failure during response
	// building — log and emit an empty response.
	KindEncodingFailure
)

// chunkError pairs a sentinel with its Kind so errors.As can recover the
// classification after wrapping.
type chunkError struct {
	kind Kind
	err  error
}

func (e *chunkError) Error() string { return e.err.Error() }
func (e *chunkError) Unwrap() error { return e.err }
func (e *chunkError) Kind() Kind    { return e.kind }

func newErr(kind Kind, msg string) *chunkError {
	return &chunkError{kind: kind, err: errors.New(msg)}
}

// ErrorKind extracts the Kind from err, defaulting to
// KindAuthenticatedFailure (the conservative, purge-and-propagate choice)
// if err was not produced by this package.
func ErrorKind(err error) Kind {
	var ce *chunkError
	if errors.As(err, &ce) {
		return ce.kind
	}
	return KindAuthenticatedFailure
}

var (
	ErrUnknownChunk          = newErr(KindUnknownChunk, "chunks: unknown chunk")
	ErrInvalidChunk          = newErr(KindAuthenticatedFailure, "chunks: invalid chunk")
	ErrInvalidChunkHeader    = newErr(KindAuthenticatedFailure, "chunks: invalid chunk header")
	ErrInvalidChunkSignature = newErr(KindAuthenticatedFailure, "chunks: invalid chunk signature")
	ErrInvalidChunkShardID   = newErr(KindAuthenticatedFailure, "chunks: invalid chunk shard id")
	ErrInvalidChunkHeight    = newErr(KindAuthenticatedFailure, "chunks: invalid chunk height")
	ErrDuplicateChunkHeight  = newErr(KindAuthenticatedFailure, "chunks: duplicate chunk height")

	ErrInvalidMerkleProof   = newErr(KindMessageRejected, "chunks: invalid merkle proof")
	ErrInvalidChunkPartID   = newErr(KindMessageRejected, "chunks: invalid chunk part id")
	ErrInvalidPartMessage   = newErr(KindMessageRejected, "chunks: invalid part message")
	ErrInvalidReceiptsProof = newErr(KindMessageRejected, "chunks: invalid receipts proof")

	ErrChainStateMissing = newErr(KindSoftChainStateMissing, "chunks: chain state missing")

	ErrEncodingFailure = newErr(KindEncodingFailure, "chunks: encoding failure")
)
