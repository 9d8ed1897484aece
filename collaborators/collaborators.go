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

// Package collaborators declares the external interfaces the chunk
// distribution engine consumes: the epoch manager, the shard tracker, the
// persistent store, the network adapter, and the client sink. None of
// these may call back into the engine synchronously; they are reached
// through plain interface calls from within the engine's own goroutine,
// or via the Network/Client interfaces' one-way sends.
package collaborators

import (
	"github.com/shardcore/chunks/chunkstypes"
)

// ErrChainStateMissing is the soft, non-fatal signal that a collaborator
// cannot yet answer a query because prerequisite chain state (the
// previous block, an epoch assignment) has not arrived. Callers surface
// it as spec.md's "chain-state missing" soft error rather than a hard
// validation failure.
type ErrChainStateMissing struct{ Reason string }

func (e *ErrChainStateMissing) Error() string { return "chain state missing: " + e.Reason }

// EpochManager answers identity and assignment questions scoped to an
// epoch: who produces a chunk, who owns a part, who the block producers
// are, and the shard layout.
type EpochManager interface {
	// EpochID resolves the epoch a block or header hash belongs to.
	// Returns ErrChainStateMissing if blockHash is not yet known.
	EpochID(blockHash chunkstypes.BlockHash) (chunkstypes.EpochID, error)

	// NextEpochID returns the epoch that follows epoch.
	NextEpochID(epoch chunkstypes.EpochID) (chunkstypes.EpochID, error)

	// ChunkProducer returns the account responsible for producing the
	// chunk at (height, shard) in epoch.
	ChunkProducer(epoch chunkstypes.EpochID, height uint64, shard chunkstypes.ShardID) (chunkstypes.AccountID, error)

	// NextChunkProducer returns the account responsible for producing the
	// next chunk for shard, used by the forwarder (§4.6) and the
	// wait-for-forwards heuristic (§4.4).
	NextChunkProducer(epoch chunkstypes.EpochID, shard chunkstypes.ShardID) (chunkstypes.AccountID, error)

	// PartOwner returns the account that owns part index i in epoch.
	PartOwner(epoch chunkstypes.EpochID, partIndex uint64) (chunkstypes.AccountID, error)

	// BlockProducers returns every block producer account in epoch.
	BlockProducers(epoch chunkstypes.EpochID) ([]chunkstypes.AccountID, error)

	// ShardLayout returns the set of shard ids valid in epoch.
	ShardLayout(epoch chunkstypes.EpochID) ([]chunkstypes.ShardID, error)

	// VerifyProducerSignature checks header's signature against the
	// chunk producer assignment for epoch. Returns an error classified
	// per chunks' error taxonomy (invalid signature vs. invalid shard).
	VerifyProducerSignature(epoch chunkstypes.EpochID, header *chunkstypes.ChunkHeader) error

	// IsValidator reports whether me is a validator in epoch.
	IsValidator(epoch chunkstypes.EpochID, me chunkstypes.AccountID) (bool, error)
}

// ShardTracker answers "does account X care about shard S near block B?",
// mirroring the original's cares_about_shard_this_or_next_epoch_for_account_id
// — tracking status is always asked of a specific account, never assumed to
// be the same for every account, since part ownership and shard tracking
// are assigned independently.
type ShardTracker interface {
	Cares(account chunkstypes.AccountID, ancestorHash chunkstypes.BlockHash, shard chunkstypes.ShardID) bool
}

// Store is the persistent key-value collaborator: partial-chunk and
// full-chunk columns, written once and read on the Response Builder's
// fallback path.
type Store interface {
	GetPartialChunk(id chunkstypes.ChunkID) (*chunkstypes.PartialChunk, bool, error)
	PutPartialChunk(id chunkstypes.ChunkID, p *chunkstypes.PartialChunk) error

	GetShardChunk(id chunkstypes.ChunkID) (*chunkstypes.ShardChunk, bool, error)
	PutShardChunk(id chunkstypes.ChunkID, c *chunkstypes.ShardChunk) error
}

// Target names where a request, forward, or response should be sent: a
// specific account id, or any peer tracking a shard at or above a minimum
// height.
type Target struct {
	Account    *chunkstypes.AccountID // nil means "any peer tracking the shard"
	Shard      chunkstypes.ShardID
	MinHeight  uint64
	PreferPeer bool
}

// Network is the one-way, fire-and-forget outbound adapter. It never
// blocks the engine and never calls back into it synchronously.
type Network interface {
	SendPartialChunkRequest(target Target, req PartialChunkRequest)
	SendPartialChunkResponse(routeBack RouteToken, resp PartialChunkResponse)
	SendPartialChunkMessage(account chunkstypes.AccountID, msg PartialChunkMessage)
	SendPartialChunkForward(account chunkstypes.AccountID, fwd PartialChunkForward)
}

// RouteToken opaquely identifies how to route a response back to the peer
// that made the request; the engine never inspects it.
type RouteToken struct{ Opaque []byte }

// PartialChunkRequest/-Response/-Message/-Forward are the wire message
// bodies enumerated in spec.md §6.
type PartialChunkRequest struct {
	ChunkID       chunkstypes.ChunkID
	PartIndices   []uint64
	ReceiptShards []chunkstypes.ShardID
}

type PartialChunkResponse struct {
	ChunkID  chunkstypes.ChunkID
	Parts    []chunkstypes.Part
	Receipts []chunkstypes.ReceiptProof
}

type PartialChunkMessage struct {
	Header   chunkstypes.ChunkHeader
	Parts    []chunkstypes.Part
	Receipts []chunkstypes.ReceiptProof
}

type PartialChunkForward struct {
	ChunkID           chunkstypes.ChunkID
	HeightCreated     uint64
	ShardID           chunkstypes.ShardID
	PrevBlockHash     chunkstypes.BlockHash
	EncodedMerkleRoot chunkstypes.Hash
	ProducerSignature []byte
	ProducerID        chunkstypes.AccountID
	Parts             []chunkstypes.Part
}

// Client is the one-way sink for events the rest of the node consumes.
type Client interface {
	ChunkCompleted(partial *chunkstypes.PartialChunk, shard *chunkstypes.ShardChunk)
	ChunkHeaderReadyForInclusion(header chunkstypes.ChunkHeader, producer chunkstypes.AccountID)
	InvalidChunk(header chunkstypes.ChunkHeader)
}
