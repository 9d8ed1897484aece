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
	"sync"

	"github.com/shardcore/chunks/chunkstypes"
)

// MockEpochManager is an in-memory EpochManager for tests, modeled on the
// teacher's "Backend interface + fake implementation" pattern
// (eth/filters/test_backend.go, miner/test_backend.go).
type MockEpochManager struct {
	mu sync.Mutex

	BlockEpoch        map[chunkstypes.BlockHash]chunkstypes.EpochID
	NextEpoch         map[chunkstypes.EpochID]chunkstypes.EpochID
	Producers         map[producerKey]chunkstypes.AccountID
	NextProducers     map[nextProducerKey]chunkstypes.AccountID
	Owners            map[ownerKey]chunkstypes.AccountID
	BlockProducerSet  map[chunkstypes.EpochID][]chunkstypes.AccountID
	Layouts           map[chunkstypes.EpochID][]chunkstypes.ShardID
	Validators        map[chunkstypes.EpochID]map[chunkstypes.AccountID]bool
	SignatureError    error // if non-nil, VerifyProducerSignature always returns it
}

type producerKey struct {
	Epoch  chunkstypes.EpochID
	Height uint64
	Shard  chunkstypes.ShardID
}

type nextProducerKey struct {
	Epoch chunkstypes.EpochID
	Shard chunkstypes.ShardID
}

type ownerKey struct {
	Epoch chunkstypes.EpochID
	Part  uint64
}

func NewMockEpochManager() *MockEpochManager {
	return &MockEpochManager{
		BlockEpoch:       map[chunkstypes.BlockHash]chunkstypes.EpochID{},
		NextEpoch:        map[chunkstypes.EpochID]chunkstypes.EpochID{},
		Producers:        map[producerKey]chunkstypes.AccountID{},
		NextProducers:    map[nextProducerKey]chunkstypes.AccountID{},
		Owners:           map[ownerKey]chunkstypes.AccountID{},
		BlockProducerSet: map[chunkstypes.EpochID][]chunkstypes.AccountID{},
		Layouts:          map[chunkstypes.EpochID][]chunkstypes.ShardID{},
		Validators:       map[chunkstypes.EpochID]map[chunkstypes.AccountID]bool{},
	}
}

func (m *MockEpochManager) EpochID(blockHash chunkstypes.BlockHash) (chunkstypes.EpochID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.BlockEpoch[blockHash]
	if !ok {
		return chunkstypes.EpochID{}, &ErrChainStateMissing{Reason: "block not known"}
	}
	return e, nil
}

func (m *MockEpochManager) NextEpochID(epoch chunkstypes.EpochID) (chunkstypes.EpochID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.NextEpoch[epoch]
	if !ok {
		return chunkstypes.EpochID{}, &ErrChainStateMissing{Reason: "next epoch not known"}
	}
	return e, nil
}

func (m *MockEpochManager) ChunkProducer(epoch chunkstypes.EpochID, height uint64, shard chunkstypes.ShardID) (chunkstypes.AccountID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Producers[producerKey{epoch, height, shard}]
	if !ok {
		return chunkstypes.AccountID{}, &ErrChainStateMissing{Reason: "producer not known"}
	}
	return p, nil
}

func (m *MockEpochManager) NextChunkProducer(epoch chunkstypes.EpochID, shard chunkstypes.ShardID) (chunkstypes.AccountID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.NextProducers[nextProducerKey{epoch, shard}]
	if !ok {
		return chunkstypes.AccountID{}, &ErrChainStateMissing{Reason: "next producer not known"}
	}
	return p, nil
}

func (m *MockEpochManager) PartOwner(epoch chunkstypes.EpochID, partIndex uint64) (chunkstypes.AccountID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.Owners[ownerKey{epoch, partIndex}]
	if !ok {
		return chunkstypes.AccountID{}, &ErrChainStateMissing{Reason: "owner not known"}
	}
	return o, nil
}

func (m *MockEpochManager) BlockProducers(epoch chunkstypes.EpochID) ([]chunkstypes.AccountID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]chunkstypes.AccountID(nil), m.BlockProducerSet[epoch]...), nil
}

func (m *MockEpochManager) ShardLayout(epoch chunkstypes.EpochID) ([]chunkstypes.ShardID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.Layouts[epoch]
	if !ok {
		return nil, &ErrChainStateMissing{Reason: "layout not known"}
	}
	return append([]chunkstypes.ShardID(nil), l...), nil
}

func (m *MockEpochManager) VerifyProducerSignature(epoch chunkstypes.EpochID, header *chunkstypes.ChunkHeader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SignatureError
}

func (m *MockEpochManager) IsValidator(epoch chunkstypes.EpochID, me chunkstypes.AccountID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.Validators[epoch]
	if !ok {
		return false, nil
	}
	return set[me], nil
}

// SetChunkProducer, SetNextChunkProducer and SetPartOwner populate the
// unexported-key maps above; callers outside this package have no other way
// to name producerKey/nextProducerKey/ownerKey.

func (m *MockEpochManager) SetChunkProducer(epoch chunkstypes.EpochID, height uint64, shard chunkstypes.ShardID, account chunkstypes.AccountID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Producers[producerKey{epoch, height, shard}] = account
}

func (m *MockEpochManager) SetNextChunkProducer(epoch chunkstypes.EpochID, shard chunkstypes.ShardID, account chunkstypes.AccountID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NextProducers[nextProducerKey{epoch, shard}] = account
}

func (m *MockEpochManager) SetPartOwner(epoch chunkstypes.EpochID, partIndex uint64, account chunkstypes.AccountID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Owners[ownerKey{epoch, partIndex}] = account
}

// MockShardTracker always answers the same boolean for every account and
// shard unless overridden per-shard or per-account; a per-account override
// takes priority, since tracking status is fundamentally a per-account
// question (one validator's tracking status says nothing about another's).
type MockShardTracker struct {
	mu         sync.Mutex
	Default    bool
	PerShard   map[chunkstypes.ShardID]bool
	PerAccount map[chunkstypes.AccountID]bool
}

func NewMockShardTracker(def bool) *MockShardTracker {
	return &MockShardTracker{
		Default:    def,
		PerShard:   map[chunkstypes.ShardID]bool{},
		PerAccount: map[chunkstypes.AccountID]bool{},
	}
}

func (t *MockShardTracker) Cares(account chunkstypes.AccountID, ancestorHash chunkstypes.BlockHash, shard chunkstypes.ShardID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.PerAccount[account]; ok {
		return v
	}
	if v, ok := t.PerShard[shard]; ok {
		return v
	}
	return t.Default
}

// MockStore is an in-memory Store.
type MockStore struct {
	mu       sync.Mutex
	partials map[chunkstypes.ChunkID]*chunkstypes.PartialChunk
	shards   map[chunkstypes.ChunkID]*chunkstypes.ShardChunk
}

func NewMockStore() *MockStore {
	return &MockStore{
		partials: map[chunkstypes.ChunkID]*chunkstypes.PartialChunk{},
		shards:   map[chunkstypes.ChunkID]*chunkstypes.ShardChunk{},
	}
}

func (s *MockStore) GetPartialChunk(id chunkstypes.ChunkID) (*chunkstypes.PartialChunk, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partials[id]
	return p, ok, nil
}

func (s *MockStore) PutPartialChunk(id chunkstypes.ChunkID, p *chunkstypes.PartialChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partials[id] = p
	return nil
}

func (s *MockStore) GetShardChunk(id chunkstypes.ChunkID) (*chunkstypes.ShardChunk, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.shards[id]
	return c, ok, nil
}

func (s *MockStore) PutShardChunk(id chunkstypes.ChunkID, c *chunkstypes.ShardChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shards[id] = c
	return nil
}

// RecordingNetwork captures every outbound message for assertions, the
// same "recording adapter" pattern DESIGN NOTES §9 of spec.md calls for.
type RecordingNetwork struct {
	mu        sync.Mutex
	Requests  []struct {
		Target Target
		Req    PartialChunkRequest
	}
	Responses []struct {
		Route RouteToken
		Resp  PartialChunkResponse
	}
	Messages []struct {
		Account chunkstypes.AccountID
		Msg     PartialChunkMessage
	}
	Forwards []struct {
		Account chunkstypes.AccountID
		Fwd     PartialChunkForward
	}
}

func NewRecordingNetwork() *RecordingNetwork { return &RecordingNetwork{} }

func (n *RecordingNetwork) SendPartialChunkRequest(target Target, req PartialChunkRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Requests = append(n.Requests, struct {
		Target Target
		Req    PartialChunkRequest
	}{target, req})
}

func (n *RecordingNetwork) SendPartialChunkResponse(routeBack RouteToken, resp PartialChunkResponse) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Responses = append(n.Responses, struct {
		Route RouteToken
		Resp  PartialChunkResponse
	}{routeBack, resp})
}

func (n *RecordingNetwork) SendPartialChunkMessage(account chunkstypes.AccountID, msg PartialChunkMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, struct {
		Account chunkstypes.AccountID
		Msg     PartialChunkMessage
	}{account, msg})
}

func (n *RecordingNetwork) SendPartialChunkForward(account chunkstypes.AccountID, fwd PartialChunkForward) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Forwards = append(n.Forwards, struct {
		Account chunkstypes.AccountID
		Fwd     PartialChunkForward
	}{account, fwd})
}

func (n *RecordingNetwork) Snapshot() (reqs int, resps int, msgs int, fwds int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Requests), len(n.Responses), len(n.Messages), len(n.Forwards)
}

// RecordingClient captures every emitted client event.
type RecordingClient struct {
	mu        sync.Mutex
	Completed []struct {
		Partial *chunkstypes.PartialChunk
		Shard   *chunkstypes.ShardChunk
	}
	ReadyForInclusion []struct {
		Header   chunkstypes.ChunkHeader
		Producer chunkstypes.AccountID
	}
	Invalid []chunkstypes.ChunkHeader
}

func NewRecordingClient() *RecordingClient { return &RecordingClient{} }

func (c *RecordingClient) ChunkCompleted(partial *chunkstypes.PartialChunk, shard *chunkstypes.ShardChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Completed = append(c.Completed, struct {
		Partial *chunkstypes.PartialChunk
		Shard   *chunkstypes.ShardChunk
	}{partial, shard})
}

func (c *RecordingClient) ChunkHeaderReadyForInclusion(header chunkstypes.ChunkHeader, producer chunkstypes.AccountID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ReadyForInclusion = append(c.ReadyForInclusion, struct {
		Header   chunkstypes.ChunkHeader
		Producer chunkstypes.AccountID
	}{header, producer})
}

func (c *RecordingClient) InvalidChunk(header chunkstypes.ChunkHeader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Invalid = append(c.Invalid, header)
}

func (c *RecordingClient) CompletedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Completed)
}

func (c *RecordingClient) ReadyForInclusionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ReadyForInclusion)
}
