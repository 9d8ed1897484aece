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
	"github.com/shardcore/chunks/internal/testrand"
)

// PlannerInput bundles the Request Planner's inputs (spec.md §4.4).
type PlannerInput struct {
	ChunkID                  chunkstypes.ChunkID
	Header                   chunkstypes.ChunkHeader
	AncestorHash             chunkstypes.BlockHash
	PrevBlockHash            chunkstypes.BlockHash
	ForceFull                bool
	RequestOwnPartsFromOther bool
	FetchFromArchival        bool
	Me                       chunkstypes.AccountID
}

// PlannedRequest is one (target, parts, receipt shards) bucket the planner
// produces, ready to hand to the network adapter.
type PlannedRequest struct {
	Target        collaborators.Target
	PartIndices   []uint64
	ReceiptShards []chunkstypes.ShardID
	PreferPeer    bool
}

// Planner implements the Request Planner (spec.md §4.4): it decides which
// peers to ask for which parts and receipts of a chunk already present (at
// least partially) in the cache.
type Planner struct {
	epochManager  collaborators.EpochManager
	shardTracker  collaborators.ShardTracker
	codec         shardCounter
	peerHeightSlk uint64
	rng           testrand.Source

	// inFlight tracks a rolling count of un-acknowledged requests per
	// target account, supplementing §4.4 with the original actor's
	// "don't pile retries onto an unresponsive peer" accounting. It never
	// changes target-selection semantics, only the requests_in_flight
	// gauge.
	inFlight map[chunkstypes.AccountID]int
	metrics  *engineMetrics
}

// shardCounter is the subset of rscodec.Codec the planner needs: how many
// total parts (N) a chunk is split into.
type shardCounter interface {
	TotalParts() int
}

// NewPlanner builds a Planner. rng must never be seeded from a per-call
// clock read; callers seed it once at engine construction (or inject a
// deterministic Source in tests).
func NewPlanner(em collaborators.EpochManager, st collaborators.ShardTracker, codec shardCounter, peerHeightSlack uint64, rng testrand.Source, m *engineMetrics) *Planner {
	return &Planner{
		epochManager:  em,
		shardTracker:  st,
		codec:         codec,
		peerHeightSlk: peerHeightSlack,
		rng:           rng,
		inFlight:      map[chunkstypes.AccountID]int{},
		metrics:       m,
	}
}

// Plan computes the set of requests to send for in.ChunkID, skipping part
// indices already present in entry. epoch is the epoch resolved for this
// chunk by the caller (the Processor), since epoch resolution itself is
// header-validation's concern, not the planner's.
func (p *Planner) Plan(in PlannerInput, epoch chunkstypes.EpochID, entry *CacheEntry) ([]PlannedRequest, error) {
	requestFull := in.ForceFull || p.shardTracker.Cares(in.Me, in.AncestorHash, in.Header.ShardID)

	producer, err := p.epochManager.ChunkProducer(epoch, in.Header.HeightCreated, in.Header.ShardID)
	if err != nil {
		return nil, err
	}

	representative, err := p.shardRepresentative(in, epoch, producer)
	if err != nil {
		return nil, err
	}

	buckets := map[chunkstypes.AccountID]*PlannedRequest{}
	bucketFor := func(account chunkstypes.AccountID) *PlannedRequest {
		b, ok := buckets[account]
		if !ok {
			acc := account
			b = &PlannedRequest{Target: collaborators.Target{
				Account:   &acc,
				Shard:     in.Header.ShardID,
				MinHeight: subOrZero(in.Header.HeightCreated, p.peerHeightSlk),
			}}
			buckets[account] = b
		}
		return b
	}

	n := p.codec.TotalParts()
	for i := uint64(0); i < uint64(n); i++ {
		if _, present := entry.Parts[i]; present {
			continue
		}
		owner, err := p.epochManager.PartOwner(epoch, i)
		if err != nil {
			return nil, err
		}
		weOwn := owner == in.Me
		if !requestFull && !weOwn {
			continue
		}
		var target chunkstypes.AccountID
		if in.FetchFromArchival || weOwn {
			if representative == nil {
				continue
			}
			target = *representative
		} else {
			target = owner
		}
		b := bucketFor(target)
		b.PartIndices = append(b.PartIndices, i)
	}

	if representative != nil {
		var receiptShards []chunkstypes.ShardID
		if !requestFull {
			layout, err := p.epochManager.ShardLayout(epoch)
			if err != nil {
				return nil, err
			}
			for _, s := range layout {
				if !p.shardTracker.Cares(in.Me, in.AncestorHash, s) {
					continue
				}
				if _, have := entry.Receipts[s]; have {
					continue
				}
				receiptShards = append(receiptShards, s)
			}
		}
		b := bucketFor(*representative)
		b.ReceiptShards = receiptShards
	}

	out := make([]PlannedRequest, 0, len(buckets))
	for account, b := range buckets {
		if account == in.Me {
			continue
		}
		if len(b.PartIndices) == 0 && len(b.ReceiptShards) == 0 {
			continue
		}
		if in.FetchFromArchival {
			b.PreferPeer = true
		} else {
			b.PreferPeer = p.rng.Bool()
		}
		out = append(out, *b)
		p.inFlight[account]++
		if p.metrics != nil {
			p.metrics.requestsInFlight.Update(int64(p.totalInFlight()))
		}
	}
	return out, nil
}

// Acknowledge clears one in-flight request credit for account. The engine
// does not call it, so the in-flight gauge only grows as requests are sent.
func (p *Planner) Acknowledge(account chunkstypes.AccountID) {
	if p.inFlight[account] > 0 {
		p.inFlight[account]--
	}
	if p.metrics != nil {
		p.metrics.requestsInFlight.Update(int64(p.totalInFlight()))
	}
}

func (p *Planner) totalInFlight() int {
	total := 0
	for _, n := range p.inFlight {
		total += n
	}
	return total
}

// shardRepresentative implements spec.md §4.4 step 3.
func (p *Planner) shardRepresentative(in PlannerInput, epoch chunkstypes.EpochID, producer chunkstypes.AccountID) (*chunkstypes.AccountID, error) {
	if !in.RequestOwnPartsFromOther && !in.FetchFromArchival && producer != in.Me {
		return &producer, nil
	}
	candidates, err := p.epochManager.BlockProducers(epoch)
	if err != nil {
		return nil, err
	}
	var eligible []chunkstypes.AccountID
	for _, a := range candidates {
		if a == in.Me {
			continue
		}
		if !p.shardTracker.Cares(a, in.AncestorHash, in.Header.ShardID) {
			continue
		}
		eligible = append(eligible, a)
	}
	if len(eligible) == 0 {
		return nil, nil
	}
	pick := eligible[p.rng.Intn(len(eligible))]
	return &pick, nil
}

func subOrZero(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// ShouldWaitForForwards implements spec.md §4.4 "Waiting for forwards":
// after inserting a new request-pool entry, the planner may choose not to
// send immediately, letting forwards arrive first. headLastBlockHash and
// headLastBlockParent are the cached head's last-block hash and its
// parent, used for the "not archival, not from an old block" check;
// resolution failures default to "do not wait".
func (p *Planner) ShouldWaitForForwards(in PlannerInput, epoch chunkstypes.EpochID, isValidator bool, headLastBlockHash, headLastBlockParent chunkstypes.BlockHash) bool {
	if in.FetchFromArchival {
		return false
	}
	nextProducer, err := p.epochManager.NextChunkProducer(epoch, in.Header.ShardID)
	if err != nil {
		return false
	}
	isNextProducer := nextProducer == in.Me
	if !isValidator && !isNextProducer {
		return false
	}
	if in.PrevBlockHash != headLastBlockHash && in.PrevBlockHash != headLastBlockParent {
		return false
	}
	return true
}
