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
	"time"

	"github.com/shardcore/chunks/chunkstypes"
	"github.com/shardcore/chunks/collaborators"
)

// handleProcessChunkHeaderFromBlock implements the "header learned from an
// accepted block" half of spec.md §6: insert-if-new, drain any parts a
// forward delivered early, then try to finalize immediately.
func (e *Engine) handleProcessChunkHeaderFromBlock(header chunkstypes.ChunkHeader) {
	id := header.ID()
	e.cache.GetOrInsertFromHeader(header)
	if popped := e.forwardCache.PopAll(id); popped != nil {
		e.cache.MergePartsAndReceipts(id, popped, nil)
	}

	result, err := e.tryFinalize(header)
	if err != nil {
		e.log.Warn("process chunk header from block failed", "chunk_id", id, "err", err)
		return
	}
	if result == NeedMorePartsOrReceipts {
		e.ensurePending(header, header.PrevBlockHash)
		e.maybeSendRequest(header, header.PrevBlockHash, false, false)
	}
}

func (e *Engine) handleUpdateChainHeads(h ChainHeads) {
	e.heads = h
	e.cache.UpdateHorizon(h.HeadHeight)
}

// handleRequestChunks implements spec.md §6's RequestChunks: insert every
// header into the pool if not already pending and plan a first request.
func (e *Engine) handleRequestChunks(headers []chunkstypes.ChunkHeader, prevHash chunkstypes.BlockHash) {
	for _, header := range headers {
		e.cache.GetOrInsertFromHeader(header)
		e.ensurePending(header, prevHash)
		e.maybeSendRequest(header, prevHash, false, false)
	}
}

// handleRequestChunksForOrphan implements spec.md §6's
// RequestChunksForOrphan: the same as RequestChunks, but skipped for any
// header whose ancestorHash does not actually resolve to the claimed
// epochID, guarding against an orphan block from a different fork.
func (e *Engine) handleRequestChunksForOrphan(headers []chunkstypes.ChunkHeader, epochID chunkstypes.EpochID, ancestorHash chunkstypes.BlockHash) {
	actual, err := e.epochManager.EpochID(ancestorHash)
	if err != nil || actual != epochID {
		return
	}
	for _, header := range headers {
		e.cache.GetOrInsertFromHeader(header)
		e.ensurePending(header, ancestorHash)
		e.maybeSendRequest(header, ancestorHash, false, false)
	}
}

// handleCheckIncompleteChunks implements spec.md §6: a previously-missing
// parent block was just accepted, so retry finalize for every incomplete
// chunk keyed by it.
func (e *Engine) handleCheckIncompleteChunks(prevBlockHash chunkstypes.BlockHash) {
	for _, id := range e.cache.IncompleteChunksByPrev(prevBlockHash) {
		entry, ok := e.cache.Get(id)
		if !ok {
			continue
		}
		result, err := e.tryFinalize(entry.Header)
		if err != nil {
			e.log.Warn("check incomplete chunks: finalize failed", "chunk_id", id, "err", err)
			continue
		}
		if result == NeedMorePartsOrReceipts {
			e.ensurePending(entry.Header, entry.Header.PrevBlockHash)
		}
	}
}

// handleProcessOrRequestChunk implements spec.md §6: try processing an
// already-known candidate first, falling back to a network request only
// if that attempt fails.
func (e *Engine) handleProcessOrRequestChunk(candidate processPartialChunkCandidate, requestHeader chunkstypes.ChunkHeader, prevHash chunkstypes.BlockHash) {
	_, err := e.runProcessPartialChunk(requestHeader, candidate.Parts, candidate.Receipts, false)
	if err == nil {
		return
	}
	e.cache.GetOrInsertFromHeader(requestHeader)
	e.ensurePending(requestHeader, prevHash)
	e.maybeSendRequest(requestHeader, prevHash, false, false)
}

// handleNetworkRequest answers a peer's PartialChunkRequest via the
// Response Builder and fires the response back through routeBack
// (spec.md §4.5/§6).
func (e *Engine) handleNetworkRequest(req collaborators.PartialChunkRequest, routeBack collaborators.RouteToken) {
	tag, resp := e.response.Build(req)
	e.metrics.responsesSent.Mark(1)
	_ = tag
	e.network.SendPartialChunkResponse(routeBack, resp)
}

// handleRetryProcessing drives the one-shot delayed retry scheduled for a
// NeedsBlockChunkDropped soft failure (spec.md §5); it is dropped after
// this single attempt regardless of outcome, to prevent an unbounded
// mailbox-refill loop when chain state never arrives.
func (e *Engine) handleRetryProcessing(msg retryProcessingMsg) {
	_, err := e.processPartialChunk(msg.header, msg.parts, msg.receipts, false)
	if err != nil {
		e.log.Warn("retry processing gave up", "chunk_id", msg.header.ID(), "err", err)
	}
}

// handlePeriodicRetry drives the request pool's due() scan (spec.md §4.1):
// every entry whose retry interval has elapsed gets a fresh planned
// request, escalating to a full fetch or to requesting owned parts from
// others as its age crosses the configured windows.
func (e *Engine) handlePeriodicRetry() {
	now := time.Now()
	due := e.pool.Due(now, e.cfg.RetryInterval, e.cfg.MaxTotalWindow)
	e.metrics.requestsDue.Mark(int64(len(due)))
	for _, d := range due {
		entry, ok := e.cache.Get(d.ChunkID)
		if !ok {
			continue
		}
		elapsed := now.Sub(d.Info.AddedAt)
		forceFull := elapsed >= e.cfg.SwitchToFullFetch
		requestOwnFromOthers := elapsed >= e.cfg.SwitchToOthersWindow
		e.sendRequests(entry.Header, d.Info.AncestorHash, forceFull, requestOwnFromOthers, false)
	}
}

// ensurePending inserts a request-pool entry for header if one is not
// already pending.
func (e *Engine) ensurePending(header chunkstypes.ChunkHeader, ancestorHash chunkstypes.BlockHash) {
	id := header.ID()
	if e.pool.Contains(id) {
		return
	}
	e.pool.Insert(id, &RequestInfo{
		Height:        header.HeightCreated,
		AncestorHash:  ancestorHash,
		PrevBlockHash: header.PrevBlockHash,
		Shard:         header.ShardID,
		AddedAt:       time.Now(),
	})
}

// maybeSendRequest applies the "wait for forwards" heuristic (spec.md
// §4.4) before planning and sending a first request for header.
func (e *Engine) maybeSendRequest(header chunkstypes.ChunkHeader, ancestorHash chunkstypes.BlockHash, forceFull, fetchArchival bool) {
	epoch, ok := e.resolveEpochBestEffort(header)
	if !ok {
		return
	}
	isValidator, _ := e.epochManager.IsValidator(epoch, e.me)
	in := PlannerInput{Header: header, AncestorHash: ancestorHash, PrevBlockHash: header.PrevBlockHash, Me: e.me}
	if e.planner.ShouldWaitForForwards(in, epoch, isValidator, e.heads.HeadLastBlockHash, e.heads.HeadParentHash) {
		return
	}
	e.sendRequests(header, ancestorHash, forceFull, false, fetchArchival)
}

// sendRequests plans and fires requests for header via the Request
// Planner and Network collaborator, regardless of the wait-for-forwards
// heuristic (used by periodic retries, which have already waited).
func (e *Engine) sendRequests(header chunkstypes.ChunkHeader, ancestorHash chunkstypes.BlockHash, forceFull, requestOwnFromOthers, fetchArchival bool) {
	epoch, ok := e.resolveEpochBestEffort(header)
	if !ok {
		return
	}
	id := header.ID()
	entry, ok := e.cache.Get(id)
	if !ok {
		return
	}
	in := PlannerInput{
		ChunkID:                  id,
		Header:                   header,
		AncestorHash:             ancestorHash,
		PrevBlockHash:            header.PrevBlockHash,
		ForceFull:                forceFull,
		RequestOwnPartsFromOther: requestOwnFromOthers,
		FetchFromArchival:        fetchArchival,
		Me:                       e.me,
	}
	reqs, err := e.planner.Plan(in, epoch, entry)
	if err != nil {
		e.log.Warn("planner failed", "chunk_id", id, "err", err)
		return
	}
	for _, r := range reqs {
		e.network.SendPartialChunkRequest(r.Target, collaborators.PartialChunkRequest{
			ChunkID:       id,
			PartIndices:   r.PartIndices,
			ReceiptShards: r.ReceiptShards,
		})
		e.metrics.requestsSent.Mark(1)
	}
}
