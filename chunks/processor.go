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
	"sort"
	"time"

	"github.com/shardcore/chunks/chunks/rscodec"
	"github.com/shardcore/chunks/chunkstypes"
	"github.com/shardcore/chunks/collaborators"
)

// ProcessResult is the outcome of processPartialChunk/tryFinalize, matching
// spec.md §4.8/§4.9's five-way result.
type ProcessResult int

const (
	Known ProcessResult = iota
	NeedBlock
	NeedsBlockChunkDropped
	NeedMorePartsOrReceipts
	HaveAllPartsAndReceipts
)

// processPartialChunk implements spec.md §4.8.
func (e *Engine) processPartialChunk(header chunkstypes.ChunkHeader, parts []chunkstypes.Part, receipts []chunkstypes.ReceiptProof, validatedFlag bool) (ProcessResult, error) {
	id := header.ID()

	if existing, ok := e.cache.Get(id); ok && existing.Complete {
		return Known, nil
	}

	inPool := e.pool.Contains(id)
	if !inPool && !e.cache.HeightWithinHorizon(header.HeightCreated) {
		return 0, ErrInvalidChunkHeight
	}
	if !inPool {
		if existingID, ok := e.cache.ChunkHashByHeightShard(header.HeightCreated, header.ShardID); ok && existingID != id {
			return 0, ErrDuplicateChunkHeight
		}
	}

	entry := e.cache.GetOrInsertFromHeader(header)

	if !validatedFlag && !entry.HeaderFullyValidated {
		var ancestor *chunkstypes.BlockHash
		if info, ok := e.pool.Get(id); ok {
			ancestor = &info.AncestorHash
		}
		res, err := resolveEpochForValidation(e.epochManager, header.PrevBlockHash, ancestor, e.heads.HeadLastBlockHash)
		if err != nil {
			return NeedsBlockChunkDropped, err
		}
		if verr := validateHeader(e.epochManager, &header, res); verr != nil {
			if ErrorKind(verr) == KindSoftChainStateMissing {
				return NeedsBlockChunkDropped, verr
			}
			e.cache.Remove(id)
			e.pool.Remove(id)
			return 0, verr
		}
		if res.confirmed {
			e.cache.MarkValidated(id)
		}
	}

	for _, p := range parts {
		if err := e.codec.VerifyPart(header.EncodedMerkleRoot, p); err != nil {
			return 0, mapPartError(err)
		}
	}
	for _, r := range receipts {
		if err := rscodec.VerifyReceiptProof(header.OutgoingReceiptRoot, r); err != nil {
			return 0, ErrInvalidReceiptsProof
		}
	}

	newIndices := e.cache.MergePartsAndReceipts(id, parts, receipts)

	if epoch, ok := e.resolveEpochBestEffort(header); ok {
		if nextEpoch, err := e.epochManager.NextEpochID(epoch); err == nil {
			var ancestor chunkstypes.BlockHash
			if info, ok := e.pool.Get(id); ok {
				ancestor = info.AncestorHash
			} else {
				ancestor = header.PrevBlockHash
			}
			if ferr := e.forwarder.Forward(header, ancestor, newIndices, entry.Parts, epoch, nextEpoch, e.me); ferr != nil {
				e.log.Warn("forward failed", "chunk_id", id, "err", ferr)
			}
		}
	}

	if popped := e.forwardCache.PopAll(id); popped != nil {
		e.cache.MergePartsAndReceipts(id, popped, nil)
	}

	result, err := e.tryFinalize(header)
	if err != nil {
		return result, err
	}
	if result == NeedMorePartsOrReceipts {
		if !e.pool.Contains(id) {
			e.pool.Insert(id, &RequestInfo{
				Height:        header.HeightCreated,
				AncestorHash:  header.PrevBlockHash,
				PrevBlockHash: header.PrevBlockHash,
				Shard:         header.ShardID,
				AddedAt:       time.Now(),
			})
		}
	}
	return result, nil
}

// tryFinalize implements spec.md §4.9.
func (e *Engine) tryFinalize(header chunkstypes.ChunkHeader) (ProcessResult, error) {
	id := header.ID()
	epoch, err := e.epochManager.EpochID(header.PrevBlockHash)
	if err != nil {
		return NeedBlock, nil
	}

	entry, ok := e.cache.Get(id)
	if !ok {
		return 0, ErrUnknownChunk
	}

	if !entry.HeaderFullyValidated {
		res := epochResolution{epoch: epoch, confirmed: true}
		if verr := validateHeader(e.epochManager, &header, res); verr != nil {
			if ErrorKind(verr) == KindSoftChainStateMissing {
				return 0, verr
			}
			e.client.InvalidChunk(header)
			e.cache.Remove(id)
			e.pool.Remove(id)
			return 0, verr
		}
		e.cache.MarkValidated(id)
	}

	layout, err := e.epochManager.ShardLayout(epoch)
	if err != nil {
		return NeedBlock, nil
	}
	caresAboutShard := e.shardTracker.Cares(e.me, header.PrevBlockHash, header.ShardID)

	haveAllParts := true
	for i := uint64(0); i < uint64(e.codec.N); i++ {
		if _, present := entry.Parts[i]; present {
			continue
		}
		owner, operr := e.epochManager.PartOwner(epoch, i)
		weOwn := operr == nil && owner == e.me
		if caresAboutShard || weOwn {
			haveAllParts = false
			break
		}
	}

	haveAllReceipts := true
	for _, s := range layout {
		if _, present := entry.Receipts[s]; present {
			continue
		}
		if e.shardTracker.Cares(e.me, header.PrevBlockHash, s) {
			haveAllReceipts = false
			break
		}
	}

	canReconstruct := len(entry.Parts) >= e.codec.D

	if haveAllParts {
		if e.cache.MarkForInclusion(id) {
			if producer, perr := e.epochManager.ChunkProducer(epoch, header.HeightCreated, header.ShardID); perr == nil {
				e.client.ChunkHeaderReadyForInclusion(header, producer)
			}
		}
	}

	switch {
	case !caresAboutShard && haveAllParts && haveAllReceipts:
		partial := buildPartialChunk(header, entry)
		if e.store != nil {
			if perr := e.store.PutPartialChunk(id, &partial); perr != nil {
				e.log.Warn("persist partial chunk failed", "chunk_id", id, "err", perr)
			}
		}
		e.client.ChunkCompleted(&partial, nil)
		e.cache.MarkComplete(id)
		e.pool.Remove(id)
		e.metrics.chunksCompleted.Mark(1)
		return HaveAllPartsAndReceipts, nil

	case canReconstruct:
		known := make(map[uint64][]byte, len(entry.Parts))
		for idx, p := range entry.Parts {
			known[idx] = p.Payload
		}
		e.metrics.decodeAttempts.Mark(1)
		payload, _, outcome := e.codec.Decode(known, header.EncodedLength, header.EncodedMerkleRoot)
		switch outcome {
		case rscodec.DecodeComplete:
			transactions, outgoingReceipts, perr := chunkstypes.UnpackPayload(payload)
			if perr != nil {
				e.metrics.decodeFailures.Mark(1)
				e.cache.Remove(id)
				e.pool.Remove(id)
				return 0, ErrEncodingFailure
			}
			partial := buildPartialChunk(header, entry)
			var shardChunk *chunkstypes.ShardChunk
			if caresAboutShard {
				shardChunk = &chunkstypes.ShardChunk{Header: header, Transactions: transactions, OutgoingReceipts: outgoingReceipts}
				if e.store != nil {
					if serr := e.store.PutShardChunk(id, shardChunk); serr != nil {
						e.log.Warn("persist shard chunk failed", "chunk_id", id, "err", serr)
					}
				}
			}
			if e.store != nil {
				if serr := e.store.PutPartialChunk(id, &partial); serr != nil {
					e.log.Warn("persist partial chunk failed", "chunk_id", id, "err", serr)
				}
			}
			e.client.ChunkCompleted(&partial, shardChunk)
			e.cache.MarkComplete(id)
			e.pool.Remove(id)
			e.metrics.chunksCompleted.Mark(1)
			return HaveAllPartsAndReceipts, nil

		case rscodec.DecodeInvalid:
			e.metrics.decodeFailures.Mark(1)
			e.client.InvalidChunk(header)
			e.cache.Remove(id)
			e.pool.Remove(id)
			return 0, ErrInvalidChunk

		default:
			return NeedMorePartsOrReceipts, nil
		}

	default:
		return NeedMorePartsOrReceipts, nil
	}
}

// runProcessPartialChunk wraps processPartialChunk with the one-shot
// retry_processing self-message spec.md §5 describes for a soft
// NeedsBlockChunkDropped result.
func (e *Engine) runProcessPartialChunk(header chunkstypes.ChunkHeader, parts []chunkstypes.Part, receipts []chunkstypes.ReceiptProof, validated bool) (ProcessResult, error) {
	result, err := e.processPartialChunk(header, parts, receipts, validated)
	if result == NeedsBlockChunkDropped {
		e.scheduleRetryProcessing(retryProcessingMsg{header: header, parts: parts, receipts: receipts})
	}
	return result, err
}

// processForward implements spec.md §4.10.
func (e *Engine) processForward(fwd collaborators.PartialChunkForward) error {
	for _, p := range fwd.Parts {
		if err := e.codec.VerifyPart(fwd.EncodedMerkleRoot, p); err != nil {
			return mapPartError(err)
		}
	}

	epoch, err := e.epochManager.EpochID(fwd.PrevBlockHash)
	if err != nil {
		for _, p := range fwd.Parts {
			e.forwardCache.Add(fwd.ChunkID, p)
		}
		return nil
	}
	producer, perr := e.epochManager.ChunkProducer(epoch, fwd.HeightCreated, fwd.ShardID)
	if perr != nil || producer != fwd.ProducerID {
		return ErrInvalidPartMessage
	}

	if entry, ok := e.cache.Get(fwd.ChunkID); ok {
		_, ferr := e.runProcessPartialChunk(entry.Header, fwd.Parts, nil, true)
		return ferr
	}
	for _, p := range fwd.Parts {
		e.forwardCache.Add(fwd.ChunkID, p)
	}
	return nil
}

// processResponse implements spec.md §4.11.
func (e *Engine) processResponse(resp collaborators.PartialChunkResponse) error {
	entry, ok := e.cache.Get(resp.ChunkID)
	if !ok {
		return ErrUnknownChunk
	}
	_, err := e.runProcessPartialChunk(entry.Header, resp.Parts, resp.Receipts, true)
	return err
}

// handleDistribute implements spec.md §4.12.
func (e *Engine) handleDistribute(partial chunkstypes.PartialChunk, fullEncoded []chunkstypes.Part, outgoingReceipts []chunkstypes.OutgoingReceipt) {
	header := partial.Header
	id := header.ID()

	epoch, resolved := e.resolveEpochBestEffort(header)
	if !resolved {
		e.log.Warn("distribute: cannot resolve epoch", "chunk_id", id)
		return
	}

	recipientParts := map[chunkstypes.AccountID][]chunkstypes.Part{}
	for _, p := range fullEncoded {
		owner, operr := e.epochManager.PartOwner(epoch, p.PartIndex)
		if operr != nil {
			continue
		}
		recipientParts[owner] = append(recipientParts[owner], p)
	}
	if nextEpoch, nerr := e.epochManager.NextEpochID(epoch); nerr == nil {
		if nextProducers, perr := e.epochManager.BlockProducers(nextEpoch); perr == nil {
			for _, acc := range nextProducers {
				if _, ok := recipientParts[acc]; !ok {
					recipientParts[acc] = nil
				}
			}
		}
	}

	receiptsByShard := map[chunkstypes.ShardID][]chunkstypes.OutgoingReceipt{}
	for _, r := range outgoingReceipts {
		receiptsByShard[r.DestShard] = append(receiptsByShard[r.DestShard], r)
	}
	var allReceiptProofs []chunkstypes.ReceiptProof
	for shard, rs := range receiptsByShard {
		allReceiptProofs = append(allReceiptProofs, chunkstypes.ReceiptProof{ToShard: shard, Receipts: rs})
	}
	sortReceipts(allReceiptProofs)

	for account, parts := range recipientParts {
		if account == e.me {
			continue
		}
		e.network.SendPartialChunkMessage(account, collaborators.PartialChunkMessage{
			Header:   header,
			Parts:    parts,
			Receipts: e.receiptProofsForRecipient(account, header.PrevBlockHash, allReceiptProofs),
		})
	}

	e.cache.GetOrInsertFromHeader(header)
	e.cache.MarkValidated(id)
	e.cache.MergePartsAndReceipts(id, fullEncoded, allReceiptProofs)
	if e.cache.MarkForInclusion(id) {
		if producer, perr := e.epochManager.ChunkProducer(epoch, header.HeightCreated, header.ShardID); perr == nil {
			e.client.ChunkHeaderReadyForInclusion(header, producer)
		}
	}
	if _, ferr := e.tryFinalize(header); ferr != nil {
		e.log.Warn("distribute: finalize failed", "chunk_id", id, "err", ferr)
	}
}

// receiptProofsForRecipient narrows proofs to the shards account itself
// tracks, so each recipient only receives the receipt proofs relevant to it.
func (e *Engine) receiptProofsForRecipient(account chunkstypes.AccountID, ancestorHash chunkstypes.BlockHash, proofs []chunkstypes.ReceiptProof) []chunkstypes.ReceiptProof {
	var out []chunkstypes.ReceiptProof
	for _, p := range proofs {
		if e.shardTracker.Cares(account, ancestorHash, p.ToShard) {
			out = append(out, p)
		}
	}
	return out
}

// resolveEpochBestEffort resolves an epoch id for operations (forwarding,
// distribution) that tolerate routing to a slightly stale epoch at a
// boundary, per spec.md §4.8 step 8: "misrouting at an epoch boundary only
// delays, never corrupts".
func (e *Engine) resolveEpochBestEffort(header chunkstypes.ChunkHeader) (chunkstypes.EpochID, bool) {
	if epoch, err := e.epochManager.EpochID(header.PrevBlockHash); err == nil {
		return epoch, true
	}
	if epoch, err := e.epochManager.EpochID(e.heads.HeadLastBlockHash); err == nil {
		return epoch, true
	}
	return chunkstypes.EpochID{}, false
}

func buildPartialChunk(header chunkstypes.ChunkHeader, entry *CacheEntry) chunkstypes.PartialChunk {
	parts := make([]chunkstypes.Part, 0, len(entry.Parts))
	for _, p := range entry.Parts {
		parts = append(parts, p)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].PartIndex < parts[j].PartIndex })

	receipts := make([]chunkstypes.ReceiptProof, 0, len(entry.Receipts))
	for _, r := range entry.Receipts {
		receipts = append(receipts, r)
	}
	sortReceipts(receipts)

	return chunkstypes.PartialChunk{Header: header, Parts: parts, Receipts: receipts}
}

func mapPartError(err error) error {
	switch err {
	case rscodec.ErrInvalidChunkPartID:
		return ErrInvalidChunkPartID
	case rscodec.ErrInvalidMerkleProof:
		return ErrInvalidMerkleProof
	default:
		return err
	}
}
