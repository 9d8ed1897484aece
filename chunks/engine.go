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

// Package chunks implements the shard chunk distribution and reconstruction
// engine: a single-goroutine actor that obtains, for each chunk header seen,
// enough parts and receipt proofs to validate and (if the node tracks that
// shard) fully reconstruct the chunk, serves parts to requesting peers, and
// forwards owned parts to other validators.
package chunks

import (
	"time"

	"github.com/shardcore/chunks/chunks/rscodec"
	"github.com/shardcore/chunks/chunkstypes"
	"github.com/shardcore/chunks/collaborators"
	"github.com/shardcore/chunks/config"
	"github.com/shardcore/chunks/internal/clog"
	"github.com/shardcore/chunks/internal/testrand"
)

// ChainHeads is the engine's best-effort, advisory copy of the two chain
// heads it is told about (spec.md §3 "Chain heads"). The authoritative
// values live in the store; these are only used to resolve epoch ids and
// the forward-wait heuristic when nothing more precise is available.
type ChainHeads struct {
	HeadHeight        uint64
	HeadLastBlockHash chunkstypes.BlockHash
	HeadParentHash    chunkstypes.BlockHash
	HeaderHeadHash    chunkstypes.BlockHash
}

// Engine is the chunk distribution actor. Every exported method that
// mutates engine state is reached by sending a message into mailbox and
// processed by the single goroutine started in Run; the unexported
// process* methods in processor.go assume they are already running on
// that goroutine and never lock anything.
type Engine struct {
	cfg config.Config
	me  chunkstypes.AccountID

	epochManager collaborators.EpochManager
	shardTracker collaborators.ShardTracker
	store        collaborators.Store
	network      collaborators.Network
	client       collaborators.Client

	cache        *ChunkCache
	pool         *RequestPool
	forwardCache *ForwardCache
	codec        *rscodec.Codec
	planner      *Planner
	forwarder    *Forwarder
	response     *ResponseBuilder

	metrics *engineMetrics
	log     *clog.Logger

	heads ChainHeads

	mailbox chan any
	stop    chan struct{}
	done    chan struct{}

	retryTimer *time.Timer
}

// NewEngine wires every component together the way cmd/shardchunksd does
// for a live node: one codec, one cache, one planner, one forwarder, one
// response builder, all sharing the same config and collaborators.
func NewEngine(cfg config.Config, me chunkstypes.AccountID, em collaborators.EpochManager, st collaborators.ShardTracker, store collaborators.Store, net collaborators.Network, client collaborators.Client, rng testrand.Source, metricsRegistry any, log *clog.Logger) (*Engine, error) {
	codec, err := rscodec.New(cfg.DataParts, cfg.TotalParts)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = clog.Nop()
	}
	m := newEngineMetrics(nil)

	e := &Engine{
		cfg:          cfg,
		me:           me,
		epochManager: em,
		shardTracker: st,
		store:        store,
		network:      net,
		client:       client,
		codec:        codec,
		metrics:      m,
		log:          log,
		mailbox:      make(chan any, 256),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	e.pool = NewRequestPool()
	e.cache = NewChunkCache(cfg.CacheHorizon, e.pool.Contains)
	e.forwardCache = NewForwardCache(cfg.ForwardCacheSize, func() { m.forwardCacheEvicted.Mark(1) })
	e.planner = NewPlanner(em, st, codec, cfg.PeerHeightSlack, rng, m)
	e.forwarder = NewForwarder(em, st, net, m)
	e.response = NewResponseBuilder(e.cache, store, codec, cfg.NumShards, func(msg string, kv ...any) { log.Warn(msg, kv...) })
	return e, nil
}

// Run drives the actor's mailbox loop until Stop is called or ctx-like
// cancellation is requested via the stop channel. It is meant to be run in
// its own goroutine; every other exported method only enqueues a message.
func (e *Engine) Run() {
	defer close(e.done)
	ticker := time.NewTicker(e.cfg.ChunkRequestRetryPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.handlePeriodicRetry()
		case msg := <-e.mailbox:
			e.dispatch(msg)
		}
	}
}

// Stop halts the actor goroutine and waits for Run to return.
func (e *Engine) Stop() {
	close(e.stop)
	<-e.done
}

func (e *Engine) enqueue(msg any) {
	select {
	case e.mailbox <- msg:
	case <-e.stop:
	}
}

func (e *Engine) dispatch(msg any) {
	switch m := msg.(type) {
	case processChunkHeaderFromBlockMsg:
		e.handleProcessChunkHeaderFromBlock(m.header)
	case updateChainHeadsMsg:
		e.handleUpdateChainHeads(m.heads)
	case distributeEncodedChunkMsg:
		e.handleDistribute(m.partial, m.fullEncoded, m.outgoingReceipts)
	case requestChunksMsg:
		e.handleRequestChunks(m.headers, m.prevHash)
	case requestChunksForOrphanMsg:
		e.handleRequestChunksForOrphan(m.headers, m.epochID, m.ancestorHash)
	case checkIncompleteChunksMsg:
		e.handleCheckIncompleteChunks(m.prevBlockHash)
	case processOrRequestChunkMsg:
		e.handleProcessOrRequestChunk(m.candidate, m.requestHeader, m.prevHash)
	case networkPartialChunkMsg:
		_, _ = e.runProcessPartialChunk(m.msg.Header, m.msg.Parts, m.msg.Receipts, false)
	case networkForwardMsg:
		_ = e.processForward(m.fwd)
	case networkResponseMsg:
		_ = e.processResponse(m.resp)
	case networkRequestMsg:
		e.handleNetworkRequest(m.req, m.routeBack)
	case retryProcessingMsg:
		e.handleRetryProcessing(m)
	default:
		e.log.Warn("engine: unknown mailbox message", "type", msg)
	}
}

// --- Client -> Engine (spec.md §6) ---

type processChunkHeaderFromBlockMsg struct{ header chunkstypes.ChunkHeader }

func (e *Engine) ProcessChunkHeaderFromBlock(header chunkstypes.ChunkHeader) {
	e.enqueue(processChunkHeaderFromBlockMsg{header})
}

type updateChainHeadsMsg struct{ heads ChainHeads }

func (e *Engine) UpdateChainHeads(heads ChainHeads) {
	e.enqueue(updateChainHeadsMsg{heads})
}

type distributeEncodedChunkMsg struct {
	partial          chunkstypes.PartialChunk
	fullEncoded      []chunkstypes.Part
	outgoingReceipts []chunkstypes.OutgoingReceipt
}

func (e *Engine) DistributeEncodedChunk(partial chunkstypes.PartialChunk, fullEncoded []chunkstypes.Part, outgoingReceipts []chunkstypes.OutgoingReceipt) {
	e.enqueue(distributeEncodedChunkMsg{partial, fullEncoded, outgoingReceipts})
}

type requestChunksMsg struct {
	headers  []chunkstypes.ChunkHeader
	prevHash chunkstypes.BlockHash
}

func (e *Engine) RequestChunks(headers []chunkstypes.ChunkHeader, prevHash chunkstypes.BlockHash) {
	e.enqueue(requestChunksMsg{headers, prevHash})
}

type requestChunksForOrphanMsg struct {
	headers      []chunkstypes.ChunkHeader
	epochID      chunkstypes.EpochID
	ancestorHash chunkstypes.BlockHash
}

func (e *Engine) RequestChunksForOrphan(headers []chunkstypes.ChunkHeader, epochID chunkstypes.EpochID, ancestorHash chunkstypes.BlockHash) {
	e.enqueue(requestChunksForOrphanMsg{headers, epochID, ancestorHash})
}

type checkIncompleteChunksMsg struct{ prevBlockHash chunkstypes.BlockHash }

func (e *Engine) CheckIncompleteChunks(prevBlockHash chunkstypes.BlockHash) {
	e.enqueue(checkIncompleteChunksMsg{prevBlockHash})
}

type processOrRequestChunkMsg struct {
	candidate     processPartialChunkCandidate
	requestHeader chunkstypes.ChunkHeader
	prevHash      chunkstypes.BlockHash
}

// processPartialChunkCandidate is the optional already-known partial chunk
// data ProcessOrRequestChunk tries before falling back to a request.
type processPartialChunkCandidate struct {
	Parts    []chunkstypes.Part
	Receipts []chunkstypes.ReceiptProof
}

func (e *Engine) ProcessOrRequestChunk(candidate processPartialChunkCandidate, requestHeader chunkstypes.ChunkHeader, prevHash chunkstypes.BlockHash) {
	e.enqueue(processOrRequestChunkMsg{candidate, requestHeader, prevHash})
}

// --- Network -> Engine (spec.md §6) ---

type networkPartialChunkMsg struct{ msg collaborators.PartialChunkMessage }

func (e *Engine) ProcessPartialEncodedChunk(msg collaborators.PartialChunkMessage) {
	e.enqueue(networkPartialChunkMsg{msg})
}

type networkForwardMsg struct{ fwd collaborators.PartialChunkForward }

func (e *Engine) ProcessPartialEncodedChunkForward(fwd collaborators.PartialChunkForward) {
	e.enqueue(networkForwardMsg{fwd})
}

type networkResponseMsg struct{ resp collaborators.PartialChunkResponse }

func (e *Engine) ProcessPartialEncodedChunkResponse(resp collaborators.PartialChunkResponse) {
	e.enqueue(networkResponseMsg{resp})
}

type networkRequestMsg struct {
	req       collaborators.PartialChunkRequest
	routeBack collaborators.RouteToken
}

func (e *Engine) ProcessPartialEncodedChunkRequest(req collaborators.PartialChunkRequest, routeBack collaborators.RouteToken) {
	e.enqueue(networkRequestMsg{req, routeBack})
}

// --- delayed self-messages (spec.md §5) ---

type retryProcessingMsg struct {
	header   chunkstypes.ChunkHeader
	parts    []chunkstypes.Part
	receipts []chunkstypes.ReceiptProof
}

func (e *Engine) scheduleRetryProcessing(msg retryProcessingMsg) {
	time.AfterFunc(e.cfg.RetryProcessingDelay, func() { e.enqueue(msg) })
}
