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

// Command shardchunksd runs the shard chunk distribution and reconstruction
// engine as a standalone process, the way cmd/geth runs a node: parse
// flags, load config, wire collaborators, run until a signal arrives.
//
// The validator set is a fixed, generated-at-startup secp256k1 keyring
// (collaborators.StaticEpochManager) rather than one read from a live
// chain, and the network/store adapters are logging, in-memory stand-ins
// (demoSink). A real deployment replaces both with a chain-client-backed
// epoch manager and a p2p/database-backed sink; this binary exists to
// exercise the engine's full lifecycle and message surface end to end.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/urfave/cli/v2"

	"github.com/shardcore/chunks/chunks"
	"github.com/shardcore/chunks/chunkstypes"
	"github.com/shardcore/chunks/collaborators"
	"github.com/shardcore/chunks/config"
	"github.com/shardcore/chunks/internal/clog"
	"github.com/shardcore/chunks/internal/testrand"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML config file overriding the defaults",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log.level",
		Usage: "log level: debug, info, warn, error",
		Value: "info",
	}
	validatorsFlag = &cli.IntFlag{
		Name:  "validators",
		Usage: "size of the generated validator keyring",
		Value: 4,
	}
	meIndexFlag = &cli.IntFlag{
		Name:  "me-index",
		Usage: "index into the generated validator keyring identifying this node",
		Value: 0,
	}
	shardsFlag = &cli.StringFlag{
		Name:  "shards",
		Usage: "comma-separated shard ids this node tracks",
		Value: "0",
	}
	randSeedFlag = &cli.Int64Flag{
		Name:  "rand-seed",
		Usage: "seed for the request planner's peer-selection RNG (0 falls back to the config's rand_seed, then to the OS pid once at startup)",
	}
)

func main() {
	app := &cli.App{
		Name:   "shardchunksd",
		Usage:  "run the shard chunk distribution and reconstruction engine",
		Flags:  []cli.Flag{configFlag, logLevelFlag, validatorsFlag, meIndexFlag, shardsFlag, randSeedFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "shardchunksd:", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	level, err := parseLevel(ctx.String(logLevelFlag.Name))
	if err != nil {
		return err
	}
	log := clog.New(os.Stderr, level)

	cfg := config.Default()
	if path := ctx.String(configFlag.Name); path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	numValidators := ctx.Int(validatorsFlag.Name)
	meIndex := ctx.Int(meIndexFlag.Name)
	if numValidators <= 0 || meIndex < 0 || meIndex >= numValidators {
		return fmt.Errorf("--me-index must be within [0, --validators)")
	}
	shards, err := parseShards(ctx.String(shardsFlag.Name))
	if err != nil {
		return err
	}

	keys := make([]*btcec.PublicKey, numValidators)
	var mePriv *btcec.PrivateKey
	for i := 0; i < numValidators; i++ {
		priv, err := collaborators.GenerateKey()
		if err != nil {
			return fmt.Errorf("generating validator key %d: %w", i, err)
		}
		keys[i] = priv.PubKey()
		if i == meIndex {
			mePriv = priv
		}
	}
	me := collaborators.AccountIDFromPubKey(mePriv.PubKey())

	epochManager := &collaborators.StaticEpochManager{
		Epoch:      chunkstypes.HashBytes([]byte("epoch-0")),
		NextEpoch:  chunkstypes.HashBytes([]byte("epoch-1")),
		Shards:     shards,
		NumParts:   cfg.TotalParts,
		Validators: keys,
	}
	shardTracker := newDemoShardTracker(shards)
	sink := newDemoSink(log)

	seed := ctx.Int64(randSeedFlag.Name)
	if seed == 0 {
		seed = cfg.RandSeed
	}
	if seed == 0 {
		seed = int64(os.Getpid())
	}
	rng := testrand.NewDefault(seed)

	engine, err := chunks.NewEngine(cfg, me, epochManager, shardTracker, sink, sink, sink, rng, nil, log)
	if err != nil {
		return fmt.Errorf("constructing engine: %w", err)
	}

	log.Info("shardchunksd starting", "account", me.String(), "validators", numValidators, "shards", shards, "total_parts", cfg.TotalParts, "data_parts", cfg.DataParts)

	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.Run()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shardchunksd stopping")
	engine.Stop()
	<-done
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func parseShards(s string) ([]chunkstypes.ShardID, error) {
	var out []chunkstypes.ShardID
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --shards entry %q: %w", part, err)
		}
		out = append(out, chunkstypes.ShardID(n))
	}
	if len(out) == 0 {
		out = []chunkstypes.ShardID{0}
	}
	return out, nil
}
