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

// Package config holds the tunables for the chunk distribution engine,
// following the teacher's "struct with defaults, loadable from file"
// convention (eth.Config, node.Config).
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config collects every tunable named in spec.md.
type Config struct {
	// Request Pool (§4.1)
	RetryInterval        time.Duration `yaml:"retry_interval"`
	SwitchToOthersWindow time.Duration `yaml:"switch_to_others_window"`
	SwitchToFullFetch    time.Duration `yaml:"switch_to_full_fetch_window"`
	MaxTotalWindow       time.Duration `yaml:"max_total_window"`

	// Scheduling (§5)
	ChunkRequestRetryPeriod time.Duration `yaml:"chunk_request_retry_period"`
	RetryProcessingDelay    time.Duration `yaml:"retry_processing_delay"`

	// Request Planner (§4.4)
	PeerHeightSlack uint64 `yaml:"peer_height_slack"`

	// Forward Cache (§5)
	ForwardCacheSize int `yaml:"forward_cache_size"`

	// Encoded-Chunk Cache horizon (§4.2)
	CacheHorizon uint64 `yaml:"cache_horizon"`

	// Reed-Solomon shape (§3): D = N/3 in the reference design.
	TotalParts int `yaml:"total_parts"`
	DataParts  int `yaml:"data_parts"`

	// NumShards is the dense shard count of the chain this node serves;
	// shard ids run [0, NumShards) and double as Merkle leaf indices for
	// the outgoing-receipts tree (§4.3).
	NumShards int `yaml:"num_shards"`

	// RNG seed for the planner's injectable Source, used by shardchunksd
	// when --rand-seed is 0; 0 here too means "use a process-level seed
	// drawn once at startup", never per-call.
	RandSeed int64 `yaml:"rand_seed"`
}

// Default returns the configuration with the defaults named in spec.md.
func Default() Config {
	return Config{
		RetryInterval:           100 * time.Millisecond,
		SwitchToOthersWindow:    400 * time.Millisecond,
		SwitchToFullFetch:       3 * time.Second,
		MaxTotalWindow:          1000 * time.Second,
		ChunkRequestRetryPeriod: 100 * time.Millisecond,
		RetryProcessingDelay:    10 * time.Millisecond,
		PeerHeightSlack:         5,
		ForwardCacheSize:        1000,
		CacheHorizon:            5,
		TotalParts:              12,
		DataParts:               4,
		NumShards:               4,
	}
}

// Load reads a YAML file into a Config seeded with Default(), so a partial
// file only needs to override the fields that differ from the default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
