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

import "github.com/rcrowley/go-metrics"

// engineMetrics bundles the counters/gauges the engine registers, the same
// way the teacher's own metrics package is used by its subsystems:
// metrics.NewRegisteredCounter/Gauge/Meter against a metrics.Registry.
type engineMetrics struct {
	requestsSent        metrics.Meter
	requestsDue         metrics.Meter
	responsesSent       metrics.Meter
	requestsInFlight    metrics.Gauge
	cacheEntries        metrics.Gauge
	forwardCacheEvicted metrics.Meter
	partsForwarded      metrics.Meter
	chunksCompleted     metrics.Meter
	decodeAttempts      metrics.Meter
	decodeFailures      metrics.Meter
}

func newEngineMetrics(r metrics.Registry) *engineMetrics {
	if r == nil {
		r = metrics.NewRegistry()
	}
	return &engineMetrics{
		requestsSent:        metrics.NewRegisteredMeter("chunks/requests_sent", r),
		requestsDue:         metrics.NewRegisteredMeter("chunks/requests_due", r),
		responsesSent:       metrics.NewRegisteredMeter("chunks/responses_sent", r),
		requestsInFlight:    metrics.NewRegisteredGauge("chunks/requests_in_flight", r),
		cacheEntries:        metrics.NewRegisteredGauge("chunks/cache_entries", r),
		forwardCacheEvicted: metrics.NewRegisteredMeter("chunks/forward_cache_evicted", r),
		partsForwarded:      metrics.NewRegisteredMeter("chunks/parts_forwarded", r),
		chunksCompleted:     metrics.NewRegisteredMeter("chunks/chunks_completed", r),
		decodeAttempts:      metrics.NewRegisteredMeter("chunks/decode_attempts", r),
		decodeFailures:      metrics.NewRegisteredMeter("chunks/decode_failures", r),
	}
}
