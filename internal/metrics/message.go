// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesProcessed tracks frames passing through the relay pipeline,
	// labeled by wire type and outcome.
	FramesProcessed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "processed_total",
			Help:      "Total number of frames processed by the relay pipeline",
		},
		[]string{"type", "direction"}, // control/text/file/voice/peer_discovery/fragment, in/out
	)

	// FramesForwarded tracks frames relayed on to other peers.
	FramesForwarded = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "forwarded_total",
			Help:      "Total number of frames forwarded to other peers",
		},
	)

	// FramesDeduped tracks frames dropped as duplicates by the dedup cache.
	FramesDeduped = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "deduped_total",
			Help:      "Total number of frames dropped as duplicates",
		},
	)

	// FragmentsReassembled tracks successful fragment reassembly.
	FragmentsReassembled = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "fragments_reassembled_total",
			Help:      "Total number of fragmented messages successfully reassembled",
		},
	)

	// ReassemblyDropped tracks fragment sets dropped after exceeding the
	// reassembly deadline.
	ReassemblyDropped = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "reassembly_dropped_total",
			Help:      "Total number of fragment sets dropped for exceeding the reassembly deadline",
		},
	)

	// FrameSize tracks wire frame payload sizes.
	FrameSize = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "size_bytes",
			Help:      "Wire frame size in bytes",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10), // 64B to 16MB
		},
	)
)
