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
	"sync/atomic"
	"time"
)

// Collector is the engine's in-memory counter set, the same values
// returned by the stats() operation and, in parallel, exported on the
// Prometheus registry by message.go/peers.go/errors.go. It exists
// alongside the promauto vars elsewhere in this package because
// stats() needs a cheap atomic read without going through the
// Prometheus gather path.
type Collector struct {
	framesIn             uint64
	framesOut            uint64
	framesForwarded      uint64
	framesDeduped        uint64
	fragmentsReassembled uint64
	reassemblyDropped    uint64

	startTime time.Time
}

// NewCollector creates a new counter set with its uptime clock started.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) RecordFrameIn()             { atomic.AddUint64(&c.framesIn, 1) }
func (c *Collector) RecordFrameOut()            { atomic.AddUint64(&c.framesOut, 1) }
func (c *Collector) RecordFrameForwarded()      { atomic.AddUint64(&c.framesForwarded, 1) }
func (c *Collector) RecordFrameDeduped()        { atomic.AddUint64(&c.framesDeduped, 1) }
func (c *Collector) RecordFragmentReassembled() { atomic.AddUint64(&c.fragmentsReassembled, 1) }
func (c *Collector) RecordReassemblyDropped()   { atomic.AddUint64(&c.reassemblyDropped, 1) }

// Snapshot is a point-in-time copy of the counters named by the
// stats() operation's Counters return value.
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	FramesIn             uint64
	FramesOut            uint64
	FramesForwarded      uint64
	FramesDeduped        uint64
	FragmentsReassembled uint64
	ReassemblyDropped    uint64
}

// GetSnapshot returns the current counters. Individual fields are read
// atomically but not as one transaction, which matches the advisory
// nature of these statistics.
func (c *Collector) GetSnapshot() Snapshot {
	return Snapshot{
		Timestamp:            time.Now(),
		Uptime:               time.Since(c.startTime),
		FramesIn:             atomic.LoadUint64(&c.framesIn),
		FramesOut:            atomic.LoadUint64(&c.framesOut),
		FramesForwarded:      atomic.LoadUint64(&c.framesForwarded),
		FramesDeduped:        atomic.LoadUint64(&c.framesDeduped),
		FragmentsReassembled: atomic.LoadUint64(&c.fragmentsReassembled),
		ReassemblyDropped:    atomic.LoadUint64(&c.reassemblyDropped),
	}
}

// Reset zeroes every counter and restarts the uptime clock. Intended
// for tests; production code should read GetSnapshot and let counters
// accumulate for the life of the process.
func (c *Collector) Reset() {
	atomic.StoreUint64(&c.framesIn, 0)
	atomic.StoreUint64(&c.framesOut, 0)
	atomic.StoreUint64(&c.framesForwarded, 0)
	atomic.StoreUint64(&c.framesDeduped, 0)
	atomic.StoreUint64(&c.fragmentsReassembled, 0)
	atomic.StoreUint64(&c.reassemblyDropped, 0)
	c.startTime = time.Now()
}

// Global collector instance, mirroring the package-level default
// logger in internal/logger.
var globalCollector = NewCollector()

// GetGlobalCollector returns the global counter set.
func GetGlobalCollector() *Collector {
	return globalCollector
}
