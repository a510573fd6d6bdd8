// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package engine

import (
	"sync/atomic"

	"github.com/Treystu/SC-sub006/internal/logger"
	"github.com/Treystu/SC-sub006/internal/metrics"
)

// errorCounts is the engine's own per-kind error tally, read back by
// Stats(). It duplicates what internal/metrics.ErrorsByKind exports to
// Prometheus, the way the teacher's Collector keeps a cheap atomic copy
// of counters alongside the promauto vars for stats() to read without
// going through the Prometheus gather path.
type errorCounts struct {
	transport   uint64
	protocol    uint64
	crypto      uint64
	session     uint64
	persistence uint64
	capacity    uint64
	policy      uint64
}

func (c *errorCounts) record(kind string) {
	switch kind {
	case logger.ErrKindTransport:
		atomic.AddUint64(&c.transport, 1)
	case logger.ErrKindProtocol:
		atomic.AddUint64(&c.protocol, 1)
	case logger.ErrKindCrypto:
		atomic.AddUint64(&c.crypto, 1)
	case logger.ErrKindSession:
		atomic.AddUint64(&c.session, 1)
	case logger.ErrKindPersistence:
		atomic.AddUint64(&c.persistence, 1)
	case logger.ErrKindCapacity:
		atomic.AddUint64(&c.capacity, 1)
	case logger.ErrKindPolicy:
		atomic.AddUint64(&c.policy, 1)
	}
}

func (c *errorCounts) snapshot() (transport, protocol, crypto, session, persistence, capacity, policy uint64) {
	return atomic.LoadUint64(&c.transport),
		atomic.LoadUint64(&c.protocol),
		atomic.LoadUint64(&c.crypto),
		atomic.LoadUint64(&c.session),
		atomic.LoadUint64(&c.persistence),
		atomic.LoadUint64(&c.capacity),
		atomic.LoadUint64(&c.policy)
}

// wrapErr builds a logger.EngineError of the given kind, records it in
// both the Prometheus per-kind counter and the engine's own tally, and
// returns it. Every outbound-path error the engine returns to a caller
// goes through this (§7 "each carries a structured reason code, never a
// free-form string").
func (e *Engine) wrapErr(kind, message string, cause error) *logger.EngineError {
	metrics.RecordError(kind)
	e.errCounts.record(kind)
	return logger.NewEngineError(kind, message, cause)
}

// startupErr is wrapErr's counterpart for failures in New, before an
// Engine value exists to track per-kind counts against; Crypto and
// Persistence failures here are fatal per §7 and the process never
// reaches a point where Stats() could report them anyway.
func startupErr(kind, message string, cause error) *logger.EngineError {
	metrics.RecordError(kind)
	return logger.NewEngineError(kind, message, cause)
}

var (
	// errLoopback is the Policy error for submitting to one's own peer id.
	errLoopback = "submit: recipient is the local peer id (loopback)"
	// errTTLAboveMax is the Policy error for a caller-supplied TTL above
	// the configured maximum.
	errTTLAboveMax = "submit: ttl exceeds configured max_ttl"
)
