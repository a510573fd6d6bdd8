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
	"context"

	"github.com/Treystu/SC-sub006/internal/logger"
)

// Stats aggregates every counter named in §7's Counters table: frame
// gauges from the collector (fed alongside the Prometheus vars at each
// frame event in link.go/submit.go/tasks.go), live reads from the
// persistence backends and peer registry, and the engine's own
// per-kind error tally.
func (e *Engine) Stats(ctx context.Context) Counters {
	frames := e.collector.GetSnapshot()

	queueDepth, err := e.queue.Depth(ctx)
	if err != nil {
		e.log.Warn("failed to read outbound queue depth", logger.Error(err))
	}

	ledgerSize, err := e.ledger.Size(ctx)
	if err != nil {
		e.log.Warn("failed to read ledger size", logger.Error(err))
	}

	transportErrs, protocolErrs, cryptoErrs, sessionErrs, persistenceErrs, capacityErrs, policyErrs := e.errCounts.snapshot()

	return Counters{
		FramesIn:             frames.FramesIn,
		FramesOut:            frames.FramesOut,
		FramesForwarded:      frames.FramesForwarded,
		FramesDeduped:        frames.FramesDeduped,
		FragmentsReassembled: frames.FragmentsReassembled,
		ReassemblyDropped:    frames.ReassemblyDropped,
		QueueDepth:           queueDepth,
		LedgerSize:           ledgerSize,
		PeersConnected:       e.peers.Count(),
		PeersKnown:           ledgerSize,

		TransportErrors:   transportErrs,
		ProtocolErrors:    protocolErrs,
		CryptoErrors:      cryptoErrs,
		SessionErrors:     sessionErrs,
		PersistenceErrors: persistenceErrs,
		CapacityErrors:    capacityErrs,
		PolicyErrors:      policyErrs,
	}
}
