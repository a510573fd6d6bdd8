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

// Package engine wires crypto, identity, session, wire, mesh,
// persistence, and transport into the single application-facing
// handle: submit/subscribe/rotate_identity/ledger.query/stats, plus
// the cooperative background tasks that drive the mesh (inbound pumps,
// outbound scheduler, maintenance, queue replay).
package engine

import (
	"time"

	"github.com/Treystu/SC-sub006/wire"
)

// Status is the outcome of a Submit call.
type Status int

const (
	// Sent means the frame was admitted to the in-memory scheduler for
	// at least one connected peer.
	Sent Status = iota
	// Queued means the frame was durably queued instead: no peer was
	// connected, or the scheduler backlog was over its high watermark
	// (§5). Submit returns before any frame reaches a transport, so a
	// later transport failure does not change the status it returned;
	// the multiplexer reverts that frame to the durable queue instead.
	Queued
)

func (s Status) String() string {
	if s == Sent {
		return "Sent"
	}
	return "Queued"
}

// MessageID identifies one submitted or received message.
type MessageID = [wire.MessageIDSize]byte

// IncomingMessage is what Subscribe yields for each locally-delivered
// frame (§6 "subscribe() -> stream<IncomingMessage>").
type IncomingMessage struct {
	SenderPeerID    string
	Fingerprint     string
	Type            wire.Type
	Payload         []byte
	ArrivedAt       time.Time
	SessionVerified bool
}

// Counters is the snapshot stats() returns (§7 "Counters exposed via
// stats()"): per-error-kind totals plus the named mesh-health gauges.
type Counters struct {
	FramesIn             uint64
	FramesOut            uint64
	FramesForwarded      uint64
	FramesDeduped        uint64
	FragmentsReassembled uint64
	ReassemblyDropped    uint64
	QueueDepth           int
	LedgerSize           int
	PeersConnected       int
	PeersKnown           int

	TransportErrors   uint64
	ProtocolErrors    uint64
	CryptoErrors      uint64
	SessionErrors     uint64
	PersistenceErrors uint64
	CapacityErrors    uint64
	PolicyErrors      uint64
}

// SubmitOptions carries submit's optional arguments. A zero TTL means
// "use the engine's configured default"; Priority falls back to the
// type's default only when negative, since 0 is the CONTROL priority.
type SubmitOptions struct {
	// Priority overrides the type's default scheduling priority
	// (wire.Type.Priority()). Negative values are treated as unset.
	Priority int
	// TTL overrides the configured initial TTL. Zero means unset; a
	// value above the engine's configured max_ttl is a Policy error.
	TTL uint8
}

func (o SubmitOptions) priorityOr(def int) int {
	if o.Priority < 0 {
		return def
	}
	return o.Priority
}

func (o SubmitOptions) ttlOr(def uint8) uint8 {
	if o.TTL == 0 {
		return def
	}
	return o.TTL
}
