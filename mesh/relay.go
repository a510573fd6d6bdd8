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

package mesh

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Treystu/SC-sub006/wire"
)

// State is a frame's position in the relay state machine. Transitions
// are irreversible and strictly forward: Parsed -> Verified -> Deduped
// -> {LocalDeliver | Forward | Drop} (§4.4 "State machine").
type State int

const (
	StateParsed State = iota
	StateVerified
	StateDeduped
	StateLocalDeliver
	StateForward
	StateDrop
)

func (s State) String() string {
	switch s {
	case StateParsed:
		return "Parsed"
	case StateVerified:
		return "Verified"
	case StateDeduped:
		return "Deduped"
	case StateLocalDeliver:
		return "LocalDeliver"
	case StateForward:
		return "Forward"
	case StateDrop:
		return "Drop"
	default:
		return "Unknown"
	}
}

// Kind enumerates the typed reasons a frame may fail to reach delivery
// or forwarding, matching the failure taxonomy the relay pipeline
// reports through Counters (§7 "Failure semantics").
type Kind int

const (
	KindDecodeError Kind = iota
	KindBadSignature
	KindTTLExpired
	KindDuplicate
	KindReassemblyTimeout
	KindNoRoute
	KindQueueFull
)

func (k Kind) String() string {
	switch k {
	case KindDecodeError:
		return "decode_error"
	case KindBadSignature:
		return "bad_signature"
	case KindTTLExpired:
		return "ttl_expired"
	case KindDuplicate:
		return "duplicate"
	case KindReassemblyTimeout:
		return "reassembly_timeout"
	case KindNoRoute:
		return "no_route"
	case KindQueueFull:
		return "queue_full"
	default:
		return "unknown"
	}
}

// Counters is the mesh core's running tally of relay outcomes (§7).
// All fields are updated with atomic operations so a /metrics
// collector can read them concurrently with the relay hot path.
type Counters struct {
	decodeErrors       uint64
	badSignatures      uint64
	ttlExpired         uint64
	duplicates         uint64
	reassemblyTimeouts uint64
	noRoute            uint64
	queueFull          uint64

	locallyDelivered uint64
	forwarded        uint64
}

func (c *Counters) record(k Kind) {
	switch k {
	case KindDecodeError:
		atomic.AddUint64(&c.decodeErrors, 1)
	case KindBadSignature:
		atomic.AddUint64(&c.badSignatures, 1)
	case KindTTLExpired:
		atomic.AddUint64(&c.ttlExpired, 1)
	case KindDuplicate:
		atomic.AddUint64(&c.duplicates, 1)
	case KindReassemblyTimeout:
		atomic.AddUint64(&c.reassemblyTimeouts, 1)
	case KindNoRoute:
		atomic.AddUint64(&c.noRoute, 1)
	case KindQueueFull:
		atomic.AddUint64(&c.queueFull, 1)
	}
}

// Snapshot is a point-in-time copy of Counters safe to read without racing writers.
type Snapshot struct {
	DecodeErrors       uint64
	BadSignatures      uint64
	TTLExpired         uint64
	Duplicates         uint64
	ReassemblyTimeouts uint64
	NoRoute            uint64
	QueueFull          uint64
	LocallyDelivered   uint64
	Forwarded          uint64
}

// Snapshot reads every counter atomically.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		DecodeErrors:       atomic.LoadUint64(&c.decodeErrors),
		BadSignatures:      atomic.LoadUint64(&c.badSignatures),
		TTLExpired:         atomic.LoadUint64(&c.ttlExpired),
		Duplicates:         atomic.LoadUint64(&c.duplicates),
		ReassemblyTimeouts: atomic.LoadUint64(&c.reassemblyTimeouts),
		NoRoute:            atomic.LoadUint64(&c.noRoute),
		QueueFull:          atomic.LoadUint64(&c.queueFull),
		LocallyDelivered:   atomic.LoadUint64(&c.locallyDelivered),
		Forwarded:          atomic.LoadUint64(&c.forwarded),
	}
}

// Decision is the outcome of running one inbound frame through the
// relay pipeline.
type Decision struct {
	State       State
	Frame       *wire.Frame
	FailureKind Kind
	ForwardTo   []string
}

// Relay runs the Parse->Verify->Dedup->RouteUpdate->LocalDeliver|Forward
// pipeline (§4.4 "Relay decision", "State machine"). Parsing happens
// before Relay is called (wire.Decode); Relay starts from a
// structurally valid, signature-verified Frame.
type Relay struct {
	mu sync.Mutex

	localPeerID string
	peers       *Registry
	routes      *RoutingTable
	dedup       *DedupCache
	counters    Counters
}

// NewRelay constructs a Relay bound to the given peer registry, routing
// table, and dedup cache.
func NewRelay(localPeerID string, peers *Registry, routes *RoutingTable, dedup *DedupCache) *Relay {
	return &Relay{
		localPeerID: localPeerID,
		peers:       peers,
		routes:      routes,
		dedup:       dedup,
	}
}

// Counters returns the relay's running failure/outcome counters.
func (r *Relay) Counters() *Counters { return &r.counters }

// Handle decides the fate of one frame received from arrivedFrom: local
// delivery (frame's sender is not us but we are an intended recipient
// per isForLocal), forwarding to every other connected peer, or drop
// with a typed reason.
//
// isForLocal is supplied by the caller (engine) since only it knows
// whether a TEXT/FILE/VOICE frame's addressing resolves to this
// identity; CONTROL and PEER_DISCOVERY frames are always processed
// locally in addition to being forwarded.
func (r *Relay) Handle(f *wire.Frame, arrivedFrom string, now time.Time, isForLocal bool) Decision {
	if !f.Verify() {
		r.counters.record(KindBadSignature)
		return Decision{State: StateDrop, Frame: f, FailureKind: KindBadSignature}
	}

	key := DedupKey{SenderID: f.SenderID, MessageID: f.MessageID, FragmentIndex: f.FragmentIndex}
	if r.dedup.Seen(key, now) {
		r.counters.record(KindDuplicate)
		return Decision{State: StateDrop, Frame: f, FailureKind: KindDuplicate}
	}

	originID := senderIDString(f.SenderID)
	r.routes.Upsert(originID, arrivedFrom, MaxTTL-f.TTL, now)

	// The TTL gate (§4.4 step 7, "forwarding") only forecloses
	// re-emission to other peers; a frame already addressed to us is
	// still delivered locally even at TTL==0 (§8 "A frame with TTL=0
	// arriving for the local peer is delivered; for a remote peer is
	// dropped").
	ttlExpired := f.TTLExpired()
	var forwardTargets []string
	if !ttlExpired {
		forwardTargets = r.peers.ConnectedExcept(arrivedFrom)
	}

	switch {
	case isForLocal && len(forwardTargets) == 0:
		atomic.AddUint64(&r.counters.locallyDelivered, 1)
		return Decision{State: StateLocalDeliver, Frame: f}
	case isForLocal:
		atomic.AddUint64(&r.counters.locallyDelivered, 1)
		atomic.AddUint64(&r.counters.forwarded, 1)
		return Decision{State: StateLocalDeliver, Frame: f.Decremented(), ForwardTo: forwardTargets}
	case ttlExpired:
		r.counters.record(KindTTLExpired)
		return Decision{State: StateDrop, Frame: f, FailureKind: KindTTLExpired}
	case len(forwardTargets) == 0:
		r.counters.record(KindNoRoute)
		return Decision{State: StateDrop, Frame: f, FailureKind: KindNoRoute}
	default:
		atomic.AddUint64(&r.counters.forwarded, 1)
		return Decision{State: StateForward, Frame: f.Decremented(), ForwardTo: forwardTargets}
	}
}

func senderIDString(id [wire.SenderIDSize]byte) string {
	return string(id[:])
}
