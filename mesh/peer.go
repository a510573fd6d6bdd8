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

// Package mesh implements the mesh core (§4.4): the connected-peer
// registry, soft routing table, deduplication cache, flood forwarder,
// priority queue with a token-bucket bandwidth scheduler, and the
// per-frame relay decision state machine.
package mesh

import (
	"sync"
	"time"
)

const (
	// DefaultStaleAfter is T_stale: a peer whose heartbeat is older
	// than this is marked unhealthy.
	DefaultStaleAfter = 60 * time.Second
	// DefaultDeadAfter is T_dead: a peer unhealthy for this long is removed.
	DefaultDeadAfter = 180 * time.Second
)

// PeerRecord is the registry's view of one connected peer (§3 "Peer record").
type PeerRecord struct {
	PeerID          string
	Fingerprint     string
	DisplayName     string
	TransportSet    []string
	Quality         float64
	LastHeartbeatAt time.Time
	AddedAt         time.Time
	IsSocial        bool

	healthy bool
}

func (p PeerRecord) isStale(now time.Time, staleAfter time.Duration) bool {
	return now.Sub(p.LastHeartbeatAt) >= staleAfter
}

func (p PeerRecord) isDead(now time.Time, deadAfter time.Duration) bool {
	return now.Sub(p.LastHeartbeatAt) >= deadAfter
}

// DisconnectEvent is emitted when a peer is swept as dead.
type DisconnectEvent struct {
	PeerID string
	At     time.Time
}

// Registry tracks connected peers and their health, matching the
// heartbeat-driven stale/dead sweep a mesh routing layer needs.
type Registry struct {
	mu sync.RWMutex

	peers      map[string]*PeerRecord
	staleAfter time.Duration
	deadAfter  time.Duration

	onDisconnect func(DisconnectEvent)
}

// NewRegistry constructs a Registry. onDisconnect, if non-nil, is
// called (outside the registry's lock) whenever a peer is swept dead.
func NewRegistry(staleAfter, deadAfter time.Duration, onDisconnect func(DisconnectEvent)) *Registry {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if deadAfter <= 0 {
		deadAfter = DefaultDeadAfter
	}
	return &Registry{
		peers:        make(map[string]*PeerRecord),
		staleAfter:   staleAfter,
		deadAfter:    deadAfter,
		onDisconnect: onDisconnect,
	}
}

// Heartbeat records activity from peerID, registering it as connected
// if it's not already known.
func (r *Registry) Heartbeat(peerID, fingerprint string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.peers[peerID]
	if !ok {
		p = &PeerRecord{
			PeerID:      peerID,
			Fingerprint: fingerprint,
			AddedAt:     now,
			healthy:     true,
		}
		r.peers[peerID] = p
	}
	p.LastHeartbeatAt = now
	p.healthy = true
}

// Get returns the peer record for peerID, if connected.
func (r *Registry) Get(peerID string) (PeerRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[peerID]
	if !ok {
		return PeerRecord{}, false
	}
	return *p, true
}

// Connected returns every peer currently tracked, healthy or stale but
// not yet dead.
func (r *Registry) Connected() []PeerRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PeerRecord, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, *p)
	}
	return out
}

// ConnectedExcept returns every connected peer other than exclude,
// the set the flood forwarder emits a frame to (§4.4 "Flood forwarder").
func (r *Registry) ConnectedExcept(exclude string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.peers))
	for id := range r.peers {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}

// SetSocial marks whether peerID is an explicitly-accepted social
// contact, as opposed to a silent mesh neighbor (§3 "Peer record").
func (r *Registry) SetSocial(peerID string, social bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.peers[peerID]; ok {
		p.IsSocial = social
	}
}

// Sweep marks stale peers unhealthy and removes dead ones, emitting a
// DisconnectEvent for each removal.
func (r *Registry) Sweep(now time.Time) {
	var disconnected []DisconnectEvent

	r.mu.Lock()
	for id, p := range r.peers {
		if p.isDead(now, r.deadAfter) {
			delete(r.peers, id)
			disconnected = append(disconnected, DisconnectEvent{PeerID: id, At: now})
			continue
		}
		p.healthy = !p.isStale(now, r.staleAfter)
	}
	r.mu.Unlock()

	if r.onDisconnect != nil {
		for _, ev := range disconnected {
			r.onDisconnect(ev)
		}
	}
}

// Count returns the number of currently tracked peers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// SocialCount returns the number of peers marked as social contacts.
func (r *Registry) SocialCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.peers {
		if p.IsSocial {
			n++
		}
	}
	return n
}
