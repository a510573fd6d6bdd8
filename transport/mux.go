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

package transport

import (
	"context"
	"fmt"
	"sync"
)

// DisconnectEvent is raised when every link to a peer is lost (§4.6
// "the multiplexer raises a disconnect event consumed by the Peer Registry").
type DisconnectEvent struct {
	PeerID string
}

type linkHandle struct {
	link  Link
	state LinkState
}

// Multiplexer keeps the set of active links per peer, picks the
// cheapest active link for unicast sends, and rotates across links for
// broadcast so a single asymmetric transport can't be amplified
// (§4.6).
type Multiplexer struct {
	mu sync.Mutex

	links map[string][]*linkHandle // keyed by peer_id once known

	broadcastRotation int

	onDisconnect func(DisconnectEvent)
	onRevert     func(peerID string, frame []byte)
}

// NewMultiplexer constructs an empty Multiplexer. onDisconnect is
// called when a peer loses its last link; onRevert is called with any
// frame that was in flight to that peer so the caller can push it back
// onto the durable outbound queue (§4.6 "in-flight frames revert to
// the outbound queue").
func NewMultiplexer(onDisconnect func(DisconnectEvent), onRevert func(peerID string, frame []byte)) *Multiplexer {
	return &Multiplexer{
		links:        make(map[string][]*linkHandle),
		onDisconnect: onDisconnect,
		onRevert:     onRevert,
	}
}

// AddLink registers a new, initially tentative link for peerID. A link
// is promoted to active once its light-ping PONG validates.
func (m *Multiplexer) AddLink(peerID string, link Link) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[peerID] = append(m.links[peerID], &linkHandle{link: link, state: LinkTentative})
}

// PromoteLink marks link active for peerID after a validated PONG, and
// updates the caller's Ledger (the caller is expected to do the Ledger
// write; Promote only flips local multiplexer state).
func (m *Multiplexer) PromoteLink(peerID string, link Link) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.links[peerID] {
		if h.link == link {
			h.state = LinkActive
		}
	}
}

// RemoveLink drops link from peerID's set, closing it. If that was the
// peer's last link, a DisconnectEvent fires.
func (m *Multiplexer) RemoveLink(peerID string, link Link) {
	m.mu.Lock()
	var remaining []*linkHandle
	for _, h := range m.links[peerID] {
		if h.link != link {
			remaining = append(remaining, h)
		}
	}
	m.links[peerID] = remaining
	empty := len(remaining) == 0
	if empty {
		delete(m.links, peerID)
	}
	m.mu.Unlock()

	_ = link.Close()

	if empty && m.onDisconnect != nil {
		m.onDisconnect(DisconnectEvent{PeerID: peerID})
	}
}

// bestActiveLink returns the lowest-cost-class active link for peerID.
// When several active links tie at the lowest cost class, it rotates
// the pick across calls so broadcast traffic doesn't always favor the
// same one of two equally-cheap transports.
func (m *Multiplexer) bestActiveLink(peerID string) (Link, bool) {
	handles := m.links[peerID]

	var lowestCost CostClass = -1
	var tied []Link
	for _, h := range handles {
		if h.state != LinkActive {
			continue
		}
		switch {
		case lowestCost == -1 || h.link.CostClass() < lowestCost:
			lowestCost = h.link.CostClass()
			tied = []Link{h.link}
		case h.link.CostClass() == lowestCost:
			tied = append(tied, h.link)
		}
	}
	if len(tied) == 0 {
		return nil, false
	}
	return tied[m.broadcastRotation%len(tied)], true
}

// Send delivers frame to peerID over its lowest-cost-class active
// link. On failure (or if no active link exists) it reverts the frame
// to the outbound queue via onRevert and returns an error so the
// caller can treat it as Queued rather than Sent (§4.6, §7 "Transport"
// errors convert to Queued).
func (m *Multiplexer) Send(ctx context.Context, peerID string, frame []byte) error {
	m.mu.Lock()
	link, ok := m.bestActiveLink(peerID)
	m.mu.Unlock()

	if !ok {
		if m.onRevert != nil {
			m.onRevert(peerID, frame)
		}
		return fmt.Errorf("transport: no active link to peer %s", peerID)
	}

	if err := link.Send(ctx, frame); err != nil {
		if m.onRevert != nil {
			m.onRevert(peerID, frame)
		}
		return fmt.Errorf("transport: send to %s failed: %w", peerID, err)
	}
	return nil
}

// Broadcast delivers frame to every peer in peerIDs, rotating which
// link is tried first across successive calls when a peer has more
// than one active link, so flood traffic doesn't always prefer the
// same transport (§4.6 "rotates across links for broadcast").
func (m *Multiplexer) Broadcast(ctx context.Context, peerIDs []string, frame []byte) {
	m.mu.Lock()
	m.broadcastRotation++
	m.mu.Unlock()

	for _, peerID := range peerIDs {
		_ = m.Send(ctx, peerID, frame)
	}
}

// ActiveLinkCount returns the number of active links across all peers.
func (m *Multiplexer) ActiveLinkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, handles := range m.links {
		for _, h := range handles {
			if h.state == LinkActive {
				n++
			}
		}
	}
	return n
}

// PeerCount returns the number of peers with at least one link (tentative or active).
func (m *Multiplexer) PeerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links)
}
