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
	"time"
)

// DefaultRouteTTL is T_route: a routing entry not refreshed within this
// window is considered stale and evicted (§4.4 "Routing table").
const DefaultRouteTTL = 5 * time.Minute

// route is one soft routing-table entry: "messages from origin have
// recently been seen arriving via nextHop, with hopCount hops so far."
type route struct {
	nextHop   string
	hopCount  uint8
	updatedAt time.Time
}

// RoutingTable is a best-effort, self-expiring hint table used only to
// prefer a previously-successful next hop; it is never authoritative
// and flooding remains correct without it (§4.4 "Routing table").
type RoutingTable struct {
	mu      sync.RWMutex
	routes  map[string]route
	routeTTL time.Duration
}

// NewRoutingTable constructs a RoutingTable with the given entry TTL;
// ttl<=0 uses DefaultRouteTTL.
func NewRoutingTable(ttl time.Duration) *RoutingTable {
	if ttl <= 0 {
		ttl = DefaultRouteTTL
	}
	return &RoutingTable{
		routes:   make(map[string]route),
		routeTTL: ttl,
	}
}

// Upsert records that a frame originating at origin most recently
// arrived via nextHop with hopCount hops. A strictly shorter hop count
// always replaces the existing entry; an equal-or-longer hop count
// still refreshes the freshness timestamp of an entry from the same
// next hop, so a live path isn't evicted merely for not improving.
func (t *RoutingTable) Upsert(origin, nextHop string, hopCount uint8, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.routes[origin]
	if !ok || hopCount < existing.hopCount || existing.nextHop == nextHop {
		t.routes[origin] = route{nextHop: nextHop, hopCount: hopCount, updatedAt: now}
	}
}

// Lookup returns the best known next hop for origin, if any fresh entry exists.
func (t *RoutingTable) Lookup(origin string, now time.Time) (nextHop string, hopCount uint8, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, found := t.routes[origin]
	if !found || now.Sub(r.updatedAt) >= t.routeTTL {
		return "", 0, false
	}
	return r.nextHop, r.hopCount, true
}

// Expire removes every entry older than the routing TTL, returning the
// number evicted.
func (t *RoutingTable) Expire(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for origin, r := range t.routes {
		if now.Sub(r.updatedAt) >= t.routeTTL {
			delete(t.routes, origin)
			n++
		}
	}
	return n
}

// Size returns the number of routing entries currently held.
func (t *RoutingTable) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}
