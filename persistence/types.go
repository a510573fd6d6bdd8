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

// Package persistence defines the durable outbound queue, the
// content-addressed blob store, and the Known-Nodes Ledger (§4.5), plus
// in-memory and PostgreSQL backends for each.
package persistence

import (
	"errors"
	"time"
)

// Default item TTLs and retention windows (§6 config defaults).
const (
	DefaultQueueItemTTLUser    = 7 * 24 * time.Hour
	DefaultQueueItemTTLControl = time.Hour
	DefaultLedgerRetention     = 180 * 24 * time.Hour
	DefaultRecentWindow        = 72 * time.Hour
)

// ErrNotFound is returned by a store when the requested key does not exist.
var ErrNotFound = errors.New("persistence: not found")

// QueueItem is one durable outbound frame blob, queued until a
// successful handoff or its expires_at deadline (§4.5 "Outbound queue").
type QueueItem struct {
	ID          string
	PeerID      string // intended next hop; empty for a broadcast/flood item
	Priority    int
	FrameBytes  []byte
	EnqueuedAt  time.Time
	ExpiresAt   time.Time
}

// LedgerEntry is one Known Node record (§3 "Ledger entry (Known Node)").
type LedgerEntry struct {
	PeerID               string
	PublicKey            []byte
	LastKnownAddresses   []string
	LastSeenAt           time.Time
	FirstSeenAt          time.Time
	CumulativeUptimeHint time.Duration

	RetryAttempts int
	NextRetryAt   time.Time
}

// IsRecent reports whether the entry was seen within window of now, the
// watering-hole retry gate (§4.5 "Watering-hole retry").
func (e LedgerEntry) IsRecent(now time.Time, window time.Duration) bool {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	return now.Sub(e.LastSeenAt) <= window
}
