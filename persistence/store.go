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

package persistence

import (
	"context"
	"time"
)

// Queue is the durable per-priority outbound FIFO (§4.5 "Outbound queue").
// Enqueue is expected to be called within the same logical transaction
// as the caller's send operation; backends that can't offer real
// transactions (the in-memory one) treat Enqueue as atomic by
// construction instead.
type Queue interface {
	// Enqueue durably records item. Calling Enqueue twice with the same
	// ID is idempotent: the second call is a no-op.
	Enqueue(ctx context.Context, item QueueItem) error

	// Remove deletes item id after a successful handoff.
	Remove(ctx context.Context, id string) error

	// ReplayAll returns every non-expired item, priority order first,
	// insertion order second, for the startup queue-replay task (§4.5
	// "On startup, the queue is replayed into the scheduler").
	ReplayAll(ctx context.Context) ([]QueueItem, error)

	// ReplayForPeer returns every non-expired item addressed to peerID,
	// same ordering as ReplayAll, for the watering-hole retry hook that
	// fires when a peer with a recent Ledger entry reconnects (§4.5
	// "Watering-hole retry").
	ReplayForPeer(ctx context.Context, peerID string) ([]QueueItem, error)

	// PurgeExpired deletes every item whose ExpiresAt has passed,
	// returning the count removed.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)

	// Depth returns the number of items currently queued (§7 "queue_depth").
	Depth(ctx context.Context) (int, error)
}

// BlobStore is the content-addressed `content_id -> bytes` map (§4.5 "Blob store").
type BlobStore interface {
	// Put stores content under id. Writes are idempotent: storing the
	// same id twice (with the same bytes, since id is content-derived)
	// is a no-op.
	Put(ctx context.Context, id [32]byte, content []byte) error

	// Get returns the bytes stored under id, or ErrNotFound.
	Get(ctx context.Context, id [32]byte) ([]byte, error)

	// Has reports whether id is present without reading its bytes.
	Has(ctx context.Context, id [32]byte) (bool, error)

	// Size returns the number of blobs and their total byte size, used
	// to reconcile in-memory accounting with durable storage on startup.
	Size(ctx context.Context) (count int, totalBytes int64, err error)
}

// Ledger is the Known-Nodes Ledger (§4.5 "Known-Nodes Ledger"),
// decoupled from the social-contacts list and preserved across
// identity rotation.
type Ledger interface {
	// Upsert records or refreshes a peer's entry, called on every
	// validated inbound frame and every successful outbound handoff.
	Upsert(ctx context.Context, entry LedgerEntry) error

	// Get returns the ledger entry for peerID, or ErrNotFound.
	Get(ctx context.Context, peerID string) (LedgerEntry, error)

	// Query returns every entry matching predicate.
	Query(ctx context.Context, predicate func(LedgerEntry) bool) ([]LedgerEntry, error)

	// MostRecentlySeen returns up to n entries ordered by LastSeenAt
	// descending, used to bootstrap light-ping attempts after an
	// identity rotation (§4.5 "Identity-rotation contract").
	MostRecentlySeen(ctx context.Context, n int) ([]LedgerEntry, error)

	// PurgeOlderThan deletes every entry whose LastSeenAt precedes the
	// retention cutoff, returning the count removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Wipe deletes every entry (explicit user action).
	Wipe(ctx context.Context) error

	// Size returns the number of entries (§7 "ledger_size").
	Size(ctx context.Context) (int, error)
}
