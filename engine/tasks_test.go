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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Treystu/SC-sub006/persistence"
	"github.com/Treystu/SC-sub006/wire"
)

func queuedFrameFor(peerID string) persistence.QueueItem {
	var senderID [wire.SenderIDSize]byte
	copy(senderID[:], "sender")
	var msgID [wire.MessageIDSize]byte
	msgID[0] = 0x9

	f := wire.NewFrame(wire.TypeText, 5, 0, 0, senderID, msgID, 0, 1, []byte("retry me"))
	now := time.Now()
	return persistence.QueueItem{
		ID:         "reverted:" + peerID,
		PeerID:     peerID,
		FrameBytes: f.Encode(),
		EnqueuedAt: now,
		ExpiresAt:  now.Add(time.Hour),
	}
}

func TestRetryQueuedFramesForReenqueuesWhenPeerRecentlySeen(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, eng.queue.Enqueue(ctx, queuedFrameFor("peer-a")))
	require.NoError(t, eng.ledger.Upsert(ctx, persistence.LedgerEntry{PeerID: "peer-a", LastSeenAt: now}))

	eng.retryQueuedFramesFor(ctx, "peer-a", now)

	require.Equal(t, 1, eng.sched.Len(), "queued frame should have been moved into the scheduler")

	depth, err := eng.queue.Depth(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, depth, "retried item should be removed from the durable queue")
}

func TestRetryQueuedFramesForLeavesQueueAloneWhenLedgerEntryIsStale(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, eng.queue.Enqueue(ctx, queuedFrameFor("peer-b")))
	require.NoError(t, eng.ledger.Upsert(ctx, persistence.LedgerEntry{
		PeerID:     "peer-b",
		LastSeenAt: now.Add(-persistence.DefaultRecentWindow * 2),
	}))

	eng.retryQueuedFramesFor(ctx, "peer-b", now)

	require.Equal(t, 0, eng.sched.Len())
	depth, err := eng.queue.Depth(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, depth, "stale peer's queued items must wait for the normal replay/expiry path")
}

func TestRetryQueuedFramesForNoopWhenPeerUnknown(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, eng.queue.Enqueue(ctx, queuedFrameFor("peer-c")))

	eng.retryQueuedFramesFor(ctx, "peer-c", now)

	require.Equal(t, 0, eng.sched.Len())
}
