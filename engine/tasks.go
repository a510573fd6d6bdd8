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
	"encoding/hex"
	"time"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
	"github.com/Treystu/SC-sub006/internal/logger"
	"github.com/Treystu/SC-sub006/internal/metrics"
	"github.com/Treystu/SC-sub006/mesh"
	"github.com/Treystu/SC-sub006/persistence"
	"github.com/Treystu/SC-sub006/transport"
	"github.com/Treystu/SC-sub006/wire"
)

// shouldDivert reports whether non-CONTROL submissions should bypass
// the in-memory scheduler and go straight to the durable queue. It
// applies hysteresis between the high and low watermarks so a backlog
// hovering near one threshold doesn't flip Sent/Queued on every call
// (§5 "Back-pressure").
func (e *Engine) shouldDivert() bool {
	e.backpressureMu.Lock()
	defer e.backpressureMu.Unlock()

	depth := e.sched.Len()
	switch {
	case depth >= highWatermarkFrames:
		e.diverting = true
	case depth < lowWatermarkFrames:
		e.diverting = false
	}
	return e.diverting
}

// schedulerLoop is the outbound scheduler cooperative task (§5): it
// drains the priority scheduler at the pace its token bucket allows and
// hands each frame to the transport multiplexer.
func (e *Engine) schedulerLoop(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				ob, ok := e.sched.Next(time.Now())
				if !ok {
					break
				}
				e.sendOutbound(ctx, ob)
			}
		}
	}
}

func (e *Engine) sendOutbound(ctx context.Context, ob *mesh.Outbound) {
	if err := e.mux.Send(ctx, ob.PeerID, ob.Frame.Encode()); err != nil {
		e.log.Warn("outbound send failed, reverted to durable queue",
			logger.String("peer_id_fp", meshFingerprintOf(ob.PeerID)),
			logger.Error(err))
		metrics.RecordError(logger.ErrKindTransport)
		return
	}
	if err := e.ledger.Upsert(ctx, persistence.LedgerEntry{
		PeerID:     ob.PeerID,
		PublicKey:  []byte(ob.PeerID),
		LastSeenAt: time.Now(),
	}); err != nil {
		e.log.Warn("failed to refresh ledger entry after send", logger.Error(err))
	}
}

// onFrameRevert is the multiplexer's callback for a frame that failed
// to send: it's pushed back onto the durable queue under the peer's id,
// where retryQueuedFramesFor re-enqueues it when a link to a recently
// seen peer is promoted again, and queueReplay on the next startup (§4.6).
func (e *Engine) onFrameRevert(peerID string, frame []byte) {
	now := time.Now()
	item := persistence.QueueItem{
		ID:         frameRevertID(peerID, frame),
		PeerID:     peerID,
		FrameBytes: frame,
		EnqueuedAt: now,
		ExpiresAt:  now.Add(e.cfg.QueueItemTTLUser()),
	}
	if err := e.queue.Enqueue(context.Background(), item); err != nil {
		e.log.Error("failed to persist reverted outbound frame", logger.Error(err))
	}
}

// onLinkDisconnect is the multiplexer's callback for a peer losing its
// last link. It logs the event and forgets the engine's link for the
// peer; the peer registry's own heartbeat sweep handles eventual
// removal from Connected().
func (e *Engine) onLinkDisconnect(ev transport.DisconnectEvent) {
	e.log.Info("peer lost its last link", logger.String("peer_id_fp", meshFingerprintOf(ev.PeerID)))

	e.linksMu.Lock()
	delete(e.links, ev.PeerID)
	e.linksMu.Unlock()
}

// maintenanceLoop is the periodic maintenance cooperative task (§5): it
// sweeps dead peers, expires routes, drops timed-out reassembly buffers,
// and purges expired outbound queue items and the ledger's retention
// window. The dedup cache is not swept here; it ages entries out itself.
func (e *Engine) maintenanceLoop(ctx context.Context) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.runMaintenance(ctx)
		}
	}
}

func (e *Engine) runMaintenance(ctx context.Context) {
	now := time.Now()

	e.peers.Sweep(now)
	e.routes.Expire(now)

	dropped := e.reasm.Sweep(now)
	if dropped > 0 {
		metrics.ReassemblyDropped.Add(float64(dropped))
		for i := 0; i < dropped; i++ {
			e.collector.RecordReassemblyDropped()
		}
	}

	if n, err := e.queue.PurgeExpired(ctx, now); err != nil {
		e.log.Error("failed to purge expired outbound queue items", logger.Error(err))
	} else if n > 0 {
		e.log.Debug("purged expired outbound queue items", logger.Int("count", n))
	}

	cutoff := now.Add(-e.cfg.LedgerRetention())
	if n, err := e.ledger.PurgeOlderThan(ctx, cutoff); err != nil {
		e.log.Error("failed to purge ledger retention window", logger.Error(err))
	} else if n > 0 {
		e.log.Debug("purged stale ledger entries", logger.Int("count", n))
	}

	e.publishGauges(ctx)
}

func (e *Engine) publishGauges(ctx context.Context) {
	metrics.SetPeersConnected(e.peers.Count())
	if size, err := e.ledger.Size(ctx); err == nil {
		metrics.SetPeersKnown(size)
	}
	if depth, err := e.queue.Depth(ctx); err == nil {
		metrics.SetQueueDepth(depth)
	}
}

// queueReplay is the startup queue-replay cooperative task (§4.5 "On
// startup, the queue is replayed into the scheduler"). It runs once,
// then blocks until shutdown so it still occupies an errgroup slot.
func (e *Engine) queueReplay(ctx context.Context) error {
	items, err := e.queue.ReplayAll(ctx)
	if err != nil {
		return e.wrapErr(logger.ErrKindPersistence, "failed to replay durable outbound queue", err)
	}

	for _, item := range items {
		f, derr := wire.Decode(item.FrameBytes)
		if derr != nil {
			e.log.Warn("dropping unreadable replayed queue item", logger.String("id", item.ID))
			continue
		}
		targets := []string{item.PeerID}
		if item.PeerID == "" {
			targets = e.peers.ConnectedExcept(e.LocalPeerID())
		}
		enqueued := false
		for _, peerID := range targets {
			if peerID == "" {
				continue
			}
			e.sched.Enqueue(&mesh.Outbound{
				PeerID:   peerID,
				Frame:    f,
				Priority: item.Priority,
				QueuedAt: time.Now(),
			})
			enqueued = true
		}
		if enqueued {
			_ = e.queue.Remove(ctx, item.ID)
		}
	}

	<-ctx.Done()
	return ctx.Err()
}

// retryQueuedFramesFor is the §4.5 "watering-hole retry" hook: when a
// link to peerID is (re)established, a peer we've recently seen is
// assumed to be the same one we were durably queuing for, so its queued
// frames are re-enqueued into the scheduler immediately instead of
// waiting for the next full queueReplay pass (which only ever runs once,
// at startup).
func (e *Engine) retryQueuedFramesFor(ctx context.Context, peerID string, now time.Time) {
	entry, err := e.ledger.Get(ctx, peerID)
	if err != nil {
		return
	}
	if !entry.IsRecent(now, persistence.DefaultRecentWindow) {
		return
	}

	items, err := e.queue.ReplayForPeer(ctx, peerID)
	if err != nil {
		e.log.Warn("failed to replay durable queue for reconnected peer",
			logger.String("peer_id_fp", meshFingerprintOf(peerID)), logger.Error(err))
		return
	}

	for _, item := range items {
		f, derr := wire.Decode(item.FrameBytes)
		if derr != nil {
			e.log.Warn("dropping unreadable queued item on watering-hole retry", logger.String("id", item.ID))
			continue
		}
		e.sched.Enqueue(&mesh.Outbound{
			PeerID:   peerID,
			Frame:    f,
			Priority: item.Priority,
			QueuedAt: now,
		})
		_ = e.queue.Remove(ctx, item.ID)
	}
}

func frameRevertID(peerID string, frame []byte) string {
	h := meshcrypto.Hash(frame)
	return peerID + ":" + hex.EncodeToString(h[:])
}

func meshFingerprintOf(peerID string) string {
	if len(peerID) == 0 {
		return ""
	}
	h := meshcrypto.Hash([]byte(peerID))
	return hex.EncodeToString(h[:4])
}
