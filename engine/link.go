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
	"errors"
	"fmt"
	"time"

	"github.com/Treystu/SC-sub006/internal/logger"
	"github.com/Treystu/SC-sub006/internal/metrics"
	"github.com/Treystu/SC-sub006/mesh"
	"github.com/Treystu/SC-sub006/persistence"
	"github.com/Treystu/SC-sub006/transport"
	"github.com/Treystu/SC-sub006/wire"
)

// AttachLink registers a new transport link and spawns its inbound pump
// as a cooperative task under the engine's errgroup (§5 "inbound pump
// per link"). The link starts tentative; it is promoted to active once
// its light-ping PONG validates (§4.6 "Light-ping protocol").
func (e *Engine) AttachLink(link transport.Link) error {
	e.lifecycleMu.Lock()
	g, gctx := e.g, e.gctx
	e.lifecycleMu.Unlock()

	if g == nil {
		return fmt.Errorf("engine: cannot attach a link before Run")
	}

	peerID := link.RemotePeerID()
	e.linksMu.Lock()
	e.links[peerID] = link
	e.linksMu.Unlock()

	e.mux.AddLink(peerID, link)

	ping, err := e.sendPing(gctx, link)
	if err != nil {
		e.log.Warn("failed to send initial light-ping", logger.Error(err))
	}

	g.Go(func() error { return e.inboundPump(gctx, peerID, link, ping) })
	return nil
}

func (e *Engine) sendPing(ctx context.Context, link transport.Link) (*wire.Frame, error) {
	messageID, err := randomMessageID()
	if err != nil {
		return nil, err
	}

	e.idMu.RLock()
	localPriv, localPub := e.localPriv, e.localPub
	e.idMu.RUnlock()

	ping, _, err := transport.NewPing(localPriv, localPub, messageID, uint64(time.Now().UnixMilli()))
	if err != nil {
		return nil, err
	}
	if err := link.Send(ctx, ping.Encode()); err != nil {
		return nil, err
	}
	return ping, nil
}

// inboundPump is one link's cooperative inbound task (§5): it decodes
// frames, resolves the light-ping handshake, runs every other frame
// through the relay pipeline, reassembles fragments, and fans local
// deliveries out to subscribers.
//
// Per §7, inbound-path errors are non-fatal: a malformed or
// unauthenticated frame is dropped, counted, and the pump continues.
func (e *Engine) inboundPump(ctx context.Context, peerID string, link transport.Link, pendingPing *wire.Frame) error {
	for {
		raw, err := link.Recv(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			e.mux.RemoveLink(peerID, link)
			return nil
		}

		f, err := wire.Decode(raw)
		if err != nil {
			metrics.RecordError(logger.ErrKindProtocol)
			continue
		}
		now := time.Now()

		switch {
		case transport.IsPing(f):
			pong, err := e.buildPong(f)
			if err != nil {
				metrics.RecordError(logger.ErrKindCrypto)
				continue
			}
			if err := link.Send(ctx, pong.Encode()); err != nil {
				metrics.RecordError(logger.ErrKindTransport)
			}
			continue
		case transport.IsPong(f):
			if pendingPing != nil && transport.VerifyPong(pendingPing, f) {
				e.mux.PromoteLink(peerID, link)
				e.peers.Heartbeat(peerID, "", now)
				e.retryQueuedFramesFor(ctx, peerID, now)
			}
			continue
		}

		e.handleInboundFrame(ctx, f, peerID, now)
	}
}

func (e *Engine) buildPong(ping *wire.Frame) (*wire.Frame, error) {
	e.idMu.RLock()
	localPriv, localPub := e.localPriv, e.localPub
	e.idMu.RUnlock()
	return transport.NewPong(localPriv, localPub, ping, uint64(time.Now().UnixMilli()))
}

// handleInboundFrame runs one non-handshake inbound frame through the
// relay pipeline. isForLocal is computed here, not by the relay: only
// the engine knows whether a pairwise session can open the frame's
// payload, and a frame is "for us" exactly when it is (§4.4's Handle
// contract explicitly defers this decision to its caller).
func (e *Engine) handleInboundFrame(ctx context.Context, f *wire.Frame, arrivedFrom string, now time.Time) {
	metrics.FramesProcessed.WithLabelValues(frameTypeLabel(f.Type), "in").Add(1)
	e.collector.RecordFrameIn()

	originID := string(f.SenderID[:])
	if err := e.ledger.Upsert(ctx, persistence.LedgerEntry{
		PeerID:     originID,
		PublicKey:  append([]byte(nil), f.SenderID[:]...),
		LastSeenAt: now,
	}); err != nil {
		e.log.Warn("failed to refresh ledger entry for inbound frame", logger.Error(err))
	}
	isForLocal := e.resolveIsForLocal(f, originID)

	decision := e.relay.Handle(f, arrivedFrom, now, isForLocal)

	switch decision.State {
	case mesh.StateDrop:
		e.log.Debug("relay decision", logger.String("state", decision.State.String()),
			logger.String("reason", decision.FailureKind.String()))
		if decision.FailureKind == mesh.KindDuplicate {
			metrics.FramesDeduped.Add(1)
			e.collector.RecordFrameDeduped()
		}
		return
	case mesh.StateLocalDeliver, mesh.StateForward:
		e.log.Debug("relay decision", logger.String("state", decision.State.String()))
		if decision.State == mesh.StateLocalDeliver {
			e.deliverLocal(f, originID, now)
		}
		if len(decision.ForwardTo) > 0 {
			metrics.FramesForwarded.Add(1)
			e.collector.RecordFrameForwarded()
			e.mux.Broadcast(ctx, decision.ForwardTo, decision.Frame.Encode())
		}
	}
}

// resolveIsForLocal reports whether a pairwise session with the frame's
// sender exists or can be established: frames carry no recipient field,
// so the only signal that a TEXT/VOICE/FILE_* frame is addressed to us is
// that our session with its sender can open it, and that AEAD open is
// attempted later, in deliverLocal. CONTROL and PEER_DISCOVERY are always
// processed locally alongside forwarding.
//
// Pairwise sessions are static-static ECDH between both peers' known
// long-term keys (session.New), so they agree without any interactive
// handshake: whichever side sees traffic first can derive the shared
// session from the frame's own SenderID. EnsureSession establishes it
// here on first contact, mirroring Encrypt's auto-establishment on the
// submitting side, so a frame from a peer we've never sent to is still
// deliverable instead of only ever being forwarded.
func (e *Engine) resolveIsForLocal(f *wire.Frame, originID string) bool {
	switch f.Type {
	case wire.TypeControl, wire.TypePeerDiscovery:
		return true
	}
	if !sessionEncrypted(f.Type) {
		return false
	}
	if _, err := e.sessions.EnsureSession(originID, f.SenderID[:]); err != nil {
		metrics.RecordError(logger.ErrKindSession)
		e.errCounts.record(logger.ErrKindSession)
		return false
	}
	return true
}

// deliverLocal reassembles (if needed), decrypts (if a session applies),
// and fans a locally-addressed frame out to every subscriber.
func (e *Engine) deliverLocal(f *wire.Frame, originID string, now time.Time) {
	payload, complete := e.reasm.Add(f, now)
	if !complete {
		return
	}
	if f.FragmentCount > 1 {
		metrics.FragmentsReassembled.Add(1)
		e.collector.RecordFragmentReassembled()
	}

	body := payload
	verified := false
	if sessionEncrypted(f.Type) {
		if plain, ok := e.decryptFromPeer(originID, f.MessageID, payload); ok {
			body = plain
			verified = true
		} else {
			return
		}
	}

	msg := IncomingMessage{
		SenderPeerID:    originID,
		Fingerprint:     meshFingerprintOf(originID),
		Type:            f.Type,
		Payload:         body,
		ArrivedAt:       now,
		SessionVerified: verified,
	}

	e.subsMu.Lock()
	for _, ch := range e.subs {
		select {
		case ch <- msg:
		default:
		}
	}
	e.subsMu.Unlock()
}
