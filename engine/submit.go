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
	"fmt"
	"time"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
	"github.com/Treystu/SC-sub006/internal/logger"
	"github.com/Treystu/SC-sub006/internal/metrics"
	"github.com/Treystu/SC-sub006/mesh"
	"github.com/Treystu/SC-sub006/persistence"
	"github.com/Treystu/SC-sub006/wire"
)

// sessionEncrypted reports whether submit() encrypts frames of typ
// pairwise when a recipient is named. CONTROL and PEER_DISCOVERY stay plaintext:
// the mesh needs to read them (light-ping, route hints) regardless of
// which session, if any, happens to exist with their sender.
func sessionEncrypted(typ wire.Type) bool {
	switch typ {
	case wire.TypeControl, wire.TypePeerDiscovery:
		return false
	default:
		return true
	}
}

// Submit encodes payload as one or more signed frames and hands them to
// the outbound scheduler, or durably queues them when no peer is
// connected or the scheduler backlog is over its high watermark (§6
// "submit", §5 "Back-pressure").
func (e *Engine) Submit(ctx context.Context, recipientPeerID string, typ wire.Type, payload []byte, opts SubmitOptions) (MessageID, Status, error) {
	var zero MessageID

	localPeerID := e.LocalPeerID()
	if recipientPeerID != "" && recipientPeerID == localPeerID {
		return zero, Queued, e.wrapErr(logger.ErrKindPolicy, errLoopback, nil)
	}

	ttl := opts.ttlOr(uint8(e.cfg.InitialTTL))
	if int(ttl) > e.cfg.MaxTTL {
		return zero, Queued, e.wrapErr(logger.ErrKindPolicy, errTTLAboveMax, nil)
	}

	messageID, err := randomMessageID()
	if err != nil {
		return zero, Queued, e.wrapErr(logger.ErrKindCrypto, "failed to generate message id", err)
	}

	body := payload
	if recipientPeerID != "" && sessionEncrypted(typ) {
		body, err = e.encryptForPeer(recipientPeerID, messageID, body)
		if err != nil {
			return messageID, Queued, e.wrapErr(logger.ErrKindSession, "failed to encrypt payload for recipient", err)
		}
	}

	now := e.now()
	senderID := senderIDArray(e.localPub)
	priority := opts.priorityOr(typ.Priority())

	frames, err := wire.Fragment(typ, ttl, 0, uint64(now.UnixMilli()), senderID, messageID, body, e.cfg.FragmentSize)
	if err != nil {
		return messageID, Queued, e.wrapErr(logger.ErrKindProtocol, "failed to fragment payload", err)
	}

	e.idMu.RLock()
	localPriv := e.localPriv
	e.idMu.RUnlock()

	for _, f := range frames {
		if err := f.Sign(localPriv); err != nil {
			return messageID, Queued, e.wrapErr(logger.ErrKindCrypto, "failed to sign frame", err)
		}
	}

	metrics.FramesProcessed.WithLabelValues(frameTypeLabel(typ), "out").Add(float64(len(frames)))
	for _, f := range frames {
		metrics.FrameSize.Observe(float64(len(f.Payload)))
		e.collector.RecordFrameOut()
	}

	status := e.dispatch(ctx, frames, priority, now)
	return messageID, status, nil
}

// dispatch fans each frame out to every connected peer's outbound
// schedule, or durably queues it when no peer is connected or the
// scheduler backlog has crossed its high watermark.
func (e *Engine) dispatch(ctx context.Context, frames []*wire.Frame, priority int, now time.Time) Status {
	targets := e.peers.ConnectedExcept(e.LocalPeerID())

	if len(targets) == 0 {
		e.enqueueDurable(ctx, "", frames, priority, now)
		return Queued
	}

	if priority != wire.TypeControl.Priority() && e.shouldDivert() {
		e.enqueueDurable(ctx, "", frames, priority, now)
		return Queued
	}

	for _, peerID := range targets {
		for _, f := range frames {
			e.sched.Enqueue(&mesh.Outbound{
				PeerID:   peerID,
				Frame:    f,
				Priority: priority,
				QueuedAt: now,
			})
		}
	}
	return Sent
}

// enqueueDurable persists frames to the outbound queue, to be replayed
// by queueReplay once a link is available (§4.5 "Outbound queue").
func (e *Engine) enqueueDurable(ctx context.Context, peerID string, frames []*wire.Frame, priority int, now time.Time) {
	ttl := e.cfg.QueueItemTTLUser()
	for _, f := range frames {
		if f.Type == wire.TypeControl {
			ttl = e.cfg.QueueItemTTLControl()
		}
		item := persistence.QueueItem{
			ID:         queueItemID(f),
			PeerID:     peerID,
			Priority:   priority,
			FrameBytes: f.Encode(),
			EnqueuedAt: now,
			ExpiresAt:  now.Add(ttl),
		}
		if err := e.queue.Enqueue(ctx, item); err != nil {
			e.log.Error("failed to persist outbound frame", logger.Error(err))
			metrics.RecordError(logger.ErrKindPersistence)
		}
	}
}

func queueItemID(f *wire.Frame) string {
	return fmt.Sprintf("%x:%x:%d", f.SenderID[:], f.MessageID[:], f.FragmentIndex)
}

// encryptForPeer seals payload under the pairwise session with
// recipientPeerID, prepending the session's nonce to the ciphertext
// since wire.Frame carries no dedicated nonce field.
func (e *Engine) encryptForPeer(recipientPeerID string, messageID MessageID, payload []byte) ([]byte, error) {
	remotePub := []byte(recipientPeerID)
	aad := append([]byte(nil), messageID[:]...)

	ciphertext, nonce, err := e.sessions.Encrypt(recipientPeerID, remotePub, aad, payload)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(nonce)+len(ciphertext))
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// decryptFromPeer reverses encryptForPeer: it splits the nonce prefix
// back off and opens the remainder under the pairwise session with
// senderPeerID.
func (e *Engine) decryptFromPeer(senderPeerID string, messageID MessageID, body []byte) ([]byte, bool) {
	if len(body) < meshcrypto.AEADNonceSize {
		return nil, false
	}
	nonce := body[:meshcrypto.AEADNonceSize]
	ciphertext := body[meshcrypto.AEADNonceSize:]
	aad := append([]byte(nil), messageID[:]...)

	plain, err := e.sessions.Decrypt(senderPeerID, aad, nonce, ciphertext)
	if err != nil {
		return nil, false
	}
	return plain, true
}

func randomMessageID() (MessageID, error) {
	var id MessageID
	b, err := meshcrypto.Random(len(id))
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

func senderIDArray(pub []byte) [wire.SenderIDSize]byte {
	var out [wire.SenderIDSize]byte
	copy(out[:], pub)
	return out
}

func (e *Engine) now() time.Time { return time.Now() }

func frameTypeLabel(typ wire.Type) string {
	switch typ {
	case wire.TypeText:
		return "text"
	case wire.TypeFileMetadata:
		return "file_metadata"
	case wire.TypeFileChunk:
		return "file_chunk"
	case wire.TypeVoice:
		return "voice"
	case wire.TypeControl:
		return "control"
	case wire.TypePeerDiscovery:
		return "peer_discovery"
	case wire.TypeKeyExchange:
		return "key_exchange"
	default:
		return "unknown"
	}
}
