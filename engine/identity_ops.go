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

	"github.com/Treystu/SC-sub006/identity"
	"github.com/Treystu/SC-sub006/internal/logger"
)

// recentLedgerBootstrap is how many of the Ledger's most-recently-seen
// entries a fresh identity re-pings after rotation (§4.5
// "Identity-rotation contract").
const recentLedgerBootstrap = 20

// RotateIdentity replaces the local identity with a freshly generated
// one, leaving every other piece of state untouched (§6 "rotate_identity
// -> new_fingerprint", §4.2/§4.5 "rotation never touches the Ledger").
// Existing pairwise sessions are bound to the old long-term key and are
// torn down; the returned fingerprint's owner must re-establish them.
func (e *Engine) RotateIdentity(ctx context.Context) (string, error) {
	e.idMu.Lock()
	previous := e.id
	next, err := identity.Rotate(previous)
	if err != nil {
		e.idMu.Unlock()
		return "", e.wrapErr(logger.ErrKindCrypto, "failed to rotate identity", err)
	}

	if err := e.idStore.Save(ctx, next); err != nil {
		e.idMu.Unlock()
		return "", e.wrapErr(logger.ErrKindPersistence, "failed to persist rotated identity", err)
	}

	e.id = next
	e.localPriv = next.KeyPair.Private
	e.localPub = append([]byte(nil), next.KeyPair.Public...)
	e.idMu.Unlock()

	e.log.Info("identity rotated",
		logger.String("previous_fingerprint", previous.Fingerprint),
		logger.String("new_fingerprint", next.Fingerprint))

	e.rebootstrapAfterRotation(ctx)

	return next.Fingerprint, nil
}

// rebootstrapAfterRotation re-sends the light-ping handshake to the
// Ledger's most-recently-seen peers under the new identity, since every
// pairwise session keyed by the old long-term public key is now dead.
func (e *Engine) rebootstrapAfterRotation(ctx context.Context) {
	entries, err := e.ledger.MostRecentlySeen(ctx, recentLedgerBootstrap)
	if err != nil {
		e.log.Warn("failed to load ledger for post-rotation rebootstrap", logger.Error(err))
		return
	}

	e.linksMu.Lock()
	defer e.linksMu.Unlock()
	for _, entry := range entries {
		link, ok := e.links[entry.PeerID]
		if !ok {
			continue
		}
		if _, err := e.sendPing(ctx, link); err != nil {
			e.log.Warn("failed to re-ping peer after identity rotation",
				logger.String("peer_id_fp", meshFingerprintOf(entry.PeerID)), logger.Error(err))
		}
	}
}

// AddSocialContact marks peerID as an explicitly-accepted social
// contact, a UI-only distinction from a silent mesh neighbor (§6
// "add_social_contact").
func (e *Engine) AddSocialContact(peerID string) {
	e.peers.SetSocial(peerID, true)
	e.socialMu.Lock()
	e.social[peerID] = true
	e.socialMu.Unlock()
}

// RemoveSocialContact reverses AddSocialContact (§6 "remove_social_contact").
func (e *Engine) RemoveSocialContact(peerID string) {
	e.peers.SetSocial(peerID, false)
	e.socialMu.Lock()
	delete(e.social, peerID)
	e.socialMu.Unlock()
}

// IsSocialContact reports whether peerID has been explicitly accepted.
func (e *Engine) IsSocialContact(peerID string) bool {
	e.socialMu.RLock()
	defer e.socialMu.RUnlock()
	return e.social[peerID]
}
