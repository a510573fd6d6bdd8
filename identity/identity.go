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

// Package identity owns the node's single local long-term identity
// (§4.2): a signing keypair whose public key is the stable peer id, a
// derived fingerprint for out-of-band verification, and encrypted-at-rest
// persistence across restarts and explicit rotation.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/Treystu/SC-sub006/crypto/keys"
)

// ErrNotFound is returned by Store.Load when no identity has been
// persisted yet; callers should generate and save a fresh one.
var ErrNotFound = errors.New("identity: no identity persisted")

// Identity is the node's long-term keypair plus the metadata that
// never changes meaning across a rotation: when it was created and
// which identity it replaced, if any.
type Identity struct {
	KeyPair     *keys.Ed25519KeyPair
	Fingerprint string
	CreatedAt   time.Time
	RotatedFrom string // fingerprint of the prior identity, empty if first
}

// New wraps a freshly generated keypair as a first identity.
func New() (*Identity, error) {
	kp, err := keys.NewEd25519KeyPair()
	if err != nil {
		return nil, err
	}
	return &Identity{
		KeyPair:     kp,
		Fingerprint: kp.Fingerprint(),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Rotate produces a brand new identity that records which identity it
// replaces. Per §4.2's identity-rotation contract, rotation never
// touches the Known-Nodes Ledger; callers (engine) are responsible for
// re-bootstrapping links against the Ledger's most-recently-seen
// entries using the new identity.
func Rotate(previous *Identity) (*Identity, error) {
	next, err := New()
	if err != nil {
		return nil, err
	}
	if previous != nil {
		next.RotatedFrom = previous.Fingerprint
	}
	return next, nil
}

// Store persists and loads the single local identity. Implementations
// must keep the private seed encrypted at rest (§3 "persisted
// encrypted-at-rest").
type Store interface {
	Load(ctx context.Context) (*Identity, error)
	Save(ctx context.Context, id *Identity) error
}
