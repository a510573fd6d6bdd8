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

package keys

import (
	"crypto/ed25519"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
)

// X25519KeyPair implements crypto.Agreer by deriving Curve25519 key
// agreement material from the node's Ed25519 identity keypair, so a
// single long-term keypair serves both signing and agreement (§4.2).
type X25519KeyPair struct {
	ed *Ed25519KeyPair
}

var _ meshcrypto.Agreer = (*X25519KeyPair)(nil)

// NewX25519KeyPair wraps an existing identity keypair for key agreement.
func NewX25519KeyPair(ed *Ed25519KeyPair) *X25519KeyPair {
	return &X25519KeyPair{ed: ed}
}

func (kp *X25519KeyPair) PublicKey() []byte { return kp.ed.PublicKey() }

// Agree derives the shared secret with a remote peer's long-term
// Ed25519 public key via Curve25519 ECDH (§4.1 "agree").
func (kp *X25519KeyPair) Agree(remotePub []byte) ([]byte, error) {
	return meshcrypto.Agree(kp.ed.Private, ed25519.PublicKey(remotePub))
}
