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

// Package keys holds the concrete implementations of the crypto.Signer
// and crypto.Agreer extension points. The mesh's first cut wires exactly
// one of each (Ed25519 and X25519-via-Ed25519), but callers depend only
// on the interfaces in package crypto, never on these concrete types.
package keys

import (
	"crypto/ed25519"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
)

// Ed25519KeyPair is the mesh's long-term identity: it implements
// crypto.Signer directly, and crypto.Agreer is derived from the same
// seed by X25519KeyPair below, so a node carries one keypair, not two.
type Ed25519KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

var _ meshcrypto.Signer = (*Ed25519KeyPair)(nil)

// NewEd25519KeyPair generates a fresh identity keypair.
func NewEd25519KeyPair() (*Ed25519KeyPair, error) {
	kp, _, err := meshcrypto.GenerateIdentity()
	if err != nil {
		return nil, err
	}
	return &Ed25519KeyPair{Public: kp.Public, Private: kp.Private}, nil
}

// Ed25519KeyPairFromSeed reconstructs a keypair from a stored 32-byte
// seed, as loaded from the identity store on startup.
func Ed25519KeyPairFromSeed(seed []byte) (*Ed25519KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, meshcrypto.ErrInvalidKeyLength
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Ed25519KeyPair{Public: priv.Public().(ed25519.PublicKey), Private: priv}, nil
}

func (kp *Ed25519KeyPair) PublicKey() []byte { return append([]byte(nil), kp.Public...) }

func (kp *Ed25519KeyPair) Seed() []byte { return append([]byte(nil), kp.Private.Seed()...) }

func (kp *Ed25519KeyPair) Fingerprint() string { return meshcrypto.Fingerprint(kp.Public) }

func (kp *Ed25519KeyPair) Sign(message []byte) ([]byte, error) {
	return meshcrypto.Sign(kp.Private, message)
}

func (kp *Ed25519KeyPair) Verify(pub, message, signature []byte) bool {
	return meshcrypto.Verify(ed25519.PublicKey(pub), message, signature)
}
