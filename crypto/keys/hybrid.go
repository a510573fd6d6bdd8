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
	"crypto/sha256"
	"errors"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
)

// HybridKeyPair implements crypto.Agreer as X25519 ECDH combined with
// an ML-KEM-768 encapsulation, hashed together into one shared secret.
// Post-quantum primitives are an explicit Non-goal for the first cut
// (§9), so this type is not reachable from session or engine; it exists
// to prove out the extension point named in SPEC_FULL.md §4.1.a and is
// exercised only by this package's own tests.
type HybridKeyPair struct {
	classical *X25519KeyPair
	kemPub    *mlkem768.PublicKey
	kemPriv   *mlkem768.PrivateKey
}

var _ meshcrypto.Agreer = (*HybridKeyPair)(nil)

// NewHybridKeyPair pairs an existing identity keypair with a fresh
// ML-KEM-768 encapsulation keypair.
func NewHybridKeyPair(ed *Ed25519KeyPair) (*HybridKeyPair, error) {
	pub, priv, err := mlkem768.GenerateKeyPair(nil)
	if err != nil {
		return nil, err
	}
	return &HybridKeyPair{
		classical: NewX25519KeyPair(ed),
		kemPub:    pub,
		kemPriv:   priv,
	}, nil
}

// PublicKey returns the classical Ed25519-derived public key; the KEM
// public key travels out of band via KEMPublicKey, and the KEM
// ciphertext is returned by Encapsulate.
func (h *HybridKeyPair) PublicKey() []byte { return h.classical.PublicKey() }

// KEMPublicKey returns the encoded ML-KEM-768 public key, to be
// advertised alongside the node's long-term identity key.
func (h *HybridKeyPair) KEMPublicKey() []byte {
	enc, err := h.kemPub.MarshalBinary()
	if err != nil {
		return nil
	}
	return enc
}

// Encapsulate is the initiator side: given the remote's long-term
// identity key and encoded ML-KEM public key, it returns the combined
// shared secret and the KEM ciphertext to send to the remote peer.
func (h *HybridKeyPair) Encapsulate(remotePub, remoteKEMPub []byte) (shared, ciphertext []byte, err error) {
	classicalShared, err := h.classical.Agree(remotePub)
	if err != nil {
		return nil, nil, err
	}

	scheme := mlkem768.Scheme()
	pub, err := scheme.UnmarshalBinaryPublicKey(remoteKEMPub)
	if err != nil {
		return nil, nil, err
	}
	ct, ss, err := scheme.Encapsulate(pub)
	if err != nil {
		return nil, nil, err
	}

	return combine(classicalShared, ss), ct, nil
}

// Agree always returns an error: recovering the combined shared secret
// needs the KEM ciphertext produced by Encapsulate as well as the
// remote's classical public key, and crypto.Agreer's signature carries
// only one peer value. The responder side is AgreeWithCiphertext.
func (h *HybridKeyPair) Agree(remotePub []byte) ([]byte, error) {
	return nil, errors.New("keys: HybridKeyPair requires AgreeWithCiphertext, not bare Agree")
}

// AgreeWithCiphertext is the responder counterpart to Encapsulate.
func (h *HybridKeyPair) AgreeWithCiphertext(remotePub, ciphertext []byte) ([]byte, error) {
	classicalShared, err := h.classical.Agree(remotePub)
	if err != nil {
		return nil, err
	}
	ss, err := mlkem768.Scheme().Decapsulate(h.kemPriv, ciphertext)
	if err != nil {
		return nil, err
	}
	return combine(classicalShared, ss), nil
}

func combine(classical, pq []byte) []byte {
	h := sha256.New()
	h.Write(classical)
	h.Write(pq)
	return h.Sum(nil)
}
