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

package crypto

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

// ErrLowOrderPoint is returned when an ECDH exchange resolves to the
// identity element, which would leak a predictable shared secret.
var ErrLowOrderPoint = errors.New("crypto: low-order or identity ECDH point")

// Agree performs Curve25519 ECDH between a local long-term Ed25519
// private key and a remote long-term Ed25519 public key (§4.1 "agree").
// The mesh identity is a single Ed25519 signing keypair; Agree derives
// the Montgomery-form X25519 keys from it by birational mapping rather
// than keeping a second keypair, so sign() and agree() share one
// identity and one fingerprint.
func Agree(localPriv ed25519.PrivateKey, remotePub ed25519.PublicKey) ([]byte, error) {
	localX, err := ed25519PrivToX25519(localPriv)
	if err != nil {
		return nil, err
	}
	remoteX, err := ed25519PubToX25519(remotePub)
	if err != nil {
		return nil, err
	}

	curve := ecdh.X25519()
	priv, err := curve.NewPrivateKey(localX)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid derived X25519 private key: %w", err)
	}
	pub, err := curve.NewPublicKey(remoteX)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid derived X25519 public key: %w", err)
	}

	shared, err := priv.ECDH(pub)
	if err != nil {
		return nil, fmt.Errorf("crypto: ECDH failed: %w", err)
	}

	var zero [32]byte
	if subtle.ConstantTimeCompare(shared, zero[:]) == 1 {
		return nil, ErrLowOrderPoint
	}
	return shared, nil
}

// ed25519PrivToX25519 converts an Ed25519 private key's seed into the
// corresponding X25519 (Curve25519) scalar, per RFC 8032 §5.1.5.
func ed25519PrivToX25519(priv ed25519.PrivateKey) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeyLength
	}
	seed := priv.Seed()
	h := sha512.Sum512(seed)
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64

	var out [32]byte
	copy(out[:], h[:32])
	return out[:], nil
}

// ed25519PubToX25519 converts an Ed25519 public key (an Edwards point)
// into its Montgomery-form X25519 public key.
func ed25519PubToX25519(pub ed25519.PublicKey) ([]byte, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, ErrInvalidKeyLength
	}
	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid Ed25519 public key: %w", err)
	}
	return p.BytesMontgomery(), nil
}
