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

// Package crypto provides the pure, side-effect-free cryptographic
// primitives the mesh engine builds on: Ed25519 identity signing, X25519
// key agreement, HKDF-SHA256 derivation, ChaCha20-Poly1305 AEAD sealing,
// SHA-256 content hashing, and CSPRNG-backed random byte generation.
//
// These functions never touch disk or the network; durable identity and
// session state live in the identity and session packages.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	PublicKeySize  = ed25519.PublicKeySize  // 32
	PrivateKeySize = ed25519.PrivateKeySize // 64
	SignatureSize  = ed25519.SignatureSize  // 64
	SharedKeySize  = 32
	AEADKeySize    = chacha20poly1305.KeySize   // 32
	AEADNonceSize  = chacha20poly1305.NonceSize // 12
	HashSize       = sha256.Size                // 32
)

// Sentinel errors. Every failure here is fatal to the calling operation;
// none of these represent a retryable condition.
var (
	ErrInvalidKeyLength = errors.New("crypto: invalid key length")
	ErrInvalidSignature = errors.New("crypto: signature verification failed")
	ErrAEADOpenFailed   = errors.New("crypto: AEAD authentication failed")
	ErrNoSecureRandom   = errors.New("crypto: no cryptographically secure random source")
)

// KeyPair is the long-term Ed25519 identity: a public signing key (also
// the stable peer id on the wire) and the matching private key.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateIdentity creates a new Ed25519 signing keypair and its
// fingerprint. Fails closed: if the platform's CSPRNG cannot be read,
// no key is returned (§4.1 "fail closed").
func GenerateIdentity() (KeyPair, string, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, "", errors.Join(ErrNoSecureRandom, err)
	}
	return KeyPair{Public: pub, Private: priv}, Fingerprint(pub), nil
}

// Fingerprint returns the human-displayable digest of a public key: the
// first 10 bytes of SHA-256(pub), base16-encoded and grouped in 4-char
// blocks (see SPEC_FULL.md §9.a for the grouping convention).
func Fingerprint(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return groupHex(sum[:10])
}

func groupHex(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*2+len(b)/2)
	for i, c := range b {
		if i > 0 && i%2 == 0 {
			out = append(out, '-')
		}
		out = append(out, hexDigits[c>>4], hexDigits[c&0x0f])
	}
	return string(out)
}

// Sign signs bytes with a long-term Ed25519 private key.
func Sign(priv ed25519.PrivateKey, message []byte) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeyLength
	}
	return ed25519.Sign(priv, message), nil
}

// Verify checks an Ed25519 signature over message against pub.
func Verify(pub ed25519.PublicKey, message, signature []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, message, signature)
}

// Derive runs HKDF-SHA256 (extract with an empty salt, then expand) over
// a shared secret, producing a
// key32 bound to label and context. label distinguishes the purpose
// (e.g. "send", "recv"); context binds the derivation to a specific
// session (e.g. both peers' ephemeral or long-term public keys).
func Derive(shared []byte, label string, context []byte) ([]byte, error) {
	if len(shared) == 0 {
		return nil, ErrInvalidKeyLength
	}
	info := append([]byte(label+"|"), context...)
	r := hkdf.New(sha256.New, shared, nil, info)
	out := make([]byte, SharedKeySize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// AEADSeal authenticated-encrypts plain under key32/nonce12 with aad
// bound in. The nonce is caller-supplied: the session layer owns nonce
// uniqueness via a monotonic counter (§4.2), never random generation,
// so that the same key is never reused with a repeated nonce.
func AEADSeal(key, nonce, aad, plain []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrInvalidKeyLength
	}
	return aead.Seal(nil, nonce, plain, aad), nil
}

// AEADOpen authenticated-decrypts cipher produced by AEADSeal. Returns
// ErrAEADOpenFailed (never a partial/garbage plaintext) on tag mismatch.
func AEADOpen(key, nonce, aad, cipher []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrInvalidKeyLength
	}
	plain, err := aead.Open(nil, nonce, cipher, aad)
	if err != nil {
		return nil, ErrAEADOpenFailed
	}
	return plain, nil
}

func newAEAD(key []byte) (interface {
	NonceSize() int
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKeyLength
	}
	return chacha20poly1305.New(key)
}

// Hash returns SHA-256(b). Used both for fingerprints and for
// content-addressing blobs (§4.3 "content addressing").
func Hash(b []byte) [HashSize]byte {
	return sha256.Sum256(b)
}

// Random returns n bytes read from the platform CSPRNG, failing closed
// rather than silently degrading to a weaker source.
func Random(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, errors.Join(ErrNoSecureRandom, err)
	}
	return b, nil
}
