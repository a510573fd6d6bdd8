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

package session

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
)

var (
	// ErrReplay names a received nonce counter that does not strictly
	// exceed the highest counter already accepted under the current key
	// (§4.2 "Nonces must never repeat"). Open does not return it: such a
	// frame is rejected under the current key and, unless a retired key
	// opens it, Open returns ErrNoKeyOpened.
	ErrReplay = errors.New("session: replayed or out-of-order nonce")
	// ErrNoKeyOpened is returned when neither the current key nor any
	// retired key in the ring can open a received frame.
	ErrNoKeyOpened = errors.New("session: no session key could decrypt frame")
	ErrClosed      = errors.New("session: session is closed")
)

// generation is one send/receive key pair plus the nonce-counter state
// that must never be reused under it.
type generation struct {
	sendKey     []byte
	recvKey     []byte
	sendCounter uint64
	recvHighest uint64
	recvSeen    bool
}

// Session is the forward-secret state for a single remote peer.
type Session struct {
	mu sync.Mutex

	peerID    string
	localPub  []byte
	remotePub []byte
	config    Config

	createdAt     time.Time
	lastRotatedAt time.Time
	lastUsedAt    time.Time
	bytesSent     uint64
	closed        bool

	current generation
	retired []generation // most-recent retired generation last
}

// New establishes a fresh session by agreeing a shared secret between
// the local long-term keypair and the remote peer's long-term public
// key, then deriving the first generation of send/receive keys.
func New(peerID string, localPriv ed25519.PrivateKey, localPub, remotePub []byte, cfg Config) (*Session, error) {
	shared, err := meshcrypto.Agree(localPriv, ed25519.PublicKey(remotePub))
	if err != nil {
		return nil, fmt.Errorf("session: agree: %w", err)
	}
	defer zero(shared)

	gen, err := deriveGeneration(shared, localPub, remotePub, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		peerID:        peerID,
		localPub:      append([]byte(nil), localPub...),
		remotePub:     append([]byte(nil), remotePub...),
		config:        cfg.withDefaults(),
		createdAt:     now,
		lastRotatedAt: now,
		lastUsedAt:    now,
		current:       gen,
	}, nil
}

// deriveGeneration splits a shared secret into directional keys bound
// to (localPub, remotePub, epoch), following the HKDF label/context
// derivation pattern a WireGuard-style mesh uses: a canonical ordering
// of the two public keys decides which derived key is "lo->hi" and
// which is "hi->lo", so both peers agree on which one is theirs to
// send with and which to receive with, without a handshake round trip.
func deriveGeneration(shared, localPub, remotePub []byte, epoch uint32) (generation, error) {
	lo, hi := canonicalOrder(localPub, remotePub)
	ctx := make([]byte, 0, len(lo)+len(hi)+4)
	ctx = append(ctx, lo...)
	ctx = append(ctx, hi...)
	ctx = binary.BigEndian.AppendUint32(ctx, epoch)

	loToHi, err := meshcrypto.Derive(shared, "lo->hi", ctx)
	if err != nil {
		return generation{}, err
	}
	hiToLo, err := meshcrypto.Derive(shared, "hi->lo", ctx)
	if err != nil {
		return generation{}, err
	}

	if bytes.Equal(localPub, lo) {
		return generation{sendKey: loToHi, recvKey: hiToLo}, nil
	}
	return generation{sendKey: hiToLo, recvKey: loToHi}, nil
}

func canonicalOrder(a, b []byte) (lo, hi []byte) {
	if bytes.Compare(a, b) <= 0 {
		return a, b
	}
	return b, a
}

// Seal encrypts plaintext under the current generation's send key and
// a fresh monotonic nonce, returning the ciphertext and the nonce used.
// The nonce is the big-endian send counter, never random bytes; the
// engine carries it in front of the ciphertext in the frame payload.
func (s *Session) Seal(aad, plaintext []byte) (ciphertext, nonce []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, nil, ErrClosed
	}

	nonce = nonceFromCounter(s.current.sendCounter)
	s.current.sendCounter++

	ciphertext, err = meshcrypto.AEADSeal(s.current.sendKey, nonce, aad, plaintext)
	if err != nil {
		return nil, nil, err
	}

	s.bytesSent += uint64(len(plaintext))
	s.lastUsedAt = time.Now()
	return ciphertext, nonce, nil
}

// Open decrypts a frame, trying the current generation first and
// falling back through the retired ring for frames that arrived late
// relative to a rotation (§4.2 "grace window").
func (s *Session) Open(aad, nonce, ciphertext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	counter := counterFromNonce(nonce)

	if plain, ok := s.tryOpen(&s.current, counter, aad, nonce, ciphertext, true); ok {
		s.lastUsedAt = time.Now()
		return plain, nil
	}

	for i := range s.retired {
		gen := &s.retired[i]
		if plain, ok := s.tryOpen(gen, counter, aad, nonce, ciphertext, false); ok {
			s.lastUsedAt = time.Now()
			return plain, nil
		}
	}

	return nil, ErrNoKeyOpened
}

func (s *Session) tryOpen(gen *generation, counter uint64, aad, nonce, ciphertext []byte, enforceMonotonic bool) ([]byte, bool) {
	if enforceMonotonic && gen.recvSeen && counter <= gen.recvHighest {
		return nil, false
	}
	plain, err := meshcrypto.AEADOpen(gen.recvKey, nonce, aad, ciphertext)
	if err != nil {
		return nil, false
	}
	if enforceMonotonic {
		gen.recvHighest = counter
		gen.recvSeen = true
	}
	return plain, true
}

// NeedsRotation reports whether (a) time, (b) byte-count, or the nonce
// counter approaching exhaustion requires a rekey (§4.2).
func (s *Session) NeedsRotation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsRotationLocked()
}

func (s *Session) needsRotationLocked() bool {
	if time.Since(s.lastRotatedAt) >= s.config.RotateAfter {
		return true
	}
	if s.bytesSent >= s.config.RotateAfterBytes {
		return true
	}
	const counterHighWaterMark = 1 << 48
	return s.current.sendCounter >= counterHighWaterMark
}

// Rotate derives a new generation of keys, retiring the current one
// into the ring so frames encrypted just before rotation can still be
// opened within the grace window. Call this in response to (a)/(b)
// thresholds or an explicit KEY_EXCHANGE frame from the peer.
func (s *Session) Rotate(localPriv ed25519.PrivateKey, epoch uint32) error {
	shared, err := meshcrypto.Agree(localPriv, ed25519.PublicKey(s.remotePub))
	if err != nil {
		return fmt.Errorf("session: rotate agree: %w", err)
	}
	defer zero(shared)

	next, err := deriveGeneration(shared, s.localPub, s.remotePub, epoch)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.retired = append(s.retired, s.current)
	if len(s.retired) > s.config.RetiredRingSize {
		s.retired = s.retired[len(s.retired)-s.config.RetiredRingSize:]
	}
	s.current = next
	s.lastRotatedAt = time.Now()
	s.bytesSent = 0
	return nil
}

// IsStale reports whether the session has been idle long enough that
// the mesh core should drop it and fall back to the Ledger to
// re-establish contact (§4.2 idle handling, distinct from rotation).
func (s *Session) IsStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastUsedAt) >= s.config.IdleTimeout
}

func (s *Session) PeerID() string        { return s.peerID }
func (s *Session) CreatedAt() time.Time  { return s.createdAt }
func (s *Session) LastUsedAt() time.Time { return s.lastUsedAt }

// Close zeroes all key material. The session must not be used after Close.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	zero(s.current.sendKey)
	zero(s.current.recvKey)
	for i := range s.retired {
		zero(s.retired[i].sendKey)
		zero(s.retired[i].recvKey)
	}
	return nil
}

func nonceFromCounter(counter uint64) []byte {
	nonce := make([]byte, meshcrypto.AEADNonceSize)
	binary.BigEndian.PutUint64(nonce[meshcrypto.AEADNonceSize-8:], counter)
	return nonce
}

func counterFromNonce(nonce []byte) uint64 {
	if len(nonce) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(nonce[len(nonce)-8:])
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
