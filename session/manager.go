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
	"context"
	"crypto/ed25519"
	"sync"
	"time"
)

// Manager owns the mapping peer_id -> *Session (§4.2: "Owns the single
// local long-term identity and a mapping peer_id -> session_state").
// It exposes encrypt/decrypt keyed by peer_id and sweeps stale sessions
// in the background, the way the teacher's session Manager sweeps
// expired sessions on a ticker.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	localPriv ed25519.PrivateKey
	localPub  []byte
	config    Config

	sweepInterval time.Duration
}

// NewManager creates a Manager bound to the node's long-term identity.
// Call Run to start the background staleness sweep; callers that embed
// Manager in engine's errgroup should use Run, not a bare goroutine.
func NewManager(localPriv ed25519.PrivateKey, localPub []byte, cfg Config) *Manager {
	return &Manager{
		sessions:      make(map[string]*Session),
		localPriv:     localPriv,
		localPub:      append([]byte(nil), localPub...),
		config:        cfg.withDefaults(),
		sweepInterval: 30 * time.Second,
	}
}

// Run starts the background sweep loop and blocks until ctx is done,
// matching the engine's cooperative-task shutdown model (§5).
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return ctx.Err()
		case <-ticker.C:
			m.sweepStale()
		}
	}
}

// EnsureSession returns the existing session for peerID, or establishes
// a new one from remotePub if none exists yet.
func (m *Manager) EnsureSession(peerID string, remotePub []byte) (*Session, error) {
	m.mu.RLock()
	if s, ok := m.sessions[peerID]; ok {
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	s, err := New(peerID, m.localPriv, m.localPub, remotePub, m.config)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.sessions[peerID]; ok {
		m.mu.Unlock()
		_ = s.Close()
		return existing, nil
	}
	m.sessions[peerID] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the session for peerID, if one exists.
func (m *Manager) Get(peerID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[peerID]
	return s, ok
}

// Encrypt seals plaintext for peerID, establishing a session first if
// none exists, and rotating it first if rotation is due.
func (m *Manager) Encrypt(peerID string, remotePub, aad, plaintext []byte) (ciphertext, nonce []byte, err error) {
	s, err := m.EnsureSession(peerID, remotePub)
	if err != nil {
		return nil, nil, err
	}
	if s.NeedsRotation() {
		if err := s.Rotate(m.localPriv, uint32(time.Now().Unix())); err != nil {
			return nil, nil, err
		}
	}
	return s.Seal(aad, plaintext)
}

// Decrypt opens a frame from peerID. Returns an error if no session is
// established yet; the caller (mesh core) is responsible for triggering
// session establishment from the first authenticated handshake frame.
func (m *Manager) Decrypt(peerID string, aad, nonce, ciphertext []byte) ([]byte, error) {
	s, ok := m.Get(peerID)
	if !ok {
		return nil, ErrNoKeyOpened
	}
	return s.Open(aad, nonce, ciphertext)
}

// Remove closes and discards the session for peerID, if any.
func (m *Manager) Remove(peerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[peerID]; ok {
		_ = s.Close()
		delete(m.sessions, peerID)
	}
}

// Stats reports total and stale session counts for engine.Stats.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{TotalSessions: len(m.sessions)}
	for _, s := range m.sessions {
		if s.IsStale() {
			stats.StaleSessions++
		}
	}
	return stats
}

func (m *Manager) sweepStale() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.IsStale() {
			_ = s.Close()
			delete(m.sessions, id)
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		_ = s.Close()
		delete(m.sessions, id)
	}
}
