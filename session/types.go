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

// Package session owns the per-peer forward-secret state described in
// §4.2: a shared secret agreed by ECDH between local and remote
// long-term keys, split by HKDF-Expand into a send/receive AEAD key
// pair with monotonic nonce counters, rotated on time, byte-count, or
// explicit rekey, with a short ring of retired keys kept to decrypt
// late-arriving frames.
package session

import "time"

// Config bounds a session's lifetime and triggers rotation.
type Config struct {
	RotateAfter      time.Duration // (a) time threshold, default 24h
	RotateAfterBytes uint64        // (b) byte-count threshold
	RetiredRingSize  int           // number of retired key generations kept, >= 2
	IdleTimeout      time.Duration // session considered stale after this much inactivity
}

// DefaultConfig matches the §3 "Session" defaults: 24h rotation, a
// generous byte threshold, and a 2-generation retired-key ring.
func DefaultConfig() Config {
	return Config{
		RotateAfter:      24 * time.Hour,
		RotateAfterBytes: 1 << 30, // 1 GiB
		RetiredRingSize:  2,
		IdleTimeout:      72 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	if c.RotateAfter <= 0 {
		c.RotateAfter = 24 * time.Hour
	}
	if c.RotateAfterBytes == 0 {
		c.RotateAfterBytes = 1 << 30
	}
	if c.RetiredRingSize < 2 {
		c.RetiredRingSize = 2
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 72 * time.Hour
	}
	return c
}

// Stats summarizes the session set held by a Manager, surfaced through
// engine.Stats (§6 "stats()").
type Stats struct {
	TotalSessions int
	StaleSessions int
}
