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

// Package postgres implements persistence.Queue, persistence.BlobStore,
// and persistence.Ledger on top of a jackc/pgx/v5 connection pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (c Config) connString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Stores bundles a connected pool with its three persistence backends
// and the schema needed to run them.
type Stores struct {
	pool   *pgxpool.Pool
	Queue  *Queue
	Blobs  *BlobStore
	Ledger *Ledger
}

// Open connects to PostgreSQL, verifies connectivity, ensures the
// schema exists, and returns the three persistence backends sharing
// one connection pool.
func Open(ctx context.Context, cfg Config) (*Stores, error) {
	pool, err := pgxpool.New(ctx, cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping failed: %w", err)
	}
	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Stores{
		pool:   pool,
		Queue:  &Queue{db: pool},
		Blobs:  &BlobStore{db: pool},
		Ledger: &Ledger{db: pool},
	}, nil
}

// Close releases the connection pool.
func (s *Stores) Close() { s.pool.Close() }

// Ping checks the connection is alive.
func (s *Stores) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS outbound_queue (
	id TEXT PRIMARY KEY,
	peer_id TEXT NOT NULL,
	priority INTEGER NOT NULL,
	frame_bytes BYTEA NOT NULL,
	enqueued_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS outbound_queue_priority_idx ON outbound_queue (priority, enqueued_at);

CREATE TABLE IF NOT EXISTS blobs (
	content_id BYTEA PRIMARY KEY,
	content BYTEA NOT NULL
);

CREATE TABLE IF NOT EXISTS known_nodes (
	peer_id TEXT PRIMARY KEY,
	public_key BYTEA NOT NULL,
	last_known_addresses TEXT[] NOT NULL DEFAULT '{}',
	last_seen_at TIMESTAMPTZ NOT NULL,
	first_seen_at TIMESTAMPTZ NOT NULL,
	cumulative_uptime_hint_ms BIGINT NOT NULL DEFAULT 0,
	retry_attempts INTEGER NOT NULL DEFAULT 0,
	next_retry_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS known_nodes_last_seen_idx ON known_nodes (last_seen_at DESC);
`
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to ensure schema: %w", err)
	}
	return nil
}
