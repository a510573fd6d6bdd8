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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Treystu/SC-sub006/persistence"
)

// Ledger implements persistence.Ledger against PostgreSQL.
type Ledger struct {
	db *pgxpool.Pool
}

var _ persistence.Ledger = (*Ledger)(nil)

func (l *Ledger) Upsert(ctx context.Context, entry persistence.LedgerEntry) error {
	const query = `
		INSERT INTO known_nodes (peer_id, public_key, last_known_addresses, last_seen_at, first_seen_at, cumulative_uptime_hint_ms, retry_attempts, next_retry_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (peer_id) DO UPDATE SET
			public_key = EXCLUDED.public_key,
			last_known_addresses = EXCLUDED.last_known_addresses,
			last_seen_at = EXCLUDED.last_seen_at,
			cumulative_uptime_hint_ms = EXCLUDED.cumulative_uptime_hint_ms,
			retry_attempts = EXCLUDED.retry_attempts,
			next_retry_at = EXCLUDED.next_retry_at
	`
	firstSeen := entry.FirstSeenAt
	if firstSeen.IsZero() {
		firstSeen = entry.LastSeenAt
	}
	_, err := l.db.Exec(ctx, query,
		entry.PeerID, entry.PublicKey, entry.LastKnownAddresses, entry.LastSeenAt, firstSeen,
		entry.CumulativeUptimeHint.Milliseconds(), entry.RetryAttempts, nullableTime(entry.NextRetryAt))
	if err != nil {
		return fmt.Errorf("postgres: failed to upsert ledger entry %s: %w", entry.PeerID, err)
	}
	return nil
}

func (l *Ledger) Get(ctx context.Context, peerID string) (persistence.LedgerEntry, error) {
	const query = `
		SELECT peer_id, public_key, last_known_addresses, last_seen_at, first_seen_at, cumulative_uptime_hint_ms, retry_attempts, next_retry_at
		FROM known_nodes WHERE peer_id = $1
	`
	entry, err := scanLedgerEntry(l.db.QueryRow(ctx, query, peerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return persistence.LedgerEntry{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.LedgerEntry{}, fmt.Errorf("postgres: failed to get ledger entry %s: %w", peerID, err)
	}
	return entry, nil
}

func (l *Ledger) Query(ctx context.Context, predicate func(persistence.LedgerEntry) bool) ([]persistence.LedgerEntry, error) {
	all, err := l.scanAll(ctx, `SELECT peer_id, public_key, last_known_addresses, last_seen_at, first_seen_at, cumulative_uptime_hint_ms, retry_attempts, next_retry_at FROM known_nodes`)
	if err != nil {
		return nil, err
	}
	var out []persistence.LedgerEntry
	for _, e := range all {
		if predicate(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *Ledger) MostRecentlySeen(ctx context.Context, n int) ([]persistence.LedgerEntry, error) {
	const query = `
		SELECT peer_id, public_key, last_known_addresses, last_seen_at, first_seen_at, cumulative_uptime_hint_ms, retry_attempts, next_retry_at
		FROM known_nodes ORDER BY last_seen_at DESC LIMIT $1
	`
	return l.scanAll(ctx, query, n)
}

func (l *Ledger) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := l.db.Exec(ctx, `DELETE FROM known_nodes WHERE last_seen_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to purge stale ledger entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (l *Ledger) Wipe(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, `TRUNCATE known_nodes`); err != nil {
		return fmt.Errorf("postgres: failed to wipe ledger: %w", err)
	}
	return nil
}

func (l *Ledger) Size(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRow(ctx, `SELECT count(*) FROM known_nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: failed to count ledger size: %w", err)
	}
	return n, nil
}

func (l *Ledger) scanAll(ctx context.Context, query string, args ...any) ([]persistence.LedgerEntry, error) {
	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query ledger: %w", err)
	}
	defer rows.Close()

	var out []persistence.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan ledger entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLedgerEntry(row rowScanner) (persistence.LedgerEntry, error) {
	var e persistence.LedgerEntry
	var uptimeMS int64
	var nextRetry *time.Time
	err := row.Scan(&e.PeerID, &e.PublicKey, &e.LastKnownAddresses, &e.LastSeenAt, &e.FirstSeenAt, &uptimeMS, &e.RetryAttempts, &nextRetry)
	if err != nil {
		return persistence.LedgerEntry{}, err
	}
	e.CumulativeUptimeHint = time.Duration(uptimeMS) * time.Millisecond
	if nextRetry != nil {
		e.NextRetryAt = *nextRetry
	}
	return e, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
