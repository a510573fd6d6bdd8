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
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Treystu/SC-sub006/persistence"
)

// Queue implements persistence.Queue against PostgreSQL.
type Queue struct {
	db *pgxpool.Pool
}

var _ persistence.Queue = (*Queue)(nil)

func (q *Queue) Enqueue(ctx context.Context, item persistence.QueueItem) error {
	const query = `
		INSERT INTO outbound_queue (id, peer_id, priority, frame_bytes, enqueued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := q.db.Exec(ctx, query, item.ID, item.PeerID, item.Priority, item.FrameBytes, item.EnqueuedAt, item.ExpiresAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to enqueue item %s: %w", item.ID, err)
	}
	return nil
}

func (q *Queue) Remove(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM outbound_queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to remove queue item %s: %w", id, err)
	}
	return nil
}

func (q *Queue) ReplayAll(ctx context.Context) ([]persistence.QueueItem, error) {
	const query = `
		SELECT id, peer_id, priority, frame_bytes, enqueued_at, expires_at
		FROM outbound_queue
		WHERE expires_at > now()
		ORDER BY priority ASC, enqueued_at ASC
	`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to replay queue: %w", err)
	}
	defer rows.Close()

	var out []persistence.QueueItem
	for rows.Next() {
		var item persistence.QueueItem
		if err := rows.Scan(&item.ID, &item.PeerID, &item.Priority, &item.FrameBytes, &item.EnqueuedAt, &item.ExpiresAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan queue item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (q *Queue) ReplayForPeer(ctx context.Context, peerID string) ([]persistence.QueueItem, error) {
	const query = `
		SELECT id, peer_id, priority, frame_bytes, enqueued_at, expires_at
		FROM outbound_queue
		WHERE peer_id = $1 AND expires_at > now()
		ORDER BY priority ASC, enqueued_at ASC
	`
	rows, err := q.db.Query(ctx, query, peerID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to replay queue for peer: %w", err)
	}
	defer rows.Close()

	var out []persistence.QueueItem
	for rows.Next() {
		var item persistence.QueueItem
		if err := rows.Scan(&item.ID, &item.PeerID, &item.Priority, &item.FrameBytes, &item.EnqueuedAt, &item.ExpiresAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan queue item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (q *Queue) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM outbound_queue WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to purge expired queue items: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (q *Queue) Depth(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM outbound_queue WHERE expires_at > now()`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to count queue depth: %w", err)
	}
	return n, nil
}
