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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Treystu/SC-sub006/persistence"
)

// BlobStore implements persistence.BlobStore against PostgreSQL.
type BlobStore struct {
	db *pgxpool.Pool
}

var _ persistence.BlobStore = (*BlobStore)(nil)

func (b *BlobStore) Put(ctx context.Context, id [32]byte, content []byte) error {
	const query = `
		INSERT INTO blobs (content_id, content)
		VALUES ($1, $2)
		ON CONFLICT (content_id) DO NOTHING
	`
	_, err := b.db.Exec(ctx, query, id[:], content)
	if err != nil {
		return fmt.Errorf("postgres: failed to put blob: %w", err)
	}
	return nil
}

func (b *BlobStore) Get(ctx context.Context, id [32]byte) ([]byte, error) {
	var content []byte
	err := b.db.QueryRow(ctx, `SELECT content FROM blobs WHERE content_id = $1`, id[:]).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to get blob: %w", err)
	}
	return content, nil
}

func (b *BlobStore) Has(ctx context.Context, id [32]byte) (bool, error) {
	var exists bool
	err := b.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM blobs WHERE content_id = $1)`, id[:]).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: failed to check blob existence: %w", err)
	}
	return exists, nil
}

func (b *BlobStore) Size(ctx context.Context) (int, int64, error) {
	var count int
	var total int64
	err := b.db.QueryRow(ctx, `SELECT count(*), coalesce(sum(octet_length(content)), 0) FROM blobs`).Scan(&count, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("postgres: failed to size blob store: %w", err)
	}
	return count, total, nil
}
