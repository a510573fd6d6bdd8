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

package engine

import (
	"context"

	"github.com/Treystu/SC-sub006/internal/logger"
	"github.com/Treystu/SC-sub006/persistence"
)

// QueryLedger returns every Known-Nodes Ledger entry matching predicate
// (§6 "ledger.query(predicate) -> [Entry]").
func (e *Engine) QueryLedger(ctx context.Context, predicate func(persistence.LedgerEntry) bool) ([]persistence.LedgerEntry, error) {
	entries, err := e.ledger.Query(ctx, predicate)
	if err != nil {
		return nil, e.wrapErr(logger.ErrKindPersistence, "failed to query ledger", err)
	}
	return entries, nil
}

// WipeLedger deletes every Known-Nodes Ledger entry, an explicit user
// action distinct from the periodic retention purge (§4.5 "Wipe").
func (e *Engine) WipeLedger(ctx context.Context) error {
	if err := e.ledger.Wipe(ctx); err != nil {
		return e.wrapErr(logger.ErrKindPersistence, "failed to wipe ledger", err)
	}
	return nil
}
