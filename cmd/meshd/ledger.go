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

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Treystu/SC-sub006/engine"
	"github.com/Treystu/SC-sub006/persistence"
)

var ledgerRecentWithin time.Duration

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Query or manage the local Known-Nodes ledger",
}

var ledgerQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List ledger entries, optionally filtered to recently-seen peers",
	Long: `query prints every Known-Nodes ledger entry (§6 "ledger.query
(predicate) -> [Entry]"). --recent-within restricts the predicate to
entries seen within that duration of now; omit it to list everything.`,
	RunE: runLedgerQuery,
}

var ledgerWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every Known-Nodes ledger entry",
	RunE:  runLedgerWipe,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerQueryCmd)
	ledgerCmd.AddCommand(ledgerWipeCmd)

	ledgerQueryCmd.Flags().DurationVar(&ledgerRecentWithin, "recent-within", 0, "only list entries seen within this duration (e.g. 24h); 0 lists all")
}

// newEngineForCLI constructs an engine handle using ctx, without
// starting its background tasks (the caller decides whether to call
// Run, or just invoke one of the synchronous operations below it).
func newEngineForCLI(ctx context.Context) (*engine.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("meshd: failed to load config: %w", err)
	}
	idStore, err := openIdentityStore()
	if err != nil {
		return nil, err
	}
	return engine.New(ctx, cfg, idStore)
}

func runLedgerQuery(cmd *cobra.Command, args []string) error {
	eng, err := newEngineForCLI(cmd.Context())
	if err != nil {
		return err
	}

	now := time.Now()
	predicate := func(persistence.LedgerEntry) bool { return true }
	if ledgerRecentWithin > 0 {
		predicate = func(e persistence.LedgerEntry) bool { return e.IsRecent(now, ledgerRecentWithin) }
	}

	entries, err := eng.QueryLedger(cmd.Context(), predicate)
	if err != nil {
		return fmt.Errorf("meshd: ledger query failed: %w", err)
	}

	for _, e := range entries {
		fmt.Printf("%s\tlast_seen=%s\tfirst_seen=%s\taddrs=%v\n",
			hex.EncodeToString([]byte(e.PeerID)), e.LastSeenAt.Format(time.RFC3339), e.FirstSeenAt.Format(time.RFC3339), e.LastKnownAddresses)
	}
	fmt.Printf("%d entries\n", len(entries))
	return nil
}

func runLedgerWipe(cmd *cobra.Command, args []string) error {
	eng, err := newEngineForCLI(cmd.Context())
	if err != nil {
		return err
	}
	if err := eng.WipeLedger(cmd.Context()); err != nil {
		return fmt.Errorf("meshd: ledger wipe failed: %w", err)
	}
	fmt.Println("ledger wiped")
	return nil
}
