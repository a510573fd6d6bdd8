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
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfigDir  string
	flagIdentity   string
	flagPassphrase string
)

var rootCmd = &cobra.Command{
	Use:   "meshd",
	Short: "meshd - sovereign peer-to-peer mesh messaging engine",
	Long: `meshd runs and inspects the mesh engine: a server-less,
peer-to-peer messaging core with forward-secret pairwise sessions,
multi-hop flooding with deduplication, and a local Known-Nodes ledger.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "config", "directory containing config files")
	rootCmd.PersistentFlags().StringVar(&flagIdentity, "identity", "identity.json", "path to the encrypted identity file")
	rootCmd.PersistentFlags().StringVar(&flagPassphrase, "passphrase", "", "passphrase protecting the identity file (or set MESH_IDENTITY_PASSPHRASE)")

	// Subcommands are registered in their own files:
	// - run.go: runCmd
	// - identity.go: identityCmd (rotate, show)
	// - ledger.go: ledgerCmd (query, wipe)
	// - stats.go: statsCmd
}
