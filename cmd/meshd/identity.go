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

	"github.com/spf13/cobra"
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Inspect or manage the local identity",
}

var identityRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Generate a fresh identity, keeping the Known-Nodes ledger",
	Long: `rotate replaces the local long-term key pair with a freshly
generated one. Every pairwise session under the old key is torn down;
the Known-Nodes ledger is left untouched (§6 "rotate_identity").`,
	RunE: runIdentityRotate,
}

var identityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current identity's fingerprint",
	RunE:  runIdentityShow,
}

func init() {
	rootCmd.AddCommand(identityCmd)
	identityCmd.AddCommand(identityRotateCmd)
	identityCmd.AddCommand(identityShowCmd)
}

func runIdentityRotate(cmd *cobra.Command, args []string) error {
	eng, err := newEngineForCLI(cmd.Context())
	if err != nil {
		return err
	}

	fingerprint, err := eng.RotateIdentity(cmd.Context())
	if err != nil {
		return fmt.Errorf("meshd: rotation failed: %w", err)
	}

	fmt.Printf("identity rotated: %s\n", fingerprint)
	return nil
}

func runIdentityShow(cmd *cobra.Command, args []string) error {
	eng, err := newEngineForCLI(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(eng.Fingerprint())
	return nil
}
