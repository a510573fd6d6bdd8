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

	"github.com/Treystu/SC-sub006/pkg/version"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the engine's current counters (§7 stats())",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	rootCmd.Version = version.Short()
}

func runStats(cmd *cobra.Command, args []string) error {
	eng, err := newEngineForCLI(cmd.Context())
	if err != nil {
		return err
	}

	c := eng.Stats(cmd.Context())

	fmt.Printf("frames_in               %d\n", c.FramesIn)
	fmt.Printf("frames_out              %d\n", c.FramesOut)
	fmt.Printf("frames_forwarded        %d\n", c.FramesForwarded)
	fmt.Printf("frames_deduped          %d\n", c.FramesDeduped)
	fmt.Printf("fragments_reassembled   %d\n", c.FragmentsReassembled)
	fmt.Printf("reassembly_dropped      %d\n", c.ReassemblyDropped)
	fmt.Printf("queue_depth             %d\n", c.QueueDepth)
	fmt.Printf("ledger_size             %d\n", c.LedgerSize)
	fmt.Printf("peers_connected         %d\n", c.PeersConnected)
	fmt.Printf("peers_known             %d\n", c.PeersKnown)
	fmt.Printf("transport_errors        %d\n", c.TransportErrors)
	fmt.Printf("protocol_errors         %d\n", c.ProtocolErrors)
	fmt.Printf("crypto_errors           %d\n", c.CryptoErrors)
	fmt.Printf("session_errors          %d\n", c.SessionErrors)
	fmt.Printf("persistence_errors      %d\n", c.PersistenceErrors)
	fmt.Printf("capacity_errors         %d\n", c.CapacityErrors)
	fmt.Printf("policy_errors           %d\n", c.PolicyErrors)

	return nil
}
