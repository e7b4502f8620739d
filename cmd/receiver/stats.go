// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webasto-remote/wlr/receiver"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the persisted receiver state (last processed sequence, TLV support cache)",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	store := receiver.NewStore(statePath)
	st, err := store.Load()
	if err != nil {
		return err
	}

	fmt.Printf("=== Receiver State (%s) ===\n", statePath)
	fmt.Printf("Last Processed Seq: %d\n", st.LastProcessedCmdSeq)
	fmt.Printf("TLV Support Cache:\n")
	for id, supported := range st.TLVSupportCache {
		fmt.Printf("  0x%02X: %v\n", id, supported)
	}
	return nil
}
