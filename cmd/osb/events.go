// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"time"

	"github.com/spf13/cobra"
)

var eventsTail int

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent journal events",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().IntVarP(&eventsTail, "tail", "n", 20, "number of events to show")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, _ []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	events, err := app.journal.Tail(eventsTail)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), events)
	}
	if len(events) == 0 {
		cmd.Println("No events recorded")
		return nil
	}
	for _, e := range events {
		cmd.Printf("%s  %-7s %-8s %s\n",
			e.Time.Format(time.RFC3339), e.Level, e.Category, e.Message)
	}
	return nil
}
