// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var listHeaders bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the dives stored on the device",
	Long: `Request the dive id range from the device and print the ids of all
stored dives, oldest first.

With --headers, the header of each dive is downloaded too and a one line
summary (start time, sample count, maximum depth, firmware) is printed.

Examples:
  ixdump list --port /dev/ttyUSB0
  ixdump list --port /dev/ttyUSB0 --headers`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listHeaders, "headers", false, "Download and summarize each dive header")
}

func runList(cmd *cobra.Command, args []string) error {
	session, conn, connInfo, err := newSession()
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info("connected", zap.String("connection", connInfo))

	ctx := cmd.Context()
	ids, err := session.GetDiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("list dives: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "No dives stored on the device.")
		return nil
	}

	if !listHeaders {
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	fmt.Fprintf(out, "%5s  %-20s  %7s  %9s  %s\n", "ID", "START (UTC)", "SAMPLES", "MAX DEPTH", "FIRMWARE")
	for _, id := range ids {
		header, err := session.GetDiveHeader(ctx, id)
		if err != nil {
			return err
		}
		start := time.Unix(int64(header.UTCStartingTimeS), 0).UTC().Format("2006-01-02 15:04:05")
		fmt.Fprintf(out, "%5d  %-20s  %7d  %9d  %s\n", id, start, header.DiveSamples, header.DepthMax, header.Version())
	}
	return nil
}
