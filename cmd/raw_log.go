// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/ixdump/pkg/ratio"
)

var (
	rawLogDive    int
	rawLogSamples bool
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display the raw frames of a download in human-readable format",
	Long: `Run a short exchange with the device and print every frame sent and
received, with timestamp, command, status and a hex dump.

By default only the dive id range is requested. With --dive the header of
that dive is requested too, and with --samples all of its samples.

Frames that fail to parse are shown with the error and whatever bytes were
read. Statistics are printed at the end.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().IntVar(&rawLogDive, "dive", -1, "Also request the header of this dive")
	rawLogCmd.Flags().BoolVar(&rawLogSamples, "samples", false, "Also request every sample of --dive")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	if rawLogDive > 0xFFFF {
		return fmt.Errorf("invalid dive id %d", rawLogDive)
	}

	out := cmd.OutOrStdout()
	stats := ratio.NewStatistics()
	session, conn, connInfo, err := newSession(
		ratio.WithStatistics(stats),
		ratio.WithFrameHook(func(e ratio.FrameEvent) { fmt.Fprint(out, ratio.FormatFrame(e)) }),
	)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Fprintf(out, "ixdump - Raw Frame Log\n")
	fmt.Fprintf(out, "Connection: %s\n\n", connInfo)

	err = rawExchange(cmd, session, out)
	fmt.Fprint(out, "\n"+stats.String())
	return err
}

func rawExchange(cmd *cobra.Command, session *ratio.Session, out io.Writer) error {
	ctx := cmd.Context()

	ids, err := session.GetDiveIDs(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  %d dives stored\n\n", len(ids))

	if rawLogDive < 0 {
		return nil
	}

	header, err := session.GetDiveHeader(ctx, uint16(rawLogDive))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  dive %d: %d samples, firmware %s\n\n", header.ID, header.DiveSamples, header.Version())

	if rawLogSamples {
		if _, err := session.CompleteDive(ctx, header); err != nil {
			return err
		}
	}
	return nil
}
