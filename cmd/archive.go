// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/ixdump/pkg/archive"
	"github.com/Thermoquad/ixdump/pkg/export"
)

var (
	archivePath   string
	archiveFormat string
	archiveOut    string
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect and export the local dive archive",
	Long: `Work with dives stored by "ixdump dump --archive" without a device
connected.`,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived dives",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive()
		if err != nil {
			return err
		}
		defer a.Close()
		return listArchived(a, cmd.OutOrStdout())
	},
}

var archiveExportCmd = &cobra.Command{
	Use:   "export [keys...]",
	Short: "Export archived dives (all when no key is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(firstNonEmpty(archiveFormat, cfg.Export.Format))
		if err != nil {
			return err
		}
		a, err := openArchive()
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := exportArchived(a, args, format, firstNonEmpty(archiveOut, cfg.Export.Dir), cmd.OutOrStdout())
		for _, f := range files {
			fmt.Fprintln(cmd.ErrOrStderr(), f)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveListCmd, archiveExportCmd)
	archiveCmd.PersistentFlags().StringVar(&archivePath, "archive", "", "Archive directory (default archive.path)")
	archiveExportCmd.Flags().StringVarP(&archiveFormat, "format", "f", "", "Export format: xml, json, yaml, cbor, text (default export.format)")
	archiveExportCmd.Flags().StringVarP(&archiveOut, "out", "o", "", "Output directory, or - for stdout (default export.dir)")
}

func openArchive() (*archive.Archive, error) {
	path := firstNonEmpty(archivePath, cfg.Archive.Path)
	if path == "" {
		return nil, fmt.Errorf("no archive configured (use --archive or archive.path)")
	}
	return archive.Open(path)
}

func listArchived(a *archive.Archive, out io.Writer) error {
	records, err := a.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "Archive is empty.")
		return nil
	}

	fmt.Fprintf(out, "%-27s  %5s  %7s  %-20s  %s\n", "KEY", "DIVE", "SAMPLES", "DOWNLOADED", "RUN")
	for _, r := range records {
		fmt.Fprintf(out, "%-27s  %5d  %7d  %-20s  %s\n",
			r.Key(), r.DiveID, len(r.Dive.Samples), r.DownloadedAt.UTC().Format("2006-01-02 15:04:05"), r.RunID)
	}
	return nil
}

// exportArchived exports the records named by keys, or every record when
// keys is empty, and returns the files written.
func exportArchived(a *archive.Archive, keys []string, format export.Format, outDir string, out io.Writer) ([]string, error) {
	var records []archive.Record
	if len(keys) == 0 {
		all, err := a.List()
		if err != nil {
			return nil, err
		}
		records = all
	}
	for _, key := range keys {
		r, err := a.Get(key)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}

	var files []string
	for _, r := range records {
		if outDir == "-" {
			if err := export.Encode(out, format, r.Dive); err != nil {
				return files, err
			}
			continue
		}
		path, err := export.WriteFile(outDir, format, r.Dive)
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}
