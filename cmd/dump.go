// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/ixdump/pkg/archive"
	"github.com/Thermoquad/ixdump/pkg/export"
	"github.com/Thermoquad/ixdump/pkg/ratio"
)

var (
	dumpOut      string
	dumpFormat   string
	dumpArchive  string
	dumpTUI      bool
	dumpValidate bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump [ids...]",
	Short: "Download dives and export them",
	Long: `Download dives from the device and export each one to a file.

Without arguments every dive on the device is downloaded. Dive ids can be
given individually or as ranges (e.g. "3 5 10-12").

Each dive is written to <out>/dive-<id>-<start>.<ext>. Use --out - to write
to stdout instead. With --archive (or archive.path in the config), dives that
are already archived are skipped and new ones are stored.

With --validate, downloaded dives are checked for implausible values
(sample count, runtime order, gas mixes, gradient factors). Anomalies are
reported but the exported data is left as read.

Examples:
  ixdump dump --port /dev/ttyUSB0 --out ./dives
  ixdump dump --port /dev/ttyUSB0 --format json --out - 4
  ixdump dump --port /dev/ttyUSB0 --archive ~/.local/share/ixdump --tui`,
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringVarP(&dumpOut, "out", "o", "", "Output directory, or - for stdout (default export.dir)")
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", "", "Export format: xml, json, yaml, cbor, text (default export.format)")
	dumpCmd.Flags().StringVar(&dumpArchive, "archive", "", "Archive directory (default archive.path)")
	dumpCmd.Flags().BoolVar(&dumpTUI, "tui", false, "Show download progress in a terminal UI")
	dumpCmd.Flags().BoolVar(&dumpValidate, "validate", false, "Check downloaded dives for anomalies")
}

// dumpOptions controls a dump run
type dumpOptions struct {
	ids      []uint16 // empty means every dive on the device
	format   export.Format
	outDir   string // "-" writes to out
	out      io.Writer
	validate bool
	archive  *archive.Archive // nil disables the archive
	runID    ksuid.KSUID
}

// dumpResult summarizes a dump run
type dumpResult struct {
	Dives      int
	Downloaded int
	Skipped    int
	Anomalies  int
	Files      []string
}

// dumpEventKind identifies a step of a dump run
type dumpEventKind int

const (
	dumpListed dumpEventKind = iota
	dumpDiveStarted
	dumpDiveSkipped
	dumpDiveDone
)

// dumpEvent reports the progress of a dump run
type dumpEvent struct {
	kind      dumpEventKind
	diveID    uint16
	index     int // 1-based position in the run
	total     int
	samples   int
	path      string
	anomalies []ratio.ValidationError
}

func runDump(cmd *cobra.Command, args []string) error {
	ids, err := parseDiveIDs(args)
	if err != nil {
		return err
	}

	formatName := dumpFormat
	if formatName == "" {
		formatName = cfg.Export.Format
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	opts := dumpOptions{
		ids:      ids,
		format:   format,
		outDir:   firstNonEmpty(dumpOut, cfg.Export.Dir),
		out:      cmd.OutOrStdout(),
		validate: dumpValidate,
		runID:    ksuid.New(),
	}

	if path := firstNonEmpty(dumpArchive, cfg.Archive.Path); path != "" {
		a, err := archive.Open(path)
		if err != nil {
			return err
		}
		defer a.Close()
		opts.archive = a
	}

	stats := ratio.NewStatistics()
	log := logger.With(zap.Stringer("run", opts.runID))

	var result dumpResult
	if dumpTUI {
		result, err = runDumpTUI(cmd.Context(), opts, stats)
	} else {
		result, err = runDumpText(cmd.Context(), opts, stats, log)
	}

	if cfg.Metrics.Textfile != "" {
		if merr := writeMetrics(cfg.Metrics.Textfile, stats.Snapshot(), result); merr != nil {
			log.Warn("failed to write metrics", zap.Error(merr))
		}
	}

	log.Info("dump finished",
		zap.Int("downloaded", result.Downloaded),
		zap.Int("skipped", result.Skipped),
		zap.Int("anomalies", result.Anomalies),
	)
	fmt.Fprint(os.Stderr, "\n"+stats.String())
	return err
}

func runDumpText(ctx context.Context, opts dumpOptions, stats *ratio.Statistics, log *zap.Logger) (dumpResult, error) {
	session, conn, connInfo, err := newSession(
		ratio.WithStatistics(stats),
		ratio.WithProgress(func(p ratio.Progress) {
			log.Debug("sample", zap.Uint16("dive", p.DiveID), zap.Int("sample", p.Sample), zap.Int("total", p.Total))
		}),
	)
	if err != nil {
		return dumpResult{}, err
	}
	defer conn.Close()

	log.Info("connected", zap.String("connection", connInfo))

	return dumpDives(ctx, session, opts, func(e dumpEvent) {
		switch e.kind {
		case dumpListed:
			log.Info("dives to download", zap.Int("count", e.total))
		case dumpDiveStarted:
			log.Info("downloading dive", zap.Uint16("dive", e.diveID), zap.Int("index", e.index), zap.Int("total", e.total))
		case dumpDiveSkipped:
			log.Info("dive already archived", zap.Uint16("dive", e.diveID))
		case dumpDiveDone:
			for _, a := range e.anomalies {
				log.Warn("anomaly", zap.Uint16("dive", e.diveID), zap.Stringer("type", a.Type), zap.String("detail", a.Message))
			}
			if e.path != "" {
				log.Info("dive exported", zap.Uint16("dive", e.diveID), zap.String("path", e.path))
			}
		}
	})
}

// dumpDives downloads, validates, exports and archives the requested dives.
// The first failure aborts the run; dives finished before it stay exported.
func dumpDives(ctx context.Context, session *ratio.Session, opts dumpOptions, report func(dumpEvent)) (dumpResult, error) {
	var result dumpResult
	if report == nil {
		report = func(dumpEvent) {}
	}

	ids := opts.ids
	if len(ids) == 0 {
		var err error
		ids, err = session.GetDiveIDs(ctx)
		if err != nil {
			return result, fmt.Errorf("list dives: %w", err)
		}
	}
	result.Dives = len(ids)
	report(dumpEvent{kind: dumpListed, total: len(ids)})

	for i, id := range ids {
		report(dumpEvent{kind: dumpDiveStarted, diveID: id, index: i + 1, total: len(ids)})

		header, err := session.GetDiveHeader(ctx, id)
		if err != nil {
			return result, err
		}

		if opts.archive != nil {
			archived, err := opts.archive.Has(header)
			if err != nil {
				return result, fmt.Errorf("dive %d: %w", id, err)
			}
			if archived {
				result.Skipped++
				report(dumpEvent{kind: dumpDiveSkipped, diveID: id, index: i + 1, total: len(ids)})
				continue
			}
		}

		dive, err := session.CompleteDive(ctx, header)
		if err != nil {
			return result, err
		}
		result.Downloaded++

		done := dumpEvent{kind: dumpDiveDone, diveID: id, index: i + 1, total: len(ids), samples: len(dive.Samples)}

		if opts.validate {
			done.anomalies = ratio.ValidateDive(dive)
			session.Statistics().RecordAnomalies(done.anomalies)
			result.Anomalies += len(done.anomalies)
		}

		if opts.outDir == "-" {
			if err := export.Encode(opts.out, opts.format, dive); err != nil {
				return result, fmt.Errorf("dive %d: %w", id, err)
			}
		} else {
			path, err := export.WriteFile(opts.outDir, opts.format, dive)
			if err != nil {
				return result, err
			}
			done.path = path
			result.Files = append(result.Files, path)
		}

		if opts.archive != nil {
			if err := opts.archive.Put(archive.NewRecord(opts.runID, dive)); err != nil {
				return result, fmt.Errorf("archive dive %d: %w", id, err)
			}
		}

		report(done)
	}

	return result, nil
}

// parseDiveIDs parses dive ids and inclusive ranges such as "10-12"
func parseDiveIDs(args []string) ([]uint16, error) {
	ids := []uint16{}
	for _, arg := range args {
		first, last, isRange := strings.Cut(arg, "-")
		from, err := strconv.ParseUint(first, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid dive id %q", arg)
		}
		to := from
		if isRange {
			to, err = strconv.ParseUint(last, 10, 16)
			if err != nil || to < from {
				return nil, fmt.Errorf("invalid dive range %q", arg)
			}
		}
		for id := from; id <= to; id++ {
			ids = append(ids, uint16(id))
		}
	}
	return ids, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
