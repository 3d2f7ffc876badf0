// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/ixdump/pkg/ratio"
)

var (
	configFile string

	// Set by PersistentPreRunE for every command
	cfg    *Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "ixdump",
	Short: "Ratio iX5M dive log dumper",
	Long: `ixdump - A CLI tool for downloading dive logs from Ratio iX5M dive computers.

Lists the dives stored on the device, downloads their headers and samples and
exports them as XML segment documents (or JSON, YAML, CBOR, text). Downloaded
dives can be kept in a local archive so later runs only fetch new dives.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the IXDUMP_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Every setting can also come from a YAML config file (--config, ./ixdump.yaml or
~/.config/ixdump/ixdump.yaml) or an IXDUMP_* environment variable, for example
IXDUMP_SERIAL_PORT or IXDUMP_ARCHIVE_PATH.

Exit codes:
  0 - Success
  1 - General failure
  2 - Connection error
  3 - Request rejected by the device (NAK)
  4 - Protocol error (framing, CRC, unexpected response)`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := LoadConfig(configFile, cmd)
		if err != nil {
			return err
		}
		l, err := NewLogger(c.Logging, os.Stderr)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default ./ixdump.yaml or ~/.config/ixdump/ixdump.yaml)")

	// Serial connection flags
	flags.StringP("port", "p", "", "Serial port device")
	flags.IntP("baud", "b", ratio.DefaultBaudRate, "Baud rate (serial only)")
	flags.Duration("read-timeout", ratio.DefaultReadTimeout, "Time to wait for response bytes before giving up")

	// WebSocket connection flags
	flags.StringP("url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.String("username", "", "Username for HTTP Basic auth")
	flags.Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Logging flags
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console, json)")
	flags.String("log-file", "", "Also write logs to this file, rotated")

	flags.Duration("request-interval", time.Duration(0), "Minimum time between requests (0 = no pacing)")
}

// newSession opens the configured connection and wraps it in a session.
// The caller must close the returned connection.
func newSession(opts ...ratio.Option) (*ratio.Session, Connection, string, error) {
	conn, connInfo, err := OpenConnection(cfg)
	if err != nil {
		return nil, nil, "", err
	}

	base := []ratio.Option{
		ratio.WithLogger(logger.Named("session")),
		ratio.WithRequestInterval(cfg.Session.RequestInterval),
	}
	return ratio.NewSession(conn, append(base, opts...)...), conn, connInfo, nil
}

// Execute runs the root command. Cancelling ctx stops a download at the
// next request.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
