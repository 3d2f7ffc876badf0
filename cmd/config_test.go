// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/ixdump/pkg/ratio"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ixdump.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const testConfigYAML = `
serial:
  port: /dev/ttyUSB1
  baud: 9600
  readTimeout: 2s
logging:
  level: debug
  format: json
  file:
    path: /var/log/ixdump.log
    maxBackups: 7
archive:
  path: /srv/dives
export:
  format: json
  dir: /srv/export
session:
  requestInterval: 50ms
`

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	c, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "", c.Serial.Port)
	assert.Equal(t, ratio.DefaultBaudRate, c.Serial.Baud)
	assert.Equal(t, ratio.DefaultReadTimeout, c.Serial.ReadTimeout)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, "console", c.Logging.Format)
	assert.Equal(t, 10, c.Logging.File.MaxSizeMB)
	assert.Equal(t, "", c.Archive.Path)
	assert.Equal(t, "xml", c.Export.Format)
	assert.Equal(t, ".", c.Export.Dir)
	assert.Equal(t, time.Duration(0), c.Session.RequestInterval)
}

func TestLoadConfig_File(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, testConfigYAML), nil)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB1", c.Serial.Port)
	assert.Equal(t, 9600, c.Serial.Baud)
	assert.Equal(t, 2*time.Second, c.Serial.ReadTimeout)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, "json", c.Logging.Format)
	assert.Equal(t, "/var/log/ixdump.log", c.Logging.File.Path)
	assert.Equal(t, 7, c.Logging.File.MaxBackups)
	assert.Equal(t, 30, c.Logging.File.MaxAgeDays)
	assert.Equal(t, "/srv/dives", c.Archive.Path)
	assert.Equal(t, "json", c.Export.Format)
	assert.Equal(t, "/srv/export", c.Export.Dir)
	assert.Equal(t, 50*time.Millisecond, c.Session.RequestInterval)
}

func TestLoadConfig_DefaultLocation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ixdump.yaml"), []byte(testConfigYAML), 0o644))
	t.Chdir(dir)

	c, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", c.Serial.Port)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("IXDUMP_SERIAL_PORT", "/dev/ttyACM0")
	t.Setenv("IXDUMP_ARCHIVE_PATH", "/tmp/archive")

	c, err := LoadConfig(writeConfig(t, testConfigYAML), nil)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", c.Serial.Port)
	assert.Equal(t, "/tmp/archive", c.Archive.Path)
	assert.Equal(t, 9600, c.Serial.Baud)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("IXDUMP_SERIAL_PORT", "/dev/ttyACM0")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("port", "", "")
	cmd.Flags().Int("baud", ratio.DefaultBaudRate, "")
	cmd.Flags().Duration("read-timeout", ratio.DefaultReadTimeout, "")
	cmd.Flags().String("log-level", "info", "")
	require.NoError(t, cmd.Flags().Set("port", "/dev/ttyS3"))
	require.NoError(t, cmd.Flags().Set("log-level", "warn"))

	c, err := LoadConfig(writeConfig(t, testConfigYAML), cmd)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyS3", c.Serial.Port)
	assert.Equal(t, "warn", c.Logging.Level)
	// Unset flags do not override the file
	assert.Equal(t, 9600, c.Serial.Baud)
	assert.Equal(t, 2*time.Second, c.Serial.ReadTimeout)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "zero baud", content: "serial:\n  baud: 0\n"},
		{name: "zero read timeout", content: "serial:\n  readTimeout: 0s\n"},
		{name: "negative interval", content: "session:\n  requestInterval: -1s\n"},
		{name: "unknown export format", content: "export:\n  format: pdf\n"},
		{name: "malformed yaml", content: "serial: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}
