// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Thermoquad/ixdump/pkg/export"
	"github.com/Thermoquad/ixdump/pkg/ratio"
)

// SerialConfig holds the serial link settings
type SerialConfig struct {
	Port        string        `mapstructure:"port"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
}

// WebSocketConfig holds the settings of a remote serial bridge
type WebSocketConfig struct {
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	NoSSLVerify bool   `mapstructure:"noSSLVerify"`
}

// LumberjackConfig configures the rotating log file
type LumberjackConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig holds the log level and outputs
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// ArchiveConfig locates the dive archive. An empty path disables it.
type ArchiveConfig struct {
	Path string `mapstructure:"path"`
}

// ExportConfig selects where and how dives are written
type ExportConfig struct {
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// MetricsConfig names the node_exporter textfile written after a dump
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// SessionConfig tunes the request pacing
type SessionConfig struct {
	RequestInterval time.Duration `mapstructure:"requestInterval"`
}

// Config is the merged configuration from file, environment and flags
type Config struct {
	Serial    SerialConfig    `mapstructure:"serial"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Export    ExportConfig    `mapstructure:"export"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Session   SessionConfig   `mapstructure:"session"`
}

// flagKeys maps persistent flags onto configuration keys
var flagKeys = map[string]string{
	"port":             "serial.port",
	"baud":             "serial.baud",
	"read-timeout":     "serial.readTimeout",
	"url":              "websocket.url",
	"username":         "websocket.username",
	"no-ssl-verify":    "websocket.noSSLVerify",
	"log-level":        "logging.level",
	"log-format":       "logging.format",
	"log-file":         "logging.file.path",
	"request-interval": "session.requestInterval",
}

// LoadConfig reads configuration from path (or the default locations when
// path is empty), IXDUMP_* environment variables and the flags of cmd, in
// increasing order of precedence.
func LoadConfig(path string, cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ixdump")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "ixdump"))
		}
	}

	v.SetEnvPrefix("IXDUMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if cmd != nil {
		for name, key := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baud", ratio.DefaultBaudRate)
	v.SetDefault("serial.readTimeout", ratio.DefaultReadTimeout)

	v.SetDefault("websocket.url", "")
	v.SetDefault("websocket.username", "")
	v.SetDefault("websocket.noSSLVerify", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("archive.path", "")
	v.SetDefault("export.format", string(export.DefaultFormat))
	v.SetDefault("export.dir", ".")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("session.requestInterval", time.Duration(0))
}

// Validate checks values that cannot be checked by decoding alone
func (c *Config) Validate() error {
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud)
	}
	if c.Serial.ReadTimeout <= 0 {
		return fmt.Errorf("serial.readTimeout must be positive, got %s", c.Serial.ReadTimeout)
	}
	if c.Session.RequestInterval < 0 {
		return fmt.Errorf("session.requestInterval must not be negative, got %s", c.Session.RequestInterval)
	}
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return err
	}
	return nil
}
