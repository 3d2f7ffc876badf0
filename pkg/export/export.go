// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package export renders downloaded dives as segment documents.
package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/ixdump/pkg/ratio"
)

// Format selects the export encoding
type Format string

// Supported formats
const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
	FormatText Format = "text"
)

// DefaultFormat is used when no format is configured
const DefaultFormat = FormatXML

// Formats lists every supported format
var Formats = []Format{FormatXML, FormatJSON, FormatYAML, FormatCBOR, FormatText}

// ParseFormat parses a format name. An empty name selects DefaultFormat.
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return DefaultFormat, nil
	}
	name = strings.ToLower(name)
	if name == "yml" {
		return FormatYAML, nil
	}
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (valid: xml, json, yaml, cbor, text)", name)
}

// Extension returns the file extension for the format, without the dot
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// FileName returns the export file name for a dive:
// dive-<id>-<UTCStartingTimeS>.<ext>
func FileName(d *ratio.Dive, f Format) string {
	return fmt.Sprintf("dive-%d-%d.%s", d.ID, d.UTCStartingTimeS, f.Extension())
}

// Encode writes d to w in the given format
func Encode(w io.Writer, f Format, d *ratio.Dive) error {
	switch f {
	case FormatXML:
		return encodeXML(w, NewSegment(d))
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(NewSegment(d))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(4)
		if err := enc.Encode(NewSegment(d)); err != nil {
			return err
		}
		return enc.Close()
	case FormatCBOR:
		return cbor.NewEncoder(w).Encode(NewSegment(d))
	case FormatText:
		_, err := io.WriteString(w, ratio.FormatDive(d))
		return err
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

func encodeXML(w io.Writer, seg Segment) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(seg); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile exports d into dir and returns the path written. The file is
// written under a temporary name and renamed once complete.
func WriteFile(dir string, f Format, d *ratio.Dive) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, FileName(d, f))
	tmp, err := os.CreateTemp(dir, ".dive-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, f, d); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode dive %d: %w", d.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename export file: %w", err)
	}
	return path, nil
}
