// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package ratio implements the serial download protocol spoken by Ratio
// iX5M-family dive computers.
//
// The protocol is strictly half-duplex: the host writes one request frame and
// the device answers with exactly one response frame. This package provides
// frame encoding/decoding, CRC validation, decoding of the fixed-layout dive
// records and a DiveSession that drives the download of complete dives.
package ratio

import "time"

// Protocol framing bytes
const (
	StartByte = 0x55
	AckByte   = 0x06
	NakByte   = 0x15
)

// Response length byte bounds. A valid length byte L satisfies
// MinResponseLength <= L <= MaxResponseLength. The upper bound is what known
// firmware sends; a longer frame is rejected as a framing error.
const (
	MinResponseLength = 3
	MaxResponseLength = 254
)

// CRC-16/CCITT-FALSE configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// Commands (Host → Device)
const (
	CmdGetDiveIDRange = 0x78 // 120
	CmdGetDiveHeader  = 0x79 // 121
	CmdGetDiveSample  = 0x7A // 122
)

// diveIDRangeOption is the only option byte accepted by CmdGetDiveIDRange.
const diveIDRangeOption = 0x8D // 141

// Decoded record sizes in bytes
const (
	DiveIDRangeSize = 4
	DiveHeaderSize  = 54
	DiveSampleSize  = 54
)

// Link parameters used by the device
const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = time.Second
)

// Per-request states
const (
	StateIdle = iota
	StateRequestSent
	StateAwaitingHeader
	StateAwaitingBody
	StateDecoded
	StateFaulted
)

// DiveMode is the dive mode recorded in a dive header.
type DiveMode uint8

// Dive mode values
const (
	DiveModeOC DiveMode = 0x00
)

// String returns the short name of the dive mode
func (m DiveMode) String() string {
	switch m {
	case DiveModeOC:
		return "OC"
	default:
		return "UNKNOWN"
	}
}

// WaterType is the water density setting recorded in a dive header.
type WaterType uint8

// Water type values
const (
	WaterSalt  WaterType = 0x00
	WaterFresh WaterType = 0x01
)

// String returns the short name of the water type
func (w WaterType) String() string {
	switch w {
	case WaterSalt:
		return "SALT"
	case WaterFresh:
		return "FRESH"
	default:
		return "UNKNOWN"
	}
}
