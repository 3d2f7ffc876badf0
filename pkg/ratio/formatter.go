// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

import (
	"fmt"
	"strings"
	"time"
)

// FormatCommand returns the human-readable name for a command
func FormatCommand(command byte) string {
	switch command {
	case CmdGetDiveIDRange:
		return "GET_DIVE_ID_RANGE"
	case CmdGetDiveHeader:
		return "GET_DIVE_HEADER"
	case CmdGetDiveSample:
		return "GET_DIVE_SAMPLE"
	default:
		return "UNKNOWN"
	}
}

// FormatState returns the human-readable name for a request state
func FormatState(state int) string {
	switch state {
	case StateIdle:
		return "IDLE"
	case StateRequestSent:
		return "REQUEST_SENT"
	case StateAwaitingHeader:
		return "AWAITING_HEADER"
	case StateAwaitingBody:
		return "AWAITING_BODY"
	case StateDecoded:
		return "DECODED"
	case StateFaulted:
		return "FAULTED"
	default:
		return "UNKNOWN"
	}
}

// FormatFrame formats a frame event into a human-readable block
func FormatFrame(e FrameEvent) string {
	timestamp := e.Time.Format("15:04:05.000")

	arrow := "→"
	if e.Direction == DirectionRx {
		arrow = "←"
	}

	result := fmt.Sprintf("[%s] %s %s (0x%02X) len=%d\n", timestamp, arrow, FormatCommand(e.Command), e.Command, len(e.Raw))

	if e.Err != nil {
		result += fmt.Sprintf("  Error: %v\n", e.Err)
	} else if e.Direction == DirectionRx && len(e.Raw) >= 4 {
		switch e.Raw[len(e.Raw)-3] {
		case AckByte:
			result += fmt.Sprintf("  ACK, %d data bytes, CRC 0x%04X\n", len(e.Raw)-6, DecodeCRC(e.Raw[len(e.Raw)-2], e.Raw[len(e.Raw)-1]))
		case NakByte:
			result += fmt.Sprintf("  NAK, error code %d\n", e.Raw[3])
		}
	}

	if len(e.Raw) > 0 {
		result += FormatHex(e.Raw)
	}
	return result
}

// FormatHex returns a hex dump with 16 bytes per line
func FormatHex(data []byte) string {
	var b strings.Builder
	b.WriteString("  Bytes: ")
	for i, v := range data {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n         ")
		}
		fmt.Fprintf(&b, "%02X ", v)
	}
	b.WriteString("\n")
	return b.String()
}

// FormatDive formats a dive into a human-readable summary
func FormatDive(d *Dive) string {
	start := time.Unix(int64(d.UTCStartingTimeS), 0).UTC().Format(time.RFC3339)

	var b strings.Builder
	fmt.Fprintf(&b, "Dive %d\n", d.ID)
	fmt.Fprintf(&b, "  Start:            %s (monotonic %ds)\n", start, d.MonotonicTimeS)
	fmt.Fprintf(&b, "  Mode:             %s, %s water\n", d.DiveMode, d.Water)
	fmt.Fprintf(&b, "  Max depth:        %d\n", d.DepthMax)
	fmt.Fprintf(&b, "  Avg depth:        %d\n", d.AvgDepth)
	fmt.Fprintf(&b, "  Surface pressure: %d\n", d.SurfacePressureMbar)
	fmt.Fprintf(&b, "  Firmware:         %s\n", d.Version())
	fmt.Fprintf(&b, "  Samples:          %d\n", d.DiveSamples)

	if len(d.Samples) > 0 {
		b.WriteString("  Runtime   Depth(dm)  Temp(dC)  O2/He   NDL/TTS  CNS\n")
		for _, s := range d.Samples {
			fmt.Fprintf(&b, "  %6ds  %9d  %8d  %2d/%-2d  %7d  %3d\n",
				s.RuntimeS, s.DepthDm, s.TemperatureDc,
				s.ActiveMixO2Percent, s.ActiveMixHePercent, s.NDLOrTTS, s.CNS)
		}
	}
	return b.String()
}
