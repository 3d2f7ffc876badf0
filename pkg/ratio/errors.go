// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

import "fmt"

// LengthError indicates that a fixed-width field did not receive the exact
// number of bytes it needs. Returned for malformed or truncated payloads.
type LengthError struct {
	Field    string
	Offset   int
	Expected int
	Actual   int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("invalid length for %s at offset %d: expected %d bytes, got %d",
		e.Field, e.Offset, e.Expected, e.Actual)
}

// FramingError indicates a bad start marker, an out-of-range length byte or a
// frame body that was cut short before the read timed out.
type FramingError struct {
	Reason string
	Err    error
}

func (e *FramingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("framing error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("framing error: %s", e.Reason)
}

func (e *FramingError) Unwrap() error {
	return e.Err
}

// ChecksumError indicates that the frame CRC does not match its contents.
type ChecksumError struct {
	Expected uint16 // calculated over the received bytes
	Actual   uint16 // carried by the frame
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("CRC mismatch: expected 0x%04X, got 0x%04X", e.Expected, e.Actual)
}

// CommandError indicates that the response echoes a different command than
// the one requested. The link is out of step with the device.
type CommandError struct {
	Expected byte
	Actual   byte
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("unexpected command: expected 0x%02X, got 0x%02X", e.Expected, e.Actual)
}

// TrailerError indicates a response trailer that is neither ACK nor NAK.
type TrailerError struct {
	Trailer byte
}

func (e *TrailerError) Error() string {
	return fmt.Sprintf("unknown trailer: 0x%02X", e.Trailer)
}

// DeviceError is returned when the device rejects a request with a NAK.
// Code is the device error code, passed through unchanged.
type DeviceError struct {
	Command byte
	Code    byte
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device rejected %s: error code %d", FormatCommand(e.Command), e.Code)
}

// EnumError indicates a header field whose wire value is not a known
// enumeration member.
type EnumError struct {
	Field string
	Value uint8
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("unknown %s value: %d", e.Field, e.Value)
}
