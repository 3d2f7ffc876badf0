// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

import (
	"errors"
	"fmt"
	"io"
)

// Response is a validated response frame
type Response struct {
	Command   byte
	Length    uint8
	Data      []byte // payload without the echoed command and trailer, empty on NAK
	NAK       bool
	ErrorCode byte // device error code, only meaningful when NAK is set
	CRC       uint16
	Raw       []byte // the complete frame as received
}

// EncodeRequest creates a complete wire-formatted request frame:
//
//	[0x55][LEN][COMMAND][OPTIONS...][CRC_H][CRC_L]
//
// LEN counts the command byte plus the options. The CRC covers every byte
// from the start marker through the last option.
func EncodeRequest(command byte, options ...byte) []byte {
	frame := make([]byte, 0, 5+len(options))
	frame = append(frame, StartByte, byte(len(options)+1), command)
	frame = append(frame, options...)

	crc := EncodeCRC(CalculateCRC(frame))
	return append(frame, crc[0], crc[1])
}

// ReadResponse reads one response frame from r and validates it against the
// expected command.
//
// r must not block forever: a read that returns no data (or io.EOF) is taken
// as the link timing out.
func ReadResponse(r io.Reader, command byte) (*Response, error) {
	frame, err := readFrame(r, nil)
	if err != nil {
		return nil, err
	}
	return ParseResponse(frame, command)
}

// ParseResponse validates a complete response frame:
//
//	[0x55][LEN][COMMAND][DATA...][ACK|NAK][CRC_H][CRC_L]
//
// Checks run in wire order: start marker, length bounds, frame size, CRC,
// echoed command and finally the trailer.
func ParseResponse(frame []byte, command byte) (*Response, error) {
	if len(frame) < 1 || frame[0] != StartByte {
		return nil, startByteError(frame)
	}
	if len(frame) < 2 {
		return nil, &FramingError{Reason: "missing length byte"}
	}

	length := frame[1]
	if length < MinResponseLength || length > MaxResponseLength {
		return nil, lengthByteError(length)
	}
	if len(frame) != int(length)+4 {
		return nil, &FramingError{
			Reason: fmt.Sprintf("short frame: expected %d bytes, got %d", int(length)+4, len(frame)),
		}
	}

	payload := frame[2 : 2+int(length)]
	expectedCRC := CalculateCRC(frame[:2+int(length)])
	actualCRC := DecodeCRC(frame[2+int(length)], frame[3+int(length)])
	if expectedCRC != actualCRC {
		return nil, &ChecksumError{Expected: expectedCRC, Actual: actualCRC}
	}

	if payload[0] != command {
		return nil, &CommandError{Expected: command, Actual: payload[0]}
	}

	resp := &Response{
		Command: payload[0],
		Length:  length,
		CRC:     actualCRC,
		Raw:     frame,
	}

	switch trailer := payload[len(payload)-1]; trailer {
	case AckByte:
		resp.Data = payload[1 : len(payload)-1]
	case NakByte:
		resp.NAK = true
		resp.ErrorCode = payload[1]
		resp.Data = []byte{}
	default:
		return nil, &TrailerError{Trailer: trailer}
	}

	return resp, nil
}

// readFrame reads the raw bytes of one frame. state, if set, is told when the
// reader moves from waiting for the header to waiting for the body.
func readFrame(r io.Reader, state func(int)) ([]byte, error) {
	if state != nil {
		state(StateAwaitingHeader)
	}

	start, err := readExact(r, 1)
	if err != nil {
		return nil, fmt.Errorf("read start byte: %w", err)
	}
	if len(start) != 1 || start[0] != StartByte {
		return nil, startByteError(start)
	}

	lengthByte, err := readExact(r, 1)
	if err != nil {
		return nil, fmt.Errorf("read length byte: %w", err)
	}
	if len(lengthByte) != 1 {
		return nil, &FramingError{Reason: "missing length byte"}
	}

	length := lengthByte[0]
	if length < MinResponseLength || length > MaxResponseLength {
		return nil, lengthByteError(length)
	}

	if state != nil {
		state(StateAwaitingBody)
	}

	body, err := readExact(r, int(length)+2)
	if err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	if len(body) != int(length)+2 {
		return nil, &FramingError{
			Reason: fmt.Sprintf("short read: expected %d bytes, got %d", int(length)+2, len(body)),
		}
	}

	frame := make([]byte, 0, len(body)+2)
	frame = append(frame, StartByte, length)
	return append(frame, body...), nil
}

// readExact reads up to n bytes. It stops early, without error, when the
// reader times out (returns no data) or reaches io.EOF.
func readExact(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	for got < n {
		m, err := r.Read(buf[got:])
		got += m
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf[:got], nil
			}
			return buf[:got], err
		}
		if m == 0 {
			return buf[:got], nil
		}
	}
	return buf, nil
}

func startByteError(frame []byte) error {
	if len(frame) == 0 {
		return &FramingError{Reason: "no response"}
	}
	return &FramingError{
		Reason: fmt.Sprintf("invalid start byte: got 0x%02X, expected 0x%02X", frame[0], StartByte),
	}
}

func lengthByteError(length byte) error {
	return &FramingError{
		Reason: fmt.Sprintf("invalid length: %d (valid %d-%d)", length, MinResponseLength, MaxResponseLength),
	}
}
