// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"testing"
)

// buildResponse creates a response frame the way the device does:
// [0x55][LEN][COMMAND][DATA...][TRAILER][CRC_H][CRC_L]
func buildResponse(command byte, data []byte, trailer byte) []byte {
	frame := []byte{StartByte, byte(len(data) + 2), command}
	frame = append(frame, data...)
	frame = append(frame, trailer)
	crc := EncodeCRC(CalculateCRC(frame))
	return append(frame, crc[0], crc[1])
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// stallReader returns no data and no error, like a serial port whose read
// timeout expired
type stallReader struct{}

func (stallReader) Read(p []byte) (int, error) { return 0, nil }

// chunkReader hands out its data at most n bytes per Read
type chunkReader struct {
	data []byte
	n    int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := min(r.n, len(p), len(r.data))
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

type failingReader struct{ err error }

func (r failingReader) Read(p []byte) (int, error) { return 0, r.err }

// ============================================================
// Request Encoding
// ============================================================

func TestEncodeRequest_KnownFrames(t *testing.T) {
	tests := []struct {
		name     string
		command  byte
		options  []byte
		expected string
	}{
		{"dive id range", CmdGetDiveIDRange, []byte{diveIDRangeOption}, "5502788de20b"},
		{"dive header 1", CmdGetDiveHeader, []byte{0x01, 0x00}, "5503790100c91d"},
		{"dive sample 5", CmdGetDiveSample, []byte{0x05, 0x00}, "55037a05005c89"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeRequest(tt.command, tt.options...)
			if hex.EncodeToString(got) != tt.expected {
				t.Errorf("EncodeRequest = %x, want %s", got, tt.expected)
			}
		})
	}
}

func TestEncodeRequest_Layout(t *testing.T) {
	for n := 0; n <= 32; n++ {
		options := make([]byte, n)
		for i := range options {
			options[i] = byte(i * 7)
		}

		frame := EncodeRequest(0x42, options...)
		if len(frame) != 5+n {
			t.Fatalf("%d options: frame length %d, want %d", n, len(frame), 5+n)
		}
		if frame[0] != StartByte || frame[1] != byte(n+1) || frame[2] != 0x42 {
			t.Fatalf("%d options: bad header % X", n, frame[:3])
		}
		if !bytes.Equal(frame[3:3+n], options) {
			t.Fatalf("%d options: options not copied verbatim", n)
		}
		crc := CalculateCRC(frame[:3+n])
		if DecodeCRC(frame[3+n], frame[4+n]) != crc {
			t.Fatalf("%d options: CRC does not cover marker through options", n)
		}
	}
}

// ============================================================
// Response Parsing
// ============================================================

func TestReadResponse_DiveIDRange(t *testing.T) {
	frame := mustHex(t, "55067801000400064d48")

	resp, err := ReadResponse(bytes.NewReader(frame), CmdGetDiveIDRange)
	if err != nil {
		t.Fatalf("ReadResponse failed: %v", err)
	}
	if resp.NAK {
		t.Error("expected ACK response")
	}
	if !bytes.Equal(resp.Data, []byte{0x01, 0x00, 0x04, 0x00}) {
		t.Errorf("Data = % X, want 01 00 04 00", resp.Data)
	}
	if resp.CRC != 0x4D48 {
		t.Errorf("CRC = 0x%04X, want 0x4D48", resp.CRC)
	}
	if !bytes.Equal(resp.Raw, frame) {
		t.Error("Raw should hold the complete frame")
	}
}

func TestReadResponse_ByteAtATime(t *testing.T) {
	frame := buildResponse(CmdGetDiveHeader, bytes.Repeat([]byte{0xAB}, DiveHeaderSize), AckByte)

	resp, err := ReadResponse(&chunkReader{data: frame, n: 1}, CmdGetDiveHeader)
	if err != nil {
		t.Fatalf("ReadResponse failed: %v", err)
	}
	if len(resp.Data) != DiveHeaderSize {
		t.Errorf("Data length = %d, want %d", len(resp.Data), DiveHeaderSize)
	}
}

func TestParseResponse_NAK(t *testing.T) {
	for _, code := range []byte{0x00, 0x01, 0x7F, 0xFF} {
		frame := buildResponse(CmdGetDiveSample, []byte{code}, NakByte)

		resp, err := ParseResponse(frame, CmdGetDiveSample)
		if err != nil {
			t.Fatalf("code %d: ParseResponse failed: %v", code, err)
		}
		if !resp.NAK {
			t.Errorf("code %d: expected NAK", code)
		}
		if resp.ErrorCode != code {
			t.Errorf("ErrorCode = %d, want %d", resp.ErrorCode, code)
		}
		if len(resp.Data) != 0 {
			t.Errorf("NAK Data should be empty, got % X", resp.Data)
		}
	}
}

func TestParseResponse_ACKStripsCommandAndTrailer(t *testing.T) {
	data := []byte{0x10, 0x20, 0x30}
	resp, err := ParseResponse(buildResponse(CmdGetDiveHeader, data, AckByte), CmdGetDiveHeader)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if !bytes.Equal(resp.Data, data) {
		t.Errorf("Data = % X, want % X", resp.Data, data)
	}
}

func TestParseResponse_Errors(t *testing.T) {
	valid := buildResponse(CmdGetDiveIDRange, []byte{0x01, 0x00, 0x04, 0x00}, AckByte)

	flip := func(i int) []byte {
		f := append([]byte(nil), valid...)
		f[i] ^= 0x01
		return f
	}

	tests := []struct {
		name    string
		frame   []byte
		command byte
		check   func(error) bool
	}{
		{
			name:    "empty frame",
			frame:   nil,
			command: CmdGetDiveIDRange,
			check:   func(err error) bool { var e *FramingError; return errors.As(err, &e) },
		},
		{
			name:    "bad start byte",
			frame:   append([]byte{0xAA}, valid[1:]...),
			command: CmdGetDiveIDRange,
			check:   func(err error) bool { var e *FramingError; return errors.As(err, &e) },
		},
		{
			name:    "truncated frame",
			frame:   valid[:len(valid)-1],
			command: CmdGetDiveIDRange,
			check:   func(err error) bool { var e *FramingError; return errors.As(err, &e) },
		},
		{
			name:    "flipped payload bit",
			frame:   flip(4),
			command: CmdGetDiveIDRange,
			check:   func(err error) bool { var e *ChecksumError; return errors.As(err, &e) },
		},
		{
			name:    "flipped CRC bit",
			frame:   flip(len(valid) - 1),
			command: CmdGetDiveIDRange,
			check:   func(err error) bool { var e *ChecksumError; return errors.As(err, &e) },
		},
		{
			name:    "wrong command",
			frame:   valid,
			command: CmdGetDiveHeader,
			check: func(err error) bool {
				var e *CommandError
				return errors.As(err, &e) && e.Expected == CmdGetDiveHeader && e.Actual == CmdGetDiveIDRange
			},
		},
		{
			name:    "unknown trailer",
			frame:   buildResponse(CmdGetDiveIDRange, []byte{0x01}, 0x99),
			command: CmdGetDiveIDRange,
			check: func(err error) bool {
				var e *TrailerError
				return errors.As(err, &e) && e.Trailer == 0x99
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseResponse(tt.frame, tt.command)
			if err == nil {
				t.Fatalf("expected error, got response %+v", resp)
			}
			if !tt.check(err) {
				t.Errorf("unexpected error type: %T %v", err, err)
			}
		})
	}
}

func TestParseResponse_ChecksumErrorValues(t *testing.T) {
	frame := mustHex(t, "55067801000400064d49")

	_, err := ParseResponse(frame, CmdGetDiveIDRange)
	var crcErr *ChecksumError
	if !errors.As(err, &crcErr) {
		t.Fatalf("expected *ChecksumError, got %v", err)
	}
	if crcErr.Expected != 0x4D48 || crcErr.Actual != 0x4D49 {
		t.Errorf("got expected=0x%04X actual=0x%04X", crcErr.Expected, crcErr.Actual)
	}
}

// ============================================================
// Stream Reading
// ============================================================

func TestReadResponse_InvalidLengthByte(t *testing.T) {
	for _, length := range []byte{0, 1, 2, 255} {
		stream := append([]byte{StartByte, length}, make([]byte, 300)...)

		_, err := ReadResponse(bytes.NewReader(stream), CmdGetDiveHeader)
		var framingErr *FramingError
		if !errors.As(err, &framingErr) {
			t.Errorf("length %d: expected *FramingError, got %v", length, err)
		}
	}
}

func TestReadResponse_BoundaryLengths(t *testing.T) {
	// L=3 is the smallest legal frame: command, one data byte, trailer
	resp, err := ReadResponse(bytes.NewReader(buildResponse(CmdGetDiveSample, []byte{0x02}, NakByte)), CmdGetDiveSample)
	if err != nil {
		t.Fatalf("L=3 rejected: %v", err)
	}
	if resp.Length != 3 {
		t.Errorf("Length = %d, want 3", resp.Length)
	}

	resp, err = ReadResponse(bytes.NewReader(buildResponse(CmdGetDiveSample, make([]byte, 252), AckByte)), CmdGetDiveSample)
	if err != nil {
		t.Fatalf("L=254 rejected: %v", err)
	}
	if len(resp.Data) != 252 {
		t.Errorf("Data length = %d, want 252", len(resp.Data))
	}
}

func TestReadResponse_BadStartByte(t *testing.T) {
	_, err := ReadResponse(bytes.NewReader([]byte{0x00, 0x06, 0x78}), CmdGetDiveIDRange)
	var framingErr *FramingError
	if !errors.As(err, &framingErr) {
		t.Fatalf("expected *FramingError, got %v", err)
	}
}

func TestReadResponse_Timeouts(t *testing.T) {
	full := mustHex(t, "55067801000400064d48")

	tests := []struct {
		name   string
		reader io.Reader
	}{
		{"nothing received", bytes.NewReader(nil)},
		{"stalled link", stallReader{}},
		{"start byte only", bytes.NewReader(full[:1])},
		{"header only", bytes.NewReader(full[:2])},
		{"short body", bytes.NewReader(full[:len(full)-1])},
		{"short body then stall", io.MultiReader(bytes.NewReader(full[:5]), stallReader{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadResponse(tt.reader, CmdGetDiveIDRange)
			var framingErr *FramingError
			if !errors.As(err, &framingErr) {
				t.Errorf("expected *FramingError, got %v", err)
			}
		})
	}
}

func TestReadResponse_TransportError(t *testing.T) {
	linkErr := errors.New("device unplugged")

	_, err := ReadResponse(failingReader{err: linkErr}, CmdGetDiveIDRange)
	if !errors.Is(err, linkErr) {
		t.Fatalf("expected transport error to be wrapped, got %v", err)
	}
	var framingErr *FramingError
	if errors.As(err, &framingErr) {
		t.Error("transport error must not be reported as a framing error")
	}
}
