// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

import (
	"math/rand"
	"testing"
)

func TestCalculateCRC_Empty(t *testing.T) {
	crc := CalculateCRC([]byte{})
	if crc != crcInitial {
		t.Errorf("CRC of empty data should be initial value, got 0x%04X", crc)
	}
}

func TestCalculateCRC_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{
			name:     "ASCII '123456789'",
			data:     []byte("123456789"),
			expected: 0x29B1, // CRC-16/CCITT-FALSE check value
		},
		{
			name:     "dive id range request",
			data:     []byte{0x55, 0x02, 0x78, 0x8D},
			expected: 0xE20B,
		},
		{
			name:     "dive id range response",
			data:     []byte{0x55, 0x06, 0x78, 0x01, 0x00, 0x04, 0x00, 0x06},
			expected: 0x4D48,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crc := CalculateCRC(tt.data)
			if crc != tt.expected {
				t.Errorf("CRC mismatch: expected 0x%04X, got 0x%04X", tt.expected, crc)
			}
		})
	}
}

func TestEncodeCRC_BigEndian(t *testing.T) {
	b := EncodeCRC(0xE20B)
	if b[0] != 0xE2 || b[1] != 0x0B {
		t.Errorf("EncodeCRC(0xE20B) = % X, want E2 0B", b)
	}
	if got := DecodeCRC(0xE2, 0x0B); got != 0xE20B {
		t.Errorf("DecodeCRC(0xE2, 0x0B) = 0x%04X, want 0xE20B", got)
	}
}

func TestCRC_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		data := make([]byte, rng.Intn(300))
		rng.Read(data)

		crc := CalculateCRC(data)
		b := EncodeCRC(crc)
		if got := DecodeCRC(b[0], b[1]); got != crc {
			t.Fatalf("round trip failed for % X: 0x%04X != 0x%04X", data, got, crc)
		}
	}
}
