// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

// CalculateCRC computes the CRC-16/CCITT-FALSE checksum for the given data
func CalculateCRC(data []byte) uint16 {
	crc := uint16(crcInitial)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// EncodeCRC splits a CRC into its wire form (high byte first)
func EncodeCRC(crc uint16) [2]byte {
	return [2]byte{byte(crc >> 8), byte(crc & 0xFF)}
}

// DecodeCRC recomposes a CRC from its two wire bytes
func DecodeCRC(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}
