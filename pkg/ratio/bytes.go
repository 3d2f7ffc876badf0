// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

import "encoding/binary"

// ToUint8 converts exactly one byte into an unsigned 8-bit integer
func ToUint8(b []byte) (uint8, error) {
	if len(b) != 1 {
		return 0, &LengthError{Field: "uint8", Expected: 1, Actual: len(b)}
	}
	return b[0], nil
}

// ToInt8 converts exactly one byte into a signed 8-bit integer
func ToInt8(b []byte) (int8, error) {
	if len(b) != 1 {
		return 0, &LengthError{Field: "int8", Expected: 1, Actual: len(b)}
	}
	return int8(b[0]), nil
}

// ToUint16 converts exactly two little-endian bytes into an unsigned 16-bit integer
func ToUint16(b []byte) (uint16, error) {
	if len(b) != 2 {
		return 0, &LengthError{Field: "uint16", Expected: 2, Actual: len(b)}
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ToInt16 converts exactly two little-endian bytes into a signed 16-bit integer
func ToInt16(b []byte) (int16, error) {
	if len(b) != 2 {
		return 0, &LengthError{Field: "int16", Expected: 2, Actual: len(b)}
	}
	return int16(binary.LittleEndian.Uint16(b)), nil
}

// ToUint32 converts exactly four little-endian bytes into an unsigned 32-bit integer
func ToUint32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, &LengthError{Field: "uint32", Expected: 4, Actual: len(b)}
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ToInt32 converts exactly four little-endian bytes into a signed 32-bit integer
func ToInt32(b []byte) (int32, error) {
	if len(b) != 4 {
		return 0, &LengthError{Field: "int32", Expected: 4, Actual: len(b)}
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// fieldReader walks a record payload field by field.
// The first conversion error sticks; later reads return zero values.
type fieldReader struct {
	buf []byte
	off int
	err error
}

func newFieldReader(payload []byte) *fieldReader {
	return &fieldReader{buf: payload}
}

// next returns up to n bytes, fewer if the payload is exhausted
func (r *fieldReader) next(n int) []byte {
	end := r.off + n
	if end > len(r.buf) {
		end = len(r.buf)
	}
	span := r.buf[r.off:end]
	r.off = end
	return span
}

func (r *fieldReader) fail(field string, err error) {
	if r.err != nil {
		return
	}
	if le, ok := err.(*LengthError); ok {
		le.Field = field
		le.Offset = r.off - le.Actual
	}
	r.err = err
}

func (r *fieldReader) uint8(field string) uint8 {
	if r.err != nil {
		return 0
	}
	v, err := ToUint8(r.next(1))
	if err != nil {
		r.fail(field, err)
	}
	return v
}

func (r *fieldReader) uint16(field string) uint16 {
	if r.err != nil {
		return 0
	}
	v, err := ToUint16(r.next(2))
	if err != nil {
		r.fail(field, err)
	}
	return v
}

func (r *fieldReader) int16(field string) int16 {
	if r.err != nil {
		return 0
	}
	v, err := ToInt16(r.next(2))
	if err != nil {
		r.fail(field, err)
	}
	return v
}

func (r *fieldReader) uint32(field string) uint32 {
	if r.err != nil {
		return 0
	}
	v, err := ToUint32(r.next(4))
	if err != nil {
		r.fail(field, err)
	}
	return v
}
