// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Counters is a point-in-time copy of the link statistics
type Counters struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Exchanges
	Requests  uint64
	Responses uint64
	Acks      uint64
	Naks      uint64

	// Errors
	FramingErrors   uint64
	CRCErrors       uint64
	CommandErrors   uint64
	TrailerErrors   uint64
	LengthErrors    uint64
	EnumErrors      uint64
	DeviceErrors    uint64
	TransportErrors uint64

	// Data
	Dives     uint64
	Samples   uint64
	Anomalies uint64

	// Rates (calculated)
	RequestRate float64 // requests/sec
	ErrorRate   float64 // errors/sec
}

// Errors returns the total number of failed exchanges
func (c Counters) Errors() uint64 {
	return c.FramingErrors + c.CRCErrors + c.CommandErrors + c.TrailerErrors +
		c.LengthErrors + c.EnumErrors + c.DeviceErrors + c.TransportErrors
}

// Statistics tracks link statistics and error rates.
// It is safe for concurrent use so a UI can read it while a session records.
type Statistics struct {
	mu sync.Mutex
	c  Counters
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{c: Counters{StartTime: now, LastUpdateTime: now}}
}

// RecordRequest counts a request written to the link
func (s *Statistics) RecordRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Requests++
	s.c.LastUpdateTime = time.Now()
}

// RecordResponse counts a valid response frame
func (s *Statistics) RecordResponse(resp *Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Responses++
	if resp.NAK {
		s.c.Naks++
	} else {
		s.c.Acks++
	}
	s.c.LastUpdateTime = time.Now()
}

// RecordError classifies and counts a failed exchange or decode
func (s *Statistics) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		framingErr *FramingError
		crcErr     *ChecksumError
		cmdErr     *CommandError
		trailerErr *TrailerError
		lengthErr  *LengthError
		enumErr    *EnumError
		deviceErr  *DeviceError
	)
	switch {
	case errors.As(err, &framingErr):
		s.c.FramingErrors++
	case errors.As(err, &crcErr):
		s.c.CRCErrors++
	case errors.As(err, &cmdErr):
		s.c.CommandErrors++
	case errors.As(err, &trailerErr):
		s.c.TrailerErrors++
	case errors.As(err, &lengthErr):
		s.c.LengthErrors++
	case errors.As(err, &enumErr):
		s.c.EnumErrors++
	case errors.As(err, &deviceErr):
		s.c.DeviceErrors++
	default:
		s.c.TransportErrors++
	}
	s.c.LastUpdateTime = time.Now()
}

// RecordDive counts a completely downloaded dive and its samples
func (s *Statistics) RecordDive(d *Dive) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Dives++
	s.c.Samples += uint64(len(d.Samples))
	s.c.LastUpdateTime = time.Now()
}

// RecordAnomalies counts validation findings
func (s *Statistics) RecordAnomalies(errs []ValidationError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Anomalies += uint64(len(errs))
}

// Snapshot returns a copy of the counters with rates calculated
func (s *Statistics) Snapshot() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.c
	elapsed := time.Since(c.StartTime).Seconds()
	if elapsed > 0 {
		c.RequestRate = float64(c.Requests) / elapsed
		c.ErrorRate = float64(c.Errors()) / elapsed
	}
	return c
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	c := s.Snapshot()

	var ackPercent, errorPercent float64
	if c.Requests > 0 {
		ackPercent = float64(c.Acks) * 100.0 / float64(c.Requests)
		errorPercent = float64(c.Errors()) * 100.0 / float64(c.Requests)
	}

	elapsed := time.Since(c.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Requests:        %8d\n", c.Requests)
	result += fmt.Sprintf("Acknowledged:    %8d (%.1f%%)\n", c.Acks, ackPercent)

	if c.Errors() > 0 {
		result += fmt.Sprintf("Errors:          %8d (%.1f%%)\n", c.Errors(), errorPercent)
		if c.DeviceErrors > 0 {
			result += fmt.Sprintf("  Device NAK:       %5d\n", c.DeviceErrors)
		}
		if c.FramingErrors > 0 {
			result += fmt.Sprintf("  Framing:          %5d\n", c.FramingErrors)
		}
		if c.CRCErrors > 0 {
			result += fmt.Sprintf("  CRC:              %5d\n", c.CRCErrors)
		}
		if c.CommandErrors > 0 {
			result += fmt.Sprintf("  Command echo:     %5d\n", c.CommandErrors)
		}
		if c.TrailerErrors > 0 {
			result += fmt.Sprintf("  Trailer:          %5d\n", c.TrailerErrors)
		}
		if c.LengthErrors > 0 {
			result += fmt.Sprintf("  Short payload:    %5d\n", c.LengthErrors)
		}
		if c.EnumErrors > 0 {
			result += fmt.Sprintf("  Unknown value:    %5d\n", c.EnumErrors)
		}
		if c.TransportErrors > 0 {
			result += fmt.Sprintf("  Transport:        %5d\n", c.TransportErrors)
		}
	}

	result += fmt.Sprintf("Dives:           %8d\n", c.Dives)
	result += fmt.Sprintf("Samples:         %8d\n", c.Samples)
	if c.Anomalies > 0 {
		result += fmt.Sprintf("Anomalies:       %8d\n", c.Anomalies)
	}
	result += fmt.Sprintf("Request Rate:    %8.1f req/sec\n", c.RequestRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", c.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.c = Counters{StartTime: now, LastUpdateTime: now}
}
