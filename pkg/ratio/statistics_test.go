// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestStatistics_RecordError(t *testing.T) {
	tests := []struct {
		err     error
		counter func(Counters) uint64
	}{
		{&FramingError{Reason: "no response"}, func(c Counters) uint64 { return c.FramingErrors }},
		{&ChecksumError{}, func(c Counters) uint64 { return c.CRCErrors }},
		{&CommandError{}, func(c Counters) uint64 { return c.CommandErrors }},
		{&TrailerError{}, func(c Counters) uint64 { return c.TrailerErrors }},
		{&LengthError{}, func(c Counters) uint64 { return c.LengthErrors }},
		{&EnumError{}, func(c Counters) uint64 { return c.EnumErrors }},
		{fmt.Errorf("dive 1: %w", &DeviceError{Code: 3}), func(c Counters) uint64 { return c.DeviceErrors }},
		{errors.New("broken pipe"), func(c Counters) uint64 { return c.TransportErrors }},
	}

	for _, tt := range tests {
		stats := NewStatistics()
		stats.RecordError(tt.err)
		stats.RecordError(nil)

		c := stats.Snapshot()
		if tt.counter(c) != 1 {
			t.Errorf("%T: counter not incremented", tt.err)
		}
		if c.Errors() != 1 {
			t.Errorf("%T: Errors() = %d, want 1", tt.err, c.Errors())
		}
	}
}

func TestStatistics_ResponsesAndDives(t *testing.T) {
	stats := NewStatistics()
	stats.RecordRequest()
	stats.RecordRequest()
	stats.RecordResponse(&Response{})
	stats.RecordResponse(&Response{NAK: true})
	stats.RecordDive(&Dive{Samples: make([]DiveSample, 12)})
	stats.RecordAnomalies([]ValidationError{{}, {}})

	c := stats.Snapshot()
	if c.Requests != 2 || c.Responses != 2 || c.Acks != 1 || c.Naks != 1 {
		t.Errorf("exchange counters = %+v", c)
	}
	if c.Dives != 1 || c.Samples != 12 || c.Anomalies != 2 {
		t.Errorf("data counters = dives %d samples %d anomalies %d", c.Dives, c.Samples, c.Anomalies)
	}

	out := stats.String()
	for _, want := range []string{"Requests:", "Dives:", "Anomalies:"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}

	stats.Reset()
	if c := stats.Snapshot(); c.Requests != 0 || c.Dives != 0 {
		t.Errorf("Reset left counters: %+v", c)
	}
}

func TestStatistics_Concurrent(t *testing.T) {
	stats := NewStatistics()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				stats.RecordRequest()
				_ = stats.Snapshot()
			}
		}()
	}
	wg.Wait()

	if c := stats.Snapshot(); c.Requests != 800 {
		t.Errorf("Requests = %d, want 800", c.Requests)
	}
}
