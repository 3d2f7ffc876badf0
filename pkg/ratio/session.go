// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FrameDirection tells whether a frame was sent or received
type FrameDirection int

const (
	DirectionTx FrameDirection = iota
	DirectionRx
)

// FrameEvent describes one frame crossing the link. Raw holds whatever bytes
// were read when Err is set.
type FrameEvent struct {
	Time      time.Time
	Direction FrameDirection
	Command   byte
	Raw       []byte
	Err       error
}

// Progress reports sample retrieval within a dive
type Progress struct {
	DiveID uint16
	Sample int // samples retrieved so far
	Total  int
}

// Session drives the request/response exchanges with a dive computer.
//
// The protocol carries no request identifiers, so a Session owns its stream
// exclusively and must not be used from more than one goroutine.
type Session struct {
	stream     io.ReadWriter
	logger     *zap.Logger
	stats      *Statistics
	limiter    *rate.Limiter
	onFrame    func(FrameEvent)
	onProgress func(Progress)
	state      int
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger used for request tracing
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStatistics records link statistics into stats
func WithStatistics(stats *Statistics) Option {
	return func(s *Session) {
		if stats != nil {
			s.stats = stats
		}
	}
}

// WithFrameHook calls fn for every frame written or read
func WithFrameHook(fn func(FrameEvent)) Option {
	return func(s *Session) {
		s.onFrame = fn
	}
}

// WithProgress calls fn after each retrieved sample
func WithProgress(fn func(Progress)) Option {
	return func(s *Session) {
		s.onProgress = fn
	}
}

// WithRequestInterval spaces consecutive requests at least interval apart.
// Zero disables pacing.
func WithRequestInterval(interval time.Duration) Option {
	return func(s *Session) {
		if interval > 0 {
			s.limiter = rate.NewLimiter(rate.Every(interval), 1)
		} else {
			s.limiter = nil
		}
	}
}

// NewSession creates a session over stream. Reads from stream must return
// within the link timeout; a read yielding no data is treated as a timeout.
func NewSession(stream io.ReadWriter, opts ...Option) *Session {
	if stream == nil {
		panic("stream cannot be nil")
	}

	s := &Session{
		stream: stream,
		logger: zap.NewNop(),
		stats:  NewStatistics(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Statistics returns the statistics the session records into
func (s *Session) Statistics() *Statistics {
	return s.stats
}

// State returns the state of the last request
func (s *Session) State() int {
	return s.state
}

// GetDiveIDs returns the identifiers of all dives stored on the device in
// ascending order
func (s *Session) GetDiveIDs(ctx context.Context) ([]uint16, error) {
	data, err := s.exchange(ctx, CmdGetDiveIDRange, diveIDRangeOption)
	if err != nil {
		return nil, err
	}

	rng, err := DecodeDiveIDRange(data)
	if err != nil {
		return nil, s.decodeFailed(CmdGetDiveIDRange, err)
	}
	s.state = StateDecoded

	s.logger.Debug("dive id range", zap.Uint16("first", rng.First), zap.Uint16("last", rng.Last))
	return rng.IDs(), nil
}

// GetDive downloads the header and every sample of a dive. Any failed request
// aborts the download; no partial dive is returned.
func (s *Session) GetDive(ctx context.Context, id uint16) (*Dive, error) {
	header, err := s.GetDiveHeader(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.CompleteDive(ctx, header)
}

// GetDiveHeader downloads only the header of a dive. The returned Dive has no
// samples.
func (s *Session) GetDiveHeader(ctx context.Context, id uint16) (*Dive, error) {
	data, err := s.exchange(ctx, CmdGetDiveHeader, byte(id&0xFF), byte(id>>8))
	if err != nil {
		return nil, fmt.Errorf("dive %d: %w", id, err)
	}

	header, err := DecodeDiveHeader(data)
	if err != nil {
		return nil, fmt.Errorf("dive %d: %w", id, s.decodeFailed(CmdGetDiveHeader, err))
	}
	s.state = StateDecoded
	header.ID = id

	s.logger.Debug("dive header",
		zap.Uint16("dive", id),
		zap.Uint16("samples", header.DiveSamples),
		zap.Uint32("utc_start", header.UTCStartingTimeS),
	)
	return header, nil
}

// CompleteDive downloads the samples announced by header, in ascending order
// starting at 1, and returns a new Dive holding them. header is not modified.
func (s *Session) CompleteDive(ctx context.Context, header *Dive) (*Dive, error) {
	total := int(header.DiveSamples)
	samples := make([]DiveSample, 0, total)

	for index := 1; index <= total; index++ {
		sample, err := s.getDiveSample(ctx, uint16(index))
		if err != nil {
			return nil, fmt.Errorf("dive %d sample %d/%d: %w", header.ID, index, total, err)
		}
		samples = append(samples, sample)

		if s.onProgress != nil {
			s.onProgress(Progress{DiveID: header.ID, Sample: index, Total: total})
		}
	}

	dive := *header
	dive.Samples = samples
	s.stats.RecordDive(&dive)

	s.logger.Info("dive downloaded", zap.Uint16("dive", dive.ID), zap.Int("samples", len(samples)))
	return &dive, nil
}

func (s *Session) getDiveSample(ctx context.Context, index uint16) (DiveSample, error) {
	data, err := s.exchange(ctx, CmdGetDiveSample, byte(index&0xFF), byte(index>>8))
	if err != nil {
		return DiveSample{}, err
	}

	sample, err := DecodeDiveSample(data)
	if err != nil {
		return DiveSample{}, s.decodeFailed(CmdGetDiveSample, err)
	}
	s.state = StateDecoded
	return sample, nil
}

// exchange sends one request and returns the data of its ACK response
func (s *Session) exchange(ctx context.Context, command byte, options ...byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	s.state = StateIdle
	request := EncodeRequest(command, options...)

	s.logger.Debug("request",
		zap.String("command", FormatCommand(command)),
		zap.Binary("options", options),
	)

	if _, err := s.stream.Write(request); err != nil {
		s.state = StateFaulted
		s.stats.RecordError(err)
		return nil, fmt.Errorf("write %s: %w", FormatCommand(command), err)
	}
	s.state = StateRequestSent
	s.stats.RecordRequest()
	s.emit(DirectionTx, command, request, nil)

	frame, err := readFrame(s.stream, func(state int) { s.state = state })
	var resp *Response
	if err == nil {
		resp, err = ParseResponse(frame, command)
	}
	if err != nil {
		s.state = StateFaulted
		s.stats.RecordError(err)
		s.emit(DirectionRx, command, frame, err)
		s.logger.Warn("response rejected", zap.String("command", FormatCommand(command)), zap.Error(err))
		return nil, err
	}

	s.stats.RecordResponse(resp)
	s.emit(DirectionRx, command, resp.Raw, nil)

	if resp.NAK {
		s.state = StateFaulted
		err := &DeviceError{Command: command, Code: resp.ErrorCode}
		s.stats.RecordError(err)
		s.logger.Warn("request rejected by device",
			zap.String("command", FormatCommand(command)),
			zap.Uint8("code", resp.ErrorCode),
		)
		return nil, err
	}

	return resp.Data, nil
}

func (s *Session) decodeFailed(command byte, err error) error {
	s.state = StateFaulted
	s.stats.RecordError(err)
	s.logger.Warn("payload rejected", zap.String("command", FormatCommand(command)), zap.Error(err))
	return err
}

func (s *Session) emit(dir FrameDirection, command byte, raw []byte, err error) {
	if s.onFrame == nil {
		return
	}
	s.onFrame(FrameEvent{
		Time:      time.Now(),
		Direction: dir,
		Command:   command,
		Raw:       raw,
		Err:       err,
	})
}
