// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"

	"github.com/Thermoquad/ixdump/pkg/ratio"
)

// Exit codes
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitConnection = 2
	ExitDevice     = 3
	ExitProtocol   = 4
)

// exitError carries an explicit exit code
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// connectionError marks a failure to open the link
func connectionError(err error) error {
	return withExitCode(ExitConnection, err)
}

// ExitCode maps an error returned by a command to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	var (
		deviceErr  *ratio.DeviceError
		framingErr *ratio.FramingError
		crcErr     *ratio.ChecksumError
		cmdErr     *ratio.CommandError
		trailerErr *ratio.TrailerError
		lengthErr  *ratio.LengthError
		enumErr    *ratio.EnumError
	)
	switch {
	case errors.As(err, &deviceErr):
		return ExitDevice
	case errors.As(err, &framingErr),
		errors.As(err, &crcErr),
		errors.As(err, &cmdErr),
		errors.As(err, &trailerErr),
		errors.As(err, &lengthErr),
		errors.As(err, &enumErr):
		return ExitProtocol
	case errors.Is(err, ErrConnectionClosed):
		return ExitConnection
	default:
		return ExitFailure
	}
}
