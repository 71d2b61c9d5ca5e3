// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package syncerr defines the error taxonomy shared by the Beacon client,
// the warehouse writer and the sync orchestrator.
//
// Layers that know why something failed attach a Kind; the orchestrator
// decides between retrying the whole sync and giving up by calling Classify.
package syncerr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// Kind classifies a failure for retry decisions.
type Kind int

const (
	// KindFatal failures are not retried: bad credentials, missing
	// configuration, 4xx responses other than 429.
	KindFatal Kind = iota

	// KindRetryable failures are transient: 429/5xx after per-page retries,
	// statement timeouts, connection resets.
	KindRetryable

	// KindDataQuality marks malformed records. These are normally absorbed
	// by coercion and only surface when a caller asks for strict handling.
	KindDataQuality
)

// String implements fmt.Stringer. The values are written to audit details.
func (k Kind) String() string {
	switch k {
	case KindRetryable:
		return "retryable"
	case KindDataQuality:
		return "data_quality"
	default:
		return "fatal"
	}
}

// Kinded is implemented by errors that know their own Kind.
type Kinded interface {
	error
	Kind() Kind
}

// Error wraps an underlying error with a Kind and the operation that failed.
type Error struct {
	Op   string
	kind Kind
	Err  error
}

// New returns an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Op: op, kind: kind, Err: err}
}

// Retryable wraps err as a transient failure.
func Retryable(op string, err error) *Error { return New(KindRetryable, op, err) }

// Fatal wraps err as a non-retryable failure.
func Fatal(op string, err error) *Error { return New(KindFatal, op, err) }

// Fatalf builds a fatal error from a format string.
func Fatalf(op, format string, args ...any) *Error {
	return New(KindFatal, op, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Kind returns the classification.
func (e *Error) Kind() Kind { return e.kind }

// Classify returns the Kind of err. The outermost Kinded error in the chain
// wins. Unmarked timeouts and connection resets are retryable; everything
// else is fatal.
func Classify(err error) Kind {
	if err == nil {
		return KindFatal
	}

	var kinded Kinded
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF):
		return KindRetryable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindRetryable
	}

	return KindFatal
}

// IsRetryable reports whether Classify(err) is KindRetryable.
func IsRetryable(err error) bool {
	return err != nil && Classify(err) == KindRetryable
}
