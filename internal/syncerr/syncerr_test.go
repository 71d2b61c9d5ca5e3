// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package syncerr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindFatal},
		{"plain", errors.New("boom"), KindFatal},
		{"retryable", Retryable("fetch", errors.New("429")), KindRetryable},
		{"wrapped retryable", fmt.Errorf("sync attempt: %w", Retryable("fetch", errors.New("503"))), KindRetryable},
		{"fatal beats inner retryable", Fatal("config", Retryable("fetch", errors.New("x"))), KindFatal},
		{"data quality", New(KindDataQuality, "transform", errors.New("bad row")), KindDataQuality},
		{"deadline", fmt.Errorf("upsert: %w", context.DeadlineExceeded), KindRetryable},
		{"reset", fmt.Errorf("read: %w", syscall.ECONNRESET), KindRetryable},
		{"unexpected eof", io.ErrUnexpectedEOF, KindRetryable},
		{"net timeout", fmt.Errorf("dial: %w", timeoutErr{}), KindRetryable},
		{"canceled", context.Canceled, KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("missing BEACON_API_KEY")
	err := Fatal("config", inner)
	if err.Error() != "config: missing BEACON_API_KEY" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find inner error")
	}
	if KindRetryable.String() != "retryable" || KindFatal.String() != "fatal" || KindDataQuality.String() != "data_quality" {
		t.Error("unexpected Kind strings")
	}
}
