// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package beacon

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/beaconkpi/internal/config"
	"github.com/tomtom215/beaconkpi/internal/metrics"
	"github.com/tomtom215/beaconkpi/internal/syncerr"
)

// breakerOpenTimeout matches the shortest whole-sync retry delay so the
// next attempt finds the breaker half-open instead of rejected.
const breakerOpenTimeout = config.MinRetryDelay

// circuitBreaker guards page requests so a Beacon outage fails fast instead
// of burning every page's retry budget.
//
// Configuration:
//   - 3 trial requests in half-open state
//   - counts reset every minute while closed
//   - open for breakerOpenTimeout before going half-open
//   - opens at >= 60% failures over at least 10 requests
//
// Only retryable failures count against the breaker. A 404 while discovering
// attendance endpoints is an answer, not an outage.
type circuitBreaker struct {
	cb   *gobreaker.CircuitBreaker[*response]
	name string
	log  zerolog.Logger
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newCircuitBreaker(name string, log zerolog.Logger) *circuitBreaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     breakerOpenTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				log.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},

		IsSuccessful: func(err error) bool {
			return err == nil || !syncerr.IsRetryable(err)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			log.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).
				Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &circuitBreaker{cb: cb, name: name, log: log}
}

// execute runs fn under the breaker. Rejections while open are retryable so
// the orchestrator schedules another whole-sync attempt.
func (b *circuitBreaker) execute(fn func() (*response, error)) (*response, error) {
	resp, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			b.log.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, syncerr.Retryable("beacon request", err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return resp, nil
}

// BreakerState returns the breaker state as "closed", "half-open" or "open".
func (c *Client) BreakerState() string {
	return stateToString(c.breaker.cb.State())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
