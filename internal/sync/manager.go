// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package sync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/beaconkpi/internal/config"
	"github.com/tomtom215/beaconkpi/internal/logging"
)

var (
	// ErrSyncInProgress is returned when a sync is requested while another
	// is running.
	ErrSyncInProgress = errors.New("sync already in progress")

	ErrAlreadyRunning = errors.New("sync manager is already running")
	ErrNotRunning     = errors.New("sync manager is not running")
)

// Runner performs one sync. *Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, trigger string) (*Summary, error)
}

// Manager runs syncs on a schedule and on demand, never two at once.
//
// Thread Safety:
//   - mu: protects lifecycle and last-run fields
//   - syncMu: held for the duration of a sync; TryLock rejects overlaps
type Manager struct {
	runner    Runner
	interval  time.Duration
	onStartup bool

	mu          sync.RWMutex
	running     bool
	lastSync    time.Time
	lastSummary *Summary
	lastErr     error
	runCtx      context.Context
	cancel      context.CancelFunc

	syncMu  sync.Mutex
	syncing atomic.Bool

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewManager returns a manager for runner. An interval of zero disables
// scheduled syncs.
func NewManager(runner Runner, cfg *config.SyncConfig) *Manager {
	logging.Info().Dur("interval", cfg.Interval).Bool("on_startup", cfg.OnStartup).
		Int("max_attempts", cfg.MaxAttempts).Msg("Sync manager config loaded")
	return &Manager{
		runner:    runner,
		interval:  cfg.Interval,
		onStartup: cfg.OnStartup,
		runCtx:    context.Background(),
		stopChan:  make(chan struct{}),
	}
}

// Start begins scheduled synchronization. Syncs triggered later through
// TriggerAsync run under ctx.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.running = true
	m.stopChan = make(chan struct{})
	m.runCtx, m.cancel = context.WithCancel(ctx)
	runCtx := m.runCtx
	m.mu.Unlock()

	logging.Info().Msg("Starting sync manager...")

	// Add before starting goroutines so Stop never waits on a partial count.
	if m.onStartup {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if _, err := m.TriggerSync(runCtx, TriggerScheduled); err != nil && !errors.Is(err, ErrSyncInProgress) {
				logging.Warn().Err(err).Msg("Startup sync failed (will retry on schedule)")
			}
		}()
	}
	if m.interval > 0 {
		m.wg.Add(1)
		go m.syncLoop(runCtx)
	}
	return nil
}

// Stop cancels any running sync and waits for background work to end.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotRunning
	}
	m.running = false
	cancel := m.cancel
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")
	close(m.stopChan)
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")
	return nil
}

func (m *Manager) syncLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			_, err := m.TriggerSync(ctx, TriggerScheduled)
			switch {
			case errors.Is(err, ErrSyncInProgress):
				logging.Info().Msg("Scheduled sync skipped, another sync is running")
			case err != nil:
				logging.Error().Err(err).Msg("Scheduled sync failed")
			}
		}
	}
}

// TriggerSync runs a sync now and waits for it. It returns
// ErrSyncInProgress without waiting when another sync holds the lock.
func (m *Manager) TriggerSync(ctx context.Context, trigger string) (*Summary, error) {
	if !m.syncMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer m.syncMu.Unlock()
	return m.run(ctx, trigger)
}

// TriggerAsync starts a sync in the background under the manager's
// context. It returns ErrSyncInProgress when a sync is already running.
func (m *Manager) TriggerAsync(trigger string) error {
	if !m.syncMu.TryLock() {
		return ErrSyncInProgress
	}
	m.mu.RLock()
	ctx := m.runCtx
	m.mu.RUnlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.syncMu.Unlock()
		if _, err := m.run(logging.ContextWithNewCorrelationID(ctx), trigger); err != nil {
			logging.Error().Err(err).Str("trigger", trigger).Msg("Triggered sync failed")
		}
	}()
	return nil
}

// run must be called with syncMu held.
func (m *Manager) run(ctx context.Context, trigger string) (*Summary, error) {
	m.syncing.Store(true)
	defer m.syncing.Store(false)

	summary, err := m.runner.Run(ctx, trigger)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
	if err == nil {
		m.lastSync = time.Now()
		m.lastSummary = summary
	}
	return summary, err
}

// Syncing reports whether a sync is running.
func (m *Manager) Syncing() bool {
	return m.syncing.Load()
}

// LastSyncTime returns when the last successful sync finished.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// LastSummary returns the summary of the last successful sync, or nil.
func (m *Manager) LastSummary() *Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSummary
}

// LastError returns the error of the most recent sync, nil if it succeeded.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}
