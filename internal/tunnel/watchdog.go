// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnel

import (
	"sync"
	"time"

	"github.com/privarion/privariond/internal/logging"
)

// DefaultWatchdogTimeout is the default deadlock-detection window (§5
// "Fatal class"): no progress within this window triggers a tunnel stop
// and a diagnostic event, with no automatic restart.
const DefaultWatchdogTimeout = 30 * time.Second

// Watchdog ticks every third of its timeout and calls onStuck once more
// than the timeout has passed since the last Kick (or Start), mirroring the stability-timer pattern
// used elsewhere in this codebase for crash-window tracking, adapted here
// from counting process exits to detecting a stalled packet pump.
type Watchdog struct {
	timeout time.Duration
	onStuck func()
	log     *logging.Logger

	mu      sync.Mutex
	lastKick time.Time
	stopCh  chan struct{}
}

// NewWatchdog constructs a Watchdog with the given timeout. onStuck is
// called at most once per stall; the caller is responsible for stopping
// the tunnel from within it.
func NewWatchdog(timeout time.Duration, onStuck func()) *Watchdog {
	if timeout <= 0 {
		timeout = DefaultWatchdogTimeout
	}
	return &Watchdog{
		timeout: timeout,
		onStuck: onStuck,
		log:     logging.Default().WithComponent("tunnel.watchdog"),
	}
}

// Kick records forward progress, resetting the stall window.
func (w *Watchdog) Kick() {
	w.mu.Lock()
	w.lastKick = time.Now()
	w.mu.Unlock()
}

// Start begins watching for stalls on a ticker. Stop ends it.
func (w *Watchdog) Start() {
	w.mu.Lock()
	w.lastKick = time.Now()
	w.stopCh = make(chan struct{})
	stop := w.stopCh
	w.mu.Unlock()

	go func() {
		ticker := time.NewTicker(w.timeout / 3)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				w.mu.Lock()
				stalled := time.Since(w.lastKick) > w.timeout
				w.mu.Unlock()
				if stalled {
					w.log.Error("watchdog detected a stalled tunnel; stopping")
					w.onStuck()
					return
				}
			}
		}
	}()
}

// Stop ends the watchdog goroutine.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}
