// internal/status/tracker.go
package status

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tamzrod/ezetrol-bridge/internal/poller"
)

// Writer is the delivery-only contract for device status.
type Writer interface {
	WriteStatus(s Snapshot) error
}

// Tracker owns the device status snapshot.
// It follows coordinator outcomes (as a poller.Listener) and a 1 Hz
// clock, and hands every change to the Writer. The Writer sees
// snapshots in order, one at a time.
type Tracker struct {
	w          Writer
	staleAfter time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu          sync.Mutex
	snap        Snapshot
	lastSuccess time.Time
}

// NewTracker creates a tracker in the boot state (HealthUnknown).
// staleAfter <= 0 disables stale detection.
func NewTracker(w Writer, staleAfter time.Duration, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		w:          w,
		staleAfter: staleAfter,
		logger:     logger,
		now:        time.Now,
		snap: Snapshot{
			Health: HealthUnknown,
		},
	}
}

// Snapshot returns the current status snapshot.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// Start writes the boot snapshot (full block identity re-assert).
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.write("start")
}

// Stop marks the device disabled. Call after the coordinator is closed.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Health = HealthDisabled
	t.write("stop")
}

// Updated implements poller.Listener. Recovery / OK.
func (t *Tracker) Updated(s poller.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastSuccess = s.LastSuccessAt
	changed := false

	if t.snap.Health != HealthOK {
		t.snap.Health = HealthOK
		changed = true
	}
	// Reset last error code when healthy.
	if t.snap.LastErrorCode != CodeNone {
		t.snap.LastErrorCode = CodeNone
		changed = true
	}
	// Reset seconds-in-error on recovery.
	if t.snap.SecondsInError != 0 {
		t.snap.SecondsInError = 0
		changed = true
	}

	if changed {
		t.write("update")
	}
}

// Unavailable implements poller.Listener.
func (t *Tracker) Unavailable(s poller.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed := false

	if t.snap.Health != HealthError {
		t.snap.Health = HealthError
		changed = true
	}

	code := ErrorCode(s.Err)
	if t.snap.LastErrorCode != code {
		t.snap.LastErrorCode = code
		changed = true
	}

	// NOTE: seconds_in_error increments on the 1Hz ticker only.

	if changed {
		t.write("update")
	}
}

// Run ticks at 1 Hz until ctx is done.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

func (t *Tracker) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.Health == HealthOK && t.staleAfter > 0 && !t.lastSuccess.IsZero() {
		if t.now().Sub(t.lastSuccess) > t.staleAfter {
			t.snap.Health = HealthStale
			t.logger.Warn("device status stale", "last_success", t.lastSuccess)
			t.write("stale")
		}
	}

	// Tick while not OK; saturate, never wrap.
	switch t.snap.Health {
	case HealthOK, HealthDisabled:
		return
	}
	if t.snap.SecondsInError < 65535 {
		t.snap.SecondsInError++
		t.write("tick")
	}
}

// write must be called with t.mu held.
func (t *Tracker) write(reason string) {
	if t.w == nil {
		return
	}
	if err := t.w.WriteStatus(t.snap); err != nil {
		t.logger.Error("status write failed",
			"reason", reason,
			"health", HealthName(t.snap.Health),
			"err", err,
		)
	}
}
