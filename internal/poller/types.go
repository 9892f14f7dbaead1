// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/ezetrol-bridge/internal/decoder"
)

// PollResult is what one fetch+decode cycle produced.
// All-or-nothing: Snapshot is meaningful only when Err is nil.
type PollResult struct {
	DeviceID string
	At       time.Time
	Duration time.Duration

	Snapshot decoder.Snapshot
	Err      error // non-nil means the poll cycle failed
}

// State is the coordinator's view of the device.
// It is replaced as a whole at the end of each cycle; readers get copies.
type State struct {
	DeviceID string

	// Snapshot is the last known good reading. Never partially filled.
	Snapshot decoder.Snapshot

	// Success reports whether the latest cycle succeeded.
	Success bool
	// Err is the failure of the latest cycle, nil on success.
	Err error

	// Initialized is false until the first cycle completes.
	Initialized   bool
	UpdatedAt     time.Time
	LastSuccessAt time.Time
	Duration      time.Duration
}

// Available is the consumer-facing availability flag.
func (s State) Available() bool {
	return s.Initialized && s.Success
}

// LastError returns the message of the latest failure, or "".
func (s State) LastError() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Listener is the capability the owning host hands to the coordinator.
// Calls happen after the state is committed, one cycle at a time.
type Listener interface {
	Updated(s State)
	Unavailable(s State)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnUpdated     func(State)
	OnUnavailable func(State)
}

func (l ListenerFuncs) Updated(s State) {
	if l.OnUpdated != nil {
		l.OnUpdated(s)
	}
}

func (l ListenerFuncs) Unavailable(s State) {
	if l.OnUnavailable != nil {
		l.OnUnavailable(s)
	}
}
