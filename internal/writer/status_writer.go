// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"

	"github.com/tamzrod/ezetrol-bridge/internal/status"
)

// liveSlot is one status field that changes at runtime.
type liveSlot struct {
	name string
	slot uint16
	get  func(status.Snapshot) uint16
	set  func(*status.Snapshot, uint16)
}

var liveSlots = []liveSlot{
	{"health", status.SlotHealthCode,
		func(s status.Snapshot) uint16 { return s.Health },
		func(s *status.Snapshot, v uint16) { s.Health = v }},
	{"last_error", status.SlotLastErrorCode,
		func(s status.Snapshot) uint16 { return s.LastErrorCode },
		func(s *status.Snapshot, v uint16) { s.LastErrorCode = v }},
	{"seconds_in_error", status.SlotSecondsInError,
		func(s status.Snapshot) uint16 { return s.SecondsInError },
		func(s *status.Snapshot, v uint16) { s.SecondsInError = v }},
}

// statusBlockWriter delivers tracker snapshots into the status block.
// The first write, and the first write after any failure, lays down the
// whole block including the device name. Otherwise only changed slots
// are written.
type statusBlockWriter struct {
	plan *StatusPlan
	cli  EndpointClient

	resync  bool
	written status.Snapshot
}

// NewDeviceStatusWriter returns the status.Writer for plan, or false
// when the plan has no status block.
func NewDeviceStatusWriter(plan Plan, cli EndpointClient) (status.Writer, bool) {
	if plan.Status == nil {
		return nil, false
	}
	return &statusBlockWriter{
		plan:    plan.Status,
		cli:     cli,
		resync:  true,
		written: status.Snapshot{Health: status.HealthUnknown},
	}, true
}

func (w *statusBlockWriter) WriteStatus(s status.Snapshot) error {
	if w.cli == nil {
		return errors.New("status writer: missing client")
	}

	base := w.plan.BaseSlot * status.SlotsPerDevice

	if w.resync {
		if err := w.cli.WriteRegisters(w.plan.UnitID, base, status.Encode(s, w.plan.DeviceName)); err != nil {
			return fmt.Errorf("status writer: block unit=%d addr=%d: %w", w.plan.UnitID, base, err)
		}
		w.resync = false
		w.written = s
		return nil
	}

	var errs []error
	for _, f := range liveSlots {
		v := f.get(s)
		if f.get(w.written) == v {
			continue
		}
		if err := w.cli.WriteRegisters(w.plan.UnitID, base+f.slot, []uint16{v}); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
			continue
		}
		f.set(&w.written, v)
	}

	if len(errs) > 0 {
		// Register contents are now uncertain.
		w.resync = true
		return fmt.Errorf("status writer: %w", errors.Join(errs...))
	}
	return nil
}
