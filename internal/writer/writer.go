// internal/writer/writer.go
package writer

import (
	"fmt"
	"log/slog"

	"github.com/tamzrod/ezetrol-bridge/internal/decoder"
	"github.com/tamzrod/ezetrol-bridge/internal/poller"
	"github.com/tamzrod/ezetrol-bridge/internal/status"
)

// RegsPerMetric is the width of one metric field: 16 ASCII characters.
const RegsPerMetric = 8

// MetricBlockRegs is the metric block size, fields in decoder.Metrics order.
var MetricBlockRegs = RegsPerMetric * len(decoder.Metrics)

// MetricWriter copies each good snapshot into metric memory.
// Values stay device strings; a PLC reads them as ASCII.
type MetricWriter struct {
	plan   *MetricPlan
	cli    EndpointClient
	logger *slog.Logger
}

// NewMetricWriter builds a metric writer if metrics are enabled.
func NewMetricWriter(plan Plan, cli EndpointClient, logger *slog.Logger) (*MetricWriter, bool) {
	if plan.Metrics == nil {
		return nil, false
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricWriter{plan: plan.Metrics, cli: cli, logger: logger}, true
}

// Write delivers one snapshot as a single block write.
func (w *MetricWriter) Write(s decoder.Snapshot) error {
	regs := EncodeMetrics(s)
	if err := w.cli.WriteRegisters(w.plan.UnitID, w.plan.Address, regs); err != nil {
		return fmt.Errorf("writer: unit=%d addr=%d err=%w", w.plan.UnitID, w.plan.Address, err)
	}
	return nil
}

// Updated implements poller.Listener.
func (w *MetricWriter) Updated(s poller.State) {
	if err := w.Write(s.Snapshot); err != nil {
		w.logger.Error("metric write failed", "err", err)
	}
}

// Unavailable implements poller.Listener. Registers keep the last good
// values; availability lives in the status block.
func (w *MetricWriter) Unavailable(poller.State) {}

// EncodeMetrics lays a snapshot out as MetricBlockRegs registers.
func EncodeMetrics(s decoder.Snapshot) []uint16 {
	regs := make([]uint16, 0, MetricBlockRegs)
	for _, m := range decoder.Metrics {
		v, _ := s.Value(m.Key)
		regs = append(regs, status.EncodeASCII(v, RegsPerMetric)...)
	}
	return regs
}
