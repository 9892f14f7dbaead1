// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// MinPollIntervalS is the floor for device.poll.interval_s.
	MinPollIntervalS = 60

	// MaxTimeoutMs is the hard fetch deadline ceiling.
	MaxTimeoutMs = 10000

	statusBlockSlots = 20
	metricBlockRegs  = 24
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values mean "use the default" and are accepted here.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	b := cfg.Bridge

	switch b.Env {
	case "", "dev", "prod":
	default:
		return fmt.Errorf("invalid env %q (allowed: dev, prod)", b.Env)
	}

	if b.LogLevel != "" {
		if _, err := ParseLogLevel(b.LogLevel); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	d := b.Device
	if strings.TrimSpace(d.Host) == "" {
		return errors.New("device.host is required")
	}
	if strings.Contains(d.Host, "://") || strings.ContainsAny(d.Host, "/?# ") {
		return fmt.Errorf("device.host %q must be a bare host or host:port", d.Host)
	}

	if d.Poll.IntervalS != 0 && d.Poll.IntervalS < MinPollIntervalS {
		return fmt.Errorf(
			"device.poll.interval_s must be >= %d, got %d",
			MinPollIntervalS,
			d.Poll.IntervalS,
		)
	}

	if d.TimeoutMs < 0 || d.TimeoutMs > MaxTimeoutMs {
		return fmt.Errorf("device.timeout_ms must be within 1..%d, got %d", MaxTimeoutMs, d.TimeoutMs)
	}

	// device name sanity (ASCII only)
	for i := 0; i < len(d.Name); i++ {
		if d.Name[i] > 0x7F {
			return fmt.Errorf("device %q: name must contain ASCII characters only", d.Name)
		}
	}

	// ------------------------------------------------------------
	// MQTT (OPT-IN)
	// ------------------------------------------------------------

	if b.MQTT.Enabled() {
		if b.MQTT.QoS < 0 || b.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", b.MQTT.QoS)
		}
		if strings.ContainsAny(b.MQTT.TopicPrefix, "+#") {
			return fmt.Errorf("mqtt.topic_prefix %q must not contain wildcards", b.MQTT.TopicPrefix)
		}
	}

	// ------------------------------------------------------------
	// MODBUS STATUS / METRIC MEMORY (OPT-IN)
	// ------------------------------------------------------------

	m := b.Modbus
	if !m.Enabled() {
		if m.StatusSlot != nil || m.DataAddress != nil {
			return errors.New("modbus: status_slot or data_address set but no endpoint defined")
		}
		return nil
	}

	if m.UnitID == nil {
		return fmt.Errorf("modbus endpoint %s: unit_id is required", m.Endpoint)
	}
	if m.TimeoutMs < 0 {
		return fmt.Errorf("modbus.timeout_ms must be >= 0, got %d", m.TimeoutMs)
	}
	if m.StatusSlot == nil && m.DataAddress == nil {
		return fmt.Errorf("modbus endpoint %s: neither status_slot nor data_address is set", m.Endpoint)
	}

	var statusStart, statusEnd, dataStart, dataEnd int

	if m.StatusSlot != nil {
		statusStart = int(*m.StatusSlot) * statusBlockSlots
		statusEnd = statusStart + statusBlockSlots - 1
		if statusEnd > 0xFFFF {
			return fmt.Errorf("modbus.status_slot %d is out of the register range", *m.StatusSlot)
		}
	}

	if m.DataAddress != nil {
		dataStart = int(*m.DataAddress)
		dataEnd = dataStart + metricBlockRegs - 1
		if dataEnd > 0xFFFF {
			return fmt.Errorf("modbus.data_address %d is out of the register range", *m.DataAddress)
		}
	}

	// overlap check (inclusive)
	if m.StatusSlot != nil && m.DataAddress != nil {
		if !(dataEnd < statusStart || dataStart > statusEnd) {
			return fmt.Errorf(
				"modbus memory overlap: endpoint=%s status block %d-%d overlaps metric block %d-%d",
				m.Endpoint,
				statusStart,
				statusEnd,
				dataStart,
				dataEnd,
			)
		}
	}

	return nil
}

// ParseLogLevel maps a config level name onto slog.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q (allowed: debug, info, warn, error)", s)
	}
}
