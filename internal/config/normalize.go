// internal/config/normalize.go
package config

import (
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultPollIntervalS = 300
	DefaultTimeoutMs     = 10000
	DefaultTopicPrefix   = "ezetrol"
	DefaultModbusTimeout = 2000

	deviceNameMaxChars = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	b := &cfg.Bridge

	if b.Env == "" {
		b.Env = "dev"
	}
	if b.LogLevel == "" {
		b.LogLevel = "info"
	}

	d := &b.Device
	d.Host = strings.TrimSpace(d.Host)
	if d.Poll.IntervalS == 0 {
		d.Poll.IntervalS = DefaultPollIntervalS
	}
	if d.TimeoutMs == 0 {
		d.TimeoutMs = DefaultTimeoutMs
	}

	// ASCII already validated; status block holds 16 characters.
	if len(d.Name) > deviceNameMaxChars {
		d.Name = d.Name[:deviceNameMaxChars]
	}

	if b.MQTT.Enabled() {
		if b.MQTT.TopicPrefix == "" {
			b.MQTT.TopicPrefix = DefaultTopicPrefix
		}
		b.MQTT.TopicPrefix = strings.TrimSuffix(b.MQTT.TopicPrefix, "/")
		if b.MQTT.ClientID == "" {
			b.MQTT.ClientID = "ezetrol-bridge-" + uuid.NewString()[:8]
		}
	}

	if b.Modbus.Enabled() && b.Modbus.TimeoutMs == 0 {
		b.Modbus.TimeoutMs = DefaultModbusTimeout
	}
}
