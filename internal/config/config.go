// internal/config/config.go
package config

import "time"

type Config struct {
	Bridge BridgeConfig `yaml:"bridge" toml:"bridge"`
}

type BridgeConfig struct {
	Env      string `yaml:"env" toml:"env"`             // dev | prod
	LogLevel string `yaml:"log_level" toml:"log_level"` // debug | info | warn | error

	Device DeviceConfig `yaml:"device" toml:"device"`
	HTTP   HTTPConfig   `yaml:"http" toml:"http"`
	MQTT   MQTTConfig   `yaml:"mqtt" toml:"mqtt"`
	Modbus ModbusConfig `yaml:"modbus" toml:"modbus"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Name      string     `yaml:"name" toml:"name"`
	Host      string     `yaml:"host" toml:"host"`
	TimeoutMs int        `yaml:"timeout_ms" toml:"timeout_ms"`
	Poll      PollConfig `yaml:"poll" toml:"poll"`
}

// ID identifies the device in logs, topics and metrics.
func (d DeviceConfig) ID() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Host
}

func (d DeviceConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutMs) * time.Millisecond
}

func (d DeviceConfig) Interval() time.Duration {
	return time.Duration(d.Poll.IntervalS) * time.Second
}

// ---- POLL ----

type PollConfig struct {
	IntervalS int `yaml:"interval_s" toml:"interval_s"`
}

// ---- HTTP ----

type HTTPConfig struct {
	Listen string `yaml:"listen" toml:"listen"` // empty disables
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker      string `yaml:"broker" toml:"broker"` // empty disables
	ClientID    string `yaml:"client_id" toml:"client_id"`
	Username    string `yaml:"username" toml:"username"`
	Password    string `yaml:"password" toml:"password"`
	TopicPrefix string `yaml:"topic_prefix" toml:"topic_prefix"`
	QoS         int    `yaml:"qos" toml:"qos"`
}

func (m MQTTConfig) Enabled() bool { return m.Broker != "" }

// ---- MODBUS ----

type ModbusConfig struct {
	Endpoint  string `yaml:"endpoint" toml:"endpoint"` // empty disables
	UnitID    *uint8 `yaml:"unit_id" toml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms" toml:"timeout_ms"`

	// Device status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot" toml:"status_slot"`

	// Metric registers (optional, opt-in)
	DataAddress *uint16 `yaml:"data_address" toml:"data_address"`
}

func (m ModbusConfig) Enabled() bool { return m.Endpoint != "" }

func (m ModbusConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutMs) * time.Millisecond
}
