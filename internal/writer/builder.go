// internal/writer/builder.go
package writer

import (
	"errors"

	cfg "github.com/tamzrod/ezetrol-bridge/internal/config"
	wmodbus "github.com/tamzrod/ezetrol-bridge/internal/writer/modbus"
)

// BuildPlan converts the bridge config into a write Plan.
// Assumes config has already passed Validate and Normalize.
// ok is false when Modbus delivery is not configured.
func BuildPlan(b cfg.BridgeConfig) (plan Plan, ok bool, err error) {
	m := b.Modbus
	if !m.Enabled() {
		return Plan{}, false, nil
	}
	if m.UnitID == nil {
		return Plan{}, false, errors.New("writer: modbus unit_id required")
	}

	plan = Plan{
		DeviceID: b.Device.ID(),
		Endpoint: m.Endpoint,
	}

	if m.StatusSlot != nil {
		plan.Status = &StatusPlan{
			UnitID:     *m.UnitID,
			BaseSlot:   *m.StatusSlot,
			DeviceName: b.Device.Name,
		}
	}

	if m.DataAddress != nil {
		plan.Metrics = &MetricPlan{
			UnitID:  *m.UnitID,
			Address: *m.DataAddress,
		}
	}

	return plan, true, nil
}

// BuildEndpointClient connects the plan's Modbus TCP endpoint.
func BuildEndpointClient(plan Plan, m cfg.ModbusConfig) (*wmodbus.EndpointClient, error) {
	return wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: plan.Endpoint,
		Timeout:  m.Timeout(),
	})
}
