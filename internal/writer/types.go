// internal/writer/types.go
package writer

// EndpointClient is the exact contract the writers use.
// Registers are holding registers on one Modbus unit.
type EndpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// StatusPlan places the device status block.
type StatusPlan struct {
	UnitID     uint8
	BaseSlot   uint16 // block index; address = BaseSlot * status.SlotsPerDevice
	DeviceName string
}

// MetricPlan places the metric registers.
type MetricPlan struct {
	UnitID  uint8
	Address uint16
}

// Plan is the fully-built write plan for one device.
// Nil sub-plans are disabled.
type Plan struct {
	DeviceID string
	Endpoint string
	Status   *StatusPlan
	Metrics  *MetricPlan
}
