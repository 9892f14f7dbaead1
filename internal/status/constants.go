// internal/status/constants.go
package status

// Status block layout. Consumers (PLCs, SCADA) address these slots
// directly, so none of them is configurable.
const (
	// SlotsPerDevice is the size of one status block in registers.
	SlotsPerDevice = 20

	SlotHealthCode     = 0
	SlotLastErrorCode  = 1
	SlotSecondsInError = 2

	// 3..10 stay zero.
	SlotReservedStart = 3
	SlotReservedEnd   = 10

	// The device name fills the tail of the block, two ASCII bytes per slot.
	SlotDeviceNameStart = 11
	SlotDeviceNameSlots = 8
	SlotDeviceNameEnd   = SlotDeviceNameStart + SlotDeviceNameSlots - 1

	DeviceNameMaxChars = 2 * SlotDeviceNameSlots
)

// Health codes written to SlotHealthCode.
const (
	HealthUnknown  uint16 = 0 // boot, no cycle yet
	HealthOK       uint16 = 1
	HealthError    uint16 = 2 // latest cycle failed
	HealthStale    uint16 = 3 // ok, but the last good reading is too old
	HealthDisabled uint16 = 4 // bridge shut down
)
