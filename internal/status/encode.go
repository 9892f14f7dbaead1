// internal/status/encode.go
package status

// Encode converts a Snapshot and device name into a full device status block.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot, deviceName string) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError

	// Slots 3..10 are RESERVED and left as zero.

	// Device name always lives at the end of the block.
	copy(regs[SlotDeviceNameStart:SlotDeviceNameEnd+1], EncodeASCII(deviceName, SlotDeviceNameSlots))

	return regs
}

// EncodeASCII packs up to 2*slots characters into registers.
// Each register stores two ASCII bytes in big-endian order; unused bytes are zero.
// Non-printable bytes become '?'.
func EncodeASCII(s string, slots int) []uint16 {
	out := make([]uint16, slots)

	b := []byte(s)
	if len(b) > 2*slots {
		b = b[:2*slots]
	}

	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < len(b); i += 2 {
		hi := b[i]
		var lo byte
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}

// DecodeASCII is the inverse of EncodeASCII; trailing zero bytes are dropped.
func DecodeASCII(regs []uint16) string {
	b := make([]byte, 0, 2*len(regs))
	for _, r := range regs {
		b = append(b, byte(r>>8), byte(r))
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
