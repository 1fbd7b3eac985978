package sensor

// TicksPerSecond is the resolution of the wrapping event timestamps reported by
// speed, cadence and heart rate peripherals (1/1024 s).
const TicksPerSecond = 1024

const (
	counterMask  = 0xFFFF
	counterRange = 0x10000
)

// Offset16 returns the forward distance from oldRaw to newRaw on a 16-bit
// counter. Both inputs are masked to 16 bits first, so callers may pass
// values read from wider fields.
//
// At most one wrap between the two readings is assumed. Two or more wraps
// are indistinguishable from a smaller delta and produce a too-small result;
// callers must sample well inside the counter's wrap period.
func Offset16(oldRaw, newRaw uint32) uint32 {
	oldRaw &= counterMask
	newRaw &= counterMask
	if newRaw < oldRaw {
		newRaw += counterRange
	}
	return newRaw - oldRaw
}

// Is16BitOverflow reports whether the counter wrapped between the two readings.
func Is16BitOverflow(oldRaw, newRaw uint32) bool {
	return newRaw&counterMask < oldRaw&counterMask
}

// SensorTimeToSeconds converts a raw 1/1024 s timestamp to seconds.
func SensorTimeToSeconds(raw uint32) float64 {
	return float64(raw&counterMask) / TicksPerSecond
}
