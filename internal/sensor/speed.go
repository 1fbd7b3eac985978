package sensor

// SpeedKmPerHour converts a wheel rate to ground speed for a wheel of the
// given circumference in millimetres.
func SpeedKmPerHour(wheelRPM, circumferenceMM float64) float64 {
	return wheelRPM * 60 * circumferenceMM / 1_000_000
}
