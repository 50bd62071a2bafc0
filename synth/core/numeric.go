package core

import "math"

// Saturate clamps a 32-bit mix-bus value to the 16-bit PCM range.
func Saturate(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// MulQ15 multiplies a sample by a Q15 gain (0..32767 for unity-and-below).
func MulQ15(x int16, gain int16) int16 {
	return int16((int32(x) * int32(gain)) >> 15)
}

// ClampInt limits value to the inclusive range [min, max].
func ClampInt(value, min, max int) int {
	if min > max {
		min, max = max, min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
