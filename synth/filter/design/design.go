// Package design maps cutoff and resonance parameters to the fixed-point
// coefficient format consumed by synth/filter. It is the upstream
// coefficient source for the voice filter; the runtime itself never
// performs this mapping.
package design

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-synth/synth/filter"
)

// Errors returned by coefficient design.
var (
	ErrInvalidSampleRate = errors.New("design: sample rate must be positive")
	ErrInvalidCutoff     = errors.New("design: cutoff must lie in (0, Nyquist)")
	ErrInvalidResonance  = errors.New("design: resonance Q must be at least 0.5")
)

// LowPass designs a two-pole resonant low-pass coefficient set.
//
// The poles are placed at radius r = exp(-omega/(2*Q)) and angle
// omega = 2*pi*cutoff/sampleRate, giving a resonant peak near the cutoff
// that sharpens with Q. The gain is chosen for unity response at DC. The
// result is quantized to the filter's fixed-point contract: B1 in Q14,
// B2 and K in Q15. Poles stay strictly inside the unit circle, so designed
// sets are always stable.
func LowPass(sampleRate, cutoffHz, q float64) (filter.Coefficients, error) {
	if sampleRate <= 0 {
		return filter.Coefficients{}, ErrInvalidSampleRate
	}
	if cutoffHz <= 0 || cutoffHz >= sampleRate/2 {
		return filter.Coefficients{}, ErrInvalidCutoff
	}
	if q < 0.5 {
		return filter.Coefficients{}, ErrInvalidResonance
	}

	omega := 2 * math.Pi * cutoffHz / sampleRate
	r := math.Exp(-omega / (2 * q))

	a1 := -2 * r * math.Cos(omega)
	a2 := r * r
	gain := 1 + a1 + a2 // unity at DC

	return filter.Coefficients{
		K:  quantize(gain, 15),
		B1: quantize(a1, 14),
		B2: quantize(a2, 15),
	}, nil
}

// quantize rounds v to a signed 16-bit fixed-point value with the given
// number of fractional bits, saturating at the type limits.
func quantize(v float64, fracBits int) int16 {
	scaled := math.Round(v * float64(int32(1)<<fracBits))
	if scaled > math.MaxInt16 {
		return math.MaxInt16
	}
	if scaled < math.MinInt16 {
		return math.MinInt16
	}
	return int16(scaled)
}
