// Package response measures the frequency response realized by a
// fixed-point filter coefficient set. Unlike an analytic transfer-function
// evaluation, it runs a unit impulse through the actual integer filter
// path, so quantization of the coefficients and the truncating output
// shift are part of what is measured.
package response

import (
	"errors"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-synth/synth/core"
	"github.com/cwbudde/algo-synth/synth/filter"
)

// ErrInvalidLength reports an unusable FFT length.
var ErrInvalidLength = errors.New("response: length must be a power of two, at least 2")

const impulseLevel = 16384

// Magnitude returns the single-sided magnitude response (n/2+1 bins, DC
// through Nyquist) of the coefficient set, normalized so a unity-gain
// filter reads 1.0. n is the impulse/FFT length and must be a power of
// two large enough for the response to decay.
func Magnitude(c filter.Coefficients, n int) ([]float64, error) {
	if n < 2 || n&(n-1) != 0 {
		return nil, ErrInvalidLength
	}

	var s filter.State
	buf := make([]int16, n)
	buf[0] = impulseLevel
	filter.Apply(&s, c, core.MonoFrame(buf))

	in := make([]complex128, n)
	for i, v := range buf {
		in[i] = complex(float64(v)/impulseLevel, 0)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, err
	}
	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return nil, err
	}

	mags := make([]float64, n/2+1)
	for i := range mags {
		mags[i] = cmplx.Abs(out[i])
	}
	return mags, nil
}

// MagnitudeDB returns Magnitude in decibels, flooring at -120 dB.
func MagnitudeDB(c filter.Coefficients, n int) ([]float64, error) {
	mags, err := Magnitude(c, n)
	if err != nil {
		return nil, err
	}
	for i, m := range mags {
		mags[i] = 20 * math.Log10(math.Max(m, 1e-6))
	}
	return mags, nil
}

// BinFreq returns the center frequency of bin i for the given FFT length
// and sample rate.
func BinFreq(i, n int, sampleRate float64) float64 {
	return float64(i) * sampleRate / float64(n)
}
