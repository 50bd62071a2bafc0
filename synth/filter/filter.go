package filter

import (
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"

	"github.com/cwbudde/algo-synth/synth/core"
)

// Shift is the arithmetic right shift applied to the 32-bit accumulator to
// produce each output sample. Together with the per-block halving of K and
// B2 it fixes the filter's fixed-point scale; see Apply.
const Shift = 14

// Coefficients holds one block's filter coefficients as supplied by the
// coefficient source. K is the input gain, B1 and B2 the two feedback
// magnitudes (both are subtracted from the accumulator, not added). B1
// carries 14 fractional bits; K and B2 carry 15 and are halved once per
// block before the sample loop, trading one bit of precision for the
// headroom that keeps the accumulation inside 32 bits.
type Coefficients struct {
	K, B1, B2 int16
}

// State is the per-voice delay line: the two most recent filtered output
// samples. It persists across blocks of the same voice and is mutated only
// by Apply and ProcessSample; the filter never clears it on its own.
type State struct {
	Z1, Z2 int16
}

// Reset clears the delay line to zero. Intended for voice retrigger.
func (s *State) Reset() {
	s.Z1 = 0
	s.Z2 = 0
}

var (
	processFrameImpl     processFrameFn
	processFrameInitOnce sync.Once
)

// Apply filters frame in place and writes the final delay-line values back
// into s, so the next block continues the recursion without discontinuity.
//
// Per output index n, with z1/z2 the two previous outputs:
//
//	acc  = (K>>1)*x[n] + (-B1)*z1 + ((-B2)>>1)*z2
//	y[n] = acc >> Shift
//
// All products are signed 32-bit and the final shift is arithmetic, so
// results round toward negative infinity. Frames of any count, including 0
// and 1, are safe; the stride lets one channel of an interleaved buffer be
// filtered without copying.
func Apply(s *State, c Coefficients, frame core.Frame) {
	if frame.Count <= 0 {
		return
	}
	processFrameInitOnce.Do(initProcessFrameKernel)

	stride := frame.Stride
	if stride < 1 {
		stride = 1
	}

	k := int32(c.K) >> 1
	b1 := -int32(c.B1)
	b2 := -int32(c.B2) >> 1

	z1, z2 := processFrameImpl(k, b1, b2, frame.Samples, frame.Count, stride,
		int32(s.Z1), int32(s.Z2))
	s.Z1 = int16(z1)
	s.Z2 = int16(z2)
}

// ProcessSample filters one sample through the same recurrence as Apply.
// It is the single-sample reference path used by tests; Apply is the block
// path used by the render loop.
func ProcessSample(s *State, c Coefficients, x int16) int16 {
	k := int32(c.K) >> 1
	b1 := -int32(c.B1)
	b2 := -int32(c.B2) >> 1

	acc := k*int32(x) + b1*int32(s.Z1) + b2*int32(s.Z2)
	y := int16(acc >> Shift)
	s.Z2 = s.Z1
	s.Z1 = y
	return y
}

func initProcessFrameKernel() {
	features := cpu.DetectFeatures()

	best := -1
	for i := range kernels {
		if !cpu.Supports(features, kernels[i].simdLevel) {
			continue
		}
		if best < 0 || kernels[i].priority > kernels[best].priority {
			best = i
		}
	}
	if best < 0 {
		panic("filter: no processFrame kernel available (missing generic fallback?)")
	}

	processFrameImpl = kernels[best].fn
}
