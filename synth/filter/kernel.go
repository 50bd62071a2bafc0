package filter

import "github.com/cwbudde/algo-vecmath/cpu"

// processFrameFn runs the filter recurrence over count samples of s spaced
// stride apart. Coefficients arrive already negated/halved. Returns the
// updated delay line.
type processFrameFn func(k, b1, b2 int32, s []int16, count, stride int, z1, z2 int32) (int32, int32)

type kernelEntry struct {
	name      string
	simdLevel cpu.SIMDLevel
	priority  int
	fn        processFrameFn
}

// kernels lists available processFrame implementations; the highest
// priority entry supported by the host CPU wins.
var kernels = []kernelEntry{
	{name: "generic-unrolled2", simdLevel: cpu.SIMDNone, priority: 10, fn: processUnrolled2},
	{name: "generic-scalar", simdLevel: cpu.SIMDNone, priority: 0, fn: processScalar},
}

func processScalar(k, b1, b2 int32, s []int16, count, stride int, z1, z2 int32) (int32, int32) {
	i := 0
	for n := 0; n < count; n++ {
		acc := k*int32(s[i]) + b1*z1 + b2*z2
		y := int32(int16(acc >> Shift))
		s[i] = int16(y)
		z2 = z1
		z1 = y
		i += stride
	}
	return z1, z2
}

// processUnrolled2 processes two samples per iteration and fetches the
// second input before storing the first output, hiding load latency in the
// steady state. The loop body branches only on the continue test; an odd
// trailing sample takes the scalar epilogue, which never reads past the
// frame.
func processUnrolled2(k, b1, b2 int32, s []int16, count, stride int, z1, z2 int32) (int32, int32) {
	i := 0
	n := count
	for ; n >= 2; n -= 2 {
		x0 := int32(s[i])
		acc := k*x0 + b1*z1 + b2*z2
		x1 := int32(s[i+stride])
		y0 := int32(int16(acc >> Shift))
		s[i] = int16(y0)

		acc = k*x1 + b1*y0 + b2*z1
		y1 := int32(int16(acc >> Shift))
		z2 = y0
		z1 = y1
		s[i+stride] = int16(y1)

		i += 2 * stride
	}
	if n > 0 {
		acc := k*int32(s[i]) + b1*z1 + b2*z2
		y := int32(int16(acc >> Shift))
		s[i] = int16(y)
		z2 = z1
		z1 = y
	}
	return z1, z2
}
