package filter_test

import (
	"fmt"

	"github.com/cwbudde/algo-synth/synth/core"
	"github.com/cwbudde/algo-synth/synth/filter"
)

func ExampleApply() {
	// K=16384, B1=-16384, B2=16384 gives the easy-to-follow recurrence
	// y[n] = x[n]/2 + z1 - z2/2.
	c := filter.Coefficients{K: 16384, B1: -16384, B2: 16384}

	var s filter.State
	buf := []int16{16384, 0, 0, 0, 0, 0}
	filter.Apply(&s, c, core.MonoFrame(buf))

	for i, y := range buf {
		fmt.Printf("y[%d] = %d\n", i, y)
	}
	// Output:
	// y[0] = 8192
	// y[1] = 8192
	// y[2] = 4096
	// y[3] = 0
	// y[4] = -2048
	// y[5] = -2048
}

func ExampleApply_interleaved() {
	// Filter only the left channel of an interleaved stereo buffer.
	c := filter.Coefficients{K: 32767} // near-unity gain, no feedback

	buf := []int16{1000, 1000, 2000, 2000}
	var s filter.State
	filter.Apply(&s, c, core.ChannelFrame(buf, 0, 2))

	fmt.Println(buf)
	// Output:
	// [999 1000 1999 2000]
}
