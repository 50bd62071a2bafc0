package voice

import "math"

// Waveform selects the wavetable used by an Oscillator.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSaw
	WaveSquare
)

const (
	tableBits = 10
	tableSize = 1 << tableBits // samples per wavetable
	tableAmp  = 16384          // table peak, leaves headroom before the filter
)

// wavetables are generated once at package init. One cycle per table.
var wavetables [4][tableSize + 1]int16

func init() {
	for i := 0; i < tableSize; i++ {
		t := float64(i) / tableSize

		wavetables[WaveSine][i] = int16(math.Round(tableAmp * math.Sin(2*math.Pi*t)))

		tri := 4 * t
		switch {
		case t >= 0.75:
			tri = 4*t - 4
		case t >= 0.25:
			tri = 2 - 4*t
		}
		wavetables[WaveTriangle][i] = int16(math.Round(tableAmp * tri))

		wavetables[WaveSaw][i] = int16(math.Round(tableAmp * (2*t - 1)))

		if t < 0.5 {
			wavetables[WaveSquare][i] = tableAmp
		} else {
			wavetables[WaveSquare][i] = -tableAmp
		}
	}
	// Guard sample so interpolation never wraps mid-fetch.
	for w := range wavetables {
		wavetables[w][tableSize] = wavetables[w][0]
	}
}

// Oscillator plays a wavetable with a 32-bit fixed-point phase accumulator.
// The top tableBits of the phase index the table; the next 8 bits drive
// linear interpolation between adjacent table samples.
type Oscillator struct {
	wave      Waveform
	phase     uint32
	phaseStep uint32
}

// Setup points the oscillator at a waveform and frequency and resets phase.
func (o *Oscillator) Setup(wave Waveform, freqHz, sampleRate float64) {
	if wave < WaveSine || wave > WaveSquare {
		wave = WaveSine
	}
	o.wave = wave
	o.phase = 0
	o.phaseStep = uint32(freqHz / sampleRate * (1 << 32))
}

// Fill writes one raw block of oscillator output into buf.
func (o *Oscillator) Fill(buf []int16) {
	table := &wavetables[o.wave]
	phase := o.phase
	step := o.phaseStep
	for i := range buf {
		idx := phase >> (32 - tableBits)
		frac := int32((phase >> (32 - tableBits - 8)) & 0xFF)
		s0 := int32(table[idx])
		s1 := int32(table[idx+1])
		buf[i] = int16(s0 + ((s1-s0)*frac)>>8)
		phase += step
	}
	o.phase = phase
}
