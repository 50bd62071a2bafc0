// Package voice implements one polyphonic synthesizer voice: a wavetable
// oscillator feeding the per-voice resonant low-pass filter, shaped by a
// fixed-point envelope. Each voice owns its filter state outright, so
// voices never interfere through the filter delay line.
package voice

import (
	"github.com/cwbudde/algo-synth/synth/core"
	"github.com/cwbudde/algo-synth/synth/filter"
	"github.com/cwbudde/algo-synth/synth/filter/design"
)

// Voice is one sounding note. The zero value is an idle voice.
type Voice struct {
	osc    Oscillator
	env    Envelope
	fstate filter.State
	coeffs filter.Coefficients

	note    uint8
	channel uint8
	velGain int16 // Q15 gain from note-on velocity
	panL    int16 // Q15 left gain
	panR    int16 // Q15 right gain
	active  bool
}

// Start (re)triggers the voice with the given instrument and note. The
// filter delay line is cleared on retrigger; between blocks of a sounding
// note it is never touched except by the filter itself.
func (v *Voice) Start(inst Instrument, note, velocity, channel uint8, sampleRate, blockRate float64, pan uint8) error {
	cutoff := inst.CutoffHz
	if limit := sampleRate * 0.45; cutoff > limit {
		cutoff = limit
	}
	coeffs, err := design.LowPass(sampleRate, cutoff, inst.Resonance)
	if err != nil {
		return err
	}

	v.coeffs = coeffs
	v.fstate.Reset()
	v.osc.Setup(inst.Wave, NoteFrequency(note), sampleRate)
	v.env.Start(inst.Envelope, blockRate)

	v.note = note
	v.channel = channel
	v.velGain = int16(core.ClampInt(int(velocity)*258, 0, 32767))
	v.panL, v.panR = panGains(pan)
	v.active = true
	return nil
}

// Release starts the envelope release stage.
func (v *Voice) Release() {
	v.env.Release()
}

// Active reports whether the voice still produces output.
func (v *Voice) Active() bool { return v.active }

// Note returns the sounding MIDI note number.
func (v *Voice) Note() uint8 { return v.note }

// Channel returns the MIDI channel that triggered the voice.
func (v *Voice) Channel() uint8 { return v.channel }

// Render produces one block of this voice and accumulates it into the
// interleaved int32 mix bus. scratch must hold one block of mono samples
// (len(bus)/channels). Returns false once the voice has fully decayed.
func (v *Voice) Render(bus []int32, scratch []int16, channels int) bool {
	if !v.active {
		return false
	}

	gain := core.MulQ15(v.env.Step(), v.velGain)
	if v.env.Done() {
		v.active = false
		return false
	}

	v.osc.Fill(scratch)
	filter.Apply(&v.fstate, v.coeffs, core.MonoFrame(scratch))

	if channels == 2 {
		gl := int32(core.MulQ15(gain, v.panL))
		gr := int32(core.MulQ15(gain, v.panR))
		for i, x := range scratch {
			s := int32(x)
			bus[2*i] += s * gl >> 15
			bus[2*i+1] += s * gr >> 15
		}
	} else {
		g := int32(gain)
		for i, x := range scratch {
			bus[i] += int32(x) * g >> 15
		}
	}
	return true
}

// panGains converts a MIDI pan controller value (0 left, 64 center,
// 127 right) into linear Q15 channel gains.
func panGains(pan uint8) (left, right int16) {
	if pan > 127 {
		pan = 127
	}
	r := int32(pan) * 32767 / 127
	return int16(32767 - r), int16(r)
}
