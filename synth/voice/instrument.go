package voice

import "math"

// Instrument bundles the timbre parameters a program change selects: the
// oscillator waveform, the resonant low-pass voicing, and the envelope.
type Instrument struct {
	Wave      Waveform
	CutoffHz  float64
	Resonance float64 // filter Q, >= 0.5
	Envelope  EnvelopeParams
}

// presets cover broad General MIDI families; programs map onto them by
// family group. Timbres are approximations, not GM-exact patches.
var presets = []Instrument{
	// keyboards: bright, quick decay
	{WaveTriangle, 4000, 0.8, EnvelopeParams{AttackMs: 5, DecayMs: 700, Sustain: 6000, ReleaseMs: 150}},
	// plucked: sharp attack, resonant sweep feel
	{WaveSaw, 2500, 2.0, EnvelopeParams{AttackMs: 2, DecayMs: 400, Sustain: 2000, ReleaseMs: 120}},
	// organ/sustained: steady level, mild filtering
	{WaveSquare, 3000, 0.7, EnvelopeParams{AttackMs: 20, DecayMs: 100, Sustain: 24000, ReleaseMs: 80}},
	// strings/pads: slow attack, open filter
	{WaveSaw, 5000, 1.0, EnvelopeParams{AttackMs: 120, DecayMs: 300, Sustain: 20000, ReleaseMs: 400}},
	// brass/reeds: punchy, resonant
	{WaveSaw, 3500, 3.0, EnvelopeParams{AttackMs: 30, DecayMs: 250, Sustain: 16000, ReleaseMs: 100}},
	// leads: full sustain
	{WaveSquare, 4500, 1.5, EnvelopeParams{AttackMs: 10, DecayMs: 200, Sustain: 26000, ReleaseMs: 150}},
}

// ForProgram returns the instrument preset for a MIDI program number (0-127).
func ForProgram(program int) Instrument {
	if program < 0 {
		program = 0
	}
	// 128 programs in 8 families of 16.
	return presets[(program/16)%len(presets)]
}

// NoteFrequency returns the equal-tempered frequency of a MIDI note number
// (A4 = note 69 = 440 Hz).
func NoteFrequency(note uint8) float64 {
	return 440 * math.Pow(2, (float64(note)-69)/12)
}
