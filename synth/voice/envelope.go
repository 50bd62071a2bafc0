package voice

import "math"

// envelope stage progression. Gain is updated once per rendering block,
// matching the engine's block-rate control update.
type envStage int

const (
	stageAttack envStage = iota
	stageDecay
	stageSustain
	stageRelease
	stageDone
)

const (
	envUnity     = 32767 // Q15 full scale
	envSilence   = 16    // release ends below this gain
	envMinBlocks = 1
)

// Envelope is a fixed-point attack/decay/sustain/release gain generator.
// Attack ramps linearly to full scale; decay and release multiply the gain
// by a per-block Q15 factor, giving the usual exponential tail.
type Envelope struct {
	stage      envStage
	gain       int32 // current Q15 gain
	attackStep int32
	decayMul   int32
	sustain    int32
	releaseMul int32
}

// EnvelopeParams describes an envelope in milliseconds and Q15 sustain level.
type EnvelopeParams struct {
	AttackMs  float64
	DecayMs   float64
	Sustain   int16
	ReleaseMs float64
}

// Start initializes the envelope for a new note. blockRate is the number of
// rendering blocks per second.
func (e *Envelope) Start(p EnvelopeParams, blockRate float64) {
	attackBlocks := blocks(p.AttackMs, blockRate)
	e.attackStep = envUnity / int32(attackBlocks)
	if e.attackStep < 1 {
		e.attackStep = 1
	}
	e.decayMul = decayFactor(p.DecayMs, blockRate, 0.001)
	e.releaseMul = decayFactor(p.ReleaseMs, blockRate, 0.001)
	e.sustain = int32(p.Sustain)
	if e.sustain < 0 {
		e.sustain = 0
	}
	e.gain = 0
	e.stage = stageAttack
}

// Release moves the envelope into its release stage.
func (e *Envelope) Release() {
	if e.stage != stageDone {
		e.stage = stageRelease
	}
}

// Done reports whether the envelope has fully decayed.
func (e *Envelope) Done() bool {
	return e.stage == stageDone
}

// Gain returns the current block gain in Q15.
func (e *Envelope) Gain() int16 {
	return int16(e.gain)
}

// Step advances the envelope by one rendering block and returns the gain to
// apply to that block.
func (e *Envelope) Step() int16 {
	switch e.stage {
	case stageAttack:
		e.gain += e.attackStep
		if e.gain >= envUnity {
			e.gain = envUnity
			e.stage = stageDecay
		}
	case stageDecay:
		e.gain = (e.gain * e.decayMul) >> 15
		if e.gain <= e.sustain {
			e.gain = e.sustain
			e.stage = stageSustain
		}
	case stageSustain:
		// hold
	case stageRelease:
		e.gain = (e.gain * e.releaseMul) >> 15
		if e.gain < envSilence {
			e.gain = 0
			e.stage = stageDone
		}
	case stageDone:
		e.gain = 0
	}
	return int16(e.gain)
}

func blocks(ms, blockRate float64) int {
	n := int(math.Round(ms / 1000 * blockRate))
	if n < envMinBlocks {
		n = envMinBlocks
	}
	return n
}

// decayFactor returns the Q15 per-block multiplier that decays full scale
// to the given ratio over ms milliseconds.
func decayFactor(ms, blockRate, ratio float64) int32 {
	n := blocks(ms, blockRate)
	f := math.Exp(math.Log(ratio) / float64(n))
	q := int32(math.Round(f * 32768))
	if q > envUnity {
		q = envUnity
	}
	if q < 0 {
		q = 0
	}
	return q
}
