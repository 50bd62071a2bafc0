// Package filter provides the per-voice two-pole resonant low-pass filter
// runtime used by the wavetable synthesizer.
//
// The filter is a fixed-point IIR stage: it consumes one [core.Frame] of
// raw oscillator output per rendering block together with a per-block
// [Coefficients] set, rewrites the frame in place, and carries its delay
// line across blocks in a per-voice [State]. Processing allocates nothing
// and signals no errors; unstable coefficient sets produce unbounded
// output, which is a property of the input, not a detected fault.
//
// This package provides the processing runtime only. Coefficient design
// (cutoff/resonance mapping) lives in synth/filter/design.
package filter
