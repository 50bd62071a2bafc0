package core

import (
	"math"
	"testing"
)

func TestSaturate(t *testing.T) {
	cases := []struct {
		in   int32
		want int16
	}{
		{0, 0},
		{32767, 32767},
		{32768, 32767},
		{1 << 20, 32767},
		{-32768, -32768},
		{-32769, -32768},
		{-(1 << 20), -32768},
		{1234, 1234},
		{-1234, -1234},
	}
	for _, tc := range cases {
		if got := Saturate(tc.in); got != tc.want {
			t.Errorf("Saturate(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMulQ15(t *testing.T) {
	// Unity-ish gain (32767/32768) keeps the sample nearly unchanged.
	if got := MulQ15(16384, 32767); got != 16383 {
		t.Errorf("near-unity: got %d, want 16383", got)
	}
	// Half gain.
	if got := MulQ15(16384, 16384); got != 8192 {
		t.Errorf("half gain: got %d, want 8192", got)
	}
	if got := MulQ15(-16384, 16384); got != -8192 {
		t.Errorf("half gain negative: got %d, want -8192", got)
	}
	if got := MulQ15(1000, 0); got != 0 {
		t.Errorf("zero gain: got %d, want 0", got)
	}
}

func TestMonoFrame(t *testing.T) {
	buf := []int16{1, 2, 3}
	f := MonoFrame(buf)
	if f.Count != 3 || f.Stride != 1 {
		t.Fatalf("got count=%d stride=%d", f.Count, f.Stride)
	}

	empty := MonoFrame(nil)
	if empty.Count != 0 {
		t.Fatalf("nil buf count = %d", empty.Count)
	}
}

func TestChannelFrame(t *testing.T) {
	buf := []int16{10, 20, 11, 21, 12, 22}

	left := ChannelFrame(buf, 0, 2)
	if left.Count != 3 || left.Stride != 2 || left.Samples[0] != 10 {
		t.Fatalf("left: %+v", left)
	}

	right := ChannelFrame(buf, 1, 2)
	if right.Count != 3 || right.Stride != 2 || right.Samples[0] != 20 {
		t.Fatalf("right: %+v", right)
	}

	// Odd tail: 5 interleaved values hold 3 left and 2 right samples.
	odd := []int16{1, 2, 3, 4, 5}
	if f := ChannelFrame(odd, 0, 2); f.Count != 3 {
		t.Errorf("odd left count = %d, want 3", f.Count)
	}
	if f := ChannelFrame(odd, 1, 2); f.Count != 2 {
		t.Errorf("odd right count = %d, want 2", f.Count)
	}

	if f := ChannelFrame(nil, 0, 2); f.Count != 0 {
		t.Errorf("nil buf count = %d", f.Count)
	}
}

func TestEnsureLen(t *testing.T) {
	buf := make([]int16, 4, 16)
	grown := EnsureLen16(buf, 8)
	if len(grown) != 8 || cap(grown) != 16 {
		t.Errorf("reuse: len=%d cap=%d", len(grown), cap(grown))
	}
	fresh := EnsureLen16(buf, 32)
	if len(fresh) != 32 {
		t.Errorf("grow: len=%d", len(fresh))
	}
	if got := EnsureLen32(nil, 0); len(got) != 0 {
		t.Errorf("zero: len=%d", len(got))
	}
}

func TestZero(t *testing.T) {
	buf := []int16{1, 2, 3}
	Zero16(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("index %d not zeroed: %d", i, v)
		}
	}

	bus := []int32{7, 8}
	Zero32(bus)
	if bus[0] != 0 || bus[1] != 0 {
		t.Fatalf("bus not zeroed: %v", bus)
	}
}

func TestClampInt(t *testing.T) {
	if got := ClampInt(5, 0, 3); got != 3 {
		t.Errorf("above: %d", got)
	}
	if got := ClampInt(-1, 0, 3); got != 0 {
		t.Errorf("below: %d", got)
	}
	if got := ClampInt(2, 3, 0); got != 2 {
		t.Errorf("swapped bounds: %d", got)
	}
	if got := ClampInt(math.MaxInt32, 0, 10); got != 10 {
		t.Errorf("max: %d", got)
	}
}

func TestApplyEngineOptions(t *testing.T) {
	cfg := ApplyEngineOptions()
	if cfg != DefaultEngineConfig() {
		t.Fatalf("defaults: %+v", cfg)
	}

	cfg = ApplyEngineOptions(
		WithSampleRate(44100),
		WithChannels(1),
		WithMixBufferSize(256),
		WithMaxVoices(8),
		nil,
	)
	want := EngineConfig{SampleRate: 44100, Channels: 1, MixBufferSize: 256, MaxVoices: 8}
	if cfg != want {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}

	// Invalid values leave the defaults untouched.
	cfg = ApplyEngineOptions(WithSampleRate(-1), WithChannels(5), WithMixBufferSize(0), WithMaxVoices(-2))
	if cfg != DefaultEngineConfig() {
		t.Fatalf("invalid values mutated config: %+v", cfg)
	}
}
