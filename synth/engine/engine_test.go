package engine

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/algo-synth/internal/testmidi"
	"github.com/cwbudde/algo-synth/synth/core"
)

// twoSecondFile builds a 2000 ms format-0 file at 120 BPM (division 480,
// 500000 us per quarter): 1920 ticks of playing time with a short melody
// whose releases finish well before the end of track.
func twoSecondFile() []byte {
	return testmidi.NewBuilder(480).
		Tempo(0, 500000).
		ProgramChange(0, 0, 0).
		NoteOn(0, 0, 60, 100).
		NoteOff(480, 0, 60).
		NoteOn(0, 0, 64, 100).
		NoteOff(480, 0, 64).
		Bytes(960) // end of track at tick 1920 = 2000 ms
}

func openPrepared(t *testing.T) (*Engine, *Stream) {
	t.Helper()
	eng, err := New()
	if err != nil {
		t.Fatal(err)
	}
	s, err := eng.Open(bytes.NewReader(twoSecondFile()))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Prepare(); err != nil {
		t.Fatal(err)
	}
	return eng, s
}

func TestEndToEnd_RenderedTimeMatchesDuration(t *testing.T) {
	eng, s := openPrepared(t)
	defer eng.Shutdown()

	playTime, err := s.ParseMetaData()
	if err != nil {
		t.Fatal(err)
	}
	if playTime != 2000*time.Millisecond {
		t.Fatalf("parsed play time %v, want 2s", playTime)
	}

	cfg := eng.Config()
	if cfg.SampleRate != 22050 || cfg.Channels != 2 {
		t.Fatalf("unexpected default config %+v", cfg)
	}

	buf := make([]int16, cfg.MixBufferSize*cfg.Channels)
	var totalFrames int64
	var sawOutput bool
	for s.State() != StateStopped {
		if s.State() == StateError {
			t.Fatal("stream entered error state")
		}
		n, err := s.Render(buf)
		if err != nil {
			t.Fatal(err)
		}
		totalFrames += int64(n)
		for _, v := range buf {
			if v != 0 {
				sawOutput = true
				break
			}
		}
	}
	if !sawOutput {
		t.Fatal("rendered only silence")
	}

	rendered := time.Duration(totalFrames) * time.Second / time.Duration(cfg.SampleRate)
	blockTime := time.Duration(cfg.MixBufferSize) * time.Second / time.Duration(cfg.SampleRate)
	diff := rendered - playTime
	if diff < 0 {
		diff = -diff
	}
	if diff > blockTime {
		t.Fatalf("rendered %v for a %v stream (off by %v, budget %v)",
			rendered, playTime, diff, blockTime)
	}

	// Rendering after stop is an invalid-state error.
	if _, err := s.Render(buf); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("render after stop: got %v, want ErrInvalidState", err)
	}
}

func TestRender_UnterminatedNoteStillStops(t *testing.T) {
	// A note-on with no matching note-off: the voice would hold its
	// sustain level forever, so stopping must not wait for natural decay.
	song := testmidi.NewBuilder(480).
		Tempo(0, 500000).
		NoteOn(0, 0, 60, 100).
		Bytes(1920) // end of track at tick 1920 = 2000 ms

	eng, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Shutdown()

	s, err := eng.Open(bytes.NewReader(song))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Prepare(); err != nil {
		t.Fatal(err)
	}
	playTime, err := s.ParseMetaData()
	if err != nil {
		t.Fatal(err)
	}
	if playTime != 2000*time.Millisecond {
		t.Fatalf("parsed play time %v, want 2s", playTime)
	}

	cfg := eng.Config()
	buf := make([]int16, cfg.MixBufferSize*cfg.Channels)
	blockTime := time.Duration(cfg.MixBufferSize) * time.Second / time.Duration(cfg.SampleRate)
	maxBlocks := int((playTime + 2*time.Second) / blockTime)

	var frames int64
	blocks := 0
	for s.State() == StatePlaying {
		if blocks >= maxBlocks {
			t.Fatalf("still %v after %d blocks (%v of a %v stream)",
				s.State(), blocks, time.Duration(frames)*time.Second/time.Duration(cfg.SampleRate), playTime)
		}
		n, err := s.Render(buf)
		if err != nil {
			t.Fatal(err)
		}
		frames += int64(n)
		blocks++
	}
	if s.State() != StateStopped {
		t.Fatalf("final state %v, want stopped", s.State())
	}

	// The hanging note is released once the score is over, so the tail is
	// bounded by its release time plus at most the hard cut of one second.
	rendered := time.Duration(frames) * time.Second / time.Duration(cfg.SampleRate)
	if rendered < playTime {
		t.Fatalf("rendered %v, less than play time %v", rendered, playTime)
	}
	if rendered > playTime+time.Second+blockTime {
		t.Fatalf("rendered %v for a %v stream, tail not bounded", rendered, playTime)
	}
}

func TestRender_RequiresPrepare(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Shutdown()

	s, err := eng.Open(bytes.NewReader(twoSecondFile()))
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]int16, 256)
	if _, err := s.Render(buf); !errors.Is(err, ErrNotPrepared) {
		t.Fatalf("got %v, want ErrNotPrepared", err)
	}
}

func TestRender_BufferTooSmall(t *testing.T) {
	eng, s := openPrepared(t)
	defer eng.Shutdown()

	buf := make([]int16, eng.Config().MixBufferSize) // missing the second channel
	if _, err := s.Render(buf); !errors.Is(err, ErrBufferTooSmall) {
		t.Fatalf("got %v, want ErrBufferTooSmall", err)
	}
}

func TestPauseResume(t *testing.T) {
	eng, s := openPrepared(t)
	defer eng.Shutdown()

	cfg := eng.Config()
	buf := make([]int16, cfg.MixBufferSize*cfg.Channels)

	if _, err := s.Render(buf); err != nil {
		t.Fatal(err)
	}
	before, _ := s.Location()

	if err := s.Pause(); err != nil {
		t.Fatal(err)
	}
	if s.State() != StatePaused {
		t.Fatalf("state %v after pause", s.State())
	}
	// Pausing twice is invalid.
	if err := s.Pause(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double pause: got %v", err)
	}

	// Paused renders produce full blocks of silence and do not advance.
	n, err := s.Render(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != cfg.MixBufferSize {
		t.Fatalf("paused render returned %d frames", n)
	}
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("paused render not silent at %d: %d", i, v)
		}
	}
	after, _ := s.Location()
	if after != before {
		t.Fatalf("location advanced while paused: %v -> %v", before, after)
	}

	if err := s.Resume(); err != nil {
		t.Fatal(err)
	}
	if s.State() != StatePlaying {
		t.Fatalf("state %v after resume", s.State())
	}
	if err := s.Resume(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double resume: got %v", err)
	}
}

func TestLocate(t *testing.T) {
	eng, s := openPrepared(t)
	defer eng.Shutdown()

	if err := s.Locate(1500 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	loc, err := s.Location()
	if err != nil {
		t.Fatal(err)
	}
	if loc != 1500*time.Millisecond {
		t.Fatalf("location %v, want 1.5s", loc)
	}

	if err := s.Locate(2500 * time.Millisecond); !errors.Is(err, ErrBeyondEnd) {
		t.Fatalf("seek beyond end: got %v, want ErrBeyondEnd", err)
	}
	if err := s.Locate(-time.Second); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("negative seek: got %v", err)
	}

	// Rendering from 1.5s to the end covers the remaining 500 ms.
	cfg := eng.Config()
	buf := make([]int16, cfg.MixBufferSize*cfg.Channels)
	var frames int64
	for s.State() == StatePlaying {
		n, err := s.Render(buf)
		if err != nil {
			t.Fatal(err)
		}
		frames += int64(n)
	}
	rendered := time.Duration(frames) * time.Second / time.Duration(cfg.SampleRate)
	blockTime := time.Duration(cfg.MixBufferSize) * time.Second / time.Duration(cfg.SampleRate)
	if rendered < 500*time.Millisecond-blockTime || rendered > 500*time.Millisecond+blockTime {
		t.Fatalf("rendered %v after seek, want ~500ms", rendered)
	}

	if err := s.Locate(0); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("locate after stop: got %v", err)
	}
}

func TestOpen_Failures(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Shutdown()

	if _, err := eng.Open(bytes.NewReader([]byte("definitely not midi data"))); err == nil {
		t.Fatal("expected parse failure for garbage input")
	}

	s, err := eng.Open(bytes.NewReader(twoSecondFile()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Open(bytes.NewReader(twoSecondFile())); !errors.Is(err, ErrStreamOpen) {
		t.Fatalf("second open: got %v, want ErrStreamOpen", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	// After closing, a new stream can be opened.
	if _, err := eng.Open(bytes.NewReader(twoSecondFile())); err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
}

func TestCloseAndShutdown(t *testing.T) {
	eng, s := openPrepared(t)

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("double close: got %v", err)
	}
	buf := make([]int16, 256)
	if _, err := s.Render(buf); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("render after close: got %v", err)
	}
	if _, err := s.ParseMetaData(); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("metadata after close: got %v", err)
	}

	if err := eng.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := eng.Shutdown(); !errors.Is(err, ErrEngineClosed) {
		t.Fatalf("double shutdown: got %v", err)
	}
	if _, err := eng.Open(bytes.NewReader(twoSecondFile())); !errors.Is(err, ErrEngineClosed) {
		t.Fatalf("open after shutdown: got %v", err)
	}
}

func TestShutdown_ClosesOpenStream(t *testing.T) {
	eng, s := openPrepared(t)
	if err := eng.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateStopped {
		t.Fatalf("stream state %v after engine shutdown", s.State())
	}
}

func TestParseMetaData_RewindsPlayback(t *testing.T) {
	eng, s := openPrepared(t)
	defer eng.Shutdown()

	cfg := eng.Config()
	buf := make([]int16, cfg.MixBufferSize*cfg.Channels)
	for i := 0; i < 20; i++ {
		if _, err := s.Render(buf); err != nil {
			t.Fatal(err)
		}
	}
	if loc, _ := s.Location(); loc == 0 {
		t.Fatal("expected nonzero location before metadata scan")
	}

	if _, err := s.ParseMetaData(); err != nil {
		t.Fatal(err)
	}
	if loc, _ := s.Location(); loc != 0 {
		t.Fatalf("location %v after metadata scan, want 0", loc)
	}
}

func TestNew_Options(t *testing.T) {
	eng, err := New(
		core.WithSampleRate(44100),
		core.WithChannels(1),
		core.WithMixBufferSize(256),
		core.WithMaxVoices(4),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Shutdown()

	cfg := eng.Config()
	if cfg.SampleRate != 44100 || cfg.Channels != 1 || cfg.MixBufferSize != 256 || cfg.MaxVoices != 4 {
		t.Fatalf("config %+v", cfg)
	}

	s, err := eng.Open(bytes.NewReader(twoSecondFile()))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Prepare(); err != nil {
		t.Fatal(err)
	}
	buf := make([]int16, cfg.MixBufferSize*cfg.Channels)
	if n, err := s.Render(buf); err != nil || n != 256 {
		t.Fatalf("mono render: n=%d err=%v", n, err)
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StatePlaying: "playing",
		StatePaused:  "paused",
		StateStopped: "stopped",
		StateError:   "error",
		State(42):    "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("%d: got %q, want %q", int(s), got, want)
		}
	}
}
