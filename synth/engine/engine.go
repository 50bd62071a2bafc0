// Package engine hosts the wavetable synthesizer behind a player API:
// open a MIDI resource through caller-supplied read-at callbacks, prepare
// it, then pull rendered PCM block by block while controlling playback
// position and pause state. It drives the sequencer, voice pool, per-voice
// resonant filtering, and the final mixdown.
package engine

import (
	"fmt"
	"io"

	"github.com/cwbudde/algo-synth/midi/smf"
	"github.com/cwbudde/algo-synth/synth/core"
)

// State enumerates stream playback states.
type State int

const (
	StatePlaying State = iota
	StatePaused
	StateStopped
	StateError
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Source supplies the media resource through read-at-offset and size
// callbacks, so callers keep ownership of the underlying storage.
type Source interface {
	io.ReaderAt
	Size() int64
}

// Engine is the synthesizer library instance. One stream can be open at a
// time; the engine owns the rendering configuration shared by its streams.
//
// An Engine and its streams are not safe for concurrent use.
type Engine struct {
	cfg    core.EngineConfig
	stream *Stream
	closed bool
}

// New initializes a synthesizer engine. Defaults are 22050 Hz stereo with
// a 128-frame mix buffer and 32 voices; options override them.
func New(opts ...core.EngineOption) (*Engine, error) {
	cfg := core.ApplyEngineOptions(opts...)
	if cfg.SampleRate <= 0 || cfg.MixBufferSize <= 0 || cfg.MaxVoices <= 0 {
		return nil, fmt.Errorf("engine: invalid configuration %+v", cfg)
	}
	if cfg.Channels != 1 && cfg.Channels != 2 {
		return nil, fmt.Errorf("engine: unsupported channel count %d", cfg.Channels)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's rendering configuration.
func (e *Engine) Config() core.EngineConfig {
	return e.cfg
}

// Open parses a MIDI resource from src and returns a stream handle for it.
// The source is read in full during Open; unreadable or malformed data
// fails here.
func (e *Engine) Open(src Source) (*Stream, error) {
	if e.closed {
		return nil, ErrEngineClosed
	}
	if e.stream != nil {
		return nil, ErrStreamOpen
	}

	file, err := smf.Parse(src, src.Size())
	if err != nil {
		return nil, fmt.Errorf("engine: open: %w", err)
	}

	s := newStream(e, file)
	e.stream = s
	return s, nil
}

// Shutdown releases the engine. Any open stream is closed first. The
// engine cannot be reused afterwards.
func (e *Engine) Shutdown() error {
	if e.closed {
		return ErrEngineClosed
	}
	if e.stream != nil {
		if err := e.stream.Close(); err != nil && err != ErrStreamClosed {
			return err
		}
	}
	e.closed = true
	return nil
}
