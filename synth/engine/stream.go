package engine

import (
	"time"

	"github.com/cwbudde/algo-synth/midi/smf"
	"github.com/cwbudde/algo-synth/synth/core"
	"github.com/cwbudde/algo-synth/synth/voice"
)

const (
	defaultVolume = 100
	defaultPan    = 64
)

// channelState tracks the per-MIDI-channel settings that shape note-ons.
type channelState struct {
	program uint8
	volume  uint8 // CC 7
	pan     uint8 // CC 10
}

// Stream is one open MIDI resource being synthesized. It owns the
// sequencer cursor, the voice pool, and the mix bus; the filter state
// inside each voice is disjoint per voice, so voices never interact
// except through the bus.
type Stream struct {
	eng  *Engine
	file *smf.File

	state    State
	prepared bool
	closed   bool

	events    []smf.Event
	nextEvent int
	frames    int64 // sample frames rendered since the start of the stream
	steal     int   // round-robin voice stealing cursor
	tail      int   // blocks rendered past the end of the score
	tailLimit int   // hard cut for voices that never finish releasing

	channels [16]channelState
	voices   []voice.Voice
	bus      []int32
	scratch  []int16
}

func newStream(e *Engine, f *smf.File) *Stream {
	return &Stream{eng: e, file: f, state: StateStopped}
}

// Prepare readies the stream for rendering and enters the playing state.
func (s *Stream) Prepare() error {
	if s.closed {
		return ErrStreamClosed
	}
	if s.prepared {
		return ErrInvalidState
	}

	cfg := s.eng.cfg
	s.voices = make([]voice.Voice, cfg.MaxVoices)
	s.bus = core.EnsureLen32(s.bus, cfg.MixBufferSize*cfg.Channels)
	s.scratch = core.EnsureLen16(s.scratch, cfg.MixBufferSize)
	s.tailLimit = (cfg.SampleRate + cfg.MixBufferSize - 1) / cfg.MixBufferSize
	s.events = s.file.Events()
	s.resetPlayback()
	s.prepared = true
	s.state = StatePlaying
	return nil
}

// ParseMetaData returns the total play time of the stream. As a side
// effect it rewinds playback to the start of the file, mirroring the
// parser rewind the metadata scan performs.
func (s *Stream) ParseMetaData() (time.Duration, error) {
	if s.closed {
		return 0, ErrStreamClosed
	}
	if s.prepared {
		s.resetPlayback()
		s.state = StatePlaying
	}
	return s.file.Duration(), nil
}

// State returns the current playback state.
func (s *Stream) State() State {
	return s.state
}

// Location returns the current playback position.
func (s *Stream) Location() (time.Duration, error) {
	if s.closed {
		return 0, ErrStreamClosed
	}
	if !s.prepared {
		return 0, ErrNotPrepared
	}
	return s.timeAt(s.frames), nil
}

// Locate seeks to the given playback position. Active notes are cut, the
// channel state is rebuilt from the events before the target, and
// rendering resumes at the target time. Seeking past the stream duration
// fails with ErrBeyondEnd.
func (s *Stream) Locate(pos time.Duration) error {
	if s.closed {
		return ErrStreamClosed
	}
	if !s.prepared {
		return ErrNotPrepared
	}
	if s.state == StateStopped || s.state == StateError {
		return ErrInvalidState
	}
	if pos < 0 {
		return ErrInvalidState
	}
	if pos > s.file.Duration() {
		return ErrBeyondEnd
	}

	s.resetPlayback()
	// Replay program and controller changes up to the target so the
	// channels sound correct, without triggering the skipped notes.
	for s.nextEvent < len(s.events) && s.events[s.nextEvent].Time < pos {
		ev := s.events[s.nextEvent]
		if ev.Type == smf.EventProgramChange || ev.Type == smf.EventController {
			s.applyEvent(ev)
		}
		s.nextEvent++
	}
	s.frames = int64(pos) * int64(s.eng.cfg.SampleRate) / int64(time.Second)
	return nil
}

// Pause suspends playback. Subsequent renders produce silence without
// advancing the playback position.
func (s *Stream) Pause() error {
	if s.closed {
		return ErrStreamClosed
	}
	if s.state != StatePlaying {
		return ErrInvalidState
	}
	s.state = StatePaused
	return nil
}

// Resume continues playback after Pause.
func (s *Stream) Resume() error {
	if s.closed {
		return ErrStreamClosed
	}
	if s.state != StatePaused {
		return ErrInvalidState
	}
	s.state = StatePlaying
	return nil
}

// Close releases the stream and detaches it from the engine.
func (s *Stream) Close() error {
	if s.closed {
		return ErrStreamClosed
	}
	s.closed = true
	s.state = StateStopped
	if s.eng != nil && s.eng.stream == s {
		s.eng.stream = nil
	}
	return nil
}

// Render produces one mix-buffer block of interleaved PCM into out and
// returns the number of sample frames written. While paused it emits a
// block of silence without advancing. Once the score is exhausted and the
// play time fully covered, any voices still sounding are released and the
// stream enters the stopped state within a bounded release tail; further
// renders fail with ErrInvalidState.
func (s *Stream) Render(out []int16) (int, error) {
	if s.closed {
		return 0, ErrStreamClosed
	}
	if !s.prepared {
		return 0, ErrNotPrepared
	}
	if s.state == StateStopped || s.state == StateError {
		return 0, ErrInvalidState
	}

	cfg := s.eng.cfg
	frames := cfg.MixBufferSize
	need := frames * cfg.Channels
	if len(out) < need {
		return 0, ErrBufferTooSmall
	}
	out = out[:need]

	if s.state == StatePaused {
		core.Zero16(out)
		return frames, nil
	}

	blockEnd := s.timeAt(s.frames + int64(frames))
	for s.nextEvent < len(s.events) && s.events[s.nextEvent].Time < blockEnd {
		if err := s.applyEvent(s.events[s.nextEvent]); err != nil {
			s.state = StateError
			return 0, err
		}
		s.nextEvent++
	}

	core.Zero32(s.bus)
	for i := range s.voices {
		if s.voices[i].Active() {
			s.voices[i].Render(s.bus, s.scratch, cfg.Channels)
		}
	}
	for i, v := range s.bus {
		out[i] = core.Saturate(v)
	}
	s.frames += int64(frames)

	if s.nextEvent >= len(s.events) && s.timeAt(s.frames) >= s.file.Duration() {
		if !s.anyVoiceActive() {
			s.state = StateStopped
		} else {
			// The score is over but voices still ring. Force their release
			// so a note-on without a matching note-off cannot keep the
			// stream playing, and hard-cut after at most a second of tail.
			if s.tail == 0 {
				for i := range s.voices {
					s.voices[i].Release()
				}
			}
			s.tail++
			if s.tail >= s.tailLimit {
				for i := range s.voices {
					s.voices[i] = voice.Voice{}
				}
				s.state = StateStopped
			}
		}
	}
	return frames, nil
}

func (s *Stream) resetPlayback() {
	s.frames = 0
	s.nextEvent = 0
	s.steal = 0
	s.tail = 0
	for i := range s.voices {
		s.voices[i] = voice.Voice{}
	}
	for i := range s.channels {
		s.channels[i] = channelState{volume: defaultVolume, pan: defaultPan}
	}
}

func (s *Stream) applyEvent(ev smf.Event) error {
	ch := &s.channels[ev.Channel&0x0F]
	switch ev.Type {
	case smf.EventProgramChange:
		ch.program = ev.Data1
	case smf.EventController:
		switch ev.Data1 {
		case 7:
			ch.volume = ev.Data2
		case 10:
			ch.pan = ev.Data2
		}
	case smf.EventNoteOff:
		for i := range s.voices {
			v := &s.voices[i]
			if v.Active() && v.Channel() == ev.Channel && v.Note() == ev.Data1 {
				v.Release()
			}
		}
	case smf.EventNoteOn:
		return s.noteOn(ev, ch)
	}
	return nil
}

func (s *Stream) noteOn(ev smf.Event, ch *channelState) error {
	idx := -1
	for i := range s.voices {
		if !s.voices[i].Active() {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = s.steal % len(s.voices)
		s.steal++
	}

	cfg := s.eng.cfg
	inst := voice.ForProgram(int(ch.program))
	vel := uint8(int(ev.Data2) * int(ch.volume) / 127)
	blockRate := float64(cfg.SampleRate) / float64(cfg.MixBufferSize)
	return s.voices[idx].Start(inst, ev.Data1, vel, ev.Channel,
		float64(cfg.SampleRate), blockRate, ch.pan)
}

func (s *Stream) anyVoiceActive() bool {
	for i := range s.voices {
		if s.voices[i].Active() {
			return true
		}
	}
	return false
}

func (s *Stream) timeAt(frames int64) time.Duration {
	return time.Duration(frames) * time.Second / time.Duration(s.eng.cfg.SampleRate)
}
