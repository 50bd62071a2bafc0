// Package smf parses Standard MIDI Files (format 0 and 1) into a single
// time-ordered event stream suitable for driving the synthesizer engine.
// Only the events the engine consumes are surfaced; everything else is
// skipped by length, so unknown meta and sysex data cannot derail parsing.
package smf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"
)

// Errors returned by the parser.
var (
	ErrInvalidHeader     = errors.New("smf: invalid header chunk")
	ErrUnsupportedFormat = errors.New("smf: unsupported file format")
	ErrInvalidDivision   = errors.New("smf: SMPTE time division not supported")
	ErrInvalidChunk      = errors.New("smf: invalid track chunk")
	ErrInvalidEvent      = errors.New("smf: truncated or malformed event")
)

// EventType identifies the channel events surfaced to the engine.
type EventType uint8

const (
	EventNoteOff EventType = iota
	EventNoteOn
	EventController
	EventProgramChange
)

// Event is one channel event with its absolute time from the start of the
// file, already resolved against the tempo map.
type Event struct {
	Time    time.Duration
	Type    EventType
	Channel uint8
	Data1   uint8 // note, controller number, or program
	Data2   uint8 // velocity or controller value
}

// File is a parsed Standard MIDI File.
type File struct {
	Format   int
	Division int // ticks per quarter note

	events   []Event
	duration time.Duration
}

// Events returns all channel events of all tracks merged into one stream
// ordered by time. The slice is owned by the File; callers must not modify it.
func (f *File) Events() []Event { return f.events }

// Duration returns the total play time, tempo-map aware, up to the latest
// end-of-track.
func (f *File) Duration() time.Duration { return f.duration }

const (
	defaultTempo = 500000 // microseconds per quarter note
	maxFileSize  = 16 << 20
)

// Parse reads a complete Standard MIDI File through the caller-supplied
// read-at source.
func Parse(r io.ReaderAt, size int64) (*File, error) {
	if size <= 0 || size > maxFileSize {
		return nil, fmt.Errorf("%w: implausible file size %d", ErrInvalidHeader, size)
	}
	data := make([]byte, size)
	if _, err := r.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("smf: reading source: %w", err)
	}
	return parse(data)
}

type tickEvent struct {
	tick  uint64
	order int // arrival order, keeps the merge stable
	event Event
}

type tempoChange struct {
	tick    uint64
	usPerQN uint32
}

func parse(data []byte) (*File, error) {
	if len(data) < 14 || string(data[0:4]) != "MThd" || binary.BigEndian.Uint32(data[4:8]) != 6 {
		return nil, ErrInvalidHeader
	}
	format := int(binary.BigEndian.Uint16(data[8:10]))
	ntrks := int(binary.BigEndian.Uint16(data[10:12]))
	division := binary.BigEndian.Uint16(data[12:14])

	if format != 0 && format != 1 {
		return nil, fmt.Errorf("%w: format %d", ErrUnsupportedFormat, format)
	}
	if division&0x8000 != 0 {
		return nil, ErrInvalidDivision
	}
	if division == 0 {
		return nil, fmt.Errorf("%w: zero ticks per quarter", ErrInvalidHeader)
	}

	f := &File{Format: format, Division: int(division)}

	var (
		events  []tickEvent
		tempos  []tempoChange
		endTick uint64
		order   int
	)

	pos := 14
	for t := 0; t < ntrks; t++ {
		if pos+8 > len(data) || string(data[pos:pos+4]) != "MTrk" {
			return nil, ErrInvalidChunk
		}
		length := int(binary.BigEndian.Uint32(data[pos+4 : pos+8]))
		pos += 8
		if pos+length > len(data) {
			return nil, fmt.Errorf("%w: track %d overruns file", ErrInvalidChunk, t)
		}

		track := data[pos : pos+length]
		pos += length

		var tick uint64
		var status byte
		i := 0
		for i < len(track) {
			delta, n, err := readVarLen(track[i:])
			if err != nil {
				return nil, err
			}
			i += n
			tick += uint64(delta)

			if i >= len(track) {
				return nil, ErrInvalidEvent
			}
			b := track[i]
			if b >= 0x80 {
				status = b
				i++
			} else if status == 0 {
				return nil, fmt.Errorf("%w: running status with no prior status", ErrInvalidEvent)
			}

			switch {
			case status == 0xFF: // meta
				if i >= len(track) {
					return nil, ErrInvalidEvent
				}
				metaType := track[i]
				i++
				length, n, err := readVarLen(track[i:])
				if err != nil {
					return nil, err
				}
				i += n
				if i+int(length) > len(track) {
					return nil, ErrInvalidEvent
				}
				switch metaType {
				case 0x51: // set tempo
					if length != 3 {
						return nil, fmt.Errorf("%w: tempo length %d", ErrInvalidEvent, length)
					}
					us := uint32(track[i])<<16 | uint32(track[i+1])<<8 | uint32(track[i+2])
					tempos = append(tempos, tempoChange{tick: tick, usPerQN: us})
				case 0x2F: // end of track
					if tick > endTick {
						endTick = tick
					}
					i = len(track)
					continue
				}
				i += int(length)
				// Meta events cancel running status.
				status = 0

			case status == 0xF0 || status == 0xF7: // sysex
				length, n, err := readVarLen(track[i:])
				if err != nil {
					return nil, err
				}
				i += n
				if i+int(length) > len(track) {
					return nil, ErrInvalidEvent
				}
				i += int(length)
				status = 0

			default:
				kind := status & 0xF0
				channel := status & 0x0F
				dataLen := channelDataLen(kind)
				if dataLen == 0 {
					return nil, fmt.Errorf("%w: status %#x", ErrInvalidEvent, status)
				}
				if i+dataLen > len(track) {
					return nil, ErrInvalidEvent
				}
				d1 := track[i]
				var d2 byte
				if dataLen == 2 {
					d2 = track[i+1]
				}
				i += dataLen

				if ev, ok := surface(kind, channel, d1, d2); ok {
					events = append(events, tickEvent{tick: tick, order: order, event: ev})
					order++
				}
			}
		}
		if tick > endTick {
			endTick = tick
		}
	}

	resolveTimes(f, events, tempos, endTick)
	return f, nil
}

// surface converts a raw channel message into an engine-facing Event. Note
// on with velocity zero is note off by convention.
func surface(kind, channel, d1, d2 byte) (Event, bool) {
	switch kind {
	case 0x80:
		return Event{Type: EventNoteOff, Channel: channel, Data1: d1, Data2: d2}, true
	case 0x90:
		if d2 == 0 {
			return Event{Type: EventNoteOff, Channel: channel, Data1: d1}, true
		}
		return Event{Type: EventNoteOn, Channel: channel, Data1: d1, Data2: d2}, true
	case 0xB0:
		return Event{Type: EventController, Channel: channel, Data1: d1, Data2: d2}, true
	case 0xC0:
		return Event{Type: EventProgramChange, Channel: channel, Data1: d1}, true
	}
	return Event{}, false
}

func channelDataLen(kind byte) int {
	switch kind {
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		return 2
	case 0xC0, 0xD0:
		return 1
	}
	return 0
}

// resolveTimes converts ticks to wall-clock times against the tempo map and
// fills in the file's ordered event stream and duration.
func resolveTimes(f *File, events []tickEvent, tempos []tempoChange, endTick uint64) {
	sort.SliceStable(tempos, func(a, b int) bool { return tempos[a].tick < tempos[b].tick })

	// Cumulative microseconds at each tempo change.
	type segment struct {
		tick    uint64
		startUS uint64
		usPerQN uint64
	}
	segs := []segment{{tick: 0, startUS: 0, usPerQN: defaultTempo}}
	for _, tc := range tempos {
		last := segs[len(segs)-1]
		elapsed := (tc.tick - last.tick) * last.usPerQN / uint64(f.Division)
		if tc.tick == last.tick {
			segs[len(segs)-1].usPerQN = uint64(tc.usPerQN)
			continue
		}
		segs = append(segs, segment{
			tick:    tc.tick,
			startUS: last.startUS + elapsed,
			usPerQN: uint64(tc.usPerQN),
		})
	}

	timeAt := func(tick uint64) time.Duration {
		seg := segs[0]
		for _, s := range segs {
			if s.tick > tick {
				break
			}
			seg = s
		}
		us := seg.startUS + (tick-seg.tick)*seg.usPerQN/uint64(f.Division)
		return time.Duration(us) * time.Microsecond
	}

	sort.SliceStable(events, func(a, b int) bool {
		if events[a].tick != events[b].tick {
			return events[a].tick < events[b].tick
		}
		return events[a].order < events[b].order
	})

	f.events = make([]Event, len(events))
	for i, te := range events {
		f.events[i] = te.event
		f.events[i].Time = timeAt(te.tick)
	}
	f.duration = timeAt(endTick)
}

// readVarLen decodes a MIDI variable-length quantity (at most four bytes).
func readVarLen(b []byte) (value uint32, n int, err error) {
	for n < len(b) && n < 4 {
		c := b[n]
		value = value<<7 | uint32(c&0x7F)
		n++
		if c&0x80 == 0 {
			return value, n, nil
		}
	}
	return 0, n, ErrInvalidEvent
}
