// Package testmidi builds small Standard MIDI Files in memory for tests
// and examples. It writes format-0 files with one track.
package testmidi

import "encoding/binary"

// Builder accumulates track events and serializes a format-0 SMF.
type Builder struct {
	division uint16
	track    []byte
}

// NewBuilder creates a builder with the given ticks-per-quarter division.
func NewBuilder(division uint16) *Builder {
	return &Builder{division: division}
}

// Tempo appends a set-tempo meta event after delta ticks.
func (b *Builder) Tempo(delta uint32, usPerQuarter uint32) *Builder {
	b.delta(delta)
	b.track = append(b.track, 0xFF, 0x51, 0x03,
		byte(usPerQuarter>>16), byte(usPerQuarter>>8), byte(usPerQuarter))
	return b
}

// ProgramChange appends a program change after delta ticks.
func (b *Builder) ProgramChange(delta uint32, channel, program byte) *Builder {
	b.delta(delta)
	b.track = append(b.track, 0xC0|channel&0x0F, program&0x7F)
	return b
}

// Controller appends a control change after delta ticks.
func (b *Builder) Controller(delta uint32, channel, controller, value byte) *Builder {
	b.delta(delta)
	b.track = append(b.track, 0xB0|channel&0x0F, controller&0x7F, value&0x7F)
	return b
}

// NoteOn appends a note-on after delta ticks.
func (b *Builder) NoteOn(delta uint32, channel, note, velocity byte) *Builder {
	b.delta(delta)
	b.track = append(b.track, 0x90|channel&0x0F, note&0x7F, velocity&0x7F)
	return b
}

// NoteOff appends a note-off after delta ticks.
func (b *Builder) NoteOff(delta uint32, channel, note byte) *Builder {
	b.delta(delta)
	b.track = append(b.track, 0x80|channel&0x0F, note&0x7F, 0x40)
	return b
}

// Raw appends arbitrary event bytes after delta ticks.
func (b *Builder) Raw(delta uint32, event ...byte) *Builder {
	b.delta(delta)
	b.track = append(b.track, event...)
	return b
}

// Bytes terminates the track after delta ticks and returns the full file.
func (b *Builder) Bytes(endDelta uint32) []byte {
	track := append([]byte{}, b.track...)
	track = appendVarLen(track, endDelta)
	track = append(track, 0xFF, 0x2F, 0x00)

	out := make([]byte, 0, 14+8+len(track))
	out = append(out, 'M', 'T', 'h', 'd', 0, 0, 0, 6)
	out = binary.BigEndian.AppendUint16(out, 0) // format 0
	out = binary.BigEndian.AppendUint16(out, 1) // one track
	out = binary.BigEndian.AppendUint16(out, b.division)
	out = append(out, 'M', 'T', 'r', 'k')
	out = binary.BigEndian.AppendUint32(out, uint32(len(track)))
	out = append(out, track...)
	return out
}

func (b *Builder) delta(v uint32) {
	b.track = appendVarLen(b.track, v)
}

func appendVarLen(dst []byte, v uint32) []byte {
	buf := [4]byte{}
	n := 0
	buf[n] = byte(v & 0x7F)
	n++
	for v >>= 7; v != 0; v >>= 7 {
		buf[n] = byte(v&0x7F) | 0x80
		n++
	}
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, buf[i])
	}
	return dst
}
