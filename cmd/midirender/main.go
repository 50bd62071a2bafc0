// Command midirender synthesizes a Standard MIDI File to raw 16-bit PCM.
//
// Usage:
//
//	midirender [flags] input.mid
//
// The output is headerless little-endian PCM, interleaved when stereo.
//
// Examples:
//
//	midirender song.mid
//	midirender -rate 44100 -channels 1 -o song.pcm song.mid
//	midirender -voices 64 song.mid
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cwbudde/algo-synth/synth/core"
	"github.com/cwbudde/algo-synth/synth/engine"
)

func main() {
	var (
		rate     = flag.Int("rate", 22050, "output sample rate in Hz")
		channels = flag.Int("channels", 2, "output channels (1 or 2)")
		voices   = flag.Int("voices", 32, "maximum polyphony")
		output   = flag.String("o", "", "output file (default: input with .pcm extension)")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: midirender [flags] input.mid")
		flag.PrintDefaults()
		os.Exit(2)
	}
	input := flag.Arg(0)

	out := *output
	if out == "" {
		out = strings.TrimSuffix(input, ".mid") + ".pcm"
	}

	if err := render(input, out, *rate, *channels, *voices); err != nil {
		fmt.Fprintf(os.Stderr, "midirender: %v\n", err)
		os.Exit(1)
	}
}

func render(input, output string, rate, channels, voices int) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	eng, err := engine.New(
		core.WithSampleRate(rate),
		core.WithChannels(channels),
		core.WithMaxVoices(voices),
	)
	if err != nil {
		return err
	}
	defer eng.Shutdown()

	stream, err := eng.Open(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Prepare(); err != nil {
		return err
	}
	playTime, err := stream.ParseMetaData()
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg := eng.Config()
	block := make([]int16, cfg.MixBufferSize*cfg.Channels)
	raw := make([]byte, len(block)*2)
	var frames int64

	for stream.State() == engine.StatePlaying {
		n, err := stream.Render(block)
		if err != nil {
			return err
		}
		frames += int64(n)
		for i, s := range block[:n*cfg.Channels] {
			binary.LittleEndian.PutUint16(raw[2*i:], uint16(s))
		}
		if _, err := f.Write(raw[:n*cfg.Channels*2]); err != nil {
			return err
		}
	}

	rendered := time.Duration(frames) * time.Second / time.Duration(cfg.SampleRate)
	fmt.Printf("%s: play time %v, rendered %v (%d frames at %d Hz, %d ch) -> %s\n",
		input, playTime.Round(time.Millisecond), rendered.Round(time.Millisecond),
		frames, cfg.SampleRate, cfg.Channels, output)
	return nil
}
