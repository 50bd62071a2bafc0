package core

// Frame is a view over the samples of one channel inside a PCM buffer.
// Stride is the step between consecutive samples of the channel, so a
// mono buffer uses Stride 1 and one channel of an interleaved stereo
// buffer uses Stride 2. Count samples starting at Samples[0] are covered;
// the backing slice must hold at least (Count-1)*Stride+1 elements when
// Count > 0.
type Frame struct {
	Samples []int16
	Count   int
	Stride  int
}

// MonoFrame returns a Frame covering all of buf with stride 1.
func MonoFrame(buf []int16) Frame {
	return Frame{Samples: buf, Count: len(buf), Stride: 1}
}

// ChannelFrame returns a Frame covering one channel of an interleaved
// buffer holding the given number of channels.
func ChannelFrame(buf []int16, channel, channels int) Frame {
	if channels < 1 {
		channels = 1
	}
	if channel < 0 || channel >= channels {
		channel = 0
	}
	count := (len(buf) - channel + channels - 1) / channels
	if len(buf) == 0 {
		count = 0
	}
	return Frame{Samples: buf[channel:], Count: count, Stride: channels}
}
