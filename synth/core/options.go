package core

// EngineConfig defines common synthesizer engine settings.
type EngineConfig struct {
	SampleRate    int
	Channels      int
	MixBufferSize int
	MaxVoices     int
}

// EngineOption mutates an EngineConfig.
type EngineOption func(*EngineConfig)

// DefaultEngineConfig returns the default rendering configuration:
// 22050 Hz stereo with a 128-frame mix buffer and 32 voices.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SampleRate:    22050,
		Channels:      2,
		MixBufferSize: 128,
		MaxVoices:     32,
	}
}

// WithSampleRate sets the output sample rate in Hz.
func WithSampleRate(sampleRate int) EngineOption {
	return func(cfg *EngineConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithChannels sets the number of interleaved output channels (1 or 2).
func WithChannels(channels int) EngineOption {
	return func(cfg *EngineConfig) {
		if channels == 1 || channels == 2 {
			cfg.Channels = channels
		}
	}
}

// WithMixBufferSize sets the render block length in sample frames.
func WithMixBufferSize(frames int) EngineOption {
	return func(cfg *EngineConfig) {
		if frames > 0 {
			cfg.MixBufferSize = frames
		}
	}
}

// WithMaxVoices limits simultaneous polyphony.
func WithMaxVoices(voices int) EngineOption {
	return func(cfg *EngineConfig) {
		if voices > 0 {
			cfg.MaxVoices = voices
		}
	}
}

// ApplyEngineOptions applies zero or more options to the default config.
func ApplyEngineOptions(opts ...EngineOption) EngineConfig {
	cfg := DefaultEngineConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
