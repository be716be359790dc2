// Package config loads the YAML configuration shared by every command.
package config

import (
	"time"

	"github.com/tasmanvs/MusicMaker/dsp"
	"github.com/tasmanvs/MusicMaker/render"
)

// Config is the root configuration.
type Config struct {
	LogLevel   string         `yaml:"log_level"`
	ListenAddr string         `yaml:"listen_addr"`
	DBPath     string         `yaml:"db_path"`
	Metrics    bool           `yaml:"metrics"`
	Analyzer   AnalyzerConfig `yaml:"analyzer"`
	View       ViewConfig     `yaml:"view"`
	Tone       ToneConfig     `yaml:"tone"`
	Audio      AudioConfig    `yaml:"audio"`
}

type AnalyzerConfig struct {
	FFTSize   int     `yaml:"fft_size"`
	Smoothing float64 `yaml:"smoothing"`
	MinDB     float64 `yaml:"min_db"`
	MaxDB     float64 `yaml:"max_db"`
}

// Options converts the section into analyzer options.
func (a AnalyzerConfig) Options() dsp.Options {
	return dsp.Options{FFTSize: a.FFTSize, Smoothing: a.Smoothing, MinDB: a.MinDB, MaxDB: a.MaxDB}
}

type ViewConfig struct {
	Strategy      render.Kind `yaml:"strategy"`
	Width         int         `yaml:"width"`
	Height        int         `yaml:"height"`
	DefaultFrames float64     `yaml:"default_frames"`
	RefreshHz     float64     `yaml:"refresh_hz"`
}

type ToneConfig struct {
	Frequency float64 `yaml:"frequency"`
	Gain      float64 `yaml:"gain"`
	// Duration in seconds.
	Duration float64 `yaml:"duration"`
}

// Length returns the tone duration.
func (t ToneConfig) Length() time.Duration {
	return time.Duration(t.Duration * float64(time.Second))
}

type AudioConfig struct {
	SampleRate   int  `yaml:"sample_rate"`
	BufferFrames int  `yaml:"buffer_frames"`
	Speaker      bool `yaml:"speaker"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		ListenAddr: "127.0.0.1:8080",
		Analyzer: AnalyzerConfig{
			FFTSize:   dsp.DefaultFFTSize,
			Smoothing: dsp.DefaultSmoothing,
			MinDB:     dsp.DefaultMinDB,
			MaxDB:     dsp.DefaultMaxDB,
		},
		View: ViewConfig{
			Strategy:      render.KindWindowed,
			Width:         800,
			Height:        256,
			DefaultFrames: 200,
			RefreshHz:     60,
		},
		Tone: ToneConfig{
			Frequency: 440,
			Gain:      0.5,
			Duration:  2,
		},
		Audio: AudioConfig{
			SampleRate:   44100,
			BufferFrames: 1024,
		},
	}
}
