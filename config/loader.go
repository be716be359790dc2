package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tasmanvs/MusicMaker/utils"
	"github.com/tasmanvs/MusicMaker/view"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over [Default] and validates the result.
// Keys missing from r keep their default values; unknown keys are an error.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := utils.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w; valid values: debug, info, warn, error", err))
	}
	if err := cfg.Analyzer.Options().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("analyzer: %w", err))
	}

	if cfg.View.Strategy != "" && !cfg.View.Strategy.IsValid() {
		errs = append(errs, fmt.Errorf("view.strategy %q is invalid; valid values: windowed, scrolling", cfg.View.Strategy))
	}
	if cfg.View.Width <= 0 || cfg.View.Height <= 0 {
		errs = append(errs, fmt.Errorf("view.width and view.height must be positive, got %dx%d", cfg.View.Width, cfg.View.Height))
	}
	if cfg.View.DefaultFrames < view.MinWidth {
		errs = append(errs, fmt.Errorf("view.default_frames %v must be at least %v", cfg.View.DefaultFrames, view.MinWidth))
	}
	if cfg.View.RefreshHz < 1 {
		errs = append(errs, fmt.Errorf("view.refresh_hz %v must be at least 1", cfg.View.RefreshHz))
	}

	if cfg.Tone.Frequency <= 0 {
		errs = append(errs, fmt.Errorf("tone.frequency %v must be positive", cfg.Tone.Frequency))
	}
	if cfg.Tone.Gain < 0 || cfg.Tone.Gain > 1 {
		errs = append(errs, fmt.Errorf("tone.gain %v must be in [0, 1]", cfg.Tone.Gain))
	}
	if cfg.Tone.Duration <= 0 {
		errs = append(errs, fmt.Errorf("tone.duration %v must be positive", cfg.Tone.Duration))
	}

	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.BufferFrames <= 0 {
		errs = append(errs, fmt.Errorf("audio.buffer_frames %d must be positive", cfg.Audio.BufferFrames))
	}

	return errors.Join(errs...)
}
