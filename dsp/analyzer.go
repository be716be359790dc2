// Package dsp turns a stream of mono samples into byte scaled frequency
// frames, one per pull.
package dsp

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/tasmanvs/MusicMaker/frames"
)

const (
	DefaultFFTSize   = 512
	DefaultSmoothing = 0.8
	DefaultMinDB     = -100.0
	DefaultMaxDB     = -30.0
)

// Options configures an Analyzer. A zero FFTSize or dB range takes the
// defaults above; Smoothing is used as given.
type Options struct {
	FFTSize   int
	Smoothing float64
	MinDB     float64
	MaxDB     float64
}

func (o Options) withDefaults() Options {
	if o.FFTSize == 0 {
		o.FFTSize = DefaultFFTSize
	}
	if o.MinDB == 0 && o.MaxDB == 0 {
		o.MinDB, o.MaxDB = DefaultMinDB, DefaultMaxDB
	}
	return o
}

// Validate reports every invalid option, joined into one error.
func (o Options) Validate() error {
	var errs []error
	if o.FFTSize < 32 || o.FFTSize&(o.FFTSize-1) != 0 {
		errs = append(errs, fmt.Errorf("fft size %d must be a power of two >= 32", o.FFTSize))
	}
	if o.Smoothing < 0 || o.Smoothing >= 1 {
		errs = append(errs, fmt.Errorf("smoothing %v must be in [0, 1)", o.Smoothing))
	}
	if o.MinDB >= o.MaxDB {
		errs = append(errs, fmt.Errorf("min dB %v must be below max dB %v", o.MinDB, o.MaxDB))
	}
	return errors.Join(errs...)
}

// Analyzer keeps the most recent FFTSize samples and produces smoothed
// magnitude spectra scaled into bytes.
type Analyzer struct {
	mu       sync.Mutex
	opts     Options
	window   []float64
	ring     []float64
	pos      int
	smoothed []float64
}

// NewAnalyzer returns an analyzer for opts.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("dsp: %w", err)
	}
	return &Analyzer{
		opts:     opts,
		window:   window.Blackman(opts.FFTSize),
		ring:     make([]float64, opts.FFTSize),
		smoothed: make([]float64, opts.FFTSize/2),
	}, nil
}

// BinCount is the number of bins in each frame.
func (a *Analyzer) BinCount() int { return a.opts.FFTSize / 2 }

// Write feeds samples into the analysis window.
func (a *Analyzer) Write(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.ring)
	if len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	for _, s := range samples {
		a.ring[a.pos] = float64(s)
		a.pos = (a.pos + 1) % n
	}
}

// Frame analyses the current window and returns a fresh frame. Each call
// advances the smoothing state.
func (a *Analyzer) Frame() frames.Frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.ring)
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = a.ring[(a.pos+i)%n] * a.window[i]
	}
	spectrum := fft.FFTReal(buf)

	tau := a.opts.Smoothing
	scale := 255 / (a.opts.MaxDB - a.opts.MinDB)
	out := make(frames.Frame, len(a.smoothed))
	for k := range a.smoothed {
		mag := cmplx.Abs(spectrum[k]) / float64(n)
		a.smoothed[k] = tau*a.smoothed[k] + (1-tau)*mag
		out[k] = toByte((decibels(a.smoothed[k]) - a.opts.MinDB) * scale)
	}
	return out
}

// Reset clears the window and smoothing state.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.ring)
	clear(a.smoothed)
	a.pos = 0
}

func decibels(mag float64) float64 {
	if mag <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(mag)
}

func toByte(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
