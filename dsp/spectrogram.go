package dsp

import (
	"errors"
	"fmt"

	"github.com/tasmanvs/MusicMaker/frames"
)

// Spectrogram runs samples through a fresh analyzer at fps pulls per second
// of audio and returns one frame per pull, as a live capture of the same
// samples would have produced.
func Spectrogram(samples []float32, sampleRate int, fps float64, opts Options) ([]frames.Frame, error) {
	if sampleRate <= 0 || fps <= 0 {
		return nil, errors.New("dsp: sample rate and fps must be positive")
	}
	a, err := NewAnalyzer(opts)
	if err != nil {
		return nil, err
	}
	hop := int(float64(sampleRate) / fps)
	if hop < 1 {
		return nil, fmt.Errorf("dsp: fps %v exceeds sample rate %d", fps, sampleRate)
	}

	out := make([]frames.Frame, 0, len(samples)/hop+1)
	for start := 0; start < len(samples); start += hop {
		end := min(start+hop, len(samples))
		a.Write(samples[start:end])
		out = append(out, a.Frame())
	}
	return out, nil
}
