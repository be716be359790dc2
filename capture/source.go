package capture

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/tasmanvs/MusicMaker/types"
)

// FrameSeconds is the playback time covered by one history frame.
const FrameSeconds = 1.0 / 60

const DefaultChunk = 512

// Source produces mono samples until it ends or ctx is cancelled.
type Source interface {
	Run(ctx context.Context, emit func([]float32)) error
}

// Sink consumes mono samples; Write blocks until the device accepts them.
// SampleRate is the rate the device plays at, or zero if it takes samples at
// whatever rate the source produces.
type Sink interface {
	Write(samples []float32) error
	SampleRate() int
}

// outputRate is the rate a source must produce for sink.
func outputRate(sink Sink, sourceRate int) int {
	if sink != nil {
		if r := sink.SampleRate(); r > 0 {
			return r
		}
	}
	return sourceRate
}

// PlaybackStart converts a selected frame index into a start time.
func PlaybackStart(selected int) float64 {
	if selected < 0 {
		return 0
	}
	return float64(selected) * FrameSeconds
}

// ToneSource synthesizes a sine wave of fixed length. With a rated sink the
// tone is synthesized at the sink's rate.
type ToneSource struct {
	Frequency  float64
	Gain       float64
	Duration   time.Duration
	SampleRate int
	Chunk      int
	Sink       Sink
}

// NewToneSource returns the default test tone: 440 Hz at half gain for two
// seconds.
func NewToneSource(sampleRate int) *ToneSource {
	return &ToneSource{
		Frequency:  440,
		Gain:       0.5,
		Duration:   2 * time.Second,
		SampleRate: sampleRate,
		Chunk:      DefaultChunk,
	}
}

func (t *ToneSource) Run(ctx context.Context, emit func([]float32)) error {
	if t.SampleRate <= 0 {
		return errors.New("capture: tone sample rate must be positive")
	}
	rate := outputRate(t.Sink, t.SampleRate)
	total := int(t.Duration.Seconds() * float64(rate))
	phaseStep := 2 * math.Pi * t.Frequency / float64(rate)
	return stream(ctx, rate, chunkSize(t.Chunk), total, t.Sink, emit, func(buf []float32, offset int) {
		for i := range buf {
			buf[i] = float32(t.Gain * math.Sin(phaseStep*float64(offset+i)))
		}
	})
}

// ClipSource plays a decoded clip from Start seconds to its end. Start is in
// clip time; the remainder is resampled when the sink plays at another rate.
type ClipSource struct {
	Clip  *types.AudioClip
	Start float64
	Chunk int
	Sink  Sink
}

func (c *ClipSource) Run(ctx context.Context, emit func([]float32)) error {
	if c.Clip == nil || c.Clip.SampleRate <= 0 {
		return errors.New("capture: no clip to play")
	}
	mono := c.Clip.Mono()
	from := min(int(math.Max(0, c.Start)*float64(c.Clip.SampleRate)), len(mono))
	rate := outputRate(c.Sink, c.Clip.SampleRate)
	rest := Resample(mono[from:], c.Clip.SampleRate, rate)
	return stream(ctx, rate, chunkSize(c.Chunk), len(rest), c.Sink, emit, func(buf []float32, offset int) {
		copy(buf, rest[offset:])
	})
}

func chunkSize(n int) int {
	if n <= 0 {
		return DefaultChunk
	}
	return n
}

// stream fills chunks of up to size samples and hands each to emit. With a
// sink the device paces the loop, otherwise a ticker does.
func stream(ctx context.Context, sampleRate, size, total int, sink Sink, emit func([]float32), fill func(buf []float32, offset int)) error {
	var tick <-chan time.Time
	if sink == nil {
		period := time.Duration(float64(size) / float64(sampleRate) * float64(time.Second))
		ticker := time.NewTicker(max(period, time.Millisecond))
		defer ticker.Stop()
		tick = ticker.C
	}

	for offset := 0; offset < total; offset += size {
		buf := make([]float32, min(size, total-offset))
		fill(buf, offset)
		if sink != nil {
			if err := sink.Write(buf); err != nil {
				return err
			}
		}
		emit(buf)

		if sink != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		}
	}
	return nil
}
