package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/tasmanvs/MusicMaker/types"
)

const (
	DefaultSampleRate   = 44100
	DefaultBufferFrames = 1024
)

// Mic records mono audio from the default input device. The samples read
// during Run are kept and returned by Clip.
type Mic struct {
	SampleRate   int
	BufferFrames int

	mu      sync.Mutex
	samples []float32
}

func NewMic(sampleRate, bufferFrames int) *Mic {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if bufferFrames <= 0 {
		bufferFrames = DefaultBufferFrames
	}
	return &Mic{SampleRate: sampleRate, BufferFrames: bufferFrames}
}

// Run captures until ctx is cancelled. Cancellation is the normal way to stop
// a recording and is not reported as an error.
func (m *Mic) Run(ctx context.Context, emit func([]float32)) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("capture: failed to initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	buf := make([]float32, m.BufferFrames)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.SampleRate), len(buf), buf)
	if err != nil {
		return fmt.Errorf("capture: failed to open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("capture: failed to start input stream: %w", err)
	}
	defer stream.Stop()

	m.mu.Lock()
	m.samples = m.samples[:0]
	m.mu.Unlock()

	for ctx.Err() == nil {
		if err := stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			return fmt.Errorf("capture: read input: %w", err)
		}
		chunk := make([]float32, len(buf))
		copy(chunk, buf)

		m.mu.Lock()
		m.samples = append(m.samples, chunk...)
		m.mu.Unlock()
		emit(chunk)
	}
	return nil
}

// Clip returns a copy of the last recording.
func (m *Mic) Clip() *types.AudioClip {
	m.mu.Lock()
	defer m.mu.Unlock()
	data := make([]float32, len(m.samples))
	copy(data, m.samples)
	return &types.AudioClip{SampleRate: m.SampleRate, Channels: 1, Data: [][]float32{data}}
}

// Speaker writes mono audio to the default output device. Write blocks until
// the device has consumed the buffer, which paces playback.
type Speaker struct {
	stream     *portaudio.Stream
	buf        []float32
	sampleRate int
}

func NewSpeaker(sampleRate, bufferFrames int) (*Speaker, error) {
	if bufferFrames <= 0 {
		bufferFrames = DefaultBufferFrames
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("capture: failed to initialize portaudio: %w", err)
	}
	s := &Speaker{buf: make([]float32, bufferFrames), sampleRate: sampleRate}
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), len(s.buf), s.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("capture: failed to open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("capture: failed to start output stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

func (s *Speaker) Write(samples []float32) error {
	for len(samples) > 0 {
		n := copy(s.buf, samples)
		clear(s.buf[n:])
		samples = samples[n:]
		if err := s.stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			return fmt.Errorf("capture: write output: %w", err)
		}
	}
	return nil
}

// SampleRate is the rate the output stream was opened at.
func (s *Speaker) SampleRate() int { return s.sampleRate }

func (s *Speaker) Close() error {
	if s.stream == nil {
		return nil
	}
	s.stream.Stop()
	err := s.stream.Close()
	portaudio.Terminate()
	s.stream = nil
	return err
}
