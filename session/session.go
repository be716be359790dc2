// Package session owns the interactive spectrogram: frame history, view
// state, capture controller, analyzer and raster. Every mutation of view
// state goes through the session lock, so input handlers, the render loop
// and capture goroutines can call it concurrently.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/tasmanvs/MusicMaker/capture"
	"github.com/tasmanvs/MusicMaker/db"
	"github.com/tasmanvs/MusicMaker/dsp"
	"github.com/tasmanvs/MusicMaker/frames"
	"github.com/tasmanvs/MusicMaker/observe"
	"github.com/tasmanvs/MusicMaker/render"
	"github.com/tasmanvs/MusicMaker/types"
	"github.com/tasmanvs/MusicMaker/view"
	"github.com/tasmanvs/MusicMaker/wav"
)

var (
	ErrBusy        = errors.New("session: a recording is in progress")
	ErrNoClip      = errors.New("session: no recording or loaded sound")
	ErrNotCapture  = errors.New("session: not recording")
	ErrStaleDecode = errors.New("session: decode superseded by a newer load")
)

// Recorder is a capture source that keeps what it captured.
type Recorder interface {
	capture.Source
	Clip() *types.AudioClip
}

// Options configures a Session.
type Options struct {
	Strategy      render.Kind
	Width, Height int
	// DefaultFrames is the preferred viewport width in frames.
	DefaultFrames float64
	Analyzer      dsp.Options

	ToneFrequency float64
	// ToneGain is used as given; zero plays silence.
	ToneGain      float64
	ToneDuration  time.Duration
	SampleRate    int

	// Speaker paces tone and clip playback when set.
	Speaker capture.Sink
	// NewRecorder builds the microphone source for each recording.
	NewRecorder func() Recorder

	Store   db.Store
	Metrics *observe.Metrics
	Logger  *slog.Logger
}

// source is the running audio source of one capture session.
type source struct {
	tok    capture.Token
	mode   capture.Mode
	cancel context.CancelFunc
	done   chan struct{}
	rec    Recorder
}

// Session is the single owner of the spectrogram state.
type Session struct {
	opts     Options
	log      *slog.Logger
	metrics  *observe.Metrics
	store    db.Store
	analyzer *dsp.Analyzer
	strategy render.Strategy

	mu      sync.Mutex
	history *frames.History
	state   view.State
	ctrl    *capture.Controller
	canvas  *image.RGBA
	latest  frames.Frame
	active  *source

	clip    *types.AudioClip
	trim    types.TrimRange
	loadGen uint64
	decode  func(context.Context, []byte) (*types.AudioClip, error)

	subsMu sync.Mutex
	subs   map[chan frames.Frame]struct{}

	wg sync.WaitGroup
}

// New builds an idle session.
func New(opts Options) (*Session, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("session: invalid raster %dx%d", opts.Width, opts.Height)
	}
	if opts.DefaultFrames == 0 {
		opts.DefaultFrames = 200
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = capture.DefaultSampleRate
	}
	strategy, err := render.New(opts.Strategy)
	if err != nil {
		return nil, err
	}
	analyzer, err := dsp.NewAnalyzer(opts.Analyzer)
	if err != nil {
		return nil, err
	}

	s := &Session{
		opts:     opts,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		store:    opts.Store,
		analyzer: analyzer,
		strategy: strategy,
		history:  frames.NewHistory(1024),
		state:    view.NewState(opts.DefaultFrames),
		canvas:   image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
		subs:     make(map[chan frames.Frame]struct{}),
		decode:   wav.Decode,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.store == nil {
		s.store = db.NewMemoryStore()
	}
	if s.opts.NewRecorder == nil {
		s.opts.NewRecorder = func() Recorder {
			return capture.NewMic(s.opts.SampleRate, capture.DefaultBufferFrames)
		}
	}
	// The hook runs from Begin/Reset, which are only called with s.mu held.
	s.ctrl = capture.NewController(func() {
		s.history.Reset()
		s.state.Reset()
	})
	return s, nil
}

// Run drives Tick from vs until ctx is done.
func (s *Session) Run(ctx context.Context, vs render.Vsync) error {
	err := render.Loop(ctx, vs, func() { s.Tick() })
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops the active source and waits for all source goroutines.
func (s *Session) Close() error {
	s.mu.Lock()
	s.stopSourceLocked()
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

// Tick pulls one analyzer frame, retains it while capturing, fits the view
// and repaints. It returns the pulled frame.
func (s *Session) Tick() frames.Frame {
	start := time.Now()
	f := s.analyzer.Frame()

	s.mu.Lock()
	s.latest = f
	if s.ctrl.Capturing() {
		s.history.Append(f)
		s.metrics.FramesAppended.Add(context.Background(), 1)
		s.state.Follow(s.history.Len())
	}
	s.strategy.Draw(s.canvas, render.Scene{
		History:  s.history,
		View:     s.state.View,
		Selected: s.state.Selected,
		Latest:   f,
	})
	s.mu.Unlock()

	s.metrics.RecordRender(context.Background(), string(s.strategy.Kind()), time.Since(start).Seconds())
	s.publish(f)
	return f
}

// ViewState is a snapshot of the session for clients.
type ViewState struct {
	View      view.Viewport   `json:"view"`
	Preferred float64         `json:"preferred"`
	Selected  int             `json:"selected"`
	Frames    int             `json:"frames"`
	Capturing bool            `json:"capturing"`
	Mode      string          `json:"mode"`
	Strategy  render.Kind     `json:"strategy"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Bins      int             `json:"bins"`
	HasClip   bool            `json:"has_clip"`
	Duration  float64         `json:"duration"`
	Trim      types.TrimRange `json:"trim"`
}

func (s *Session) ViewState() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ViewState{
		View:      s.state.View,
		Preferred: s.state.Preferred,
		Selected:  s.state.Selected,
		Frames:    s.history.Len(),
		Capturing: s.ctrl.Capturing(),
		Mode:      s.ctrl.Mode().String(),
		Strategy:  s.strategy.Kind(),
		Width:     s.opts.Width,
		Height:    s.opts.Height,
		Bins:      s.analyzer.BinCount(),
		HasClip:   s.clip != nil,
		Duration:  s.clip.Duration(),
		Trim:      s.trim,
	}
}
