package session

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/tasmanvs/MusicMaker/db"
	"github.com/tasmanvs/MusicMaker/observe"
	"github.com/tasmanvs/MusicMaker/render"
	"github.com/tasmanvs/MusicMaker/types"
	"github.com/tasmanvs/MusicMaker/utils"
	"github.com/tasmanvs/MusicMaker/wav"
)

// fakeRecorder emits one chunk and then blocks until stopped.
type fakeRecorder struct {
	clip    *types.AudioClip
	started chan struct{}
	once    sync.Once
}

func newFakeRecorder(clip *types.AudioClip) *fakeRecorder {
	return &fakeRecorder{clip: clip, started: make(chan struct{})}
}

func (r *fakeRecorder) Run(ctx context.Context, emit func([]float32)) error {
	emit(make([]float32, 128))
	r.once.Do(func() { close(r.started) })
	<-ctx.Done()
	return ctx.Err()
}

func (r *fakeRecorder) Clip() *types.AudioClip { return r.clip }

// slowStopRecorder keeps running after it is stopped until release is closed.
type slowStopRecorder struct {
	*fakeRecorder
	release chan struct{}
}

func (r *slowStopRecorder) Run(ctx context.Context, emit func([]float32)) error {
	err := r.fakeRecorder.Run(ctx, emit)
	<-r.release
	return err
}

// speakerSink collects what would have been played at rate.
type speakerSink struct {
	mu      sync.Mutex
	rate    int
	samples []float32
}

func (s *speakerSink) Write(samples []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, samples...)
	return nil
}

func (s *speakerSink) SampleRate() int { return s.rate }

func (s *speakerSink) played() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float32(nil), s.samples...)
}

func testClip(seconds float64) *types.AudioClip {
	const sr = 8000
	n := int(seconds * sr)
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i%100) / 100
	}
	return &types.AudioClip{SampleRate: sr, Channels: 1, Data: [][]float32{data}}
}

func newTestSession(t *testing.T, mutate func(*Options)) (*Session, *fakeRecorder) {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	require.NoError(t, err)

	rec := newFakeRecorder(testClip(1))
	opts := Options{
		Width:         100,
		Height:        64,
		DefaultFrames: 200,
		ToneGain:      0.5,
		ToneDuration:  20 * time.Millisecond,
		SampleRate:    8000,
		NewRecorder:   func() Recorder { return rec },
		Store:         db.NewMemoryStore(),
		Metrics:       metrics,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, rec
}

func startRecording(t *testing.T, s *Session, rec *fakeRecorder) {
	t.Helper()
	require.NoError(t, s.StartRecording())
	select {
	case <-rec.started:
	case <-time.After(time.Second):
		t.Fatal("recorder did not start")
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{Width: 0, Height: 10})
	assert.Error(t, err)
	_, err = New(Options{Width: 10, Height: 10, Strategy: "spiral"})
	assert.Error(t, err)
}

func TestIdleTickDoesNotRetain(t *testing.T) {
	s, _ := newTestSession(t, nil)
	for i := 0; i < 5; i++ {
		f := s.Tick()
		assert.Len(t, f, 256)
	}
	vs := s.ViewState()
	assert.Equal(t, 0, vs.Frames)
	assert.False(t, vs.Capturing)
	assert.Equal(t, "idle", vs.Mode)
	assert.Equal(t, 256, vs.Bins)
}

func TestRecordingRetainsAndFollows(t *testing.T) {
	s, rec := newTestSession(t, nil)
	startRecording(t, s, rec)

	for i := 0; i < 30; i++ {
		s.Tick()
	}
	vs := s.ViewState()
	assert.True(t, vs.Capturing)
	assert.Equal(t, "recording", vs.Mode)
	assert.Equal(t, 30, vs.Frames)
	assert.Equal(t, 30.0, vs.View.Width, "width follows a short history")
	assert.Equal(t, 200.0, vs.Preferred)

	require.NoError(t, s.StopRecording())
	s.Tick()
	vs = s.ViewState()
	assert.False(t, vs.Capturing)
	assert.Equal(t, 30, vs.Frames, "idle ticks are discarded")
	assert.True(t, vs.HasClip)
	assert.Equal(t, 1.0, vs.Duration)
	assert.Equal(t, types.TrimRange{Start: 0, End: 1}, vs.Trim)
}

func TestFreshRecordingResetsView(t *testing.T) {
	s, rec := newTestSession(t, nil)
	startRecording(t, s, rec)
	for i := 0; i < 50; i++ {
		s.Tick()
	}
	assert.True(t, s.Click(80, true))
	require.NoError(t, s.StopRecording())
	require.NotZero(t, s.ViewState().Selected)

	rec2 := newFakeRecorder(testClip(0.5))
	s.mu.Lock()
	s.opts.NewRecorder = func() Recorder { return rec2 }
	s.mu.Unlock()
	startRecording(t, s, rec2)

	vs := s.ViewState()
	assert.Equal(t, 0, vs.Frames)
	assert.Equal(t, 0.0, vs.View.Offset)
	assert.Equal(t, 0, vs.Selected)
}

func TestRecordingGuards(t *testing.T) {
	s, rec := newTestSession(t, nil)
	assert.ErrorIs(t, s.StopRecording(), ErrNotCapture)
	assert.ErrorIs(t, s.TogglePlay(), ErrNoClip)

	startRecording(t, s, rec)
	assert.ErrorIs(t, s.StartRecording(), ErrBusy)
	assert.ErrorIs(t, s.PlayTone(), ErrBusy)
	assert.ErrorIs(t, s.LoadData(context.Background(), wav.Encode(testClip(0.1), 0, 0.1)), ErrBusy)
}

func TestToneEndsOnItsOwn(t *testing.T) {
	s, _ := newTestSession(t, nil)
	require.NoError(t, s.PlayTone())
	assert.True(t, s.ViewState().Capturing)
	assert.Equal(t, "tone", s.ViewState().Mode)

	assert.Eventually(t, func() bool { return !s.ViewState().Capturing }, time.Second, 5*time.Millisecond)
}

func TestStaleToneEndKeepsRecording(t *testing.T) {
	s, rec := newTestSession(t, func(o *Options) { o.ToneDuration = time.Hour })
	require.NoError(t, s.PlayTone())
	startRecording(t, s, rec)

	// The replaced tone finishes in the background; the recording keeps going.
	time.Sleep(20 * time.Millisecond)
	vs := s.ViewState()
	assert.True(t, vs.Capturing)
	assert.Equal(t, "recording", vs.Mode)
}

func TestPanZoomSelectThroughSession(t *testing.T) {
	s, rec := newTestSession(t, nil)
	startRecording(t, s, rec)
	for i := 0; i < 300; i++ {
		s.Tick()
	}
	require.NoError(t, s.StopRecording())
	assert.Equal(t, 200.0, s.ViewState().View.Width)

	assert.True(t, s.Wheel(-1))
	assert.InDelta(t, 180.0, s.ViewState().View.Width, 1e-9)

	s.PointerDown(50)
	s.PointerMove(0)
	s.PointerUp()
	assert.InDelta(t, 90.0, s.ViewState().View.Offset, 1e-9)

	// Moves without a pressed pointer do not pan.
	s.PointerMove(100)
	assert.InDelta(t, 90.0, s.ViewState().View.Offset, 1e-9)

	assert.False(t, s.Click(50, false))
	assert.True(t, s.Click(50, true))
	assert.Equal(t, 180, s.ViewState().Selected)

	for i := 0; i < 100; i++ {
		s.Wheel(1)
	}
	vs := s.ViewState()
	assert.LessOrEqual(t, vs.View.Width, 300.0)
	assert.GreaterOrEqual(t, vs.View.Width, 10.0)
	assert.LessOrEqual(t, vs.View.Offset+vs.View.Width, 300.0)
}

func TestTogglePlayAndKey(t *testing.T) {
	s, rec := newTestSession(t, nil)
	rec.clip = testClip(60)
	startRecording(t, s, rec)
	require.NoError(t, s.StopRecording())

	require.NoError(t, s.Key("KeyA"))
	assert.False(t, s.ViewState().Capturing)

	require.NoError(t, s.Key(KeySpace))
	assert.Equal(t, "playback", s.ViewState().Mode)
	require.NoError(t, s.Key(KeySpace))
	assert.False(t, s.ViewState().Capturing)
}

func TestExportAndSaveLoad(t *testing.T) {
	s, rec := newTestSession(t, nil)
	_, err := s.Export(types.TrimRange{End: 1})
	assert.ErrorIs(t, err, ErrNoClip)

	startRecording(t, s, rec)
	require.NoError(t, s.StopRecording())

	trim := s.Trim("0.25", "0.5")
	assert.Equal(t, types.TrimRange{Start: 0.25, End: 0.5}, trim)
	out, err := s.Export(trim)
	require.NoError(t, err)
	assert.Len(t, out, wav.HeaderSize+2000*2)

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "quarter", trim))
	saved, err := s.Saved(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "quarter", saved[0].Name)

	_, data, err := utils.DecodeDataURL(saved[0].Data)
	require.NoError(t, err)
	assert.Equal(t, out, data)

	require.NoError(t, s.Load(ctx, 0))
	vs := s.ViewState()
	assert.Equal(t, 0.25, vs.Duration)
	assert.Equal(t, types.TrimRange{Start: 0, End: 0.25}, vs.Trim)
	assert.Equal(t, 0, vs.Frames)

	assert.ErrorIs(t, s.Load(ctx, 3), db.ErrNotFound)
}

func TestLoadRejectsGarbage(t *testing.T) {
	s, _ := newTestSession(t, nil)
	ctx := context.Background()
	assert.ErrorIs(t, s.LoadData(ctx, nil), wav.ErrEmpty)

	require.NoError(t, s.store.SaveSound(ctx, "broken", "not a data url"))
	assert.Error(t, s.Load(ctx, 0))
	assert.False(t, s.ViewState().HasClip)
}

func TestStaleLoadDoesNotCommit(t *testing.T) {
	s, _ := newTestSession(t, nil)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	var first sync.Once
	s.mu.Lock()
	s.decode = func(ctx context.Context, data []byte) (*types.AudioClip, error) {
		block := false
		first.Do(func() { block = true })
		if block {
			close(entered)
			<-release
		}
		return wav.Decode(ctx, data)
	}
	s.mu.Unlock()

	errc := make(chan error, 1)
	go func() { errc <- s.LoadData(ctx, wav.Encode(testClip(0.25), 0, 0.25)) }()
	<-entered

	require.NoError(t, s.LoadData(ctx, wav.Encode(testClip(0.5), 0, 0.5)))
	close(release)

	assert.ErrorIs(t, <-errc, ErrStaleDecode)
	assert.Equal(t, 0.5, s.ViewState().Duration, "the newer load wins")
}

func TestLoadDuringStopSupersedesRecording(t *testing.T) {
	rec := &slowStopRecorder{fakeRecorder: newFakeRecorder(testClip(1)), release: make(chan struct{})}
	s, _ := newTestSession(t, func(o *Options) {
		o.NewRecorder = func() Recorder { return rec }
	})
	var once sync.Once
	releaseRec := func() { once.Do(func() { close(rec.release) }) }
	t.Cleanup(releaseRec)
	ctx := context.Background()

	startRecording(t, s, rec.fakeRecorder)
	errc := make(chan error, 1)
	go func() { errc <- s.StopRecording() }()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.active == nil
	}, time.Second, time.Millisecond)

	require.NoError(t, s.LoadData(ctx, wav.Encode(testClip(0.5), 0, 0.5)))
	releaseRec()

	assert.ErrorIs(t, <-errc, ErrStaleDecode)
	assert.Equal(t, 0.5, s.ViewState().Duration, "the recording does not replace the loaded clip")
}

func TestPlaybackRunsAtSpeakerRate(t *testing.T) {
	speaker := &speakerSink{rate: 16000}
	s, rec := newTestSession(t, func(o *Options) { o.Speaker = speaker })
	startRecording(t, s, rec)
	require.NoError(t, s.StopRecording())

	require.NoError(t, s.TogglePlay())
	require.NoError(t, s.Wait(context.Background()))
	assert.Len(t, speaker.played(), 16000, "one second of 8 kHz audio played at 16 kHz")
}

func TestZeroToneGainIsSilent(t *testing.T) {
	speaker := &speakerSink{}
	s, _ := newTestSession(t, func(o *Options) {
		o.ToneGain = 0
		o.Speaker = speaker
	})
	require.NoError(t, s.PlayTone())
	require.NoError(t, s.Wait(context.Background()))

	played := speaker.played()
	require.Len(t, played, 160)
	for _, v := range played {
		require.Zero(t, v)
	}
}

func TestSnapshotIsPNG(t *testing.T) {
	s, rec := newTestSession(t, nil)
	startRecording(t, s, rec)
	for i := 0; i < 20; i++ {
		s.Tick()
	}
	var buf bytes.Buffer
	require.NoError(t, s.Snapshot(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())
}

func TestScrollingStrategy(t *testing.T) {
	s, _ := newTestSession(t, func(o *Options) { o.Strategy = render.KindScrolling })
	s.Tick()
	assert.Equal(t, render.KindScrolling, s.ViewState().Strategy)
}

func TestSubscribe(t *testing.T) {
	s, _ := newTestSession(t, nil)
	ch, cancel := s.Subscribe(2)
	s.Tick()
	f := <-ch
	assert.Len(t, f, 256)

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	s.Tick()
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newTestSession(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, render.NewVsync(200)) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestWaitReturnsWhenToneEnds(t *testing.T) {
	s, _ := newTestSession(t, nil)
	require.NoError(t, s.Wait(context.Background()), "idle session does not block")

	require.NoError(t, s.PlayTone())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
	assert.Eventually(t, func() bool { return !s.ViewState().Capturing }, time.Second, 5*time.Millisecond)
}
