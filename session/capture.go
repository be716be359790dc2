package session

import (
	"context"
	"errors"

	"github.com/tasmanvs/MusicMaker/capture"
)

// startLocked begins a capture session for mode and runs src until it ends,
// is stopped, or is replaced. Callers hold s.mu.
func (s *Session) startLocked(mode capture.Mode, fresh bool, src capture.Source, rec Recorder) *source {
	tok := s.ctrl.Begin(mode, fresh)
	ctx, cancel := context.WithCancel(context.Background())
	active := &source{tok: tok, mode: mode, cancel: cancel, done: make(chan struct{}), rec: rec}
	s.active = active
	s.metrics.CaptureStarted(ctx, mode.String())
	s.log.Debug("capture started", "mode", mode, "token", tok)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(active.done)
		err := src.Run(ctx, s.analyzer.Write)
		cancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error("capture source failed", "mode", mode, "error", err)
		}
		s.finish(active)
	}()
	return active
}

// finish ends the session of a source that stopped on its own. A source that
// was replaced holds a stale token and leaves the newer session alone.
func (s *Session) finish(src *source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == src {
		s.active = nil
	}
	if s.ctrl.End(src.tok) {
		s.metrics.CaptureEnded(context.Background(), src.mode.String())
		s.log.Debug("capture ended", "mode", src.mode, "token", src.tok)
	}
}

// stopSourceLocked cancels the active source and ends its session without
// waiting for it.
func (s *Session) stopSourceLocked() *source {
	src := s.active
	if src == nil {
		return nil
	}
	s.active = nil
	src.cancel()
	if s.ctrl.End(src.tok) {
		s.metrics.CaptureEnded(context.Background(), src.mode.String())
	}
	return src
}

func (s *Session) recordingLocked() bool {
	return s.active != nil && s.active.mode == capture.ModeRecording
}

// PlayTone plays the configured test tone. Frames are retained while the tone
// plays; the history is not reset.
func (s *Session) PlayTone() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordingLocked() {
		return ErrBusy
	}
	s.stopSourceLocked()

	tone := capture.NewToneSource(s.opts.SampleRate)
	if s.opts.ToneFrequency > 0 {
		tone.Frequency = s.opts.ToneFrequency
	}
	tone.Gain = s.opts.ToneGain
	if s.opts.ToneDuration > 0 {
		tone.Duration = s.opts.ToneDuration
	}
	tone.Sink = s.opts.Speaker
	s.startLocked(capture.ModeTone, false, tone, nil)
	return nil
}

// StartRecording resets the history and view and captures from the
// microphone until StopRecording. Pending loads become stale.
func (s *Session) StartRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordingLocked() {
		return ErrBusy
	}
	s.stopSourceLocked()
	s.loadGen++
	rec := s.opts.NewRecorder()
	s.startLocked(capture.ModeRecording, true, rec, rec)
	return nil
}

// StopRecording stops the microphone and makes the recording the current
// clip. Any decode still in flight becomes stale.
func (s *Session) StopRecording() error {
	s.mu.Lock()
	if !s.recordingLocked() {
		s.mu.Unlock()
		return ErrNotCapture
	}
	src := s.stopSourceLocked()
	s.loadGen++
	gen := s.loadGen
	s.mu.Unlock()

	<-src.done
	clip := src.rec.Clip()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		return ErrStaleDecode
	}
	s.setClipLocked(clip)
	s.log.Info("recording stopped", "duration", clip.Duration(), "sample_rate", clip.SampleRate)
	return nil
}

// TogglePlay starts playback of the current clip at the selected frame, or
// stops playback that is already running.
func (s *Session) TogglePlay() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clip == nil {
		return ErrNoClip
	}
	if s.active != nil && s.active.mode == capture.ModePlayback {
		s.stopSourceLocked()
		return nil
	}
	if s.recordingLocked() {
		return ErrBusy
	}
	s.stopSourceLocked()

	src := &capture.ClipSource{
		Clip:  s.clip,
		Start: capture.PlaybackStart(s.state.Selected),
		Sink:  s.opts.Speaker,
	}
	s.startLocked(capture.ModePlayback, false, src, nil)
	return nil
}

// Stop ends whatever capture is active. A recording stopped this way is
// discarded.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopSourceLocked()
}

// Wait blocks until the active source ends or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	src := s.active
	s.mu.Unlock()
	if src == nil {
		return nil
	}
	select {
	case <-src.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
