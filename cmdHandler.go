package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tasmanvs/MusicMaker/capture"
	"github.com/tasmanvs/MusicMaker/dsp"
	"github.com/tasmanvs/MusicMaker/frames"
	"github.com/tasmanvs/MusicMaker/render"
	"github.com/tasmanvs/MusicMaker/session"
	"github.com/tasmanvs/MusicMaker/types"
	"github.com/tasmanvs/MusicMaker/utils"
	"github.com/tasmanvs/MusicMaker/view"
	"github.com/tasmanvs/MusicMaker/wav"
)

const recordingsDir = "recordings"

// newSession builds a session from the loaded configuration. The returned
// cleanup closes the session, speaker and store.
func (a *app) newSession(ctx context.Context) (*session.Session, func(), error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	opts := session.Options{
		Strategy:      a.cfg.View.Strategy,
		Width:         a.cfg.View.Width,
		Height:        a.cfg.View.Height,
		DefaultFrames: a.cfg.View.DefaultFrames,
		Analyzer:      a.cfg.Analyzer.Options(),
		ToneFrequency: a.cfg.Tone.Frequency,
		ToneGain:      a.cfg.Tone.Gain,
		ToneDuration:  a.cfg.Tone.Length(),
		SampleRate:    a.cfg.Audio.SampleRate,
		NewRecorder: func() session.Recorder {
			return capture.NewMic(a.cfg.Audio.SampleRate, a.cfg.Audio.BufferFrames)
		},
		Store:   store,
		Metrics: a.metrics,
		Logger:  a.log,
	}

	var speaker *capture.Speaker
	if a.cfg.Audio.Speaker {
		speaker, err = capture.NewSpeaker(a.cfg.Audio.SampleRate, a.cfg.Audio.BufferFrames)
		if err != nil {
			yellow.Println("speaker unavailable, playing silently:", err)
		} else {
			opts.Speaker = speaker
		}
	}

	sess, err := session.New(opts)
	if err != nil {
		store.Close()
		if speaker != nil {
			speaker.Close()
		}
		return nil, nil, err
	}
	cleanup := func() {
		sess.Close()
		if speaker != nil {
			speaker.Close()
		}
		if err := store.Close(); err != nil {
			a.log.Warn("closing store", "error", err)
		}
	}
	return sess, cleanup, nil
}

// runWhile drives the render loop of sess until work returns.
func (a *app) runWhile(ctx context.Context, sess *session.Session, work func(ctx context.Context) error) error {
	loopCtx, stopLoop := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(loopCtx)
	g.Go(func() error {
		return sess.Run(gctx, render.NewVsync(int(a.cfg.View.RefreshHz)))
	})
	g.Go(func() error {
		defer stopLoop()
		return work(gctx)
	})
	return g.Wait()
}

func (a *app) tone(ctx context.Context, out string) error {
	sess, cleanup, err := a.newSession(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	err = a.runWhile(ctx, sess, func(ctx context.Context) error {
		if err := sess.PlayTone(); err != nil {
			return err
		}
		yellow.Printf("playing %.0f Hz for %s\n", a.cfg.Tone.Frequency, a.cfg.Tone.Length())
		return sess.Wait(ctx)
	})
	if err != nil {
		return err
	}
	if err := writeSnapshot(sess, out); err != nil {
		return err
	}
	green.Printf("%d frames captured, spectrogram written to %s\n", sess.ViewState().Frames, out)
	return nil
}

type recordOptions struct {
	duration time.Duration
	out      string
	png      string
	save     string
}

func (a *app) record(ctx context.Context, opts recordOptions) error {
	sess, cleanup, err := a.newSession(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	err = a.runWhile(ctx, sess, func(ctx context.Context) error {
		if err := sess.StartRecording(); err != nil {
			return err
		}
		if opts.duration > 0 {
			yellow.Printf("recording for %s\n", opts.duration)
		} else {
			yellow.Println("recording, press Ctrl+C to stop")
		}
		var timeout <-chan time.Time
		if opts.duration > 0 {
			timer := time.NewTimer(opts.duration)
			defer timer.Stop()
			timeout = timer.C
		}
		select {
		case <-ctx.Done():
		case <-timeout:
		}
		return sess.StopRecording()
	})
	// An interrupt is the normal way to end an open-ended recording.
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	clip := sess.Clip()
	if clip == nil {
		return errors.New("nothing was recorded")
	}
	out := opts.out
	if out == "" {
		out = wav.RecordingFilename(recordingsDir, time.Now())
	}
	if err := wav.WriteFile(out, clip, 0, clip.Duration()); err != nil {
		return err
	}
	green.Printf("recorded %.2fs to %s\n", clip.Duration(), out)

	if opts.png != "" {
		if err := writeSnapshot(sess, opts.png); err != nil {
			return err
		}
	}
	if opts.save != "" {
		if err := sess.Save(context.Background(), opts.save, session.TrimDefaults(clip)); err != nil {
			return err
		}
		green.Printf("saved as %q\n", opts.save)
	}
	return nil
}

func writeSnapshot(sess *session.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sess.Snapshot(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func decodeFile(ctx context.Context, path string) (*types.AudioClip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	clip, err := wav.Decode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

func (a *app) export(ctx context.Context, input, start, end, out string) error {
	clip, err := decodeFile(ctx, input)
	if err != nil {
		return err
	}
	trim := types.ParseTrim(start, end, clip.Duration())
	if err := wav.WriteFile(out, clip, trim.Start, trim.End); err != nil {
		return err
	}
	green.Printf("exported %.2fs to %.2fs of %s to %s\n", trim.Start, trim.End, input, out)
	return nil
}

type renderOptions struct {
	out      string
	strategy string
	width    int
}

// render draws the whole file offline: every frame the analyzer would have
// produced during playback is appended, then the strategy paints it.
func (a *app) render(ctx context.Context, input string, opts renderOptions) error {
	clip, err := decodeFile(ctx, input)
	if err != nil {
		return err
	}
	kind := a.cfg.View.Strategy
	if opts.strategy != "" {
		kind = render.Kind(opts.strategy)
	}
	strategy, err := render.New(kind)
	if err != nil {
		return err
	}
	width := a.cfg.View.Width
	if opts.width > 0 {
		width = opts.width
	}

	spectra, err := dsp.Spectrogram(clip.Mono(), clip.SampleRate, 1/capture.FrameSeconds, a.cfg.Analyzer.Options())
	if err != nil {
		return err
	}
	history := frames.NewHistory(len(spectra))
	canvas := image.NewRGBA(image.Rect(0, 0, width, a.cfg.View.Height))
	scene := render.Scene{
		History:  history,
		View:     view.Viewport{Width: float64(len(spectra))},
		Selected: -1,
	}
	for _, f := range spectra {
		history.Append(f)
		if strategy.Kind() == render.KindScrolling {
			scene.Latest = f
			strategy.Draw(canvas, scene)
		}
	}
	if strategy.Kind() == render.KindWindowed {
		strategy.Draw(canvas, scene)
	}

	if dir := filepath.Dir(opts.out); dir != "." {
		if err := utils.MkDir(dir); err != nil {
			return err
		}
	}
	f, err := os.Create(opts.out)
	if err != nil {
		return err
	}
	if err := render.EncodePNG(f, canvas); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	green.Printf("%d frames of %s rendered to %s\n", len(spectra), input, opts.out)
	return nil
}

func (a *app) savedList(ctx context.Context) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	sounds, err := store.ListSaved(ctx)
	if err != nil {
		return err
	}
	if len(sounds) == 0 {
		yellow.Println("no saved sounds")
		return nil
	}
	for i, s := range sounds {
		_, data, err := utils.DecodeDataURL(s.Data)
		if err != nil {
			red.Printf("  [%d] %s (unreadable: %v)\n", i, s.Name, err)
			continue
		}
		h, err := wav.ReadHeader(data)
		if err != nil || h.ByteRate == 0 {
			red.Printf("  [%d] %s (invalid WAV)\n", i, s.Name)
			continue
		}
		fmt.Printf("  [%d] %s  %.2fs\n", i, s.Name, float64(h.Subchunk2Size)/float64(h.ByteRate))
	}
	return nil
}

func (a *app) savedSave(ctx context.Context, name, input, start, end string) error {
	clip, err := decodeFile(ctx, input)
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	trim := types.ParseTrim(start, end, clip.Duration())
	data := wav.Encode(clip, trim.Start, trim.End)
	a.metrics.RecordEncode(ctx, len(data))
	if err := store.SaveSound(ctx, name, utils.EncodeDataURL(utils.WAVMime, data)); err != nil {
		return err
	}
	green.Printf("saved %q (%.2fs)\n", name, trim.End-trim.Start)
	return nil
}

func (a *app) savedExport(ctx context.Context, idx int, out string) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := store.LoadSaved(ctx, idx)
	if err != nil {
		return err
	}
	_, data, err := utils.DecodeDataURL(s.Data)
	if err != nil {
		return fmt.Errorf("sound %q: %w", s.Name, err)
	}
	if out == "" {
		out = s.Name + ".wav"
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	green.Printf("wrote %q to %s\n", s.Name, out)
	return nil
}
