package session

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/tasmanvs/MusicMaker/render"
	"github.com/tasmanvs/MusicMaker/types"
	"github.com/tasmanvs/MusicMaker/utils"
	"github.com/tasmanvs/MusicMaker/wav"
)

// TrimDefaults is the trim range offered for a freshly recorded or loaded
// clip: the whole clip.
func TrimDefaults(clip *types.AudioClip) types.TrimRange {
	return types.TrimRange{Start: 0, End: clip.Duration()}
}

func (s *Session) setClipLocked(clip *types.AudioClip) {
	s.clip = clip
	s.trim = TrimDefaults(clip)
}

// Clip returns the current clip, or nil.
func (s *Session) Clip() *types.AudioClip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clip
}

// Trim parses user supplied trim bounds against the current clip.
func (s *Session) Trim(start, end string) types.TrimRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.ParseTrim(start, end, s.clip.Duration())
}

// Load decodes the idx-th saved sound and makes it the current clip. The
// history and view are reset when the decode commits. If another load or a
// recording commits first, Load returns ErrStaleDecode and changes nothing.
func (s *Session) Load(ctx context.Context, idx int) error {
	saved, err := s.store.LoadSaved(ctx, idx)
	if err != nil {
		return err
	}
	_, data, err := utils.DecodeDataURL(saved.Data)
	if err != nil {
		s.metrics.DecodeErrors.Add(ctx, 1)
		return fmt.Errorf("session: sound %q: %w", saved.Name, err)
	}
	return s.LoadData(ctx, data)
}

// LoadData decodes an encoded container and makes it the current clip.
func (s *Session) LoadData(ctx context.Context, data []byte) error {
	s.mu.Lock()
	if s.recordingLocked() {
		s.mu.Unlock()
		return ErrBusy
	}
	s.loadGen++
	gen := s.loadGen
	s.mu.Unlock()

	clip, err := s.decode(ctx, data)
	if err != nil {
		s.metrics.DecodeErrors.Add(ctx, 1)
		return fmt.Errorf("session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		s.metrics.StaleDecodes.Add(ctx, 1)
		return ErrStaleDecode
	}
	s.stopSourceLocked()
	s.setClipLocked(clip)
	s.ctrl.Reset()
	s.log.Info("sound loaded", "duration", clip.Duration(), "channels", clip.Channels, "sample_rate", clip.SampleRate)
	return nil
}

// Export encodes the current clip trimmed to trim.
func (s *Session) Export(trim types.TrimRange) ([]byte, error) {
	s.mu.Lock()
	clip := s.clip
	s.mu.Unlock()
	if clip == nil {
		return nil, ErrNoClip
	}
	out := wav.Encode(clip, trim.Start, trim.End)
	s.metrics.RecordEncode(context.Background(), len(out))
	return out, nil
}

// Save stores the trimmed current clip under name.
func (s *Session) Save(ctx context.Context, name string, trim types.TrimRange) error {
	data, err := s.Export(trim)
	if err != nil {
		return err
	}
	if err := s.store.SaveSound(ctx, name, utils.EncodeDataURL(utils.WAVMime, data)); err != nil {
		return err
	}
	s.log.Info("sound saved", "name", name, "bytes", len(data))
	return nil
}

// Saved lists the stored sounds in load order.
func (s *Session) Saved(ctx context.Context) ([]types.SavedSound, error) {
	return s.store.ListSaved(ctx)
}

// Snapshot writes the current raster as PNG.
func (s *Session) Snapshot(w io.Writer) error {
	s.mu.Lock()
	img := image.NewRGBA(s.canvas.Rect)
	copy(img.Pix, s.canvas.Pix)
	s.mu.Unlock()
	return render.EncodePNG(w, img)
}
