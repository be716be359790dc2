package wav

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tasmanvs/MusicMaker/types"
)

// WriteFile encodes clip trimmed to [start, end] and writes it to filename,
// creating parent directories as needed.
func WriteFile(filename string, clip *types.AudioClip, start, end float64) error {
	dir := filepath.Dir(filename)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(filename, Encode(clip, start, end), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// ReadFile decodes a WAV file from disk.
func ReadFile(filename string) (*types.AudioClip, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	clip, err := decodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return clip, nil
}

// RecordingFilename returns a timestamped file name inside dir.
func RecordingFilename(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("recording_%s.wav", now.Format("20060102_150405")))
}
