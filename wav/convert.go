package wav

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// FFmpegAvailable reports whether an ffmpeg binary is on PATH.
func FFmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// ConvertToWAV pipes an arbitrary container through ffmpeg and returns 16-bit
// PCM WAV bytes at the source sample rate and channel count.
func ConvertToWAV(ctx context.Context, data []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("wav: ffmpeg convert: %w, output %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}
