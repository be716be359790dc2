package utils

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURLRoundTrip(t *testing.T) {
	payload := []byte("RIFF\x00\x01\x02WAVE")
	url := EncodeDataURL(WAVMime, payload)
	assert.Contains(t, url, "data:audio/wav;base64,")

	mime, data, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, WAVMime, mime)
	assert.Equal(t, payload, data)
}

func TestDecodeDataURLErrors(t *testing.T) {
	_, _, err := DecodeDataURL("http://example.com/a.wav")
	assert.Error(t, err)
	_, _, err = DecodeDataURL("data:audio/wav;base64")
	assert.Error(t, err)
	_, _, err = DecodeDataURL("data:audio/wav;base64,!!!")
	assert.Error(t, err)

	mime, data, err := DecodeDataURL("data:text/plain,hello")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mime)
	assert.Equal(t, []byte("hello"), data)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, slog.LevelWarn, true)
	log.Info("hidden")
	log.Warn("shown", "frames", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "frames=3")
}

func TestMkDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, MkDir(dir))
	require.NoError(t, MkDir(dir))
	assert.DirExists(t, dir)
}
