package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTrim(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       TrimRange
	}{
		{"full clip", "0", "2", TrimRange{0, 2}},
		{"inner range", "0.5", "1.25", TrimRange{0.5, 1.25}},
		{"empty inputs", "", "", TrimRange{0, 2}},
		{"garbage", "abc", "xyz", TrimRange{0, 2}},
		{"negative start", "-3", "1", TrimRange{0, 1}},
		{"end past duration", "1", "9", TrimRange{1, 2}},
		{"end before start", "1.5", "1", TrimRange{1.5, 2}},
		{"zero end", "0.2", "0", TrimRange{0.2, 2}},
		{"start past duration", "5", "", TrimRange{2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTrim(tt.start, tt.end, 2)
			assert.InDelta(t, tt.want.Start, got.Start, 1e-9)
			assert.InDelta(t, tt.want.End, got.End, 1e-9)
			assert.LessOrEqual(t, got.Start, got.End)
		})
	}
}

func TestClampTrimNeverNegative(t *testing.T) {
	r := ClampTrim(3, 1, 2)
	assert.Equal(t, TrimRange{Start: 2, End: 2}, r)
}

func TestAudioClipMono(t *testing.T) {
	c := &AudioClip{SampleRate: 4, Channels: 2, Data: [][]float32{{1, 0.5}, {0, 0.5}}}
	assert.Equal(t, []float32{0.5, 0.5}, c.Mono())
	assert.InDelta(t, 0.5, c.Duration(), 1e-9)
	var nilClip *AudioClip
	assert.Zero(t, nilClip.Duration())
}
