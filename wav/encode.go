// Package wav encodes clips into 16-bit linear PCM RIFF/WAVE containers and
// decodes supported containers back into clips.
package wav

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/tasmanvs/MusicMaker/types"
)

const (
	// HeaderSize is the size of the canonical PCM header.
	HeaderSize    = 44
	bitsPerSample = 16
	formatPCM     = 1
)

// Encode trims clip to [start, end] seconds and returns a 16-bit PCM WAV
// container. Bounds are clamped to the clip; an empty range yields a valid
// header with no samples.
func Encode(clip *types.AudioClip, start, end float64) []byte {
	if clip == nil {
		return EncodePCM(nil, 0, 0)
	}
	r := types.ClampTrim(start, end, clip.Duration())
	sr := float64(clip.SampleRate)
	n := int(math.Floor((r.End - r.Start) * sr))
	if n < 0 {
		n = 0
	}
	from := int(math.Floor(r.Start * sr))
	to := int(math.Floor(r.End * sr))

	chans := make([][]float32, len(clip.Data))
	for ch, data := range clip.Data {
		lo := min(from, len(data))
		hi := max(lo, min(to, len(data)))
		chans[ch] = data[lo:hi]
	}
	return EncodePCM(chans, clip.SampleRate, n)
}

// EncodePCM interleaves n sample frames from chans into a WAV container.
// Channels shorter than n are padded with silence.
func EncodePCM(chans [][]float32, sampleRate, n int) []byte {
	numCh := len(chans)
	dataSize := n * numCh * 2

	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+dataSize))
	header := NewHeader(numCh, sampleRate, dataSize)
	// Writes into a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, header)

	out := buf.Bytes()[:HeaderSize+dataSize]
	off := HeaderSize
	for i := 0; i < n; i++ {
		for _, ch := range chans {
			var s float32
			if i < len(ch) {
				s = ch[i]
			}
			binary.LittleEndian.PutUint16(out[off:], uint16(SampleToInt16(s)))
			off += 2
		}
	}
	return out
}

// NewHeader builds the header for dataSize bytes of 16-bit PCM.
func NewHeader(channels, sampleRate, dataSize int) types.WavHeader {
	return types.WavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(HeaderSize - 8 + dataSize),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   formatPCM,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * channels * 2),
		BlockAlign:    uint16(channels * 2),
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(dataSize),
	}
}

// SampleToInt16 clamps s to [-1, 1] and scales negative values by 32768 and
// the rest by 32767, truncating toward zero. NaN maps to 0.
func SampleToInt16(s float32) int16 {
	v := float64(s)
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		v *= 0x8000
	} else {
		v *= 0x7FFF
	}
	return int16(v)
}
