package wav

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/tasmanvs/MusicMaker/types"
)

var (
	ErrEmpty       = errors.New("wav: empty input")
	ErrUnsupported = errors.New("wav: unsupported container")
)

// ReadHeader parses the canonical 44 byte header at the start of data.
func ReadHeader(data []byte) (types.WavHeader, error) {
	var header types.WavHeader
	if len(data) < HeaderSize {
		return header, errors.New("wav: invalid file size (too small)")
	}
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &header); err != nil {
		return header, fmt.Errorf("wav: read header: %w", err)
	}
	if string(header.ChunkID[:]) != "RIFF" || string(header.Format[:]) != "WAVE" {
		return header, errors.New("wav: invalid header format")
	}
	return header, nil
}

// Decode turns an encoded container into a clip. RIFF/WAVE PCM and MP3 are
// decoded in process; anything else goes through ffmpeg when it is
// installed.
func Decode(ctx context.Context, data []byte) (*types.AudioClip, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case isWAV(data):
		return decodeWAV(data)
	case isMP3(data):
		return decodeMP3(data)
	}
	if !FFmpegAvailable() {
		return nil, ErrUnsupported
	}
	converted, err := ConvertToWAV(ctx, data)
	if err != nil {
		return nil, err
	}
	return decodeWAV(converted)
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

func isMP3(data []byte) bool {
	if len(data) >= 3 && string(data[0:3]) == "ID3" {
		return true
	}
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

func decodeWAV(data []byte) (*types.AudioClip, error) {
	d := gowav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("wav: invalid WAV file: %w", ErrUnsupported)
	}
	if d.WavAudioFormat != formatPCM {
		return nil, fmt.Errorf("wav: audio format %d: %w", d.WavAudioFormat, ErrUnsupported)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: decode pcm: %w", err)
	}
	return intBufferToClip(buf, int(d.BitDepth))
}

func intBufferToClip(buf *audio.IntBuffer, bitDepth int) (*types.AudioClip, error) {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("wav: missing format: %w", ErrUnsupported)
	}
	numCh := buf.Format.NumChannels
	frames := len(buf.Data) / numCh

	// Signed PCM mirrors the encoder: negative values span 2^(bits-1) steps,
	// non-negative values 2^(bits-1)-1.
	var negScale, posScale, bias float32
	switch {
	case bitDepth == 8:
		negScale, posScale, bias = 1.0/128, 1.0/128, 128
	case bitDepth > 8 && bitDepth <= 32:
		full := int64(1) << (bitDepth - 1)
		negScale = 1 / float32(full)
		posScale = 1 / float32(full-1)
	default:
		return nil, fmt.Errorf("wav: bit depth %d: %w", bitDepth, ErrUnsupported)
	}

	clip := &types.AudioClip{
		SampleRate: buf.Format.SampleRate,
		Channels:   numCh,
		Data:       make([][]float32, numCh),
	}
	for ch := range clip.Data {
		clip.Data[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numCh; ch++ {
			v := float32(buf.Data[i*numCh+ch]) - bias
			if v < 0 {
				v *= negScale
			} else {
				v *= posScale
			}
			clip.Data[ch][i] = v
		}
	}
	return clip, nil
}

func decodeMP3(data []byte) (*types.AudioClip, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("wav: open mp3: %w", err)
	}
	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("wav: decode mp3: %w", err)
	}
	// go-mp3 always yields 16-bit little-endian stereo.
	frames := len(pcm) / 4
	clip := &types.AudioClip{
		SampleRate: d.SampleRate(),
		Channels:   2,
		Data:       [][]float32{make([]float32, frames), make([]float32, frames)},
	}
	for i := 0; i < frames; i++ {
		l := int16(binary.LittleEndian.Uint16(pcm[i*4:]))
		r := int16(binary.LittleEndian.Uint16(pcm[i*4+2:]))
		clip.Data[0][i] = float32(l) / 32768
		clip.Data[1][i] = float32(r) / 32768
	}
	return clip, nil
}
