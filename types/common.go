package types

// AudioClip is a decoded recording. Data holds one slice of samples per
// channel, each sample in [-1, 1].
type AudioClip struct {
	SampleRate int
	Channels   int
	Data       [][]float32
}

// Frames returns the number of sample frames per channel.
func (c *AudioClip) Frames() int {
	if c == nil || len(c.Data) == 0 {
		return 0
	}
	return len(c.Data[0])
}

// Duration returns the clip length in seconds.
func (c *AudioClip) Duration() float64 {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

// Mono averages all channels into a single slice.
func (c *AudioClip) Mono() []float32 {
	n := c.Frames()
	out := make([]float32, n)
	if n == 0 {
		return out
	}
	for _, ch := range c.Data {
		for i := 0; i < n && i < len(ch); i++ {
			out[i] += ch[i]
		}
	}
	if len(c.Data) > 1 {
		scale := 1 / float32(len(c.Data))
		for i := range out {
			out[i] *= scale
		}
	}
	return out
}

// TrimRange is the selected export interval in seconds.
type TrimRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SavedSound is one entry of the sound store. Data is a data URL of the
// encoded WAV container.
type SavedSound struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// WavHeader is the canonical 44 byte PCM RIFF/WAVE header.
type WavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}
