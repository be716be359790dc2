package capture

// Resample converts mono samples from one sample rate to another using linear
// interpolation. The input is returned unchanged when the rates match or
// either rate is not positive.
func Resample(samples []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 || len(samples) == 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	newLength := int(float64(len(samples)) / ratio)
	resampled := make([]float32, newLength)

	for i := range resampled {
		pos := float64(i) * ratio
		index := int(pos)
		frac := float32(pos - float64(index))

		switch {
		case index+1 < len(samples):
			resampled[i] = samples[index]*(1-frac) + samples[index+1]*frac
		case index < len(samples):
			resampled[i] = samples[index]
		default:
			resampled[i] = samples[len(samples)-1]
		}
	}
	return resampled
}
