package audio

// downmixInterleaved averages interleaved channels into a new mono slice
// of length frames.
func downmixInterleaved(in []float32, channels, frames int) []float32 {
	out := make([]float32, frames)
	if channels <= 1 {
		copy(out, in)
		return out
	}

	for i := 0; i < frames; i++ {
		var sum float32
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += in[base+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}
