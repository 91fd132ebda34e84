package stream

import "math"

// scale applies volume (0..1) to samples in place.
func scale(samples []int16, volume float64) {
	switch {
	case volume >= 1:
		return
	case volume <= 0 || math.IsNaN(volume):
		clear(samples)
		return
	}
	for i, s := range samples {
		samples[i] = int16(float64(s) * volume)
	}
}
