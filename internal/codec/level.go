package codec

import "math"

// Level is the RMS of samples on the same 0..1 scale as the spectrum bands.
func Level(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	// sine RMS is peak/sqrt2, lift it back so a full scale tone reads 1
	return scaleDB(math.Sqrt(sum/float64(len(samples))) * math.Sqrt2)
}
