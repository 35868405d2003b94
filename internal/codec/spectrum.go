package codec

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// floor of the band scale in dBFS
const spectrumFloorDB = -60.0

// Spectrum splits a sample window into log spaced frequency bands.
type Spectrum struct {
	bands  int
	size   int
	window []float64
	edges  []int
}

// NewSpectrum prepares an analyzer for windows of size samples. size is
// rounded down to a power of two.
func NewSpectrum(size, bands int) *Spectrum {
	n := 1
	for n*2 <= size {
		n *= 2
	}
	if bands < 1 {
		bands = 1
	}

	hann := make([]float64, n)
	for i := range hann {
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}

	// bin 0 is DC, skip it
	half := n / 2
	edges := make([]int, bands+1)
	for b := 0; b <= bands; b++ {
		e := int(math.Round(math.Pow(float64(half), float64(b)/float64(bands))))
		if e < 1 {
			e = 1
		}
		if b > 0 && e <= edges[b-1] {
			e = edges[b-1] + 1
		}
		if e > half {
			e = half
		}
		edges[b] = e
	}

	return &Spectrum{bands: bands, size: n, window: hann, edges: edges}
}

func (s *Spectrum) Bands() int { return s.bands }

// Levels returns one value per band between 0 and 1. Only the most recent
// window of samples is used; shorter input is zero padded at the front.
func (s *Spectrum) Levels(samples []float64) []float64 {
	in := make([]float64, s.size)
	if len(samples) > s.size {
		samples = samples[len(samples)-s.size:]
	}
	off := s.size - len(samples)
	for i, v := range samples {
		in[off+i] = v * s.window[off+i]
	}

	coeffs := fft.FFTReal(in)
	// a full scale sine through a Hann window peaks at n/4
	ref := float64(s.size) / 4

	out := make([]float64, s.bands)
	for b := 0; b < s.bands; b++ {
		lo, hi := s.edges[b], s.edges[b+1]
		if hi <= lo {
			hi = lo + 1
		}
		peak := 0.0
		for i := lo; i < hi && i < len(coeffs)/2; i++ {
			if m := cmplx.Abs(coeffs[i]); m > peak {
				peak = m
			}
		}
		out[b] = scaleDB(peak / ref)
	}
	return out
}

func scaleDB(amp float64) float64 {
	if amp <= 0 {
		return 0
	}
	db := 20 * math.Log10(amp)
	v := (db - spectrumFloorDB) / -spectrumFloorDB
	return math.Max(0, math.Min(1, v))
}
