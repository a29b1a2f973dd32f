package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/particlelife/internal/dynamo"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of each non-negative frequency bin
// of data after removing its mean. Any length works.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// Oscillation is the strongest periodic component of a series.
type Oscillation struct {
	Bin       int
	Period    float64
	Magnitude float64
}

// DominantOscillation finds the strongest non-constant frequency in data
// sampled every interval time units. ok is false when the series has no
// variation.
func DominantOscillation(data []float64, interval float64) (osc Oscillation, ok bool, err error) {
	if len(data) < 4 {
		return Oscillation{}, false, dynamo.Invalidf("need at least 4 samples, got %d", len(data))
	}
	if interval <= 0 {
		return Oscillation{}, false, dynamo.Invalidf("sample interval must be positive, got %v", interval)
	}

	ps := PowerSpectrum(data)
	for bin := 1; bin < len(ps); bin++ {
		if ps[bin] > osc.Magnitude {
			osc = Oscillation{Bin: bin, Magnitude: ps[bin]}
		}
	}
	if osc.Bin == 0 || osc.Magnitude < 1e-12 {
		return Oscillation{}, false, nil
	}
	osc.Period = float64(len(data)) * interval / float64(osc.Bin)
	return osc, true, nil
}
