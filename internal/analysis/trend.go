package analysis

import (
	"math"

	"github.com/san-kum/particlelife/internal/dynamo"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a telemetry series over time.
type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	// Slope is the least-squares change per unit time.
	Slope float64
	// Settled is the first time after which every value stays within
	// tolerance of the final tenth's mean, or NaN if it never does.
	Settled float64
}

// Summarize fits times/values. tolerance is relative to the final mean.
func Summarize(times, values []float64, tolerance float64) (Summary, error) {
	if len(times) != len(values) {
		return Summary{}, dynamo.Invalidf("%d times for %d values", len(times), len(values))
	}
	if len(values) < 2 {
		return Summary{}, dynamo.Invalidf("need at least 2 samples, got %d", len(values))
	}

	s := Summary{Min: values[0], Max: values[0]}
	for _, v := range values {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	_, s.Slope = stat.LinearRegression(times, values, nil, false)

	tail := values[len(values)-max(len(values)/10, 1):]
	final := stat.Mean(tail, nil)
	band := math.Abs(final) * tolerance

	s.Settled = math.NaN()
	for i := len(values) - 1; i >= 0; i-- {
		if math.Abs(values[i]-final) > band {
			if i+1 < len(values) {
				s.Settled = times[i+1]
			}
			return s, nil
		}
	}
	s.Settled = times[0]
	return s, nil
}
