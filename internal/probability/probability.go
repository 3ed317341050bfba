// Package probability converts an external point forecast and a market
// threshold into an implied probability via a normal-CDF transform. It is
// pure: all inputs arrive as arguments and nothing here performs I/O.
package probability

import (
	"fmt"
	"math"
)

// Direction states which side of the threshold the market pays on.
type Direction string

const (
	Above Direction = "above"
	Below Direction = "below"
)

// Signal buckets the magnitude of the z-score. Anything under half a
// standard deviation is treated as noise.
type Signal string

const (
	NoSignal Signal = "NO_SIGNAL"
	Weak     Signal = "WEAK"
	Moderate Signal = "MODERATE"
	Strong   Signal = "STRONG"
)

// Estimate is the output of the probability model.
type Estimate struct {
	ZScore      float64
	Probability float64 // percent, clamped to [1,99]
	Signal      Signal
	FairYes     int // cents
	FairNo      int // cents
}

// NormalCDF is the standard normal cumulative distribution function.
func NormalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// Implied computes the probability that the settled value lands on the
// paying side of threshold, given a point forecast with error standard
// deviation sigma and a systematic bias (positive bias means the forecast
// series runs high and is subtracted before comparison).
//
// sigma must be positive; a non-positive sigma is a configuration error,
// never a silent division.
func Implied(forecast, threshold float64, direction Direction, sigma, bias float64) (Estimate, error) {
	if sigma <= 0 {
		return Estimate{}, fmt.Errorf("probability: error std must be positive, got %v", sigma)
	}
	if direction != Above && direction != Below {
		return Estimate{}, fmt.Errorf("probability: unknown direction %q", direction)
	}

	adjusted := forecast - bias
	z := (adjusted - threshold) / sigma

	pAbove := NormalCDF(z) * 100
	prob := pAbove
	if direction == Below {
		prob = 100 - pAbove
	}
	prob = clamp(prob, 1, 99)

	fairYes := int(math.Round(prob))

	return Estimate{
		ZScore:      z,
		Probability: prob,
		Signal:      bucket(z),
		FairYes:     fairYes,
		FairNo:      100 - fairYes,
	}, nil
}

func bucket(z float64) Signal {
	switch abs := math.Abs(z); {
	case abs < 0.5:
		return NoSignal
	case abs < 1.0:
		return Weak
	case abs < 2.0:
		return Moderate
	default:
		return Strong
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
