// Package analysis fits the mass-radius scaling of a grown cluster and
// renders its growth curve.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"mad-dla/internal/sims/dla"

	"gonum.org/v1/gonum/stat"
)

// ErrTooFewSamples is returned when the events hold fewer than two distinct
// radii with a defined dimension estimate.
var ErrTooFewSamples = errors.New("analysis: too few samples for a fit")

// Fit is a least-squares fit of ln(N) = Dimension*ln(R) + Intercept.
type Fit struct {
	Dimension float64
	Intercept float64
	RSquared  float64
	Samples   int
}

func (f Fit) String() string {
	return fmt.Sprintf("D=%.4f c=%.4f r2=%.4f n=%d", f.Dimension, f.Intercept, f.RSquared, f.Samples)
}

// FitDimension regresses ln(index) on ln(radius) over every event whose
// point estimate is defined and whose index is at least minIndex. Early
// particles sit inside a near-solid core, so callers usually skip some.
func FitDimension(events []dla.StickEvent, minIndex int) (Fit, error) {
	xs, ys := logSamples(events, minIndex)
	if len(xs) < 2 || stat.Variance(xs, nil) == 0 {
		return Fit{Samples: len(xs)}, ErrTooFewSamples
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return Fit{
		Dimension: beta,
		Intercept: alpha,
		RSquared:  stat.RSquared(xs, ys, nil, alpha, beta),
		Samples:   len(xs),
	}, nil
}

func logSamples(events []dla.StickEvent, minIndex int) (xs, ys []float64) {
	xs = make([]float64, 0, len(events))
	ys = make([]float64, 0, len(events))
	for _, ev := range events {
		if ev.Index < minIndex {
			continue
		}
		if _, ok := ev.FractalDimension(); !ok {
			continue
		}
		xs = append(xs, math.Log(ev.ClusterRadius))
		ys = append(ys, math.Log(float64(ev.Index)))
	}
	return xs, ys
}

// LastEstimate returns the point estimate of the last event that has one.
func LastEstimate(events []dla.StickEvent) (float64, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if d, ok := events[i].FractalDimension(); ok {
			return d, true
		}
	}
	return 0, false
}
