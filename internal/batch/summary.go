package batch

import (
	"sort"

	"mad-dla/internal/sims/dla"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the repeats of one (probability, target) cell.
type Summary struct {
	Probability float64
	Target      int
	Runs        int

	RadiusMean, RadiusStdDev       float64
	DimensionMean, DimensionStdDev float64
	// Fitted counts the runs that contributed a dimension fit.
	Fitted int
	// BoundaryStops counts runs ended by the kill sphere reaching the edge.
	BoundaryStops int
}

type cellKey struct {
	p float64
	n int
}

// Summarize groups results by cell, ordered by probability then target.
func Summarize(results []Result) []Summary {
	cells := make(map[cellKey][]Result)
	for _, r := range results {
		k := cellKey{r.Probability, r.Target}
		cells[k] = append(cells[k], r)
	}

	keys := make([]cellKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].p != keys[j].p {
			return keys[i].p < keys[j].p
		}
		return keys[i].n < keys[j].n
	})

	out := make([]Summary, 0, len(keys))
	for _, k := range keys {
		rs := cells[k]
		s := Summary{Probability: k.p, Target: k.n, Runs: len(rs)}

		radii := make([]float64, 0, len(rs))
		dims := make([]float64, 0, len(rs))
		for _, r := range rs {
			radii = append(radii, r.ClusterRadius)
			if r.FitOK {
				dims = append(dims, r.Fit.Dimension)
			}
			if r.Finish == dla.FinishBoundary {
				s.BoundaryStops++
			}
		}
		s.RadiusMean, s.RadiusStdDev = meanStdDev(radii)
		s.DimensionMean, s.DimensionStdDev = meanStdDev(dims)
		s.Fitted = len(dims)
		out = append(out, s)
	}
	return out
}

func meanStdDev(xs []float64) (mean, std float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}
