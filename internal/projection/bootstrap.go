package projection

import (
	"math"
	"math/rand/v2"
	"sort"
)

// predictor maps a forecast x offset to a value under one fitted model.
type predictor func(x float64) float64

// confidenceBands holds the per-forecast-point empirical interval bounds.
type confidenceBands struct {
	lo80, hi80 []float64
	lo95, hi95 []float64
}

// bootstrap resamples (xs, ys) with replacement reps times, refits via
// refit, and collects empirical percentiles of the forecasts. A replicate
// whose refit fails reuses the original point forecast, which narrows the
// interval slightly in pathological cases rather than failing the run.
func bootstrap(
	rng *rand.Rand,
	xs, ys, forecastXs, pointForecast []float64,
	reps int,
	refit func(xb, yb []float64) (predictor, error),
) confidenceBands {
	n := len(xs)
	nf := len(forecastXs)

	forecasts := make([][]float64, reps)
	xb := make([]float64, n)
	yb := make([]float64, n)

	for r := 0; r < reps; r++ {
		for i := 0; i < n; i++ {
			j := rng.IntN(n)
			xb[i] = xs[j]
			yb[i] = ys[j]
		}

		pred, err := refit(xb, yb)
		if err != nil {
			forecasts[r] = pointForecast
			continue
		}
		row := make([]float64, nf)
		for i, fx := range forecastXs {
			row[i] = pred(fx)
		}
		forecasts[r] = row
	}

	bands := confidenceBands{
		lo80: make([]float64, nf),
		hi80: make([]float64, nf),
		lo95: make([]float64, nf),
		hi95: make([]float64, nf),
	}
	column := make([]float64, reps)
	for i := 0; i < nf; i++ {
		for r := 0; r < reps; r++ {
			column[r] = forecasts[r][i]
		}
		sort.Float64s(column)
		bands.lo80[i] = percentileSorted(column, 10)
		bands.hi80[i] = percentileSorted(column, 90)
		bands.lo95[i] = percentileSorted(column, 2.5)
		bands.hi95[i] = percentileSorted(column, 97.5)
	}
	return bands
}

// percentileSorted interpolates linearly between closest ranks.
func percentileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// clipMax caps every value at ceiling in place.
func clipMax(vals []float64, ceiling float64) {
	for i, v := range vals {
		if v > ceiling {
			vals[i] = ceiling
		}
	}
}
