package projection

import (
	"fmt"
	"math"
	"sort"
)

const (
	saturationMinPoints = 5
	saturationBootstrap = 500
	fitIterBudget       = 200
	bootFitIterBudget   = 80
)

// logisticGrowth is L / (1 + exp(-k(x - x0))): performance approaching a
// ceiling L with growth rate k and inflection point x0.
func logisticGrowth(x float64, p []float64) float64 {
	l, k, x0 := p[0], p[1], p[2]
	return l / (1 + math.Exp(-k*(x-x0)))
}

// Saturation fits a logistic growth model bounded by the benchmark
// ceiling. L is constrained to [max(maxY, ceiling/2), 1.2*ceiling] and k is
// strictly positive, growth only. Forecasts and upper interval bounds are
// clipped at the ceiling since the fitted curve can overshoot it
// numerically. A convergence failure returns nil, not an error.
func Saturation(obs []Observation, opts Options) *Result {
	ceiling := opts.Ceiling
	if ceiling <= 0 {
		ceiling = 100
	}

	s := windowed(obs, opts.WindowMonths, saturationMinPoints)
	if s == nil {
		return nil
	}

	maxY := s.ys[0]
	for _, y := range s.ys {
		maxY = math.Max(maxY, y)
	}
	maxX := s.xs[len(s.xs)-1]

	lo := []float64{math.Max(maxY, ceiling*0.5), 1e-6, -1000}
	hi := []float64{ceiling * 1.2, 1.0, maxX + 1000}
	p0 := []float64{ceiling, 0.01, median(s.xs)}

	popt, err := curveFit(logisticGrowth, s.xs, s.ys, p0, lo, hi, fitIterBudget)
	if err != nil {
		return nil
	}

	preds := make([]float64, len(s.xs))
	for i, x := range s.xs {
		preds[i] = logisticGrowth(x, popt)
	}
	r2 := rSquared(s.ys, preds)

	dates, fxs := s.forecastGrid(opts.ForecastMonths)
	values := make([]float64, len(fxs))
	for i, x := range fxs {
		values[i] = logisticGrowth(x, popt)
	}
	clipMax(values, ceiling)

	rng := newRNG(opts.Seed)
	bands := bootstrap(rng, s.xs, s.ys, fxs, values, saturationBootstrap,
		func(xb, yb []float64) (predictor, error) {
			pb, err := curveFit(logisticGrowth, xb, yb, popt, lo, hi, bootFitIterBudget)
			if err != nil {
				return nil, err
			}
			return func(x float64) float64 {
				return math.Min(logisticGrowth(x, pb), ceiling)
			}, nil
		})
	clipMax(bands.hi80, ceiling)
	clipMax(bands.hi95, ceiling)

	return &Result{
		Method:         MethodSaturation,
		ForecastDates:  dates,
		ForecastValues: values,
		CI80Low:        bands.lo80,
		CI80High:       bands.hi80,
		CI95Low:        bands.lo95,
		CI95High:       bands.hi95,
		FitWindowStart: s.start,
		FitWindowEnd:   s.end,
		RSquared:       r2,
		Notes: fmt.Sprintf("Logistic model: ceiling=%.1f, growth_rate=%.4f, R²=%.3f",
			popt[0], popt[1], r2),
	}
}

func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
