package projection

import "fmt"

const (
	linearMinPoints = 3
	linearBootstrap = 1000
)

// Linear fits an ordinary least squares trend of score against
// days-since-window-start. It is deliberately ceiling-unaware: forecasts
// can exceed the benchmark scale, which callers surface as a naive
// extrapolation. Returns nil below the minimum-data gate.
func Linear(obs []Observation, opts Options) *Result {
	s := windowed(obs, opts.WindowMonths, linearMinPoints)
	if s == nil {
		return nil
	}

	slope, intercept := ols(s.xs, s.ys)

	preds := make([]float64, len(s.xs))
	for i, x := range s.xs {
		preds[i] = intercept + slope*x
	}
	r2 := rSquared(s.ys, preds)

	dates, fxs := s.forecastGrid(opts.ForecastMonths)
	values := make([]float64, len(fxs))
	for i, x := range fxs {
		values[i] = intercept + slope*x
	}

	rng := newRNG(opts.Seed)
	bands := bootstrap(rng, s.xs, s.ys, fxs, values, linearBootstrap,
		func(xb, yb []float64) (predictor, error) {
			sl, ic := ols(xb, yb)
			return func(x float64) float64 { return ic + sl*x }, nil
		})

	return &Result{
		Method:         MethodLinear,
		ForecastDates:  dates,
		ForecastValues: values,
		CI80Low:        bands.lo80,
		CI80High:       bands.hi80,
		CI95Low:        bands.lo95,
		CI95High:       bands.hi95,
		FitWindowStart: s.start,
		FitWindowEnd:   s.end,
		RSquared:       r2,
		Notes:          fmt.Sprintf("Linear trend: %.4f points/day, R²=%.3f", slope, r2),
	}
}
