package projection

import (
	"fmt"
	"math"
)

const (
	powerLawMinPoints = 4
	powerLawBootstrap = 500
)

// powerLaw is a*(x+1)^b + c; the +1 keeps x=0 evaluable.
func powerLaw(x float64, p []float64) float64 {
	a, b, c := p[0], p[1], p[2]
	return a*math.Pow(x+1, b) + c
}

// PowerLaw fits a*(x+1)^b + c with b constrained to [0.01, 2.0], capturing
// sublinear-to-mildly-superlinear capability growth. Ceiling clipping is
// applied only when opts.Ceiling is positive. A convergence failure
// returns nil, not an error.
func PowerLaw(obs []Observation, opts Options) *Result {
	s := windowed(obs, opts.WindowMonths, powerLawMinPoints)
	if s == nil {
		return nil
	}

	minY, maxY := s.ys[0], s.ys[0]
	for _, y := range s.ys {
		minY = math.Min(minY, y)
		maxY = math.Max(maxY, y)
	}
	yRange := maxY - minY
	if yRange == 0 {
		yRange = 1
	}
	maxX := s.xs[len(s.xs)-1]

	lo := []float64{0, 0.01, -1000}
	hi := []float64{yRange * 10, 2.0, maxY * 2}
	p0 := []float64{yRange / (math.Sqrt(maxX) + 1), 0.5, minY}

	popt, err := curveFit(powerLaw, s.xs, s.ys, p0, lo, hi, fitIterBudget)
	if err != nil {
		return nil
	}

	preds := make([]float64, len(s.xs))
	for i, x := range s.xs {
		preds[i] = powerLaw(x, popt)
	}
	r2 := rSquared(s.ys, preds)

	dates, fxs := s.forecastGrid(opts.ForecastMonths)
	values := make([]float64, len(fxs))
	for i, x := range fxs {
		values[i] = powerLaw(x, popt)
	}
	if opts.Ceiling > 0 {
		clipMax(values, opts.Ceiling)
	}

	rng := newRNG(opts.Seed)
	bands := bootstrap(rng, s.xs, s.ys, fxs, values, powerLawBootstrap,
		func(xb, yb []float64) (predictor, error) {
			pb, err := curveFit(powerLaw, xb, yb, popt, lo, hi, bootFitIterBudget)
			if err != nil {
				return nil, err
			}
			return func(x float64) float64 {
				v := powerLaw(x, pb)
				if opts.Ceiling > 0 {
					v = math.Min(v, opts.Ceiling)
				}
				return v
			}, nil
		})
	if opts.Ceiling > 0 {
		clipMax(bands.hi80, opts.Ceiling)
		clipMax(bands.hi95, opts.Ceiling)
	}

	return &Result{
		Method:         MethodPowerLaw,
		ForecastDates:  dates,
		ForecastValues: values,
		CI80Low:        bands.lo80,
		CI80High:       bands.hi80,
		CI95Low:        bands.lo95,
		CI95High:       bands.hi95,
		FitWindowStart: s.start,
		FitWindowEnd:   s.end,
		RSquared:       r2,
		Notes: fmt.Sprintf("Power law: %.2f * t^%.3f + %.1f, R²=%.3f",
			popt[0], popt[1], popt[2], r2),
	}
}
