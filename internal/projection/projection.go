// Package projection fits trend models to benchmark frontier series and
// produces forecasts with bootstrapped confidence bands.
package projection

import (
	"math/rand/v2"
	"sort"
	"time"

	"github.com/rotisserie/eris"
)

// Method identifies a fitting strategy.
type Method string

const (
	MethodLinear     Method = "linear"
	MethodSaturation Method = "saturation"
	MethodPowerLaw   Method = "power_law"
)

// Methods lists the strategies in dispatch order.
var Methods = []Method{MethodLinear, MethodSaturation, MethodPowerLaw}

// Observation is one (date, score) pair of an input series.
type Observation struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}

// Options configures a projection run.
type Options struct {
	// WindowMonths bounds the trailing history used for fitting.
	WindowMonths int
	// ForecastMonths is the horizon, one point per 30-day step.
	ForecastMonths int
	// Ceiling is the saturation bound. Required for the saturation method;
	// optional (<= 0 disables clipping) for power law; ignored by linear.
	Ceiling float64
	// Seed drives bootstrap resampling. Zero means time-seeded.
	Seed uint64
}

// Result is the output contract shared by all methods. A nil *Result from a
// fitting function means "insufficient signal", never an error.
type Result struct {
	BenchmarkID    string      `json:"benchmark_id"`
	Method         Method      `json:"method"`
	ForecastDates  []time.Time `json:"forecast_dates"`
	ForecastValues []float64   `json:"forecast_values"`
	CI80Low        []float64   `json:"ci_80_low"`
	CI80High       []float64   `json:"ci_80_high"`
	CI95Low        []float64   `json:"ci_95_low"`
	CI95High       []float64   `json:"ci_95_high"`
	FitWindowStart time.Time   `json:"fit_window_start"`
	FitWindowEnd   time.Time   `json:"fit_window_end"`
	RSquared       float64     `json:"r_squared"`
	Notes          string      `json:"notes"`
}

// Project dispatches to the named method. An unknown method is an error;
// a nil result with nil error means the series carried too little signal.
func Project(benchmarkID string, method Method, obs []Observation, opts Options) (*Result, error) {
	var res *Result
	switch method {
	case MethodLinear:
		res = Linear(obs, opts)
	case MethodSaturation:
		res = Saturation(obs, opts)
	case MethodPowerLaw:
		res = PowerLaw(obs, opts)
	default:
		return nil, eris.Errorf("projection: unknown method %q", string(method))
	}
	if res != nil {
		res.BenchmarkID = benchmarkID
	}
	return res, nil
}

// series is an input converted to day offsets inside the fitting window.
type series struct {
	xs, ys []float64
	start  time.Time
	end    time.Time
}

// windowed sorts obs, trims to the trailing window of 30-day months, and
// converts dates to days since the window's first observation. Returns nil
// when fewer than minPoints survive.
func windowed(obs []Observation, windowMonths, minPoints int) *series {
	if len(obs) < minPoints {
		return nil
	}

	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	maxDate := sorted[len(sorted)-1].Date
	minDate := maxDate.AddDate(0, 0, -30*windowMonths)

	var kept []Observation
	for _, o := range sorted {
		if !o.Date.Before(minDate) {
			kept = append(kept, o)
		}
	}
	if len(kept) < minPoints {
		return nil
	}

	start := kept[0].Date
	s := &series{start: start, end: maxDate}
	for _, o := range kept {
		s.xs = append(s.xs, daysBetween(start, o.Date))
		s.ys = append(s.ys, o.Score)
	}
	return s
}

// forecastGrid yields one point per 30-day step past the window end,
// with x offsets relative to the window start.
func (s *series) forecastGrid(months int) (dates []time.Time, xs []float64) {
	current := s.end
	for i := 0; i < months; i++ {
		current = current.AddDate(0, 0, 30)
		dates = append(dates, current)
		xs = append(xs, daysBetween(s.start, current))
	}
	return dates, xs
}

func daysBetween(start, t time.Time) float64 {
	return t.Sub(start).Hours() / 24
}

// newRNG builds the bootstrap RNG. A zero seed gives a fresh sequence
// per run; any other seed reproduces intervals exactly.
func newRNG(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
