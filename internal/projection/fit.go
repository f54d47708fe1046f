package projection

import (
	"math"

	"github.com/rotisserie/eris"
)

// ols fits y = intercept + slope*x by ordinary least squares.
// A degenerate x column (all identical) yields a flat fit at the mean.
func ols(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return 0, meanY
	}
	slope = sxy / sxx
	return slope, meanY - slope*meanX
}

// rSquared is 1 - SSres/SStot, zero for a constant series.
func rSquared(ys, preds []float64) float64 {
	var mean float64
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))

	var ssRes, ssTot float64
	for i, y := range ys {
		ssRes += (y - preds[i]) * (y - preds[i])
		ssTot += (y - mean) * (y - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// modelFunc evaluates a parametric curve at x.
type modelFunc func(x float64, p []float64) float64

// curveFit runs bounded Levenberg-Marquardt least squares: parameters are
// clamped into [lo, hi] after every step, the Jacobian is taken by central
// differences, and the damping factor adapts on accept/reject. Returns an
// error when the solve does not converge within maxIter accepted steps --
// callers translate that into "no projection".
func curveFit(f modelFunc, xs, ys, p0, lo, hi []float64, maxIter int) ([]float64, error) {
	np := len(p0)
	p := make([]float64, np)
	copy(p, p0)
	clamp(p, lo, hi)

	sse := sumSquares(f, xs, ys, p)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return nil, eris.New("projection: initial guess not evaluable")
	}

	lambda := 1e-3
	const (
		lambdaMax = 1e12
		relTol    = 1e-10
	)

	for iter := 0; iter < maxIter; iter++ {
		jt, jtr := normalEquations(f, xs, ys, p)

		stepped := false
		for lambda < lambdaMax {
			// Damped normal matrix: JtJ + lambda*diag(JtJ).
			a := make([][]float64, np)
			for i := 0; i < np; i++ {
				a[i] = make([]float64, np)
				copy(a[i], jt[i])
				diag := jt[i][i]
				if diag == 0 {
					diag = 1e-12
				}
				a[i][i] += lambda * diag
			}

			delta, err := solve(a, jtr)
			if err != nil {
				lambda *= 10
				continue
			}

			trial := make([]float64, np)
			for i := range p {
				trial[i] = p[i] + delta[i]
			}
			clamp(trial, lo, hi)

			trialSSE := sumSquares(f, xs, ys, trial)
			if !math.IsNaN(trialSSE) && trialSSE < sse {
				improvement := sse - trialSSE
				p = trial
				sse = trialSSE
				lambda = math.Max(lambda/10, 1e-12)
				stepped = true
				if improvement <= relTol*(sse+relTol) {
					return p, nil
				}
				break
			}
			lambda *= 10
		}

		if !stepped {
			// No damping level yields an improvement: local optimum.
			if sse < math.Inf(1) && iter > 0 {
				return p, nil
			}
			return nil, eris.New("projection: fit did not converge")
		}
	}
	return nil, eris.New("projection: iteration budget exhausted")
}

// normalEquations builds JtJ and Jt*r for the current parameters using
// central-difference derivatives.
func normalEquations(f modelFunc, xs, ys, p []float64) (jtj [][]float64, jtr []float64) {
	np := len(p)
	n := len(xs)

	jac := make([][]float64, n)
	res := make([]float64, n)
	for i := 0; i < n; i++ {
		jac[i] = make([]float64, np)
		res[i] = ys[i] - f(xs[i], p)
		for j := 0; j < np; j++ {
			h := 1e-6 * math.Max(1, math.Abs(p[j]))
			pj := p[j]
			p[j] = pj + h
			up := f(xs[i], p)
			p[j] = pj - h
			down := f(xs[i], p)
			p[j] = pj
			jac[i][j] = (up - down) / (2 * h)
		}
	}

	jtj = make([][]float64, np)
	jtr = make([]float64, np)
	for a := 0; a < np; a++ {
		jtj[a] = make([]float64, np)
		for b := 0; b < np; b++ {
			var s float64
			for i := 0; i < n; i++ {
				s += jac[i][a] * jac[i][b]
			}
			jtj[a][b] = s
		}
		var s float64
		for i := 0; i < n; i++ {
			s += jac[i][a] * res[i]
		}
		jtr[a] = s
	}
	return jtj, jtr
}

// solve performs Gaussian elimination with partial pivoting on a copy of a.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	m := make([][]float64, n)
	for i := range a {
		m[i] = make([]float64, n+1)
		copy(m[i], a[i])
		m[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-14 {
			return nil, eris.New("projection: singular normal matrix")
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < n; r++ {
			factor := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		s := m[i][n]
		for j := i + 1; j < n; j++ {
			s -= m[i][j] * x[j]
		}
		x[i] = s / m[i][i]
	}
	return x, nil
}

func sumSquares(f modelFunc, xs, ys, p []float64) float64 {
	var sse float64
	for i := range xs {
		d := ys[i] - f(xs[i], p)
		sse += d * d
	}
	return sse
}

func clamp(p, lo, hi []float64) {
	for i := range p {
		if p[i] < lo[i] {
			p[i] = lo[i]
		}
		if p[i] > hi[i] {
			p[i] = hi[i]
		}
	}
}
