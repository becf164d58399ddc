package series

import (
	"errors"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

// MaxOrder is the highest difference order the smoother supports.
const MaxOrder = 3

// diffCoeffs are the finite-difference stencils per order; index is order-1.
var diffCoeffs = [][]float64{
	{-1, 1},
	{1, -2, 1},
	{-1, 3, -3, 1},
}

// minRobustWeight keeps every observed day in the data term so the system
// stays positive definite after reweighting.
const minRobustWeight = 0.01

// Whittaker is a weighted Whittaker-Henderson smoother. It minimizes
//
//	sum w_i (y_i - z_i)^2 + lambda * sum (D^p z)^2
//
// by solving the banded system (W + lambda D'D) z = W y.
type Whittaker struct {
	lambda           float64
	order            int
	robustIterations int
}

// NewWhittaker validates the penalty settings.
func NewWhittaker(lambda float64, order, robustIterations int) (*Whittaker, error) {
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) || lambda <= 0 {
		return nil, &ConfigurationError{Field: "lambda", Reason: "must be a positive finite number"}
	}
	if order < 1 || order > MaxOrder {
		return nil, &ConfigurationError{Field: "order", Reason: "must be between 1 and 3"}
	}
	if robustIterations < 0 {
		return nil, &ConfigurationError{Field: "robust_iterations", Reason: "must not be negative"}
	}
	return &Whittaker{lambda: lambda, order: order, robustIterations: robustIterations}, nil
}

// Smooth fits every position of y. Positions with zero weight carry no data
// and are filled by the roughness penalty alone; their y may be NaN.
func (w *Whittaker) Smooth(y, weights []float64) ([]float64, error) {
	if len(y) != len(weights) {
		return nil, eris.Errorf("series: smoother got %d values and %d weights", len(y), len(weights))
	}
	if len(y) == 0 {
		return nil, nil
	}

	penalty := differencePenalty(len(y), w.order)
	z, err := w.solve(y, weights, penalty)
	if err != nil {
		return nil, err
	}

	for it := 0; it < w.robustIterations; it++ {
		robust, ok := bisquareWeights(y, weights, z)
		if !ok {
			break
		}
		if z, err = w.solve(y, robust, penalty); err != nil {
			return nil, err
		}
	}
	return z, nil
}

// differencePenalty builds the upper bands of D'D for a difference matrix of
// the given order: band[d][i] holds (D'D)[i][i+d].
func differencePenalty(n, order int) [][]float64 {
	k := min(order, n-1)
	band := make([][]float64, k+1)
	for d := range band {
		band[d] = make([]float64, n)
	}
	if n <= order {
		return band
	}

	c := diffCoeffs[order-1]
	for r := 0; r < n-order; r++ {
		for a := 0; a <= order; a++ {
			for b := a; b <= order; b++ {
				band[b-a][r+a] += c[a] * c[b]
			}
		}
	}
	return band
}

func (w *Whittaker) solve(y, weights []float64, penalty [][]float64) ([]float64, error) {
	n := len(y)
	k := len(penalty) - 1

	a := mat.NewSymBandDense(n, k, nil)
	rhs := make([]float64, n)
	for i := 0; i < n; i++ {
		for d := 0; d <= k && i+d < n; d++ {
			v := w.lambda * penalty[d][i]
			if d == 0 {
				v += weights[i]
			}
			a.SetSymBand(i, i+d, v)
		}
		if weights[i] > 0 {
			rhs[i] = weights[i] * y[i]
		}
	}

	var chol mat.BandCholesky
	if ok := chol.Factorize(a); !ok {
		return nil, eris.New("series: smoother system is not positive definite")
	}

	var z mat.VecDense
	if err := chol.SolveVecTo(&z, mat.NewVecDense(n, rhs)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, eris.Wrap(err, "series: solve smoother system")
		}
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = z.AtVec(i)
	}
	return out, nil
}

// bisquareWeights downweights large residuals with Tukey's biweight, scaled
// by six times the median absolute residual. ok is false when the fit is
// already exact and reweighting would change nothing.
func bisquareWeights(y, base, z []float64) ([]float64, bool) {
	var residuals stats.Float64Data
	for i := range y {
		if base[i] > 0 {
			residuals = append(residuals, math.Abs(y[i]-z[i]))
		}
	}
	mar, err := stats.Median(residuals)
	if err != nil || mar <= 1e-12 {
		return nil, false
	}

	scale := 6 * mar
	out := make([]float64, len(y))
	for i := range y {
		if base[i] <= 0 {
			continue
		}
		u := math.Abs(y[i]-z[i]) / scale
		wt := 0.0
		if u < 1 {
			wt = (1 - u*u) * (1 - u*u)
		}
		out[i] = base[i] * max(wt, minRobustWeight)
	}
	return out, true
}
