// Package polyfit provides least-squares polynomial fitting shared by the
// retrieval strategies.
package polyfit

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerate is returned when the system has no least-squares solution
// (too few samples, mismatched lengths, rank-deficient design matrix).
var ErrDegenerate = errors.New("polyfit: degenerate system")

// Fit returns the coefficients, in ascending power order, of the polynomial
// of the given degree minimizing the squared error against y at positions x.
func Fit(x, y []float64, degree int) ([]float64, error) {
	if degree < 0 {
		return nil, fmt.Errorf("degree %d: %w", degree, ErrDegenerate)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("len(x)=%d len(y)=%d: %w", len(x), len(y), ErrDegenerate)
	}
	if len(x) < degree+1 {
		return nil, fmt.Errorf("%d samples for degree %d: %w", len(x), degree, ErrDegenerate)
	}

	a := mat.NewDense(len(x), degree+1, nil)
	for i, xi := range x {
		p := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, p)
			p *= xi
		}
	}

	var qr mat.QR
	qr.Factorize(a)

	var c mat.VecDense
	if err := qr.SolveVecTo(&c, false, mat.NewVecDense(len(y), y)); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrDegenerate)
	}

	coeffs := make([]float64, degree+1)
	for j := range coeffs {
		coeffs[j] = c.AtVec(j)
	}

	return coeffs, nil
}

// Eval evaluates the polynomial with ascending coefficients at x via Horner.
func Eval(coeffs []float64, x float64) float64 {
	v := 0.0
	for j := len(coeffs) - 1; j >= 0; j-- {
		v = v*x + coeffs[j]
	}

	return v
}

// EvalAll evaluates the polynomial at every position in x, writing into dst.
// dst and x must have the same length.
func EvalAll(dst, x []float64, coeffs []float64) {
	for i, xi := range x {
		dst[i] = Eval(coeffs, xi)
	}
}
