// Package regression provides the supervised regressor behind both pipeline
// models. The rest of the system only sees the Regressor interface, so the
// ridge implementation here can be swapped for any other tabular regressor.
package regression

import (
	"errors"
	"fmt"
	"math"
)

var ErrNotTrained = errors.New("regressor not trained")

// Regressor is an opaque supervised regressor: deterministic given the same
// inputs.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// Ridge is least-squares regression with L2 regularization and an implicit
// bias term. Regularization keeps the normal-equation matrix invertible even
// with collinear one-hot feature blocks.
type Ridge struct {
	Lambda float64

	theta []float64 // len = feature dim + 1, bias last
}

func NewRidge(lambda float64) *Ridge {
	if lambda <= 0 {
		lambda = 1e-6
	}
	return &Ridge{Lambda: lambda}
}

func (r *Ridge) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("empty training set")
	}
	if len(X) != len(y) {
		return fmt.Errorf("feature/target length mismatch: %d vs %d", len(X), len(y))
	}

	dim := len(X[0]) + 1 // trailing bias column

	// Normal equations: (X'X + lambda*I) theta = X'y.
	xtx := make([][]float64, dim)
	for i := range xtx {
		xtx[i] = make([]float64, dim)
	}
	xty := make([]float64, dim)

	row := make([]float64, dim)
	for n, features := range X {
		if len(features) != dim-1 {
			return fmt.Errorf("row %d has %d features, want %d", n, len(features), dim-1)
		}
		copy(row, features)
		row[dim-1] = 1.0

		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				xtx[i][j] += row[i] * row[j]
			}
			xty[i] += row[i] * y[n]
		}
	}

	for i := 0; i < dim; i++ {
		xtx[i][i] += r.Lambda
	}

	theta, err := solve(xtx, xty)
	if err != nil {
		return fmt.Errorf("solve normal equations: %w", err)
	}

	r.theta = theta
	return nil
}

func (r *Ridge) Predict(X [][]float64) ([]float64, error) {
	if r.theta == nil {
		return nil, ErrNotTrained
	}

	dim := len(r.theta)
	out := make([]float64, len(X))
	for n, features := range X {
		if len(features) != dim-1 {
			return nil, fmt.Errorf("row %d has %d features, want %d", n, len(features), dim-1)
		}
		sum := r.theta[dim-1]
		for i, v := range features {
			sum += r.theta[i] * v
		}
		out[n] = sum
	}

	return out, nil
}

// solve runs Gauss-Jordan elimination with partial pivoting on [A | b].
func solve(A [][]float64, b []float64) ([]float64, error) {
	n := len(A)

	aug := make([][]float64, n)
	for i := range aug {
		aug[i] = make([]float64, n+1)
		copy(aug[i], A[i])
		aug[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		// Pick the largest pivot in this column for stability.
		pivotRow := col
		for i := col + 1; i < n; i++ {
			if math.Abs(aug[i][col]) > math.Abs(aug[pivotRow][col]) {
				pivotRow = i
			}
		}
		if math.Abs(aug[pivotRow][col]) < 1e-12 {
			return nil, errors.New("matrix is singular")
		}
		aug[col], aug[pivotRow] = aug[pivotRow], aug[col]

		pivot := aug[col][col]
		for j := col; j <= n; j++ {
			aug[col][j] /= pivot
		}

		for i := 0; i < n; i++ {
			if i == col {
				continue
			}
			factor := aug[i][col]
			if factor == 0 {
				continue
			}
			for j := col; j <= n; j++ {
				aug[i][j] -= factor * aug[col][j]
			}
		}
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = aug[i][n]
	}
	return out, nil
}
