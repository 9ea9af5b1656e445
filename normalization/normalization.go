// Package normalization scales data to zero mean and unit variance and back.
package normalization

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrZeroVariance is returned when a column is constant and cannot be scaled.
	ErrZeroVariance = errors.New("normalization: zero variance column")
	// ErrDimensionMismatch is returned when stats and data disagree on column count.
	ErrDimensionMismatch = errors.New("normalization: dimension mismatch")
)

// Stats holds the per-column mean and population standard deviation.
type Stats struct {
	Mean []float64
	Std  []float64
}

// Dim returns the number of columns the stats describe.
func (s Stats) Dim() int {
	return len(s.Mean)
}

// Normalize computes per-column stats over x and returns (x - mean) / std.
func Normalize(x mat.Matrix) (*mat.Dense, Stats, error) {
	r, c := x.Dims()
	s := Stats{Mean: make([]float64, c), Std: make([]float64, c)}
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, x)
		s.Mean[j], s.Std[j] = stat.PopMeanStdDev(col, nil)
		if s.Std[j] == 0 {
			return nil, Stats{}, fmt.Errorf("%w: column %d", ErrZeroVariance, j)
		}
	}
	out, err := NormalizeWith(x, s)
	if err != nil {
		return nil, Stats{}, err
	}
	return out, s, nil
}

// NormalizeWith applies precomputed stats to x.
func NormalizeWith(x mat.Matrix, s Stats) (*mat.Dense, error) {
	r, c := x.Dims()
	if c != s.Dim() || len(s.Std) != c {
		return nil, fmt.Errorf("%w: data has %d columns, stats have %d", ErrDimensionMismatch, c, s.Dim())
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Std[j]
	}, x)
	return out, nil
}

// Unnormalize maps normalized data back to the original scale: x*std + mean.
func Unnormalize(x mat.Matrix, s Stats) *mat.Dense {
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return v*s.Std[j] + s.Mean[j]
	}, x)
	return out
}

// NormalizeVector is Normalize for a single column held in a slice.
func NormalizeVector(v []float64) ([]float64, float64, float64, error) {
	mean, std := stat.PopMeanStdDev(v, nil)
	if std == 0 {
		return nil, 0, 0, ErrZeroVariance
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = (x - mean) / std
	}
	return out, mean, std, nil
}

// UnnormalizeVector is the inverse of NormalizeVector.
func UnnormalizeVector(v []float64, mean, std float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x*std + mean
	}
	return out
}
