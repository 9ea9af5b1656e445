package normalization

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestNormalizeRoundTrip(t *testing.T) {
	tests := []struct {
		description string
		rows, cols  int
		data        []float64
	}{
		{"single column", 4, 1, []float64{1, 2, 3, 10}},
		{"two columns with different scales", 3, 2, []float64{1, 100, 2, 250, 4, -300}},
		{"negative values", 2, 1, []float64{-5, -7}},
	}
	for _, tt := range tests {
		x := mat.NewDense(tt.rows, tt.cols, tt.data)
		n, s, err := Normalize(x)
		if err != nil {
			t.Fatalf("%s: Normalize: %v", tt.description, err)
		}
		back := Unnormalize(n, s)
		if !mat.EqualApprox(back, x, 1e-9) {
			t.Errorf("%s: round trip = %v; want %v", tt.description, mat.Formatted(back), mat.Formatted(x))
		}
	}
}

func TestNormalizeUsesPopulationStd(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{0, 2})
	n, s, err := Normalize(x)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if s.Mean[0] != 1 || s.Std[0] != 1 {
		t.Fatalf("stats = %+v; want mean 1 std 1", s)
	}
	if n.At(0, 0) != -1 || n.At(1, 0) != 1 {
		t.Errorf("normalized = %v; want [-1 1]", mat.Formatted(n))
	}
}

func TestNormalizeZeroVariance(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 5, 2, 5, 3, 5})
	if _, _, err := Normalize(x); !errors.Is(err, ErrZeroVariance) {
		t.Errorf("Normalize constant column err = %v; want ErrZeroVariance", err)
	}
	if _, _, _, err := NormalizeVector([]float64{4, 4}); !errors.Is(err, ErrZeroVariance) {
		t.Errorf("NormalizeVector constant err = %v; want ErrZeroVariance", err)
	}
}

func TestNormalizeWithDimensionMismatch(t *testing.T) {
	s := Stats{Mean: []float64{0}, Std: []float64{1}}
	if _, err := NormalizeWith(mat.NewDense(1, 2, nil), s); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v; want ErrDimensionMismatch", err)
	}
}

func TestNormalizeVectorRoundTrip(t *testing.T) {
	v := []float64{0.3, -1.2, 8.5, 2.25, 2.25}
	n, mean, std, err := NormalizeVector(v)
	if err != nil {
		t.Fatalf("NormalizeVector: %v", err)
	}
	if m := floats.Sum(n) / float64(len(n)); math.Abs(m) > 1e-12 {
		t.Errorf("normalized mean = %v; want 0", m)
	}
	back := UnnormalizeVector(n, mean, std)
	if !floats.EqualApprox(back, v, 1e-12) {
		t.Errorf("round trip = %v; want %v", back, v)
	}
}
