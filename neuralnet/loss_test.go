package neuralnet

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

func TestGaussianNLLCompute(t *testing.T) {
	loss := GaussianNLL{}
	// unit variance: nll = 0.5*(y-mu)^2 averaged
	output := mat.NewDense(2, 2, []float64{1, 0, 3, 0})
	target := []float64{2, 3}
	got := loss.Compute(output, target)
	want := 0.25
	if diff := got - want; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("GaussianNLL.Compute = %v; want approx %v", got, want)
	}
}

func TestGaussianNLLLogVarianceTerm(t *testing.T) {
	loss := GaussianNLL{}
	output := mat.NewDense(1, 2, []float64{0, math.Log(4)})
	got := loss.Compute(output, []float64{2})
	// 0.5*4/4 + 0.5*log(4)
	want := 0.5 + 0.5*math.Log(4)
	if diff := got - want; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("GaussianNLL.Compute = %v; want approx %v", got, want)
	}
}

func TestGaussianNLLGradientMatchesFiniteDifference(t *testing.T) {
	loss := GaussianNLL{}
	target := []float64{0.5, -1.2, 2}
	x := []float64{0.1, -0.3, -1, 0.2, 1.5, 1.1}
	f := func(v []float64) float64 {
		return loss.Compute(mat.NewDense(3, 2, v), target)
	}
	numeric := fd.Gradient(nil, f, x, &fd.Settings{Formula: fd.Central})
	analytic := loss.Gradient(mat.NewDense(3, 2, x), target)
	for i, want := range numeric {
		got := analytic.At(i/2, i%2)
		if math.Abs(got-want) > 1e-5 {
			t.Errorf("gradient[%d] = %v; want approx %v", i, got, want)
		}
	}
}

func TestGaussianNLLExtremeLogVariance(t *testing.T) {
	loss := GaussianNLL{}
	output := mat.NewDense(2, 2, []float64{0, 800, 0, -800})
	grad := loss.Gradient(output, []float64{1, 0})
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if v := grad.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("gradient[%d][%d] = %v; want finite", i, j, v)
			}
		}
	}
	if v := loss.Compute(output, []float64{1, 0}); math.IsNaN(v) || math.IsInf(v, 0) {
		t.Errorf("loss = %v; want finite", v)
	}
}

func TestMeanSquaredError(t *testing.T) {
	mse := MeanSquaredError{}
	output := mat.NewDense(2, 2, []float64{1, 9, 3, -9})
	if got := mse.Compute(output, []float64{2, 5}); got != 2.5 {
		t.Errorf("MeanSquaredError.Compute = %v; want 2.5", got)
	}
	grad := mse.Gradient(output, []float64{2, 5})
	if grad.At(0, 0) != -1 || grad.At(1, 0) != -2 || grad.At(0, 1) != 0 {
		t.Errorf("MeanSquaredError.Gradient = %v", mat.Formatted(grad))
	}
}
