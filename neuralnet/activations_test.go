package neuralnet

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestReLUActivate(t *testing.T) {
	r := ReLU{}
	if got := r.Activate(-1); got != 0 {
		t.Errorf("ReLU.Activate(-1) = %v; want 0", got)
	}
	if got := r.Activate(2); got != 2 {
		t.Errorf("ReLU.Activate(2) = %v; want 2", got)
	}
}

func TestSigmoidActivate(t *testing.T) {
	s := Sigmoid{}
	got := s.Activate(0)
	want := 0.5
	if diff := got - want; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("Sigmoid.Activate(0) = %v; want approx %v", got, want)
	}
}

func TestLinearActivate(t *testing.T) {
	l := Linear{}
	input := 3.14
	if got := l.Activate(input); got != input {
		t.Errorf("Linear.Activate(%v) = %v; want %v", input, got, input)
	}
}

func TestTanhDerivative(t *testing.T) {
	th := Tanh{}
	for _, x := range []float64{-2, -0.5, 0, 0.3, 1.7} {
		h := 1e-6
		numeric := (th.Activate(x+h) - th.Activate(x-h)) / (2 * h)
		if math.Abs(numeric-th.Derivative(x)) > 1e-6 {
			t.Errorf("Tanh.Derivative(%v) = %v; want approx %v", x, th.Derivative(x), numeric)
		}
	}
}

func TestActivationByName(t *testing.T) {
	tests := []struct {
		description string
		name        string
		want        string
		wantErr     bool
	}{
		{"empty defaults to tanh", "", "tanh", false},
		{"relu", "relu", "relu", false},
		{"leaky relu", "leaky_relu", "leaky_relu", false},
		{"sigmoid", "sigmoid", "sigmoid", false},
		{"linear", "linear", "linear", false},
		{"unknown", "softmax", "", true},
	}
	for _, tt := range tests {
		act, err := ActivationByName(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.description)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.description, err)
		}
		if act.Name() != tt.want {
			t.Errorf("%s: got %s; want %s", tt.description, act.Name(), tt.want)
		}
	}
}

func TestMatrixActivationMatchesScalar(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{-2, -0.5, 0, 0.3, 1, 4})
	delta := mat.NewDense(2, 3, []float64{1, -2, 0.5, 3, -1, 2})
	tests := []struct {
		description string
		act         ActivationFunction
	}{
		{"relu", ReLU{}},
		{"leaky relu", NewLeakyReLU(0.1)},
		{"sigmoid", Sigmoid{}},
		{"tanh", Tanh{}},
		{"linear", Linear{}},
	}
	for _, tt := range tests {
		out := mat.NewDense(2, 3, nil)
		ActivateMatrix(out, tt.act, x)
		grad := mat.NewDense(2, 3, nil)
		BackpropMatrix(grad, tt.act, delta, x, out)
		for r := 0; r < 2; r++ {
			for c := 0; c < 3; c++ {
				v := x.At(r, c)
				if !floatEquals(out.At(r, c), tt.act.Activate(v), 1e-12) {
					t.Errorf("%s: activation at (%d,%d) = %v; want %v", tt.description, r, c, out.At(r, c), tt.act.Activate(v))
				}
				want := delta.At(r, c) * tt.act.Derivative(v)
				if !floatEquals(grad.At(r, c), want, 1e-12) {
					t.Errorf("%s: gradient at (%d,%d) = %v; want %v", tt.description, r, c, grad.At(r, c), want)
				}
			}
		}
	}
}
