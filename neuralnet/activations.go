package neuralnet

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ActivationFunction is applied elementwise after a dense layer.
// Derivative takes the pre-activation value.
type ActivationFunction interface {
	Activate(x float64) float64
	Derivative(x float64) float64
	Name() string
}

// outputDerivative is implemented by activations whose derivative can be read
// off the activated value, so the backward pass skips re-evaluating them.
type outputDerivative interface {
	DerivativeFromOutput(y float64) float64
}

type ReLU struct{}

func (r ReLU) Activate(x float64) float64 {
	return math.Max(x, 0)
}

func (r ReLU) Derivative(x float64) float64 {
	return r.DerivativeFromOutput(r.Activate(x))
}

func (r ReLU) DerivativeFromOutput(y float64) float64 {
	if y > 0 {
		return 1
	}
	return 0
}

func (r ReLU) Name() string { return "relu" }

type LeakyReLU struct {
	alpha float64
}

func NewLeakyReLU(alpha float64) LeakyReLU {
	return LeakyReLU{alpha: alpha}
}

func (l LeakyReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return l.alpha * x
}

func (l LeakyReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return l.alpha
}

func (l LeakyReLU) Name() string { return "leaky_relu" }

type Sigmoid struct{}

func (s Sigmoid) Activate(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func (s Sigmoid) Derivative(x float64) float64 {
	return s.DerivativeFromOutput(s.Activate(x))
}

func (s Sigmoid) DerivativeFromOutput(y float64) float64 {
	return y * (1 - y)
}

func (s Sigmoid) Name() string { return "sigmoid" }

type Tanh struct{}

func (t Tanh) Activate(x float64) float64 {
	return math.Tanh(x)
}

func (t Tanh) Derivative(x float64) float64 {
	return t.DerivativeFromOutput(t.Activate(x))
}

func (t Tanh) DerivativeFromOutput(y float64) float64 {
	return 1 - y*y
}

func (t Tanh) Name() string { return "tanh" }

type Linear struct{}

func (t Linear) Activate(x float64) float64 {
	return x
}

func (t Linear) Derivative(x float64) float64 {
	return 1
}

func (t Linear) Name() string { return "linear" }

// ActivateMatrix writes act(x) elementwise into dst, which must match x's shape.
func ActivateMatrix(dst *mat.Dense, act ActivationFunction, x *mat.Dense) {
	if _, ok := act.(Linear); ok {
		dst.Copy(x)
		return
	}
	rows, _ := x.Dims()
	for r := 0; r < rows; r++ {
		out := dst.RawRowView(r)
		for c, v := range x.RawRowView(r) {
			out[c] = act.Activate(v)
		}
	}
}

// BackpropMatrix writes delta ⊙ act'(input) into dst. output must be
// act(input) as produced by ActivateMatrix.
func BackpropMatrix(dst *mat.Dense, act ActivationFunction, delta, input, output *mat.Dense) {
	if _, ok := act.(Linear); ok {
		dst.Copy(delta)
		return
	}
	od, fromOutput := act.(outputDerivative)
	rows, _ := delta.Dims()
	for r := 0; r < rows; r++ {
		res, in, out := dst.RawRowView(r), input.RawRowView(r), output.RawRowView(r)
		for c, d := range delta.RawRowView(r) {
			if fromOutput {
				res[c] = d * od.DerivativeFromOutput(out[c])
			} else {
				res[c] = d * act.Derivative(in[c])
			}
		}
	}
}

// ActivationByName resolves the config spelling of an activation.
func ActivationByName(name string) (ActivationFunction, error) {
	switch name {
	case "", "tanh":
		return Tanh{}, nil
	case "relu":
		return ReLU{}, nil
	case "leaky_relu":
		return NewLeakyReLU(0.01), nil
	case "sigmoid":
		return Sigmoid{}, nil
	case "linear":
		return Linear{}, nil
	}
	return nil, fmt.Errorf("neuralnet: unknown activation %q", name)
}
