// Package neuralnet implements the feed-forward regression network, its loss,
// and the stochastic-gradient samplers that move its parameters.
package neuralnet

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidArchitecture is returned when a layer list cannot produce a (mean, log-variance) output.
var ErrInvalidArchitecture = errors.New("neuralnet: invalid architecture")

// Model maps N×D inputs to N×2 outputs (mean, log-variance) and exposes its
// parameters in a fixed order.
type Model interface {
	Forward(x mat.Matrix) *mat.Dense
	// Backward accumulates parameter gradients for the last Forward call.
	Backward(grad mat.Matrix)
	Parameters() []*Parameter
	InputDim() int
	// Clone returns an independent copy with the same parameter values and zero gradients.
	Clone() Model
}

// NetworkFactory builds a freshly initialized model for the given input width.
type NetworkFactory func(inputDim int, rng *rand.Rand) (Model, error)

type Layer struct {
	kind       LayerKind
	weights    *Parameter
	bias       *Parameter
	activation ActivationFunction
	input      *mat.Dense
	output     *mat.Dense
}

// Represents a stack of dense/activation layers ending in a (mean, log-variance) pair.
type Network struct {
	specs    []LayerSpec
	layers   []*Layer
	inputDim int
}

// NewNetwork builds the layers described by specs, applying their initializers in order.
func NewNetwork(inputDim int, specs []LayerSpec, rng *rand.Rand) (*Network, error) {
	if inputDim < 1 {
		return nil, fmt.Errorf("%w: input dimension %d", ErrInvalidArchitecture, inputDim)
	}
	nn := &Network{specs: specs, inputDim: inputDim}
	width := inputDim
	for i, spec := range specs {
		layer := &Layer{kind: spec.Kind}
		switch spec.Kind {
		case DenseLayer:
			if spec.Units < 1 {
				return nil, fmt.Errorf("%w: layer %d has %d units", ErrInvalidArchitecture, i, spec.Units)
			}
			layer.weights = NewParameter(fmt.Sprintf("dense%d.weight", i), width, spec.Units)
			layer.bias = NewParameter(fmt.Sprintf("dense%d.bias", i), 1, spec.Units)
			initialize(layer.weights, spec.WeightInit, width, spec.Units, rng)
			initialize(layer.bias, spec.BiasInit, width, spec.Units, rng)
			width = spec.Units
		case ActivationLayer:
			if spec.Activation == nil {
				return nil, fmt.Errorf("%w: layer %d has no activation", ErrInvalidArchitecture, i)
			}
			layer.activation = spec.Activation
		case AppendVarianceLayer:
			if width != 1 {
				return nil, fmt.Errorf("%w: variance appended to width %d, want 1", ErrInvalidArchitecture, width)
			}
			layer.bias = NewParameter(fmt.Sprintf("append%d.bias", i), 1, 1)
			initialize(layer.bias, spec.BiasInit, 1, 1, rng)
			width = 2
		default:
			return nil, fmt.Errorf("%w: layer %d has kind %v", ErrInvalidArchitecture, i, spec.Kind)
		}
		nn.layers = append(nn.layers, layer)
	}
	if width != 2 {
		return nil, fmt.Errorf("%w: output width %d, want 2", ErrInvalidArchitecture, width)
	}
	return nn, nil
}

func initialize(p *Parameter, init Initializer, fanIn, fanOut int, rng *rand.Rand) {
	if init != nil {
		init(p, fanIn, fanOut, rng)
	}
}

// Architecture returns hidden dense layers of the given widths, each followed
// by act, then a single mean unit and the appended log-variance.
func Architecture(hidden []int, act ActivationFunction) []LayerSpec {
	specs := make([]LayerSpec, 0, 2*len(hidden)+2)
	for _, units := range hidden {
		specs = append(specs, Dense(units), Activation(act))
	}
	return append(specs, Dense(1), AppendVariance(math.Log(1e-3)))
}

// NewNetworkFactory returns a factory for Architecture(hidden, act).
func NewNetworkFactory(hidden []int, act ActivationFunction) NetworkFactory {
	specs := Architecture(hidden, act)
	return func(inputDim int, rng *rand.Rand) (Model, error) {
		return NewNetwork(inputDim, specs, rng)
	}
}

// DefaultNetwork is three tanh layers of 50 units.
func DefaultNetwork(inputDim int, rng *rand.Rand) (Model, error) {
	return NewNetwork(inputDim, Architecture([]int{50, 50, 50}, Tanh{}), rng)
}

func (nn *Network) InputDim() int {
	return nn.inputDim
}

// Parameters lists weights and biases layer by layer.
func (nn *Network) Parameters() []*Parameter {
	var params []*Parameter
	for _, layer := range nn.layers {
		if layer.weights != nil {
			params = append(params, layer.weights)
		}
		if layer.bias != nil {
			params = append(params, layer.bias)
		}
	}
	return params
}

// Forward runs x through every layer and caches what Backward needs.
func (nn *Network) Forward(x mat.Matrix) *mat.Dense {
	activation := mat.DenseCopyOf(x)
	for _, layer := range nn.layers {
		layer.input = activation
		rows, _ := activation.Dims()
		switch layer.kind {
		case DenseLayer:
			var out mat.Dense
			out.Mul(activation, layer.weights.Matrix())
			b := layer.bias.Data()
			for i := 0; i < rows; i++ {
				floats.Add(out.RawRowView(i), b)
			}
			activation = &out
		case ActivationLayer:
			out := mat.NewDense(rows, activation.RawMatrix().Cols, nil)
			ActivateMatrix(out, layer.activation, activation)
			layer.output = out
			activation = out
		case AppendVarianceLayer:
			out := mat.NewDense(rows, 2, nil)
			logVar := layer.bias.Data()[0]
			for i := 0; i < rows; i++ {
				out.Set(i, 0, activation.At(i, 0))
				out.Set(i, 1, logVar)
			}
			activation = out
		}
	}
	return activation
}

// Backward propagates ∂L/∂output through the cached forward pass, adding to each parameter's gradient.
func (nn *Network) Backward(grad mat.Matrix) {
	delta := mat.DenseCopyOf(grad)
	for i := len(nn.layers) - 1; i >= 0; i-- {
		layer := nn.layers[i]
		rows, _ := delta.Dims()
		switch layer.kind {
		case DenseLayer:
			var dW mat.Dense
			dW.Mul(layer.input.T(), delta)
			gw := layer.weights.GradMatrix()
			gw.Add(gw, &dW)
			gb := layer.bias.GradData()
			for r := 0; r < rows; r++ {
				floats.Add(gb, delta.RawRowView(r))
			}
			if i == 0 {
				return
			}
			var dX mat.Dense
			dX.Mul(delta, layer.weights.Matrix().T())
			delta = &dX
		case ActivationLayer:
			out := mat.NewDense(rows, delta.RawMatrix().Cols, nil)
			BackpropMatrix(out, layer.activation, delta, layer.input, layer.output)
			delta = out
		case AppendVarianceLayer:
			out := mat.NewDense(rows, 1, nil)
			gb := layer.bias.GradData()
			for r := 0; r < rows; r++ {
				out.Set(r, 0, delta.At(r, 0))
				gb[0] += delta.At(r, 1)
			}
			delta = out
		}
	}
}

// Clone deep-copies the network; the copy shares nothing mutable with nn.
func (nn *Network) Clone() Model {
	clone := &Network{specs: nn.specs, inputDim: nn.inputDim, layers: make([]*Layer, len(nn.layers))}
	for i, layer := range nn.layers {
		clone.layers[i] = &Layer{
			kind:       layer.kind,
			weights:    cloneParameter(layer.weights),
			bias:       cloneParameter(layer.bias),
			activation: layer.activation,
		}
	}
	return clone
}

func cloneParameter(p *Parameter) *Parameter {
	if p == nil {
		return nil
	}
	r, c := p.Dims()
	out := NewParameter(p.Name, r, c)
	copy(out.Data(), p.Data())
	return out
}

// Debug
func (l *Layer) String() string {
	var sb strings.Builder
	sb.WriteString(l.kind.String())
	if l.weights != nil {
		r, c := l.weights.Dims()
		sb.WriteString(fmt.Sprintf(" weights=%dx%d", r, c))
	}
	if l.bias != nil {
		_, c := l.bias.Dims()
		sb.WriteString(fmt.Sprintf(" bias=%d", c))
	}
	if l.activation != nil {
		sb.WriteString(" " + l.activation.Name())
	}
	return sb.String()
}

func (nn *Network) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Input: %d\n", nn.inputDim))
	for i, layer := range nn.layers {
		sb.WriteString(fmt.Sprintf("Layer %d: %s\n", i, layer.String()))
	}
	return sb.String()
}
