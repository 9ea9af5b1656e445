package neuralnet

import (
	"math"
	"math/rand"
)

// LayerKind enumerates the closed set of layers a Network is built from.
type LayerKind int

const (
	// DenseLayer is an affine map x·W + b.
	DenseLayer LayerKind = iota
	// ActivationLayer applies an ActivationFunction elementwise.
	ActivationLayer
	// AppendVarianceLayer turns a single mean column into (mean, log-variance)
	// where the log-variance is one learned scalar shared by every row.
	AppendVarianceLayer
)

func (k LayerKind) String() string {
	switch k {
	case DenseLayer:
		return "dense"
	case ActivationLayer:
		return "activation"
	case AppendVarianceLayer:
		return "append_variance"
	}
	return "unknown"
}

// Initializer fills a freshly allocated parameter.
type Initializer func(p *Parameter, fanIn, fanOut int, rng *rand.Rand)

// LayerSpec describes one layer and how its parameters are initialized.
type LayerSpec struct {
	Kind       LayerKind
	Units      int
	Activation ActivationFunction
	WeightInit Initializer
	BiasInit   Initializer
}

// Dense describes a fully connected layer with Kaiming-normal weights and zero bias.
func Dense(units int) LayerSpec {
	return LayerSpec{Kind: DenseLayer, Units: units, WeightInit: KaimingNormal, BiasInit: Zeros}
}

// Activation describes an elementwise nonlinearity.
func Activation(act ActivationFunction) LayerSpec {
	return LayerSpec{Kind: ActivationLayer, Activation: act}
}

// AppendVariance describes the learned log-variance column, starting at logVar.
func AppendVariance(logVar float64) LayerSpec {
	return LayerSpec{Kind: AppendVarianceLayer, Units: 2, BiasInit: Constant(logVar)}
}

// KaimingNormal draws from N(0, 1/fanIn), the fan-in mode with linear gain.
func KaimingNormal(p *Parameter, fanIn, _ int, rng *rand.Rand) {
	std := 1 / math.Sqrt(float64(fanIn))
	data := p.Data()
	for i := range data {
		data[i] = rng.NormFloat64() * std
	}
}

// XavierUniform draws from U(-l, l) with l = sqrt(6 / (fanIn + fanOut)).
func XavierUniform(p *Parameter, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := p.Data()
	for i := range data {
		data[i] = 2*rng.Float64()*limit - limit
	}
}

// Zeros leaves the parameter at zero.
func Zeros(p *Parameter, _, _ int, _ *rand.Rand) {
	data := p.Data()
	for i := range data {
		data[i] = 0
	}
}

// Constant sets every entry to v.
func Constant(v float64) Initializer {
	return func(p *Parameter, _, _ int, _ *rand.Rand) {
		data := p.Data()
		for i := range data {
			data[i] = v
		}
	}
}
