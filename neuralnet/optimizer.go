package neuralnet

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// ErrNonFiniteGradient is returned by Step when a scaled gradient is NaN or infinite.
var ErrNonFiniteGradient = errors.New("neuralnet: non-finite gradient")

// Sampler moves parameters in place from their accumulated gradients.
type Sampler interface {
	// ZeroGrad clears the gradients of every bound parameter.
	ZeroGrad()
	// Step performs one update.
	Step() error
}

// SamplerConfig holds the knobs a sampler is constructed with.
type SamplerConfig struct {
	// ScaleGrad multiplies the mean batch gradient, normally the number of training points.
	ScaleGrad      float64
	NumBurnInSteps int
	Lr             float64
	MDecay         float64
	Noise          float64
	Epsilon        float64
}

// SamplerFactory binds a sampler to the parameters of a model.
type SamplerFactory func(params []*Parameter, cfg SamplerConfig, rng *rand.Rand) Sampler

// SamplerByName resolves the config spelling of a sampler.
func SamplerByName(name string) (SamplerFactory, error) {
	switch name {
	case "", "adaptive_sghmc":
		return NewAdaptiveSGHMC, nil
	case "sgld":
		return NewSGLD, nil
	}
	return nil, fmt.Errorf("neuralnet: unknown sampler %q", name)
}

type sghmcState struct {
	tau      []float64
	g        []float64
	vHat     []float64
	momentum []float64
}

// AdaptiveSGHMC is stochastic gradient Hamiltonian Monte Carlo whose mass
// matrix and friction are estimated during burn-in and frozen afterwards.
type AdaptiveSGHMC struct {
	params    []*Parameter
	state     []sghmcState
	cfg       SamplerConfig
	rng       *rand.Rand
	iteration int
}

// NewAdaptiveSGHMC returns an AdaptiveSGHMC sampler as a Sampler.
func NewAdaptiveSGHMC(params []*Parameter, cfg SamplerConfig, rng *rand.Rand) Sampler {
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = 1e-16
	}
	if cfg.ScaleGrad == 0 {
		cfg.ScaleGrad = 1
	}
	s := &AdaptiveSGHMC{params: params, cfg: cfg, rng: rng, state: make([]sghmcState, len(params))}
	for i, p := range params {
		n := p.Size()
		s.state[i] = sghmcState{
			tau:      ones(n),
			g:        ones(n),
			vHat:     ones(n),
			momentum: make([]float64, n),
		}
	}
	return s
}

func ones(n int) []float64 {
	out := make([]float64, n)
	floats.AddConst(1, out)
	return out
}

func (s *AdaptiveSGHMC) ZeroGrad() {
	for _, p := range s.params {
		p.ZeroGrad()
	}
}

// Iteration is the number of completed steps.
func (s *AdaptiveSGHMC) Iteration() int {
	return s.iteration
}

// BurningIn reports whether the next step still adapts the preconditioner.
func (s *AdaptiveSGHMC) BurningIn() bool {
	return s.iteration < s.cfg.NumBurnInSteps
}

func (s *AdaptiveSGHMC) Step() error {
	if err := checkGradients(s.params, s.cfg.ScaleGrad); err != nil {
		return err
	}
	s.iteration++
	lr, mdecay, eps, noise := s.cfg.Lr, s.cfg.MDecay, s.cfg.Epsilon, s.cfg.Noise
	lr2 := lr * lr
	burnIn := s.iteration <= s.cfg.NumBurnInSteps
	for k, p := range s.params {
		st := s.state[k]
		data := p.Data()
		grad := p.GradData()
		for i := range data {
			gradient := grad[i] * s.cfg.ScaleGrad
			tauInv := 1 / (st.tau[i] + 1)
			if burnIn {
				st.tau[i] += -st.tau[i]*(st.g[i]*st.g[i]/(st.vHat[i]+eps)) + 1
				st.g[i] += -st.g[i]*tauInv + tauInv*gradient
				st.vHat[i] += -st.vHat[i]*tauInv + tauInv*gradient*gradient
			}
			minv := 1 / (math.Sqrt(st.vHat[i]) + eps)
			noiseVar := 2*lr2*mdecay*minv - 2*lr2*lr*minv*minv*noise - lr2*lr2
			sigma := math.Sqrt(math.Max(noiseVar, 1e-16))
			st.momentum[i] += -lr2*minv*gradient - mdecay*st.momentum[i] + s.rng.NormFloat64()*sigma
		}
		floats.Add(data, st.momentum)
	}
	return nil
}

// SGLD is stochastic gradient Langevin dynamics: a half gradient step plus N(0, lr) noise.
type SGLD struct {
	params []*Parameter
	cfg    SamplerConfig
	rng    *rand.Rand
	noise  [][]float64
}

// NewSGLD returns an SGLD sampler as a Sampler.
func NewSGLD(params []*Parameter, cfg SamplerConfig, rng *rand.Rand) Sampler {
	if cfg.ScaleGrad == 0 {
		cfg.ScaleGrad = 1
	}
	noise := make([][]float64, len(params))
	for i, p := range params {
		noise[i] = make([]float64, p.Size())
	}
	return &SGLD{params: params, cfg: cfg, rng: rng, noise: noise}
}

func (o *SGLD) ZeroGrad() {
	for _, p := range o.params {
		p.ZeroGrad()
	}
}

func (o *SGLD) Step() error {
	if err := checkGradients(o.params, o.cfg.ScaleGrad); err != nil {
		return err
	}
	sigma := math.Sqrt(o.cfg.Lr)
	for k, p := range o.params {
		noise := o.noise[k]
		for i := range noise {
			noise[i] = o.rng.NormFloat64()
		}
		data := p.Data()
		floats.AddScaled(data, -0.5*o.cfg.Lr*o.cfg.ScaleGrad, p.GradData())
		floats.AddScaled(data, -sigma, noise)
	}
	return nil
}

func checkGradients(params []*Parameter, scale float64) error {
	for _, p := range params {
		for _, g := range p.GradData() {
			v := g * scale
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w in %s", ErrNonFiniteGradient, p.Name)
			}
		}
	}
	return nil
}
