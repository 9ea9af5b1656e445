// Package bnn trains a Bayesian neural network for regression by recording
// weight snapshots along a stochastic-gradient MCMC trajectory, and predicts
// with the resulting ensemble.
package bnn

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"bnn/neuralnet"
	"bnn/normalization"
)

// State is the phase of a Bohamiann instance.
type State int

const (
	Idle State = iota
	Normalizing
	BurnIn
	Sampling
	Trained
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Normalizing:
		return "normalizing"
	case BurnIn:
		return "burn-in"
	case Sampling:
		return "sampling"
	case Trained:
		return "trained"
	}
	return "unknown"
}

// Config captures construction-time settings.
type Config struct {
	NetworkFactory  neuralnet.NetworkFactory
	SamplerFactory  neuralnet.SamplerFactory
	BatchSize       int
	NormalizeInput  bool
	NormalizeOutput bool
	// Metrics are reported alongside NLL in verbose progress lines.
	Metrics []neuralnet.Metric
	Shuffle bool
	Seed    int64
	Logger  *log.Logger
}

// DefaultConfig uses the default network and adaptive SGHMC with
// batches of 20 and normalized inputs and targets.
func DefaultConfig() Config {
	return Config{
		NetworkFactory:  neuralnet.DefaultNetwork,
		SamplerFactory:  neuralnet.NewAdaptiveSGHMC,
		BatchSize:       20,
		NormalizeInput:  true,
		NormalizeOutput: true,
		Metrics:         []neuralnet.Metric{neuralnet.MSE{}},
		Seed:            1,
	}
}

// TrainOptions are the per-run sampling knobs.
type TrainOptions struct {
	NumSteps       int
	KeepEvery      int
	NumBurnInSteps int
	Lr             float64
	Noise          float64
	MDecay         float64
	Verbose        bool
	// LogEvery is the progress cadence in steps when Verbose is set.
	LogEvery int
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		NumSteps:       13000,
		KeepEvery:      100,
		NumBurnInSteps: 3000,
		Lr:             1e-2,
		Noise:          0,
		MDecay:         0.05,
		LogEvery:       512,
	}
}

func (o TrainOptions) validate() error {
	if o.NumSteps < 1 {
		return fmt.Errorf("%w: num_steps must be > 0 (got %d)", ErrInvalidOptions, o.NumSteps)
	}
	if o.KeepEvery < 1 {
		return fmt.Errorf("%w: keep_every must be > 0 (got %d)", ErrInvalidOptions, o.KeepEvery)
	}
	if o.NumBurnInSteps < 0 {
		return fmt.Errorf("%w: num_burn_in_steps must be >= 0 (got %d)", ErrInvalidOptions, o.NumBurnInSteps)
	}
	return nil
}

// Bohamiann is a Bayesian neural network trained with SG-MCMC.
// It owns one live model that both Train and Predict mutate, so calls on the
// same instance must not overlap.
type Bohamiann struct {
	cfg   Config
	rng   *rand.Rand
	state State

	model    neuralnet.Model
	samples  SnapshotStore
	inputDim int

	xStats      normalization.Stats
	yMean, yStd float64
	trained     bool
}

// New validates cfg and returns an idle Bohamiann.
func New(cfg Config) (*Bohamiann, error) {
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidBatchSize, cfg.BatchSize)
	}
	if cfg.NetworkFactory == nil {
		cfg.NetworkFactory = neuralnet.DefaultNetwork
	}
	if cfg.SamplerFactory == nil {
		cfg.SamplerFactory = neuralnet.NewAdaptiveSGHMC
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Bohamiann{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (b *Bohamiann) State() State {
	return b.state
}

// IsTrained reports whether the last Train call ran to completion.
func (b *Bohamiann) IsTrained() bool {
	return b.trained
}

func (b *Bohamiann) NumSamples() int {
	return b.samples.Len()
}

// Samples returns deep copies of the recorded snapshots in sampling order.
func (b *Bohamiann) Samples() []neuralnet.Snapshot {
	return b.samples.All()
}

// Model returns the live model; its weights are those last written by Train or Predict.
func (b *Bohamiann) Model() neuralnet.Model {
	return b.model
}

// InputStats returns the input normalization stats of the last run.
func (b *Bohamiann) InputStats() normalization.Stats {
	return b.xStats
}

// OutputStats returns the target mean and std of the last run.
func (b *Bohamiann) OutputStats() (float64, float64) {
	return b.yMean, b.yStd
}

// Train discards previous samples, normalizes the data and runs opts.NumSteps
// sampler steps. The first step after burn-in is recorded and then every
// KeepEvery-th step, so a run with NumSteps > NumBurnInSteps stores
// floor((NumSteps-NumBurnInSteps-1)/KeepEvery)+1 snapshots.
func (b *Bohamiann) Train(x mat.Matrix, y []float64, opts TrainOptions) error {
	if x == nil {
		return ErrEmptyDataset
	}
	n, d := x.Dims()
	if n == 0 || d == 0 {
		return ErrEmptyDataset
	}
	if len(y) != n {
		return fmt.Errorf("%w: %d input rows, %d targets", ErrDimensionMismatch, n, len(y))
	}
	if err := opts.validate(); err != nil {
		return err
	}
	if opts.LogEvery <= 0 {
		opts.LogEvery = 512
	}
	start := time.Now()

	b.samples.Clear()
	b.trained = false
	b.state = Normalizing

	xTrain := mat.DenseCopyOf(x)
	if b.cfg.NormalizeInput {
		var err error
		xTrain, b.xStats, err = normalization.Normalize(x)
		if err != nil {
			b.state = Idle
			return fmt.Errorf("normalize inputs: %w", err)
		}
	}
	yTrain := append([]float64(nil), y...)
	if b.cfg.NormalizeOutput {
		var err error
		yTrain, b.yMean, b.yStd, err = normalization.NormalizeVector(y)
		if err != nil {
			b.state = Idle
			return fmt.Errorf("normalize targets: %w", err)
		}
	}

	model, err := b.cfg.NetworkFactory(d, b.rng)
	if err != nil {
		b.state = Idle
		return fmt.Errorf("build network: %w", err)
	}
	b.model = model
	b.inputDim = d

	sampler := b.cfg.SamplerFactory(model.Parameters(), neuralnet.SamplerConfig{
		ScaleGrad:      float64(n),
		NumBurnInSteps: opts.NumBurnInSteps,
		Lr:             opts.Lr,
		MDecay:         opts.MDecay,
		Noise:          opts.Noise,
	}, b.rng)
	loader := newBatchLoader(xTrain, yTrain, b.cfg.BatchSize, b.cfg.Shuffle, b.rng)
	loss := neuralnet.GaussianNLL{}

	b.state = BurnIn
	for step := 1; step <= opts.NumSteps; step++ {
		xb, yb := loader.Next()

		sampler.ZeroGrad()
		out := model.Forward(xb)
		l := loss.Compute(out, yb)
		if math.IsNaN(l) || math.IsInf(l, 0) {
			b.state = Idle
			return fmt.Errorf("%w: loss %v at step %d", ErrNonFinite, l, step)
		}
		model.Backward(loss.Gradient(out, yb))
		if err := sampler.Step(); err != nil {
			b.state = Idle
			return fmt.Errorf("%w: step %d: %w", ErrNonFinite, step, err)
		}

		if step > opts.NumBurnInSteps {
			b.state = Sampling
		}
		if opts.Verbose && step%opts.LogEvery == 0 {
			b.logProgress(step, xTrain, yTrain, start)
		}
		if step > opts.NumBurnInSteps && (step-opts.NumBurnInSteps-1)%opts.KeepEvery == 0 {
			b.samples.Append(neuralnet.TakeSnapshot(model.Parameters()))
			if opts.Verbose {
				b.cfg.Logger.Printf("recorded sample step=%d samples=%d", step, b.samples.Len())
			}
		}
	}

	b.trained = true
	b.state = Trained
	if b.samples.Len() == 0 {
		return fmt.Errorf("%w (num_steps=%d num_burn_in_steps=%d)", ErrNoSamples, opts.NumSteps, opts.NumBurnInSteps)
	}
	return nil
}

func (b *Bohamiann) logProgress(step int, x *mat.Dense, y []float64, start time.Time) {
	out := b.model.Forward(x)
	nll := neuralnet.GaussianNLL{}.Compute(out, y)
	means := mat.Col(nil, 0, out)
	line := fmt.Sprintf("step=%d phase=%s nll=%.4e", step, b.state, nll)
	for _, m := range b.cfg.Metrics {
		line += fmt.Sprintf(" %s=%.4e", m.Name(), m.Score(means, y))
	}
	if b.state == Sampling {
		line += fmt.Sprintf(" samples=%d", b.samples.Len())
	}
	b.cfg.Logger.Printf("%s time=%.2fs", line, time.Since(start).Seconds())
}
