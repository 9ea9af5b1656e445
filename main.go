package main

import (
	"flag"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"

	"bnn/bnn"
	"bnn/config"
	"bnn/neuralnet"
)

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}

	cfg := config.Default()
	if opts.configPath != "" {
		if cfg, err = config.Load(opts.configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	cfg.ApplyOverrides(opts.overrides)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	var xTrain, xTest *mat.Dense
	var yTrain, yTest []float64
	if opts.dataPath != "" {
		x, y, err := loadCSV(opts.dataPath)
		if err != nil {
			log.Fatalf("load %s: %v", opts.dataPath, err)
		}
		if len(y) < 2 {
			log.Fatalf("%s: need at least 2 rows to hold out a test split, got %d", opts.dataPath, len(y))
		}
		xTrain, yTrain, xTest, yTest = split(x, y, 0.8, rng)
	} else {
		xTrain, yTrain = sineDataset(200, 0.1, rng)
		xTest = grid(-math.Pi, math.Pi, 200)
		yTest = make([]float64, 200)
		for i := range yTest {
			yTest[i] = math.Sin(xTest.At(i, 0))
		}
	}
	n, d := xTrain.Dims()
	log.Printf("train_rows=%d test_rows=%d features=%d", n, len(yTest), d)

	model, err := build(cfg)
	if err != nil {
		log.Fatalf("configure: %v", err)
	}

	start := time.Now()
	err = model.Train(xTrain, yTrain, bnn.TrainOptions{
		NumSteps:       cfg.NumSteps,
		KeepEvery:      cfg.KeepEvery,
		NumBurnInSteps: cfg.NumBurnInSteps,
		Lr:             cfg.Lr,
		Noise:          cfg.Noise,
		MDecay:         cfg.MDecay,
		Verbose:        cfg.Verbose,
		LogEvery:       cfg.LogEvery,
	})
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	log.Printf("trained samples=%d elapsed=%.2fs", model.NumSamples(), time.Since(start).Seconds())

	pred, err := model.PredictParallel(xTest, false, cfg.Workers)
	if err != nil {
		log.Fatalf("prediction failed: %v", err)
	}
	metrics, _ := neuralnet.MetricsByName(cfg.Metrics)
	for _, m := range metrics {
		log.Printf("test %s=%.4f", m.Name(), m.Score(pred.Mean, yTest))
	}
	log.Printf("test log_likelihood=%.4f", bnn.LogLikelihood(pred.Mean, pred.Variance, yTest))

	if opts.plotPath != "" {
		if d != 1 {
			log.Fatalf("plotting needs single-feature data, got %d features", d)
		}
		if err := savePlot(opts.plotPath, xTrain, yTrain, xTest, pred); err != nil {
			log.Fatalf("plot: %v", err)
		}
		log.Printf("plot written to %s", opts.plotPath)
	}
}

type cliOptions struct {
	configPath string
	dataPath   string
	plotPath   string
	overrides  config.Overrides
}

// parseFlags reads the command line. Only flags actually given become
// overrides, so an explicit zero still replaces a config file value.
func parseFlags(fs *flag.FlagSet, args []string) (cliOptions, error) {
	var opts cliOptions
	fs.StringVar(&opts.configPath, "config", "", "Path to YAML config")
	fs.StringVar(&opts.dataPath, "data", "", "CSV of x1,...,xD,y rows; synthesizes sin(x)+noise when empty")
	steps := fs.Int("steps", 0, "Number of sampler steps")
	burnIn := fs.Int("burn-in", 0, "Number of burn-in steps")
	keepEvery := fs.Int("keep-every", 0, "Record a sample every N steps after burn-in")
	batchSize := fs.Int("batch-size", 0, "Batch size")
	seed := fs.Int64("seed", 0, "PRNG seed")
	fs.StringVar(&opts.plotPath, "plot", "", "Write a PNG of the predictive band (single-feature data only)")
	verbose := fs.Bool("verbose", false, "Log progress during training")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "steps":
			opts.overrides.NumSteps = steps
		case "burn-in":
			opts.overrides.NumBurnInSteps = burnIn
		case "keep-every":
			opts.overrides.KeepEvery = keepEvery
		case "batch-size":
			opts.overrides.BatchSize = batchSize
		case "seed":
			opts.overrides.Seed = seed
		case "verbose":
			opts.overrides.Verbose = verbose
		}
	})
	return opts, nil
}

func build(cfg *config.Config) (*bnn.Bohamiann, error) {
	act, err := neuralnet.ActivationByName(cfg.Activation)
	if err != nil {
		return nil, err
	}
	sampler, err := neuralnet.SamplerByName(cfg.Sampler)
	if err != nil {
		return nil, err
	}
	metrics, err := neuralnet.MetricsByName(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	return bnn.New(bnn.Config{
		NetworkFactory:  neuralnet.NewNetworkFactory(cfg.HiddenUnits, act),
		SamplerFactory:  sampler,
		BatchSize:       cfg.BatchSize,
		NormalizeInput:  cfg.NormalizeInput,
		NormalizeOutput: cfg.NormalizeOutput,
		Metrics:         metrics,
		Shuffle:         cfg.Shuffle,
		Seed:            cfg.Seed,
		Logger:          log.Default(),
	})
}

// split shuffles rows and holds out the last (1-frac) share for testing.
func split(x *mat.Dense, y []float64, frac float64, rng *rand.Rand) (*mat.Dense, []float64, *mat.Dense, []float64) {
	n, d := x.Dims()
	order := rng.Perm(n)
	cut := int(float64(n) * frac)
	if cut < 1 {
		cut = 1
	}
	if cut >= n {
		cut = n - 1
	}
	take := func(idx []int) (*mat.Dense, []float64) {
		xs := mat.NewDense(len(idx), d, nil)
		ys := make([]float64, len(idx))
		for i, row := range idx {
			xs.SetRow(i, x.RawRowView(row))
			ys[i] = y[row]
		}
		return xs, ys
	}
	xTrain, yTrain := take(order[:cut])
	xTest, yTest := take(order[cut:])
	return xTrain, yTrain, xTest, yTest
}
