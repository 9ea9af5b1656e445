package bnn

import (
	"fmt"
	"math"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"bnn/neuralnet"
	"bnn/normalization"
)

// Prediction is the ensemble output for a batch of test points.
type Prediction struct {
	Mean     []float64
	Variance []float64
	// Individual holds each snapshot's mean prediction, one row per snapshot,
	// when requested.
	Individual [][]float64
}

// Predict evaluates every recorded snapshot on x and combines them into a
// predictive mean and variance in the original target scale.
func (b *Bohamiann) Predict(x mat.Matrix, returnIndividual bool) (Prediction, error) {
	return b.predict(x, returnIndividual, b.collect)
}

// PredictParallel is Predict with the snapshots split across workers. Each
// worker evaluates its share on a private clone of the model.
func (b *Bohamiann) PredictParallel(x mat.Matrix, returnIndividual bool, workers int) (Prediction, error) {
	if workers < 1 {
		workers = 1
	}
	return b.predict(x, returnIndividual, func(xTest *mat.Dense) (*tensor.Dense, error) {
		return b.collectParallel(xTest, workers)
	})
}

func (b *Bohamiann) predict(x mat.Matrix, returnIndividual bool, collect func(*mat.Dense) (*tensor.Dense, error)) (Prediction, error) {
	if !b.trained || b.samples.Len() == 0 || b.model == nil {
		return Prediction{}, ErrNotTrained
	}
	if x == nil {
		return Prediction{}, ErrEmptyDataset
	}
	m, d := x.Dims()
	if m == 0 || d == 0 {
		return Prediction{}, ErrEmptyDataset
	}
	if d != b.inputDim {
		return Prediction{}, fmt.Errorf("%w: trained on %d features, got %d", ErrDimensionMismatch, b.inputDim, d)
	}

	xTest := mat.DenseCopyOf(x)
	if b.cfg.NormalizeInput {
		var err error
		if xTest, err = normalization.NormalizeWith(x, b.xStats); err != nil {
			return Prediction{}, err
		}
	}

	outputs, err := collect(xTest)
	if err != nil {
		return Prediction{}, err
	}
	mean, variance := Aggregate(outputs)

	var individual [][]float64
	if returnIndividual {
		individual = IndividualMeans(outputs)
	}
	if b.cfg.NormalizeOutput {
		mean = normalization.UnnormalizeVector(mean, b.yMean, b.yStd)
		floats.Scale(b.yStd*b.yStd, variance)
		for i := range individual {
			individual[i] = normalization.UnnormalizeVector(individual[i], b.yMean, b.yStd)
		}
	}

	for i := range mean {
		if !finite(mean[i]) || !finite(variance[i]) {
			return Prediction{}, fmt.Errorf("%w: test point %d has mean %v variance %v", ErrNonFinite, i, mean[i], variance[i])
		}
	}
	return Prediction{Mean: mean, Variance: variance, Individual: individual}, nil
}

// collect restores each snapshot into the live model and stacks the outputs
// into an S×M×2 tensor.
func (b *Bohamiann) collect(x *mat.Dense) (*tensor.Dense, error) {
	snapshots := b.samples.view()
	m, _ := x.Dims()
	buf := make([]float64, len(snapshots)*m*2)
	params := b.model.Parameters()
	for s, snap := range snapshots {
		if err := neuralnet.Restore(params, snap); err != nil {
			return nil, err
		}
		writeOutput(buf[s*m*2:(s+1)*m*2], b.model.Forward(x))
	}
	return tensor.New(tensor.WithShape(len(snapshots), m, 2), tensor.WithBacking(buf)), nil
}

func (b *Bohamiann) collectParallel(x *mat.Dense, workers int) (*tensor.Dense, error) {
	snapshots := b.samples.view()
	m, _ := x.Dims()
	buf := make([]float64, len(snapshots)*m*2)
	if workers > len(snapshots) {
		workers = len(snapshots)
	}
	per := (len(snapshots) + workers - 1) / workers

	p := pool.New().WithErrors().WithMaxGoroutines(workers)
	for lo := 0; lo < len(snapshots); lo += per {
		lo, hi := lo, lo+per
		if hi > len(snapshots) {
			hi = len(snapshots)
		}
		p.Go(func() error {
			model := b.model.Clone()
			params := model.Parameters()
			for s := lo; s < hi; s++ {
				if err := neuralnet.Restore(params, snapshots[s]); err != nil {
					return err
				}
				writeOutput(buf[s*m*2:(s+1)*m*2], model.Forward(x))
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return tensor.New(tensor.WithShape(len(snapshots), m, 2), tensor.WithBacking(buf)), nil
}

func writeOutput(dst []float64, out mat.Matrix) {
	rows, _ := out.Dims()
	for i := 0; i < rows; i++ {
		dst[2*i] = out.At(i, 0)
		dst[2*i+1] = out.At(i, 1)
	}
}

// Aggregate combines S×M×2 (mean, log-variance) outputs. The mean is the
// average snapshot mean; the variance is the law of total variance,
// mean(mu^2 + exp(logvar)) - mean(mu)^2.
func Aggregate(outputs *tensor.Dense) ([]float64, []float64) {
	shape := outputs.Shape()
	s, m := shape[0], shape[1]
	data := outputs.Data().([]float64)
	mean := make([]float64, m)
	second := make([]float64, m)
	for k := 0; k < s; k++ {
		for i := 0; i < m; i++ {
			mu := data[(k*m+i)*2]
			logVar := data[(k*m+i)*2+1]
			mean[i] += mu
			second[i] += mu*mu + math.Exp(logVar)
		}
	}
	floats.Scale(1/float64(s), mean)
	floats.Scale(1/float64(s), second)
	variance := make([]float64, m)
	for i := range variance {
		variance[i] = second[i] - mean[i]*mean[i]
	}
	return mean, variance
}

// IndividualMeans extracts the mean column of every snapshot from S×M×2 outputs.
func IndividualMeans(outputs *tensor.Dense) [][]float64 {
	shape := outputs.Shape()
	s, m := shape[0], shape[1]
	data := outputs.Data().([]float64)
	out := make([][]float64, s)
	for k := range out {
		out[k] = make([]float64, m)
		for i := 0; i < m; i++ {
			out[k][i] = data[(k*m+i)*2]
		}
	}
	return out
}

// LogLikelihood is the mean Gaussian log predictive density of targets under
// the predicted means and variances.
func LogLikelihood(mean, variance, target []float64) float64 {
	var ll float64
	for i := range target {
		d := target[i] - mean[i]
		ll += -0.5*math.Log(2*math.Pi*variance[i]) - 0.5*d*d/variance[i]
	}
	return ll / float64(len(target))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
