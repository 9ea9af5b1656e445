package neuralnet

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LossFunction defines the interface for computing loss and its gradient.
type LossFunction interface {
	// Compute returns the batch loss given the network output and targets.
	Compute(output mat.Matrix, target []float64) float64
	// Gradient returns ∂L/∂output with the same shape as output.
	Gradient(output mat.Matrix, target []float64) *mat.Dense
}

// VarianceEpsilon keeps the inverse variance finite when the log-variance goes to -inf.
const VarianceEpsilon = 1e-16

// GaussianNLL is the heteroscedastic Gaussian negative log-likelihood.
// Column 0 of the output is the predicted mean, column 1 the predicted log-variance.
type GaussianNLL struct{}

// Compute returns the negative mean log-likelihood over the batch.
func (GaussianNLL) Compute(output mat.Matrix, target []float64) float64 {
	n, _ := output.Dims()
	var ll float64
	for i := 0; i < n; i++ {
		mu, logVar := output.At(i, 0), output.At(i, 1)
		invVar := 1 / (math.Exp(logVar) + VarianceEpsilon)
		d := target[i] - mu
		ll += -0.5*d*d*invVar - 0.5*logVar
	}
	return -ll / float64(n)
}

// Gradient returns the derivative of Compute with respect to (mean, log-variance).
// exp(l)/(exp(l)+eps)^2 is evaluated as invVar*ratio so a huge log-variance gives 0, not NaN.
func (GaussianNLL) Gradient(output mat.Matrix, target []float64) *mat.Dense {
	n, _ := output.Dims()
	grad := mat.NewDense(n, 2, nil)
	scale := 1 / float64(n)
	for i := 0; i < n; i++ {
		mu, logVar := output.At(i, 0), output.At(i, 1)
		invVar := 1 / (math.Exp(logVar) + VarianceEpsilon)
		ratio := 1 / (1 + VarianceEpsilon*math.Exp(-logVar))
		d := target[i] - mu
		grad.Set(i, 0, -d*invVar*scale)
		grad.Set(i, 1, (0.5-0.5*d*d*invVar*ratio)*scale)
	}
	return grad
}

// MeanSquaredError scores the mean column against the targets.
type MeanSquaredError struct{}

// Compute returns the mean of (target - mean)^2.
func (MeanSquaredError) Compute(output mat.Matrix, target []float64) float64 {
	n, _ := output.Dims()
	var sum float64
	for i := 0; i < n; i++ {
		d := target[i] - output.At(i, 0)
		sum += d * d
	}
	return sum / float64(n)
}

// Gradient returns the derivative with respect to the mean column; the
// log-variance column receives no gradient.
func (MeanSquaredError) Gradient(output mat.Matrix, target []float64) *mat.Dense {
	n, c := output.Dims()
	grad := mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		grad.Set(i, 0, -2*(target[i]-output.At(i, 0))/float64(n))
	}
	return grad
}
