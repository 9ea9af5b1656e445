package bnn

import "errors"

var (
	// ErrInvalidBatchSize is returned by New when the batch size is below one.
	ErrInvalidBatchSize = errors.New("bnn: invalid batch size, batches must contain at least a single sample")
	// ErrInvalidOptions is returned by Train for unusable step counts.
	ErrInvalidOptions = errors.New("bnn: invalid training options")
	// ErrEmptyDataset is returned for inputs without rows or columns.
	ErrEmptyDataset = errors.New("bnn: empty dataset")
	// ErrDimensionMismatch is returned when shapes of inputs and targets or train and test inputs disagree.
	ErrDimensionMismatch = errors.New("bnn: dimension mismatch")
	// ErrNotTrained is returned by Predict before a successful Train.
	ErrNotTrained = errors.New("bnn: model is not trained")
	// ErrNoSamples is returned by Train when the run ended without recording any snapshot.
	ErrNoSamples = errors.New("bnn: no samples recorded, the run ended during burn-in")
	// ErrNonFinite is returned when the loss, a gradient or a prediction is NaN or infinite.
	ErrNonFinite = errors.New("bnn: non-finite value")
)
