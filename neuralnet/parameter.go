package neuralnet

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// ErrSnapshotMismatch is returned when a snapshot does not fit the parameters it is restored into.
var ErrSnapshotMismatch = errors.New("neuralnet: snapshot does not match parameters")

// Parameter is one trainable tensor together with its accumulated gradient.
// Value and Grad are rows×cols float64 tensors whose backing arrays are also
// exposed as gonum matrices, so layer math and the sampler mutate them in place.
type Parameter struct {
	Name  string
	Value *tensor.Dense
	Grad  *tensor.Dense

	value []float64
	grad  []float64
}

// NewParameter allocates a zeroed rows×cols parameter.
func NewParameter(name string, rows, cols int) *Parameter {
	value := make([]float64, rows*cols)
	grad := make([]float64, rows*cols)
	return &Parameter{
		Name:  name,
		Value: tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(value)),
		Grad:  tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(grad)),
		value: value,
		grad:  grad,
	}
}

// Dims returns the parameter shape.
func (p *Parameter) Dims() (int, int) {
	s := p.Value.Shape()
	return s[0], s[1]
}

// Data returns the live value backing slice.
func (p *Parameter) Data() []float64 {
	return p.value
}

// GradData returns the live gradient backing slice.
func (p *Parameter) GradData() []float64 {
	return p.grad
}

// Matrix returns a gonum view sharing the value backing array.
func (p *Parameter) Matrix() *mat.Dense {
	r, c := p.Dims()
	return mat.NewDense(r, c, p.Data())
}

// GradMatrix returns a gonum view sharing the gradient backing array.
func (p *Parameter) GradMatrix() *mat.Dense {
	r, c := p.Dims()
	return mat.NewDense(r, c, p.GradData())
}

// ZeroGrad clears the accumulated gradient.
func (p *Parameter) ZeroGrad() {
	g := p.GradData()
	for i := range g {
		g[i] = 0
	}
}

// Size is the number of scalar entries.
func (p *Parameter) Size() int {
	return p.Value.Shape().TotalSize()
}

// Snapshot is a deep copy of every parameter value at one instant.
type Snapshot []*tensor.Dense

// TakeSnapshot clones the current parameter values.
func TakeSnapshot(params []*Parameter) Snapshot {
	snap := make(Snapshot, len(params))
	for i, p := range params {
		snap[i] = p.Value.Clone().(*tensor.Dense)
	}
	return snap
}

// Restore overwrites the parameter values with the snapshot in place.
func Restore(params []*Parameter, snap Snapshot) error {
	if len(params) != len(snap) {
		return fmt.Errorf("%w: %d parameters, %d tensors", ErrSnapshotMismatch, len(params), len(snap))
	}
	for i, p := range params {
		if !p.Value.Shape().Eq(snap[i].Shape()) {
			return fmt.Errorf("%w: %s has shape %v, snapshot %v", ErrSnapshotMismatch, p.Name, p.Value.Shape(), snap[i].Shape())
		}
		copy(p.value, float64s(snap[i]))
	}
	return nil
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for i, t := range s {
		out[i] = t.Clone().(*tensor.Dense)
	}
	return out
}

// Values returns a copy of the snapshot tensor at index i as a flat slice.
func (s Snapshot) Values(i int) []float64 {
	return append([]float64(nil), float64s(s[i])...)
}

// float64s reads a tensor's values; a single-element tensor may report its
// data as a bare scalar.
func float64s(t *tensor.Dense) []float64 {
	if data, ok := t.Data().([]float64); ok {
		return data
	}
	return []float64{t.Get(0).(float64)}
}
