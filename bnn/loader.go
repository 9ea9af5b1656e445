package bnn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// batchLoader walks the dataset in fixed-size batches and wraps to the start
// when exhausted, reshuffling each pass when shuffle is set. The final batch
// of a pass holds whatever rows remain.
type batchLoader struct {
	x         *mat.Dense
	y         []float64
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	order     []int
	cursor    int
	passes    int
}

func newBatchLoader(x *mat.Dense, y []float64, batchSize int, shuffle bool, rng *rand.Rand) *batchLoader {
	order := make([]int, len(y))
	for i := range order {
		order[i] = i
	}
	l := &batchLoader{x: x, y: y, batchSize: batchSize, shuffle: shuffle, rng: rng, order: order}
	l.reshuffle()
	return l
}

func (l *batchLoader) reshuffle() {
	if !l.shuffle || l.rng == nil {
		return
	}
	l.rng.Shuffle(len(l.order), func(i, j int) {
		l.order[i], l.order[j] = l.order[j], l.order[i]
	})
}

// Next returns the next batch of inputs and targets.
func (l *batchLoader) Next() (*mat.Dense, []float64) {
	if l.cursor >= len(l.order) {
		l.cursor = 0
		l.passes++
		l.reshuffle()
	}
	end := l.cursor + l.batchSize
	if end > len(l.order) {
		end = len(l.order)
	}
	idx := l.order[l.cursor:end]
	l.cursor = end

	_, cols := l.x.Dims()
	xb := mat.NewDense(len(idx), cols, nil)
	yb := make([]float64, len(idx))
	for i, row := range idx {
		xb.SetRow(i, l.x.RawRowView(row))
		yb[i] = l.y[row]
	}
	return xb, yb
}
