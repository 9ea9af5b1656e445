package bnn

import (
	"gonum.org/v1/gonum/mat"

	"bnn/normalization"
)

func normalizationOf(b *Bohamiann, x mat.Matrix) (*mat.Dense, error) {
	if !b.cfg.NormalizeInput {
		return mat.DenseCopyOf(x), nil
	}
	return normalization.NormalizeWith(x, b.InputStats())
}
