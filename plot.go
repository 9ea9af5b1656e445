package main

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"bnn/bnn"
)

// savePlot writes training points, the predictive mean and a two standard
// deviation band for single-feature data.
func savePlot(path string, xTrain *mat.Dense, yTrain []float64, xTest *mat.Dense, pred bnn.Prediction) error {
	p := plot.New()
	p.Title.Text = "Bayesian neural network"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	train := make(plotter.XYs, len(yTrain))
	for i := range yTrain {
		train[i] = plotter.XY{X: xTrain.At(i, 0), Y: yTrain[i]}
	}
	mean := make(plotter.XYs, len(pred.Mean))
	upper := make(plotter.XYs, len(pred.Mean))
	lower := make(plotter.XYs, len(pred.Mean))
	for i := range pred.Mean {
		x := xTest.At(i, 0)
		sd := math.Sqrt(pred.Variance[i])
		mean[i] = plotter.XY{X: x, Y: pred.Mean[i]}
		upper[i] = plotter.XY{X: x, Y: pred.Mean[i] + 2*sd}
		lower[i] = plotter.XY{X: x, Y: pred.Mean[i] - 2*sd}
	}

	sc, err := plotter.NewScatter(train)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	sc.GlyphStyle.Radius = vg.Points(1.5)

	ml, err := plotter.NewLine(mean)
	if err != nil {
		return err
	}
	ml.LineStyle.Color = color.RGBA{B: 200, A: 255}
	ml.LineStyle.Width = vg.Points(1.5)

	p.Add(sc, ml)
	p.Legend.Add("train", sc)
	p.Legend.Add("mean", ml)
	for _, band := range []plotter.XYs{upper, lower} {
		l, err := plotter.NewLine(band)
		if err != nil {
			return err
		}
		l.LineStyle.Color = color.RGBA{R: 200, A: 255}
		l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(l)
	}
	p.Add(plotter.NewGrid())

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
