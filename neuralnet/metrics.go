package neuralnet

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Metric scores point predictions against targets.
type Metric interface {
	Name() string
	Score(prediction, target []float64) float64
}

type MSE struct{}

func (MSE) Name() string { return "mse" }

func (MSE) Score(prediction, target []float64) float64 {
	diff := make([]float64, len(prediction))
	floats.SubTo(diff, prediction, target)
	return floats.Dot(diff, diff) / float64(len(diff))
}

type RMSE struct{}

func (RMSE) Name() string { return "rmse" }

func (RMSE) Score(prediction, target []float64) float64 {
	return math.Sqrt(MSE{}.Score(prediction, target))
}

type MAE struct{}

func (MAE) Name() string { return "mae" }

func (MAE) Score(prediction, target []float64) float64 {
	return floats.Distance(prediction, target, 1) / float64(len(prediction))
}

// MetricsByName resolves config metric names.
func MetricsByName(names []string) ([]Metric, error) {
	out := make([]Metric, 0, len(names))
	for _, name := range names {
		switch name {
		case "mse":
			out = append(out, MSE{})
		case "rmse":
			out = append(out, RMSE{})
		case "mae":
			out = append(out, MAE{})
		default:
			return nil, fmt.Errorf("neuralnet: unknown metric %q", name)
		}
	}
	return out, nil
}
