package neuralnet

import "testing"

func TestMetrics(t *testing.T) {
	prediction := []float64{1, 2, 3, 4}
	target := []float64{1, 4, 3, 0}
	tests := []struct {
		description string
		metric      Metric
		expected    float64
	}{
		{"mse", MSE{}, 5},
		{"rmse", RMSE{}, 2.2360679775},
		{"mae", MAE{}, 1.5},
	}
	for _, tt := range tests {
		if got := tt.metric.Score(prediction, target); !floatEquals(got, tt.expected, 1e-9) {
			t.Errorf("%s: got %v; want %v", tt.description, got, tt.expected)
		}
	}
}

func TestMetricsByName(t *testing.T) {
	metrics, err := MetricsByName([]string{"mse", "mae"})
	if err != nil {
		t.Fatalf("MetricsByName: %v", err)
	}
	if len(metrics) != 2 || metrics[0].Name() != "mse" || metrics[1].Name() != "mae" {
		t.Errorf("unexpected metrics %v", metrics)
	}
	if _, err := MetricsByName([]string{"r2"}); err == nil {
		t.Error("expected error for unknown metric")
	}
}
