package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// loadCSV reads rows of "x1,...,xD,y". Lines starting with '#' are skipped and
// a first row that does not parse as numbers is treated as a header.
func loadCSV(filePath string) (*mat.Dense, []float64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()
	return parseCSV(file)
}

func parseCSV(r io.Reader) (*mat.Dense, []float64, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var data []float64
	var targets []float64
	cols := -1
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line++
		if len(record) < 2 {
			return nil, nil, fmt.Errorf("line %d: need at least one feature and a target", line)
		}
		values := make([]float64, len(record))
		parseErr := error(nil)
		for i, field := range record {
			values[i], parseErr = strconv.ParseFloat(strings.TrimSpace(field), 64)
			if parseErr != nil {
				break
			}
		}
		if parseErr != nil {
			if line == 1 {
				continue
			}
			return nil, nil, fmt.Errorf("line %d: %w", line, parseErr)
		}
		if cols == -1 {
			cols = len(values) - 1
		}
		if len(values)-1 != cols {
			return nil, nil, fmt.Errorf("line %d: got %d features, want %d", line, len(values)-1, cols)
		}
		data = append(data, values[:cols]...)
		targets = append(targets, values[cols])
	}
	if len(targets) == 0 {
		return nil, nil, errors.New("no data rows")
	}
	return mat.NewDense(len(targets), cols, data), targets, nil
}

// sineDataset draws y = sin(x) + N(0, noise^2) for x uniform in [-pi, pi].
func sineDataset(n int, noise float64, rng *rand.Rand) (*mat.Dense, []float64) {
	x := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := rng.Float64()*2*math.Pi - math.Pi
		x.Set(i, 0, v)
		y[i] = math.Sin(v) + rng.NormFloat64()*noise
	}
	return x, y
}

// grid returns n evenly spaced single-feature rows between lo and hi.
func grid(lo, hi float64, n int) *mat.Dense {
	x := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, lo+float64(i)*(hi-lo)/float64(n-1))
	}
	return x
}
