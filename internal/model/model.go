package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Batch represents a minibatch of features and labels.
type Batch struct {
	Inputs [][]float64
	Labels []int
}

// Len reports the number of examples in the batch.
func (b Batch) Len() int {
	return len(b.Inputs)
}

// Matrix packs the inputs into a rows x width dense matrix.
func (b Batch) Matrix() (*mat.Dense, error) {
	if len(b.Inputs) == 0 {
		return nil, ErrEmptyBatch
	}
	width := len(b.Inputs[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: zero-width input", ErrDimensionMismatch)
	}
	data := make([]float64, 0, len(b.Inputs)*width)
	for i, row := range b.Inputs {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrDimensionMismatch, i, len(row), width)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(b.Inputs), width, data), nil
}

// Model defines the minimal inference functionality needed to score a batch.
type Model interface {
	Forward(x mat.Matrix) (*mat.Dense, error)
	Predict(x mat.Matrix) ([]int, error)
}

// Evaluate predicts every example of b with m and counts the correct ones.
func Evaluate(m Model, b Batch) (int, error) {
	if len(b.Labels) != b.Len() {
		return 0, fmt.Errorf("%w: %d inputs, %d labels", ErrDimensionMismatch, b.Len(), len(b.Labels))
	}
	x, err := b.Matrix()
	if err != nil {
		return 0, err
	}
	pred, err := m.Predict(x)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i, p := range pred {
		if p == b.Labels[i] {
			correct++
		}
	}
	return correct, nil
}
