package model

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func randomBatch(rng *rand.Rand, rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return mat.NewDense(rows, cols, data)
}

func TestForwardShape(t *testing.T) {
	cfg := DefaultConfig()
	mdl, err := NewMLP(cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewMLP: %v", err)
	}
	rng := rand.New(rand.NewSource(2))
	for _, batch := range []int{1, 2, 17, 64} {
		logits, err := mdl.Forward(randomBatch(rng, batch, cfg.InputDim))
		if err != nil {
			t.Fatalf("Forward(batch=%d): %v", batch, err)
		}
		rows, cols := logits.Dims()
		if rows != batch || cols != cfg.OutputDim {
			t.Fatalf("batch=%d: got %dx%d, want %dx%d", batch, rows, cols, batch, cfg.OutputDim)
		}
	}
}

func TestForwardDimensionMismatch(t *testing.T) {
	cfg := DefaultConfig()
	mdl, err := NewMLP(cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewMLP: %v", err)
	}
	rng := rand.New(rand.NewSource(3))
	for _, width := range []int{1, 6, 8, 32} {
		_, err := mdl.Forward(randomBatch(rng, 4, width))
		if !errors.Is(err, ErrDimensionMismatch) {
			t.Fatalf("width=%d: expected ErrDimensionMismatch, got %v", width, err)
		}
	}
}

func TestForwardIsPure(t *testing.T) {
	mdl, err := NewMLP(DefaultConfig(), rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatalf("NewMLP: %v", err)
	}
	before := mdl.Params().Clone()
	x := randomBatch(rand.New(rand.NewSource(5)), 3, 7)
	first, err := mdl.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	second, err := mdl.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if !mat.Equal(first, second) {
		t.Fatalf("forward pass is not repeatable")
	}
	if !before.Equal(mdl.Params()) {
		t.Fatalf("forward pass mutated parameters")
	}
}

func TestNewMLPFreshStorage(t *testing.T) {
	cfg := DefaultConfig()
	a, err := NewMLP(cfg, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("NewMLP: %v", err)
	}
	b, err := NewMLP(cfg, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("NewMLP: %v", err)
	}
	if a.Params() == b.Params() {
		t.Fatal("models share a parameter set")
	}
	if !a.Params().Equal(b.Params()) {
		t.Fatal("same seed produced different initial values")
	}
	a.Params().Layers[0].W.Set(0, 0, 42)
	if b.Params().Layers[0].W.At(0, 0) == 42 {
		t.Fatal("models share weight storage")
	}

	c, err := NewMLP(cfg, rand.New(rand.NewSource(10)))
	if err != nil {
		t.Fatalf("NewMLP: %v", err)
	}
	if c.Params().Equal(b.Params()) {
		t.Fatal("different seeds produced identical initial values")
	}
}

func TestNewMLPInvalidConfig(t *testing.T) {
	_, err := NewMLP(Config{InputDim: 7, Hidden1: 0, Hidden2: 4, OutputDim: 2}, nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestPredictMatchesArgmax(t *testing.T) {
	mdl, err := NewMLP(Config{InputDim: 3, Hidden1: 5, Hidden2: 4, OutputDim: 3}, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("NewMLP: %v", err)
	}
	x := randomBatch(rand.New(rand.NewSource(12)), 6, 3)
	logits, err := mdl.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	pred, err := mdl.Predict(x)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i, p := range pred {
		for j := 0; j < 3; j++ {
			if logits.At(i, j) > logits.At(i, p) {
				t.Fatalf("row %d: predicted %d but class %d has a larger logit", i, p, j)
			}
		}
	}
}

func TestBatchMatrix(t *testing.T) {
	b := Batch{Inputs: [][]float64{{1, 2}, {3, 4}, {5, 6}}, Labels: []int{0, 1, 0}}
	m, err := b.Matrix()
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if r, c := m.Dims(); r != 3 || c != 2 || m.At(2, 1) != 6 {
		t.Fatalf("unexpected matrix %v", mat.Formatted(m))
	}

	ragged := Batch{Inputs: [][]float64{{1, 2}, {3}}}
	if _, err := ragged.Matrix(); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := (Batch{}).Matrix(); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestEvaluateCountsCorrect(t *testing.T) {
	mdl, err := NewMLP(Config{InputDim: 2, Hidden1: 4, Hidden2: 4, OutputDim: 3}, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("NewMLP: %v", err)
	}
	inputs := [][]float64{{1, 2}, {-1, 0.5}, {0, 0}, {3, -2}}
	x := mat.NewDense(4, 2, []float64{1, 2, -1, 0.5, 0, 0, 3, -2})
	pred, err := mdl.Predict(x)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	labels := append([]int(nil), pred...)
	labels[1] = (labels[1] + 1) % 3

	var m Model = mdl
	correct, err := Evaluate(m, Batch{Inputs: inputs, Labels: labels})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if correct != 3 {
		t.Fatalf("expected 3 correct, got %d", correct)
	}

	if _, err := Evaluate(m, Batch{Inputs: inputs, Labels: labels[:2]}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := Evaluate(m, Batch{Inputs: [][]float64{{1, 2, 3}}, Labels: []int{0}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch for wide input, got %v", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	mdl, err := NewMLP(DefaultConfig(), rand.New(rand.NewSource(13)))
	if err != nil {
		t.Fatalf("NewMLP: %v", err)
	}
	path := t.TempDir() + "/model.json.z"
	if err := mdl.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if loaded.Config() != mdl.Config() {
		t.Fatalf("config mismatch: %+v vs %+v", loaded.Config(), mdl.Config())
	}
	if !loaded.Params().Equal(mdl.Params()) {
		t.Fatal("parameters changed across write/read")
	}
	if loaded.Params() == mdl.Params() {
		t.Fatal("loaded model aliases the original parameters")
	}
}
