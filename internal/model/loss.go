package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrLabelOutOfRange reports a class label outside [0, classes).
var ErrLabelOutOfRange = errors.New("model: label out of range")

// LogSoftmax converts each row of logits to log-probabilities using the
// log-sum-exp form, so large logits do not overflow.
func LogSoftmax(logits mat.Matrix) *mat.Dense {
	rows, cols := logits.Dims()
	out := mat.NewDense(rows, cols, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, logits)
		lse := floats.LogSumExp(row)
		for j, v := range row {
			out.Set(i, j, v-lse)
		}
	}
	return out
}

// NLL averages the negative log-likelihood of each true label.
func NLL(logProbs mat.Matrix, labels []int) (float64, error) {
	if err := checkLabels(logProbs, labels); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, y := range labels {
		sum -= logProbs.At(i, y)
	}
	return sum / float64(len(labels)), nil
}

// Loss is the mean cross-entropy of logits against labels.
func Loss(logits mat.Matrix, labels []int) (float64, error) {
	if err := checkLabels(logits, labels); err != nil {
		return 0, err
	}
	return NLL(LogSoftmax(logits), labels)
}

// Accuracy returns the fraction of rows whose arg-max logit equals the label.
// Ties resolve to the lowest class index.
func Accuracy(logits mat.Matrix, labels []int) (float64, error) {
	if err := checkLabels(logits, labels); err != nil {
		return 0, err
	}
	_, cols := logits.Dims()
	row := make([]float64, cols)
	hits := 0
	for i, y := range labels {
		mat.Row(row, i, logits)
		if floats.MaxIdx(row) == y {
			hits++
		}
	}
	return float64(hits) / float64(len(labels)), nil
}

func checkLabels(m mat.Matrix, labels []int) error {
	rows, cols := m.Dims()
	if rows == 0 || len(labels) == 0 {
		return ErrEmptyBatch
	}
	if rows != len(labels) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrDimensionMismatch, rows, len(labels))
	}
	for i, y := range labels {
		if y < 0 || y >= cols {
			return fmt.Errorf("%w: label %d at row %d, %d classes", ErrLabelOutOfRange, y, i, cols)
		}
	}
	return nil
}

// LossValue is a scalar loss that remembers the graph it came from.
type LossValue struct {
	Value float64

	graph    *Graph
	labels   []int
	logProbs *mat.Dense
}

// Loss computes the cross-entropy of the traced logits and binds it to g.
func (g *Graph) Loss(labels []int) (*LossValue, error) {
	logits := g.Logits()
	if err := checkLabels(logits, labels); err != nil {
		return nil, err
	}
	logProbs := LogSoftmax(logits)
	v, err := NLL(logProbs, labels)
	if err != nil {
		return nil, err
	}
	return &LossValue{
		Value:    v,
		graph:    g,
		labels:   append([]int(nil), labels...),
		logProbs: logProbs,
	}, nil
}

// Gradients backpropagates the loss through the recorded graph and returns
// dLoss/dParam with the same shapes as the parameters.
func (l *LossValue) Gradients() (*Params, error) {
	if l == nil || l.graph == nil || l.graph.params == nil {
		return nil, ErrDetachedGraph
	}
	g := l.graph
	if g.version != g.params.version {
		return nil, fmt.Errorf("%w: parameters changed since the forward pass", ErrDetachedGraph)
	}

	n := float64(len(l.labels))
	delta := new(mat.Dense)
	delta.Apply(func(i, j int, v float64) float64 {
		p := math.Exp(v)
		if j == l.labels[i] {
			p--
		}
		return p / n
	}, l.logProbs)

	grads := &Params{}
	for k := len(g.params.Layers) - 1; k >= 0; k-- {
		var in mat.Matrix = g.input
		if k > 0 {
			in = g.act[k-1]
		}
		var dW mat.Dense
		dW.Mul(in.T(), delta)
		grads.Layers[k] = Layer{W: &dW, B: colSums(delta)}
		if k == 0 {
			break
		}
		da := new(mat.Dense)
		da.Mul(delta, g.params.Layers[k].W.T())
		pre := g.pre[k-1]
		da.Apply(func(i, j int, v float64) float64 {
			if pre.At(i, j) > 0 {
				return v
			}
			return 0
		}, da)
		delta = da
	}
	return grads, nil
}

func colSums(m *mat.Dense) *mat.VecDense {
	rows, cols := m.Dims()
	ones := make([]float64, rows)
	for i := range ones {
		ones[i] = 1
	}
	out := mat.NewVecDense(cols, nil)
	out.MulVec(m.T(), mat.NewVecDense(rows, ones))
	return out
}
