package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDimensionMismatch reports an input whose width disagrees with the model.
	ErrDimensionMismatch = errors.New("model: dimension mismatch")
	// ErrEmptyBatch reports a forward pass over zero examples.
	ErrEmptyBatch = errors.New("model: empty batch")
	// ErrInvalidConfig reports a non-positive layer width.
	ErrInvalidConfig = errors.New("model: invalid config")
)

// Config describes the layer widths of the perceptron.
type Config struct {
	InputDim  int `json:"input_dim"`
	Hidden1   int `json:"hidden1"`
	Hidden2   int `json:"hidden2"`
	OutputDim int `json:"output_dim"`
}

// DefaultConfig returns the 7 -> 32 -> 64 -> 2 banana quality architecture.
func DefaultConfig() Config {
	return Config{InputDim: 7, Hidden1: 32, Hidden2: 64, OutputDim: 2}
}

// Validate checks every layer width is positive.
func (c Config) Validate() error {
	if c.InputDim <= 0 || c.Hidden1 <= 0 || c.Hidden2 <= 0 || c.OutputDim <= 0 {
		return fmt.Errorf("%w: widths %d/%d/%d/%d", ErrInvalidConfig, c.InputDim, c.Hidden1, c.Hidden2, c.OutputDim)
	}
	return nil
}

func (c Config) widths() [4]int {
	return [4]int{c.InputDim, c.Hidden1, c.Hidden2, c.OutputDim}
}

// Layer is one affine transform. W is fanIn x fanOut so a batch multiplies on the left.
type Layer struct {
	W *mat.Dense
	B *mat.VecDense
}

// Params holds the trainable tensors of the three dense layers.
type Params struct {
	Layers [3]Layer

	// version is bumped on every in-place update so stale graphs can be detected.
	version uint64
}

func newParams(cfg Config) *Params {
	w := cfg.widths()
	p := &Params{}
	for i := range p.Layers {
		p.Layers[i] = Layer{
			W: mat.NewDense(w[i], w[i+1], nil),
			B: mat.NewVecDense(w[i+1], nil),
		}
	}
	return p
}

// Clone returns a deep copy that shares no storage with p.
func (p *Params) Clone() *Params {
	out := &Params{}
	for i, l := range p.Layers {
		out.Layers[i] = Layer{
			W: mat.DenseCopyOf(l.W),
			B: mat.VecDenseCopyOf(l.B),
		}
	}
	return out
}

// Equal reports whether both parameter sets hold identical values.
func (p *Params) Equal(o *Params) bool {
	for i := range p.Layers {
		if !mat.Equal(p.Layers[i].W, o.Layers[i].W) || !mat.Equal(p.Layers[i].B, o.Layers[i].B) {
			return false
		}
	}
	return true
}

// MLP is a three layer perceptron with ReLU between layers and raw logits out.
type MLP struct {
	cfg    Config
	params *Params
}

var _ Model = (*MLP)(nil)

// NewMLP allocates a fresh parameter set drawn from rng. A nil rng is seeded from the clock.
func NewMLP(cfg Config, rng *rand.Rand) (*MLP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	p := newParams(cfg)
	for i := range p.Layers {
		initLayer(&p.Layers[i], rng)
	}
	return &MLP{cfg: cfg, params: p}, nil
}

// initLayer draws weights and biases uniformly from +-1/sqrt(fanIn).
func initLayer(l *Layer, rng *rand.Rand) {
	fanIn, _ := l.W.Dims()
	bound := 1 / math.Sqrt(float64(fanIn))
	raw := l.W.RawMatrix().Data
	for i := range raw {
		raw[i] = (rng.Float64()*2 - 1) * bound
	}
	for i := 0; i < l.B.Len(); i++ {
		l.B.SetVec(i, (rng.Float64()*2-1)*bound)
	}
}

// Config returns the architecture of m.
func (m *MLP) Config() Config {
	return m.cfg
}

// Params returns the parameter set owned by m.
func (m *MLP) Params() *Params {
	return m.params
}

// Forward computes raw class logits for every row of x.
func (m *MLP) Forward(x mat.Matrix) (*mat.Dense, error) {
	g, err := m.Trace(x)
	if err != nil {
		return nil, err
	}
	return g.Logits(), nil
}

// Predict returns the arg-max class of every row of x.
func (m *MLP) Predict(x mat.Matrix) ([]int, error) {
	logits, err := m.Forward(x)
	if err != nil {
		return nil, err
	}
	rows, _ := logits.Dims()
	out := make([]int, rows)
	for i := range out {
		out[i] = floats.MaxIdx(logits.RawRowView(i))
	}
	return out, nil
}

// Graph records the activations of one forward pass so the loss can be
// differentiated with respect to the parameters it was computed from.
type Graph struct {
	params  *Params
	version uint64
	input   *mat.Dense
	pre     [3]*mat.Dense
	act     [2]*mat.Dense
}

// Trace runs a forward pass and keeps every intermediate activation.
func (m *MLP) Trace(x mat.Matrix) (*Graph, error) {
	rows, cols := x.Dims()
	if rows == 0 {
		return nil, ErrEmptyBatch
	}
	if cols != m.cfg.InputDim {
		return nil, fmt.Errorf("%w: input width %d, model expects %d", ErrDimensionMismatch, cols, m.cfg.InputDim)
	}
	g := &Graph{
		params:  m.params,
		version: m.params.version,
		input:   mat.DenseCopyOf(x),
	}
	var in mat.Matrix = g.input
	for i := range m.params.Layers {
		z := affine(in, &m.params.Layers[i])
		g.pre[i] = z
		if i == len(m.params.Layers)-1 {
			break
		}
		g.act[i] = relu(z)
		in = g.act[i]
	}
	return g, nil
}

// Logits returns the output of the final layer.
func (g *Graph) Logits() *mat.Dense {
	return g.pre[len(g.pre)-1]
}

func affine(x mat.Matrix, l *Layer) *mat.Dense {
	var z mat.Dense
	z.Mul(x, l.W)
	z.Apply(func(_, j int, v float64) float64 {
		return v + l.B.AtVec(j)
	}, &z)
	return &z
}

func relu(z *mat.Dense) *mat.Dense {
	var a mat.Dense
	a.Apply(func(_, _ int, v float64) float64 {
		return math.Max(v, 0)
	}, z)
	return &a
}
