package model

import (
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
)

type artifact struct {
	Config Config      `json:"config"`
	Layers []layerJSON `json:"layers"`
}

type layerJSON struct {
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	Weights []float64 `json:"weights"`
	Bias    []float64 `json:"bias"`
}

// WriteFile writes the model to a zlib compressed JSON file.
func (m *MLP) WriteFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	err = m.Write(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Write encodes the architecture and parameters of m to w.
func (m *MLP) Write(w io.Writer) error {
	a := artifact{Config: m.cfg}
	for _, l := range m.params.Layers {
		rows, cols := l.W.Dims()
		a.Layers = append(a.Layers, layerJSON{
			Rows:    rows,
			Cols:    cols,
			Weights: mat.DenseCopyOf(l.W).RawMatrix().Data,
			Bias:    mat.Col(nil, 0, l.B),
		})
	}
	zw := zlib.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(&a); err != nil {
		zw.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	return zw.Close()
}

// ReadFile loads a model written by WriteFile.
func ReadFile(name string) (*MLP, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file)
}

// Read decodes a model written by Write.
func Read(r io.Reader) (*MLP, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer zr.Close()

	var a artifact
	if err := json.NewDecoder(zr).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := a.Config.Validate(); err != nil {
		return nil, err
	}
	p := newParams(a.Config)
	if len(a.Layers) != len(p.Layers) {
		return nil, fmt.Errorf("%w: %d layers in file, want %d", ErrDimensionMismatch, len(a.Layers), len(p.Layers))
	}
	for i, l := range a.Layers {
		rows, cols := p.Layers[i].W.Dims()
		if l.Rows != rows || l.Cols != cols || len(l.Weights) != rows*cols || len(l.Bias) != cols {
			return nil, fmt.Errorf("%w: layer %d shape %dx%d", ErrDimensionMismatch, i, l.Rows, l.Cols)
		}
		copy(p.Layers[i].W.RawMatrix().Data, l.Weights)
		copy(p.Layers[i].B.RawVector().Data, l.Bias)
	}
	return &MLP{cfg: a.Config, params: p}, nil
}
