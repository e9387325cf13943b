package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrDetachedGraph reports a loss that was not computed from the parameters being updated.
var ErrDetachedGraph = errors.New("model: loss is not attached to these parameters")

// SGD is plain stochastic gradient descent with a fixed learning rate.
type SGD struct {
	lr float64
}

// NewSGD constructs an optimizer. The learning rate must be positive and finite.
func NewSGD(lr float64) (*SGD, error) {
	if lr <= 0 || math.IsInf(lr, 0) || math.IsNaN(lr) {
		return nil, fmt.Errorf("model: learning rate must be > 0 (got %v)", lr)
	}
	return &SGD{lr: lr}, nil
}

// Step applies param -= lr * grad to every tensor in p.
func (o *SGD) Step(p *Params, loss *LossValue) error {
	if p == nil || loss == nil || loss.graph == nil || loss.graph.params != p {
		return ErrDetachedGraph
	}
	grads, err := loss.Gradients()
	if err != nil {
		return err
	}
	for i := range p.Layers {
		w, gw := p.Layers[i].W, grads.Layers[i].W
		w.Apply(func(r, c int, v float64) float64 {
			return v - o.lr*gw.At(r, c)
		}, w)
		b := p.Layers[i].B
		b.AddScaledVec(b, -o.lr, grads.Layers[i].B)
	}
	p.version++
	return nil
}
