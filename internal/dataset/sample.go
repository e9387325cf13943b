package dataset

import (
	"errors"
	"fmt"
)

// DefaultCadence sends every fifth sample to the test split (an 80/20 split).
const DefaultCadence = 5

// ErrEmptyDataset indicates there is nothing to train or evaluate on.
var ErrEmptyDataset = errors.New("dataset: no samples")

// Sample is a labeled feature vector. It is immutable once constructed.
type Sample struct {
	features []float64
	label    int
}

// NewSample copies features so later changes by the caller are not observed.
func NewSample(features []float64, label int) Sample {
	return Sample{features: append([]float64(nil), features...), label: label}
}

// Features returns a copy of the feature vector.
func (s Sample) Features() []float64 {
	return append([]float64(nil), s.features...)
}

// Dim is the number of features.
func (s Sample) Dim() int {
	return len(s.features)
}

// Label is the integer class.
func (s Sample) Label() int {
	return s.label
}

// Split is a disjoint train/test partition of one source collection.
type Split struct {
	Train []Sample
	Test  []Sample
}

// Partition sends every sample whose index is a multiple of cadence to Test and
// the rest to Train, preserving order. A cadence below 1 uses DefaultCadence.
func Partition(samples []Sample, cadence int) Split {
	if cadence < 1 {
		cadence = DefaultCadence
	}
	var split Split
	for i, s := range samples {
		if i%cadence == 0 {
			split.Test = append(split.Test, s)
		} else {
			split.Train = append(split.Train, s)
		}
	}
	return split
}

// Validate checks that both halves are non-empty and share one feature width.
func (s Split) Validate() error {
	if len(s.Train) == 0 {
		return fmt.Errorf("%w: empty train split", ErrEmptyDataset)
	}
	if len(s.Test) == 0 {
		return fmt.Errorf("%w: empty test split", ErrEmptyDataset)
	}
	dim := s.Train[0].Dim()
	for _, part := range [][]Sample{s.Train, s.Test} {
		for i, sample := range part {
			if sample.Dim() != dim {
				return fmt.Errorf("dataset: sample %d has %d features, want %d", i, sample.Dim(), dim)
			}
		}
	}
	return nil
}

// Classes returns one more than the largest label seen, the smallest class count
// able to represent every label.
func (s Split) Classes() int {
	classes := 0
	for _, part := range [][]Sample{s.Train, s.Test} {
		for _, sample := range part {
			if sample.label+1 > classes {
				classes = sample.label + 1
			}
		}
	}
	return classes
}
