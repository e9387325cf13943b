package trainer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"perceptron-forge/internal/dataset"
	"perceptron-forge/internal/model"
)

var (
	// ErrNotConverged is the retryable outcome of a run that spent its epoch budget.
	ErrNotConverged = errors.New("trainer: did not reach target accuracy within epoch budget")
	// ErrNonFiniteLoss aborts a run whose training loss became NaN or infinite.
	ErrNonFiniteLoss = errors.New("trainer: training loss is not finite")
)

// LoopConfig captures the knobs of a single training run.
type LoopConfig struct {
	Epochs       int
	Target       float64
	LearningRate float64
}

// DefaultLoopConfig returns 100 epochs, a 0.90 accuracy target and a 0.05 learning rate.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{Epochs: 100, Target: 0.90, LearningRate: 0.05}
}

func (c LoopConfig) validate() error {
	if c.Epochs <= 0 {
		return fmt.Errorf("trainer: epochs must be > 0 (got %d)", c.Epochs)
	}
	if !(c.Target > 0 && c.Target <= 1) {
		return fmt.Errorf("trainer: target accuracy must be in (0, 1] (got %v)", c.Target)
	}
	if !(c.LearningRate > 0) || math.IsInf(c.LearningRate, 0) {
		return fmt.Errorf("trainer: learning rate must be > 0 (got %v)", c.LearningRate)
	}
	return nil
}

// State is where a training run stands.
type State int

const (
	Running State = iota
	Converged
	Exhausted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome is the result of one run. Err is set, wrapping ErrNotConverged, when
// State is Exhausted.
type Outcome struct {
	State    State
	Model    *model.MLP
	Accuracy float64
	Loss     float64
	Epochs   int
	Err      error
}

// TrainData holds both halves of a split packed as matrices.
type TrainData struct {
	TrainX *mat.Dense
	TrainY []int
	TestX  *mat.Dense
	TestY  []int
}

// NewTrainData packs split into matrices. Either half being empty is ErrEmptyDataset.
func NewTrainData(split dataset.Split) (TrainData, error) {
	if err := split.Validate(); err != nil {
		return TrainData{}, err
	}
	train := BatchOf(split.Train)
	test := BatchOf(split.Test)
	trainX, err := train.Matrix()
	if err != nil {
		return TrainData{}, fmt.Errorf("train split: %w", err)
	}
	testX, err := test.Matrix()
	if err != nil {
		return TrainData{}, fmt.Errorf("test split: %w", err)
	}
	return TrainData{TrainX: trainX, TrainY: train.Labels, TestX: testX, TestY: test.Labels}, nil
}

// Dim is the feature width shared by both halves.
func (d TrainData) Dim() int {
	if d.TrainX == nil {
		return 0
	}
	_, c := d.TrainX.Dims()
	return c
}

func (d TrainData) validate() error {
	if d.TrainX == nil || len(d.TrainY) == 0 {
		return fmt.Errorf("%w: empty train split", dataset.ErrEmptyDataset)
	}
	if d.TestX == nil || len(d.TestY) == 0 {
		return fmt.Errorf("%w: empty test split", dataset.ErrEmptyDataset)
	}
	return nil
}

// BatchOf copies samples into a model batch, preserving order.
func BatchOf(samples []dataset.Sample) model.Batch {
	inputs := make([][]float64, 0, len(samples))
	labels := make([]int, 0, len(samples))
	for _, s := range samples {
		inputs = append(inputs, s.Features())
		labels = append(labels, s.Label())
	}
	return model.Batch{Inputs: inputs, Labels: labels}
}

// TrainOnce runs full-batch gradient descent on mdl for up to cfg.Epochs epochs,
// stopping as soon as test accuracy reaches cfg.Target. Spending the budget is
// reported through Outcome; only structural, numerical and context errors are
// returned as errors.
func TrainOnce(ctx context.Context, data TrainData, mdl *model.MLP, cfg LoopConfig, run Attempt, report Reporter) (Outcome, error) {
	if err := cfg.validate(); err != nil {
		return Outcome{}, err
	}
	if mdl == nil {
		return Outcome{}, errors.New("trainer: nil model")
	}
	if err := data.validate(); err != nil {
		return Outcome{}, err
	}
	if report == nil {
		report = nopReporter{}
	}
	opt, err := model.NewSGD(cfg.LearningRate)
	if err != nil {
		return Outcome{}, err
	}
	params := mdl.Params()
	trainRows, _ := data.TrainX.Dims()

	out := Outcome{State: Running, Model: mdl}
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		start := time.Now()

		graph, err := mdl.Trace(data.TrainX)
		if err != nil {
			return out, fmt.Errorf("epoch %d: forward: %w", epoch, err)
		}
		loss, err := graph.Loss(data.TrainY)
		if err != nil {
			return out, fmt.Errorf("epoch %d: loss: %w", epoch, err)
		}
		if math.IsNaN(loss.Value) || math.IsInf(loss.Value, 0) {
			return out, fmt.Errorf("epoch %d: %w", epoch, ErrNonFiniteLoss)
		}
		if err := opt.Step(params, loss); err != nil {
			return out, fmt.Errorf("epoch %d: step: %w", epoch, err)
		}

		logits, err := mdl.Forward(data.TestX)
		if err != nil {
			return out, fmt.Errorf("epoch %d: evaluate: %w", epoch, err)
		}
		acc, err := model.Accuracy(logits, data.TestY)
		if err != nil {
			return out, fmt.Errorf("epoch %d: evaluate: %w", epoch, err)
		}

		out.Epochs, out.Loss, out.Accuracy = epoch, loss.Value, acc
		converged := acc >= cfg.Target
		report.EpochDone(Progress{
			RunID:        run.RunID,
			Attempt:      run.Number,
			Epoch:        epoch,
			TrainLoss:    loss.Value,
			TestAccuracy: acc,
			Samples:      trainRows,
			Compute:      time.Since(start),
			Final:        converged || epoch == cfg.Epochs,
		})
		if converged {
			out.State = Converged
			return out, nil
		}
	}

	out.State = Exhausted
	out.Err = fmt.Errorf("%w: accuracy %.4f < %.4f after %d epochs", ErrNotConverged, out.Accuracy, cfg.Target, out.Epochs)
	return out, nil
}
