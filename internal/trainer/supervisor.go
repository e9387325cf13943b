package trainer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"perceptron-forge/internal/dataset"
	"perceptron-forge/internal/model"
)

// ErrExhaustedRetries is returned once MaxAttempts runs have all failed to converge.
var ErrExhaustedRetries = errors.New("trainer: exhausted retry attempts")

// Supervisor restarts training from a fresh initialization until a run converges.
type Supervisor struct {
	// Model is the architecture. Zero InputDim and OutputDim are filled in
	// from the data's feature width and largest label.
	Model model.Config
	Loop  LoopConfig
	// MaxAttempts bounds the number of runs. Zero retries forever.
	MaxAttempts int
	// Seed makes attempt n draw its weights from Seed+n-1. Zero seeds from the clock.
	Seed     int64
	Reporter Reporter
}

// Result is a converged model together with how it was reached.
type Result struct {
	Model    *model.MLP
	Accuracy float64
	Epochs   int
	Attempts int
	RunID    string
}

// TrainUntilSuccess runs independent attempts until one converges. Every attempt
// gets its own parameters, optimizer and epoch counter; nothing survives a
// failed attempt. Only configuration errors, run aborts and ErrExhaustedRetries
// reach the caller.
func (s *Supervisor) TrainUntilSuccess(ctx context.Context, split dataset.Split) (Result, error) {
	data, err := NewTrainData(split)
	if err != nil {
		return Result{}, err
	}
	if err := s.Loop.validate(); err != nil {
		return Result{}, err
	}
	cfg := s.Model
	if cfg.InputDim == 0 {
		cfg.InputDim = data.Dim()
	}
	if cfg.OutputDim == 0 {
		cfg.OutputDim = split.Classes()
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if cfg.InputDim != data.Dim() {
		return Result{}, fmt.Errorf("%w: data has %d features, model expects %d", model.ErrDimensionMismatch, data.Dim(), cfg.InputDim)
	}
	if classes := split.Classes(); classes > cfg.OutputDim {
		return Result{}, fmt.Errorf("%w: data has %d classes, model has %d outputs", model.ErrLabelOutOfRange, classes, cfg.OutputDim)
	}

	report := s.Reporter
	if report == nil {
		report = nopReporter{}
	}
	base := s.Seed
	if base == 0 {
		base = time.Now().UnixNano()
	}

	var last Outcome
	for attempt := 1; s.MaxAttempts <= 0 || attempt <= s.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{Attempts: attempt - 1}, err
		}
		run := Attempt{
			RunID:  uuid.New().String(),
			Number: attempt,
			Seed:   base + int64(attempt-1),
		}
		mdl, err := model.NewMLP(cfg, rand.New(rand.NewSource(run.Seed)))
		if err != nil {
			return Result{Attempts: attempt}, err
		}
		report.AttemptStarted(run, mdl)

		out, err := TrainOnce(ctx, data, mdl, s.Loop, run, report)
		if err != nil {
			return Result{Attempts: attempt}, fmt.Errorf("attempt %d: %w", attempt, err)
		}
		report.AttemptDone(run, out)
		if out.State == Converged {
			return Result{
				Model:    out.Model,
				Accuracy: out.Accuracy,
				Epochs:   out.Epochs,
				Attempts: attempt,
				RunID:    run.RunID,
			}, nil
		}
		last = out
	}
	return Result{Attempts: s.MaxAttempts}, fmt.Errorf("%w: %d attempts: %w", ErrExhaustedRetries, s.MaxAttempts, last.Err)
}
