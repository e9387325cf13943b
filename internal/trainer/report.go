package trainer

import (
	"log"
	"time"

	"perceptron-forge/internal/metrics"
	"perceptron-forge/internal/model"
)

// Attempt identifies one independent training run inside the supervisor.
type Attempt struct {
	RunID  string
	Number int
	Seed   int64
}

// Progress is emitted once per epoch.
type Progress struct {
	RunID        string
	Attempt      int
	Epoch        int
	TrainLoss    float64
	TestAccuracy float64
	Samples      int
	Compute      time.Duration
	Final        bool
}

// Reporter consumes training telemetry. Implementations must not retain or
// mutate the model handed to AttemptStarted.
type Reporter interface {
	AttemptStarted(run Attempt, mdl *model.MLP)
	EpochDone(p Progress)
	AttemptDone(run Attempt, out Outcome)
}

type nopReporter struct{}

func (nopReporter) AttemptStarted(Attempt, *model.MLP) {}
func (nopReporter) EpochDone(Progress)                 {}
func (nopReporter) AttemptDone(Attempt, Outcome)       {}

// LogReporter writes key=value progress lines every LogEvery epochs and on the
// last epoch of each run.
type LogReporter struct {
	LogEvery int
	Logger   *log.Logger

	window metrics.Window
}

func (r *LogReporter) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

// AttemptStarted resets the timing window and logs the attempt's seed.
func (r *LogReporter) AttemptStarted(run Attempt, _ *model.MLP) {
	r.window.Snapshot()
	r.logger().Printf("run=%s attempt=%d seed=%d msg=%q", run.RunID, run.Number, run.Seed, "training neural network")
}

// EpochDone records the epoch and logs the window every LogEvery epochs.
func (r *LogReporter) EpochDone(p Progress) {
	r.window.Record(p.Samples, p.Compute, p.TrainLoss, p.TestAccuracy)
	every := r.LogEvery
	if every <= 0 {
		every = 1
	}
	if p.Epoch%every != 0 && !p.Final {
		return
	}
	snap := r.window.Snapshot()
	r.logger().Printf("run=%s attempt=%d epoch=%3d train_loss=%8.5f test_accuracy=%5.2f%% samples_per_sec=%.1f compute_ms=%.2f",
		p.RunID,
		p.Attempt,
		p.Epoch,
		snap.LastLoss,
		100*snap.LastAccuracy,
		snap.SamplesPerSec,
		snap.AvgComputeMS,
	)
}

// AttemptDone logs how the attempt ended.
func (r *LogReporter) AttemptDone(run Attempt, out Outcome) {
	if out.Err != nil {
		r.logger().Printf("run=%s attempt=%d state=%s epochs=%d err=%q", run.RunID, run.Number, out.State, out.Epochs, out.Err)
		return
	}
	r.logger().Printf("run=%s attempt=%d state=%s epochs=%d test_accuracy=%5.2f%%", run.RunID, run.Number, out.State, out.Epochs, 100*out.Accuracy)
}
