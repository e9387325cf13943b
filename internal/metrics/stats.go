package metrics

import "time"

// Window accumulates per-epoch timing and quality stats between log lines.
type Window struct {
	samples      int
	compute      time.Duration
	epochs       int
	lastLoss     float64
	lastAccuracy float64
}

// Record adds one epoch's measurement to the window.
func (w *Window) Record(samples int, computeTime time.Duration, loss, accuracy float64) {
	w.samples += samples
	w.compute += computeTime
	w.epochs++
	w.lastLoss = loss
	w.lastAccuracy = accuracy
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{Epochs: w.epochs}
	if w.compute > 0 {
		snap.SamplesPerSec = float64(w.samples) / w.compute.Seconds()
	}
	if w.epochs > 0 {
		snap.AvgComputeMS = (w.compute.Seconds() * 1000) / float64(w.epochs)
	}
	snap.LastLoss = w.lastLoss
	snap.LastAccuracy = w.lastAccuracy

	w.samples = 0
	w.compute = 0
	w.epochs = 0
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	Epochs        int
	SamplesPerSec float64
	AvgComputeMS  float64
	LastLoss      float64
	LastAccuracy  float64
}
