package metrics

import (
	"math"
	"testing"
	"time"
)

func TestWindowSnapshot(t *testing.T) {
	var w Window
	w.Record(64, 20*time.Millisecond, 1.2, 0.5)
	w.Record(64, 40*time.Millisecond, 0.8, 0.75)
	snap := w.Snapshot()
	if math.Abs(snap.SamplesPerSec-2133.3333) > 1 {
		t.Fatalf("unexpected throughput %.2f", snap.SamplesPerSec)
	}
	if math.Abs(snap.AvgComputeMS-30) > 1e-9 {
		t.Fatalf("unexpected compute ms %.2f", snap.AvgComputeMS)
	}
	if w.samples != 0 || w.epochs != 0 {
		t.Fatalf("window was not reset")
	}
	if snap.LastLoss != 0.8 || snap.LastAccuracy != 0.75 {
		t.Fatalf("expected last loss 0.8 and accuracy 0.75, got %.2f %.2f", snap.LastLoss, snap.LastAccuracy)
	}
	if snap.Epochs != 2 {
		t.Fatalf("expected 2 epochs, got %d", snap.Epochs)
	}
}

func TestWindowEmptySnapshot(t *testing.T) {
	var w Window
	snap := w.Snapshot()
	if snap.SamplesPerSec != 0 || snap.AvgComputeMS != 0 || snap.Epochs != 0 {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
}
