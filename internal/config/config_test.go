package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `# banana run
data_path: "data/banana_quality.csv"
hidden1: 16
epochs: 50
target_accuracy: 0.85
learning_rate: 0.1
max_attempts: 3
seed: 42
quantize: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataPath != "data/banana_quality.csv" || cfg.Hidden1 != 16 || cfg.Epochs != 50 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Target != 0.85 || cfg.LearningRate != 0.1 || cfg.MaxAttempts != 3 || cfg.Seed != 42 || cfg.Quantize {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Hidden2 != 64 || cfg.TestEvery != 5 {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "data_path: x\nbatch_size: 3\n",
		"missing colon": "data_path x\n",
		"bad number":    "data_path: x\nepochs: ten\n",
		"no data":       "epochs: 10\n",
		"bad target":    "data_path: x\ntarget_accuracy: 1.5\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "open config") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.DataPath = "a.csv"
	cfg.ApplyOverrides(Overrides{DataPath: "b.csv", Epochs: 7, MaxAttempts: 2, Seed: 9})
	if cfg.DataPath != "b.csv" || cfg.Epochs != 7 || cfg.MaxAttempts != 2 || cfg.Seed != 9 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Target != 0.90 || cfg.LearningRate != 0.05 {
		t.Fatalf("zero overrides changed values: %+v", cfg)
	}
}

func TestApplyOverridesPartition(t *testing.T) {
	cfg := Default()
	cfg.DataPath = "a.csv"
	cfg.ApplyOverrides(Overrides{})
	if !cfg.Quantize || cfg.TestEvery != 5 {
		t.Fatalf("unset overrides changed values: %+v", cfg)
	}
	off := false
	cfg.ApplyOverrides(Overrides{Quantize: &off, TestEvery: 4})
	if cfg.Quantize || cfg.TestEvery != 4 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestValidateDefaultsLogEvery(t *testing.T) {
	cfg := Default()
	cfg.DataPath = "a.csv"
	cfg.LogEvery = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.LogEvery != 1 {
		t.Fatalf("expected log_every default 1, got %d", cfg.LogEvery)
	}
}
