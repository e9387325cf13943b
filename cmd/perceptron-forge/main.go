package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"perceptron-forge/internal/config"
	"perceptron-forge/internal/dataset"
	"perceptron-forge/internal/metrics"
	"perceptron-forge/internal/model"
	"perceptron-forge/internal/trainer"
)

func main() {
	cfgPath := flag.String("config", "configs/banana.yaml", "Path to YAML config")
	dataPath := flag.String("data", "", "Override CSV file or directory")
	quantize := flag.Bool("quantize", true, "Truncate features to non-negative integers")
	limit := flag.Int("limit", 0, "Maximum rows to read")
	testEvery := flag.Int("test-every", 0, "Hold out every Nth sample for testing")
	epochs := flag.Int("epochs", 0, "Epoch budget per attempt")
	target := flag.Float64("target", 0, "Target test accuracy in (0, 1]")
	lr := flag.Float64("lr", 0, "SGD learning rate")
	maxAttempts := flag.Int("max-attempts", 0, "Maximum training attempts (0 retries forever)")
	seed := flag.Int64("seed", 0, "PRNG seed")
	logEvery := flag.Int("log-every", 0, "Log every N epochs")
	modelOut := flag.String("model-out", "", "Write the trained model to this file")

	flag.Parse()

	var quantizeOverride *bool
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "quantize" {
			quantizeOverride = quantize
		}
	})

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	cfg.ApplyOverrides(config.Overrides{
		DataPath:     *dataPath,
		Quantize:     quantizeOverride,
		Limit:        *limit,
		TestEvery:    *testEvery,
		Epochs:       *epochs,
		Target:       *target,
		LearningRate: *lr,
		MaxAttempts:  *maxAttempts,
		Seed:         *seed,
		LogEvery:     *logEvery,
		ModelOut:     *modelOut,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Print(metrics.Host())
	mem := metrics.MemoryLog{Sink: func(s metrics.MemSample) { log.Print(s) }}

	mem.Snapshot("before dataset preparation")
	samples, err := dataset.LoadCSV(cfg.DataPath, dataset.CSVOptions{Quantize: cfg.Quantize, Limit: cfg.Limit})
	if err != nil {
		log.Fatalf("load dataset %s: %v", cfg.DataPath, err)
	}
	split := dataset.Partition(samples, cfg.TestEvery)
	log.Printf("data=%s samples=%d train=%d test=%d", cfg.DataPath, len(samples), len(split.Train), len(split.Test))
	mem.Snapshot("after dataset preparation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := trainer.Supervisor{
		Model: model.Config{
			InputDim:  cfg.InputDim,
			Hidden1:   cfg.Hidden1,
			Hidden2:   cfg.Hidden2,
			OutputDim: cfg.Classes,
		},
		Loop: trainer.LoopConfig{
			Epochs:       cfg.Epochs,
			Target:       cfg.Target,
			LearningRate: cfg.LearningRate,
		},
		MaxAttempts: cfg.MaxAttempts,
		Seed:        cfg.Seed,
		Reporter:    &trainer.LogReporter{LogEvery: cfg.LogEvery},
	}

	mem.Snapshot("before training")
	res, err := sup.TrainUntilSuccess(ctx, split)
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	log.Printf("run=%s attempts=%d epochs=%d test_accuracy=%5.2f%%", res.RunID, res.Attempts, res.Epochs, 100*res.Accuracy)
	mem.Snapshot("after training")

	test := trainer.BatchOf(split.Test)
	mem.Snapshot("before prediction")
	hits, err := model.Evaluate(res.Model, test)
	if err != nil {
		log.Fatalf("predict: %v", err)
	}
	log.Printf("predicted=%d correct=%d", test.Len(), hits)
	mem.Snapshot("after prediction")

	if cfg.ModelOut != "" {
		if err := res.Model.WriteFile(cfg.ModelOut); err != nil {
			log.Fatalf("write model: %v", err)
		}
		log.Printf("model=%s", cfg.ModelOut)
		mem.Snapshot("after saving model")
	}
}
