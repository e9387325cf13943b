package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	DataPath     string  `yaml:"data_path"`
	Quantize     bool    `yaml:"quantize"`
	Limit        int     `yaml:"limit"`
	TestEvery    int     `yaml:"test_every"`
	InputDim     int     `yaml:"input_dim"`
	Hidden1      int     `yaml:"hidden1"`
	Hidden2      int     `yaml:"hidden2"`
	Classes      int     `yaml:"classes"`
	Epochs       int     `yaml:"epochs"`
	Target       float64 `yaml:"target_accuracy"`
	LearningRate float64 `yaml:"learning_rate"`
	MaxAttempts  int     `yaml:"max_attempts"`
	Seed         int64   `yaml:"seed"`
	LogEvery     int     `yaml:"log_every"`
	ModelOut     string  `yaml:"model_out"`
}

// Default returns a 32/64 hidden network trained for 100 epochs toward 90% accuracy.
func Default() *Config {
	return &Config{
		Quantize:     true,
		TestEvery:    5,
		Hidden1:      32,
		Hidden2:      64,
		Epochs:       100,
		Target:       0.90,
		LearningRate: 0.05,
		LogEvery:     1,
	}
}

// Overrides captures CLI supplied values.
type Overrides struct {
	DataPath string
	// Quantize is nil unless the flag was given on the command line.
	Quantize     *bool
	Limit        int
	TestEvery    int
	Epochs       int
	Target       float64
	LearningRate float64
	MaxAttempts  int
	Seed         int64
	LogEvery     int
	ModelOut     string
}

// Load reads and validates a Config from YAML, on top of Default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := parseYAML(f)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataPath != "" {
		c.DataPath = o.DataPath
	}
	if o.Quantize != nil {
		c.Quantize = *o.Quantize
	}
	if o.Limit > 0 {
		c.Limit = o.Limit
	}
	if o.TestEvery > 0 {
		c.TestEvery = o.TestEvery
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.Target > 0 {
		c.Target = o.Target
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.MaxAttempts > 0 {
		c.MaxAttempts = o.MaxAttempts
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.ModelOut != "" {
		c.ModelOut = o.ModelOut
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DataPath == "" {
		return errors.New("data_path must be set")
	}
	if c.TestEvery < 1 {
		return fmt.Errorf("test_every must be >= 1 (got %d)", c.TestEvery)
	}
	if c.InputDim < 0 || c.Classes < 0 {
		return fmt.Errorf("input_dim and classes must be >= 0 (got %d, %d)", c.InputDim, c.Classes)
	}
	if c.Hidden1 <= 0 || c.Hidden2 <= 0 {
		return fmt.Errorf("hidden1 and hidden2 must be > 0 (got %d, %d)", c.Hidden1, c.Hidden2)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.Target <= 0 || c.Target > 1 {
		return fmt.Errorf("target_accuracy must be in (0, 1] (got %v)", c.Target)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %v)", c.LearningRate)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be >= 0 (got %d)", c.MaxAttempts)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must be >= 0 (got %d)", c.Limit)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 1
	}
	return nil
}

func parseYAML(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: missing ':'", lineNo)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, "\"'")
		var err error
		switch key {
		case "data_path":
			cfg.DataPath = value
		case "model_out":
			cfg.ModelOut = value
		case "quantize":
			cfg.Quantize, err = strconv.ParseBool(value)
		case "limit":
			cfg.Limit, err = strconv.Atoi(value)
		case "test_every":
			cfg.TestEvery, err = strconv.Atoi(value)
		case "input_dim":
			cfg.InputDim, err = strconv.Atoi(value)
		case "hidden1":
			cfg.Hidden1, err = strconv.Atoi(value)
		case "hidden2":
			cfg.Hidden2, err = strconv.Atoi(value)
		case "classes":
			cfg.Classes, err = strconv.Atoi(value)
		case "epochs":
			cfg.Epochs, err = strconv.Atoi(value)
		case "target_accuracy":
			cfg.Target, err = strconv.ParseFloat(value, 64)
		case "learning_rate":
			cfg.LearningRate, err = strconv.ParseFloat(value, 64)
		case "max_attempts":
			cfg.MaxAttempts, err = strconv.Atoi(value)
		case "seed":
			cfg.Seed, err = strconv.ParseInt(value, 10, 64)
		case "log_every":
			cfg.LogEvery, err = strconv.Atoi(value)
		default:
			return nil, fmt.Errorf("line %d: unknown key %s", lineNo, key)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", lineNo, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}
