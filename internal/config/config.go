// Package config loads optional YAML settings for the generation
// pipeline. Flags override the file; the file overrides built-in
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/examforge/internal/llm"
)

// File is the on-disk configuration shape. Pointer fields distinguish
// "unset" from zero values so flags can tell whether the file spoke.
type File struct {
	// MinScore is the acceptance threshold. The generate command
	// requires one from either this file or the --min-score flag.
	MinScore *float64 `yaml:"min_score"`

	// Difficulties overrides the default easy/medium/hard cycle.
	Difficulties []string `yaml:"difficulties"`

	// Notes enables teaching note generation by default.
	Notes *bool `yaml:"notes"`

	// Concurrency is the worker count for generation.
	Concurrency *int `yaml:"concurrency"`

	// FlushEvery is the JSONL flush interval in samples.
	FlushEvery *int `yaml:"flush_every"`

	// OutputDir is where default-named datasets land.
	OutputDir string `yaml:"output_dir"`

	// BreakerThreshold is the consecutive-failure limit before a run
	// with no successful calls aborts.
	BreakerThreshold *int `yaml:"breaker_threshold"`

	Retry RetryFile `yaml:"retry"`

	// TimeoutSeconds bounds a single LLM request.
	TimeoutSeconds *int `yaml:"timeout_seconds"`
}

// RetryFile mirrors the retry knobs of the LLM middleware.
type RetryFile struct {
	MaxAttempts        *int     `yaml:"max_attempts"`
	InitialWaitSeconds *float64 `yaml:"initial_wait_seconds"`
	MaxWaitSeconds     *float64 `yaml:"max_wait_seconds"`
	Multiplier         *float64 `yaml:"multiplier"`
}

// Load reads the YAML file at path. A missing file is not an error and
// yields an empty File, so every setting falls back to defaults.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &f, nil
}

// ApplyLLM copies the retry and timeout tuning into an llm.Config.
// Unset fields leave the target untouched.
func (f *File) ApplyLLM(cfg *llm.Config) {
	if f.Retry.MaxAttempts != nil {
		cfg.Retry.MaxAttempts = *f.Retry.MaxAttempts
	}
	if f.Retry.InitialWaitSeconds != nil {
		cfg.Retry.InitialWait = time.Duration(*f.Retry.InitialWaitSeconds * float64(time.Second))
	}
	if f.Retry.MaxWaitSeconds != nil {
		cfg.Retry.MaxWait = time.Duration(*f.Retry.MaxWaitSeconds * float64(time.Second))
	}
	if f.Retry.Multiplier != nil {
		cfg.Retry.Multiplier = *f.Retry.Multiplier
	}
	if d := f.Timeout(); d > 0 {
		cfg.Timeout = d
	}
}

// Timeout returns the configured request timeout, or zero when unset.
func (f *File) Timeout() time.Duration {
	if f.TimeoutSeconds == nil {
		return 0
	}
	return time.Duration(*f.TimeoutSeconds) * time.Second
}

// DefaultPath resolves the config file location:
// 1. EXAMFORGE_CONFIG environment variable
// 2. $XDG_CONFIG_HOME/examforge/config.yaml
// 3. ~/.config/examforge/config.yaml
func DefaultPath() (string, error) {
	if p := os.Getenv("EXAMFORGE_CONFIG"); p != "" {
		return p, nil
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Join(configHome, "examforge", "config.yaml"), nil
}
