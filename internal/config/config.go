// Package config loads engine settings from the environment.
//
// Every knob has a default that matches documented provider behavior; the
// RECON_* environment variables override them, so deployments can tighten
// or relax tolerances without a rebuild.
package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all tunables of the reconciliation engine and its batch
// runner.
type Config struct {
	// Epsilon is the tolerance for balance-diff comparisons.
	Epsilon float64

	// PermutationCap bounds the exhaustive same-timestamp search; groups
	// larger than this fall back to the heuristic ordering.
	PermutationCap int

	// SignificantGapDays is the day gap above which missing statement days
	// are assumed.
	SignificantGapDays float64

	// WorkerCount is the number of concurrent statement workers.
	WorkerCount int

	// QueueSize is the in-memory job queue buffer.
	QueueSize int

	// LogLevel is the zerolog level name.
	LogLevel string
}

// Default returns the engine defaults.
func Default() *Config {
	return &Config{
		Epsilon:            0.01,
		PermutationCap:     5,
		SignificantGapDays: 1.0,
		WorkerCount:        5,
		QueueSize:          100,
		LogLevel:           "info",
	}
}

// Load reads configuration from RECON_* environment variables, falling back
// to defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("epsilon", def.Epsilon)
	v.SetDefault("permutation_cap", def.PermutationCap)
	v.SetDefault("significant_gap_days", def.SignificantGapDays)
	v.SetDefault("worker_count", def.WorkerCount)
	v.SetDefault("queue_size", def.QueueSize)
	v.SetDefault("log_level", def.LogLevel)

	cfg := &Config{
		Epsilon:            v.GetFloat64("epsilon"),
		PermutationCap:     v.GetInt("permutation_cap"),
		SignificantGapDays: v.GetFloat64("significant_gap_days"),
		WorkerCount:        v.GetInt("worker_count"),
		QueueSize:          v.GetInt("queue_size"),
		LogLevel:           v.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Epsilon < 0 {
		return fmt.Errorf("epsilon cannot be negative: %f", c.Epsilon)
	}
	if c.PermutationCap < 1 {
		return fmt.Errorf("permutation cap must be at least 1: %d", c.PermutationCap)
	}
	// 8! = 40320 candidate orderings per group is already painful; anything
	// beyond that is factorially prohibitive.
	if c.PermutationCap > 8 {
		return fmt.Errorf("permutation cap above 8 is computationally prohibitive: %d", c.PermutationCap)
	}
	if c.SignificantGapDays <= 0 {
		return fmt.Errorf("significant gap days must be positive: %f", c.SignificantGapDays)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker count must be positive: %d", c.WorkerCount)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue size must be positive: %d", c.QueueSize)
	}
	return nil
}

// EpsilonDecimal returns Epsilon as a decimal for balance comparisons.
func (c *Config) EpsilonDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Epsilon)
}
