package engine

import (
	"fmt"
	"runtime"
)

// EngineConfig contains configuration for the simulation engine.
type EngineConfig struct {
	// MaxGroups is the maximum number of groups accepted in a rule set.
	// Zero disables the limit.
	// Default: 100.
	MaxGroups int

	// MaxRulesPerGroup is the maximum number of rules accepted per group.
	// Zero disables the limit.
	// Default: 200.
	MaxRulesPerGroup int

	// BatchWorkers bounds the number of concurrent simulations in
	// SimulateBatch.
	// Default: number of CPUs.
	BatchWorkers int
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		MaxGroups:        100,
		MaxRulesPerGroup: 200,
		BatchWorkers:     runtime.NumCPU(),
	}
}

// Validate validates the engine configuration.
func (c *EngineConfig) Validate() error {
	if c.MaxGroups < 0 {
		return fmt.Errorf("%w: max groups must be non-negative, got %d", ErrInvalidConfig, c.MaxGroups)
	}
	if c.MaxRulesPerGroup < 0 {
		return fmt.Errorf("%w: max rules per group must be non-negative, got %d", ErrInvalidConfig, c.MaxRulesPerGroup)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("%w: batch workers must be at least 1, got %d", ErrInvalidConfig, c.BatchWorkers)
	}
	return nil
}
