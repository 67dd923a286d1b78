package broadphase

import (
	"math"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_INITIAL_CAPACITY = 16

	// maxNodeCapacity is bounded by the int32 index stored in a NodeID
	maxNodeCapacity = math.MaxInt32
)

// Config holds the construction parameters of a Tree
type Config struct {
	// FatInflatePercentage is the per-axis margin fraction added on both sides of
	// every leaf: margin = extent * FatInflatePercentage / 2
	FatInflatePercentage float64

	// InitialCapacity is the number of node slots allocated up front
	InitialCapacity int

	// MaxCapacity caps the arena growth. 0 means the whole int32 index space.
	MaxCapacity int

	Logger logrus.FieldLogger
}

func DefaultConfig() Config {
	return Config{
		FatInflatePercentage: 0,
		InitialCapacity:      DEFAULT_INITIAL_CAPACITY,
		MaxCapacity:          maxNodeCapacity,
		Logger:               logrus.StandardLogger(),
	}
}

// withDefaults replaces zero or out-of-range values with their defaults
func (c Config) withDefaults() Config {
	if c.InitialCapacity <= 0 {
		c.InitialCapacity = DEFAULT_INITIAL_CAPACITY
	}
	if c.MaxCapacity <= 0 || c.MaxCapacity > maxNodeCapacity {
		c.MaxCapacity = maxNodeCapacity
	}
	if c.InitialCapacity > c.MaxCapacity {
		c.InitialCapacity = c.MaxCapacity
	}
	if c.FatInflatePercentage < 0 || math.IsNaN(c.FatInflatePercentage) {
		c.FatInflatePercentage = 0
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return c
}
