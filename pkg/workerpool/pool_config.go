package workerpool

import (
	"errors"
	"time"
)

// Config holds configuration for a Pool.
type Config struct {
	// Workers is the number of worker goroutines. Default: 4.
	Workers int

	// QueueSize is the capacity of the pending-task queue. Default: 64.
	QueueSize int

	// SubmitTimeout bounds how long Submit blocks when the queue is full.
	// 0 means Submit returns ErrPoolTimeout immediately instead of
	// blocking. Default: 5 seconds.
	SubmitTimeout time.Duration

	// Observer receives pool lifecycle events. Optional.
	Observer Observer
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:       4,
		QueueSize:     64,
		SubmitTimeout: 5 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return errors.New("workerpool: Workers must be positive")
	}
	if c.QueueSize < 0 {
		return errors.New("workerpool: QueueSize cannot be negative")
	}
	if c.SubmitTimeout < 0 {
		return errors.New("workerpool: SubmitTimeout cannot be negative")
	}
	return nil
}

// applyDefaults fills in zero values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Workers == 0 {
		c.Workers = defaults.Workers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaults.QueueSize
	}
	if c.SubmitTimeout == 0 {
		c.SubmitTimeout = defaults.SubmitTimeout
	}
}
