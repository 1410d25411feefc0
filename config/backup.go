package config

import (
	"strings"
	"time"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 2 * time.Second
	defaultMaxBackoff     = 30 * time.Second
	defaultMultiplier     = 2.0
	defaultSubnetPrefix   = "192.168.1"
)

// BackupConfig tunes the backup engine: retry bounds, backoff shape,
// worker concurrency, and last-octet address expansion.
type BackupConfig struct {
	// MaxAttempts is the total number of attempts per robot, including the
	// first (so 3 means two retries).
	MaxAttempts int `env:"MAX_ATTEMPTS" envDefault:"3"`
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration `env:"INITIAL_BACKOFF" envDefault:"2s"`
	// MaxBackoff caps the exponential backoff delay.
	MaxBackoff time.Duration `env:"MAX_BACKOFF" envDefault:"30s"`
	// BackoffMultiplier is the exponential backoff multiplier.
	BackoffMultiplier float64 `env:"BACKOFF_MULTIPLIER" envDefault:"2.0"`
	// MaxConcurrency caps how many robots are backed up in parallel.
	// Zero or negative means one worker per robot.
	MaxConcurrency int `env:"MAX_CONCURRENCY" envDefault:"0"`
	// SubnetPrefix is the first-three-octets prefix used to expand bare
	// last-octet targets. When empty, the prefix is inferred from the first
	// full address in the same job.
	SubnetPrefix string `env:"SUBNET_PREFIX" envDefault:"192.168.1"`
}

// Sanitize normalises values and enforces safe defaults.
func (c *BackupConfig) Sanitize() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultInitialBackoff
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = defaultMaxBackoff
	}
	if c.BackoffMultiplier < 1 {
		c.BackoffMultiplier = defaultMultiplier
	}
	if c.MaxConcurrency < 0 {
		c.MaxConcurrency = 0
	}
	c.SubnetPrefix = strings.TrimSuffix(strings.TrimSpace(c.SubnetPrefix), ".")
}
