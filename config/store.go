package config

import (
	"fmt"
	"strings"
)

// StoreBackend selects the job store implementation.
type StoreBackend string

const (
	// StoreBackendFile keeps job definitions in a local JSON document.
	StoreBackendFile StoreBackend = "file"
	// StoreBackendRedis shares job definitions across workstations via Redis.
	StoreBackendRedis StoreBackend = "redis"
)

// Valid returns true if the StoreBackend is valid.
func (b StoreBackend) Valid() bool {
	return b == StoreBackendFile || b == StoreBackendRedis
}

// StoreConfig selects and configures job definition storage and the
// optional run history database.
type StoreConfig struct {
	// Backend selects the job store implementation: "file" or "redis".
	Backend string `env:"BACKEND" envDefault:"file"`
	// FilePath is the JSON document holding job definitions (file backend).
	FilePath string `env:"FILE_PATH" envDefault:"job_configs.json"`
	// RedisAddr is the Redis server address (redis backend).
	RedisAddr string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	// RedisPrefix namespaces job keys in Redis.
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"robobak:job:"`
	// HistoryPath is the SQLite database recording past runs. Empty
	// disables run history.
	HistoryPath string `env:"HISTORY_PATH"`
}

// Sanitize normalises values and enforces safe defaults.
func (c *StoreConfig) Sanitize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = string(StoreBackendFile)
	}
	c.FilePath = strings.TrimSpace(c.FilePath)
	if c.FilePath == "" {
		c.FilePath = "job_configs.json"
	}
	c.RedisAddr = strings.TrimSpace(c.RedisAddr)
	c.RedisPrefix = strings.TrimSpace(c.RedisPrefix)
	if c.RedisPrefix == "" {
		c.RedisPrefix = "robobak:job:"
	}
	c.HistoryPath = strings.TrimSpace(c.HistoryPath)
}

// Validate checks that the selected backend is usable.
func (c *StoreConfig) Validate() error {
	backend := StoreBackend(c.Backend)
	if !backend.Valid() {
		return fmt.Errorf("invalid store backend %q", c.Backend)
	}
	if backend == StoreBackendRedis && c.RedisAddr == "" {
		return fmt.Errorf("redis store backend requires STORE_REDIS_ADDR")
	}
	return nil
}
