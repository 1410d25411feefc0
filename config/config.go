// Package config holds environment-driven configuration for robobak.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config files for
// the available variables:
//   - ftp.go: robot controller FTP transport configuration
//   - backup.go: retry, backoff, concurrency, and addressing configuration
//   - store.go: job store and run history configuration
package config

// AppConfig composes the domain-specific configuration sections.
type AppConfig struct {
	// FTP transport settings shared by every robot session.
	FTP FTPConfig `envPrefix:"FTP_"`

	// Backup engine settings (retries, backoff, concurrency, subnet prefix).
	Backup BackupConfig `envPrefix:"BACKUP_"`

	// Job store and run history settings.
	Store StoreConfig `envPrefix:"STORE_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// It should be called after env parsing and before the config is used.
func (c *AppConfig) Sanitize() {
	c.FTP.Sanitize()
	c.Backup.Sanitize()
	c.Store.Sanitize()
}
