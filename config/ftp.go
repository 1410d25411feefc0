package config

import (
	"strings"
	"time"
)

const defaultFTPTimeout = 30 * time.Second

// FTPConfig controls how FTP sessions to robot controllers are opened.
// FANUC controllers accept anonymous logins out of the box, so empty
// credentials select anonymous mode.
type FTPConfig struct {
	// User is the FTP login name. Empty selects anonymous login.
	User string `env:"USER"`
	// Password is the FTP login password.
	Password string `env:"PASSWORD"`
	// Port is the controller FTP port.
	Port int `env:"PORT" envDefault:"21"`
	// Timeout bounds the dial and each control-channel command.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Sanitize normalises values and enforces safe defaults.
func (c *FTPConfig) Sanitize() {
	c.User = strings.TrimSpace(c.User)
	if c.Port <= 0 || c.Port > 65535 {
		c.Port = 21
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultFTPTimeout
	}
}

// Anonymous reports whether sessions should use anonymous login.
func (c *FTPConfig) Anonymous() bool {
	return c.User == ""
}
