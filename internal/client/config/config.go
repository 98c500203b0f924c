// Package config handles configuration for the expensesync CLI, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the CLI.
type Config struct {
	ServerEndpointAddr   string
	DatabasePath         string
	OnlineCheckInterval  time.Duration
	SyncInterval         time.Duration
	CountRefreshInterval time.Duration
	DefaultCurrency      string
	DefaultProjectID     string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabasePath = "expensesync.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 30 * time.Second
	c.CountRefreshInterval = 5 * time.Second
	c.DefaultCurrency = "USD"
	c.DefaultProjectID = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
