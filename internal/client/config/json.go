package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/openfield/expensesync/internal/flagx"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	ServerEndpointAddr          string `json:"server_endpoint_addr"`
	DatabasePath                string `json:"database_path"`
	OnlineCheckIntervalSeconds  int    `json:"online_check_interval_seconds"`
	SyncIntervalSeconds         int    `json:"sync_interval_seconds"`
	CountRefreshIntervalSeconds int    `json:"count_refresh_interval_seconds"`
	DefaultCurrency             string `json:"default_currency"`
	DefaultProjectID            string `json:"default_project_id"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. Absent file means nothing to
// load; an unreadable or invalid file panics, matching flag handling.
// Zero-valued JSON fields leave the corresponding defaults in place.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, c.ServerEndpointAddr)
	setString(&cfg.DatabasePath, c.DatabasePath)
	if c.OnlineCheckIntervalSeconds > 0 {
		cfg.OnlineCheckInterval = time.Duration(c.OnlineCheckIntervalSeconds) * time.Second
	}
	if c.SyncIntervalSeconds > 0 {
		cfg.SyncInterval = time.Duration(c.SyncIntervalSeconds) * time.Second
	}
	if c.CountRefreshIntervalSeconds > 0 {
		cfg.CountRefreshInterval = time.Duration(c.CountRefreshIntervalSeconds) * time.Second
	}
	setString(&cfg.DefaultCurrency, c.DefaultCurrency)
	setString(&cfg.DefaultProjectID, c.DefaultProjectID)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
