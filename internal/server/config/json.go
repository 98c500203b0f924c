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
	EndpointAddr         string `json:"endpoint_addr"`
	DatabaseDSN          string `json:"database_dsn"`
	ReadOnlyDSN          string `json:"read_only_dsn"`
	SecretKey            string `json:"secret_key"`
	TokenValidityMinutes int    `json:"token_validity_minutes"`
	S3AccessKey          string `json:"s3_access_key"`
	S3SecretKey          string `json:"s3_secret_key"`
	S3Bucket             string `json:"s3_bucket"`
	S3Region             string `json:"s3_region"`
	S3BaseEndpoint       string `json:"s3_base_endpoint"`
	S3PublicBaseURL      string `json:"s3_public_base_url"`
	LLMEndpoint          string `json:"llm_endpoint"`
	LLMAPIKey            string `json:"llm_api_key"`
	LLMModel             string `json:"llm_model"`
	OCREndpoint          string `json:"ocr_endpoint"`
	OCRAPIKey            string `json:"ocr_api_key"`
	AnalyticsTable       string `json:"analytics_table"`
	AnalyticsSchema      string `json:"analytics_schema"`
	AnalyticsRowCeiling  int    `json:"analytics_row_ceiling"`
	DefaultCurrency      string `json:"default_currency"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. Absent file means nothing to
// load; an unreadable or invalid file panics, matching flag handling.
// Zero-valued JSON fields leave the corresponding defaults in place.
func parseJson(config *Config) {
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

	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.ReadOnlyDSN, c.ReadOnlyDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenValidityMinutes > 0 {
		config.TokenValidity = time.Duration(c.TokenValidityMinutes) * time.Minute
	}
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	setString(&config.LLMEndpoint, c.LLMEndpoint)
	setString(&config.LLMAPIKey, c.LLMAPIKey)
	setString(&config.LLMModel, c.LLMModel)
	setString(&config.OCREndpoint, c.OCREndpoint)
	setString(&config.OCRAPIKey, c.OCRAPIKey)
	setString(&config.AnalyticsTable, c.AnalyticsTable)
	setString(&config.AnalyticsSchema, c.AnalyticsSchema)
	if c.AnalyticsRowCeiling > 0 {
		config.AnalyticsRowCeiling = c.AnalyticsRowCeiling
	}
	setString(&config.DefaultCurrency, c.DefaultCurrency)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
