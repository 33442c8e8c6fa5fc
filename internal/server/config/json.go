package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/geodash/internal/flagx"
	"github.com/dmitrijs2005/geodash/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Duration fields accept both
// strings such as "10s" and integer nanoseconds. Fields missing from the
// file (or empty strings) leave the current value untouched.
type JsonConfig struct {
	EndpointAddrGRPC    string          `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP    string          `json:"endpoint_addr_http"`
	StoreDriver         string          `json:"store_driver"`
	DatabaseDSN         string          `json:"database_dsn"`
	ChangeFeed          string          `json:"change_feed"`
	RedisURL            string          `json:"redis_url"`
	GeoBaseURL          string          `json:"geo_base_url"`
	GeoAPIKey           string          `json:"geo_api_key"`
	GeoCountryCode      string          `json:"geo_country_code"`
	GeoTimeout          *timex.Duration `json:"geo_timeout"`
	SecretKey           string          `json:"secret_key"`
	KeyValidityDuration *timex.Duration `json:"key_validity_duration"`
	LogLevel            string          `json:"log_level"`
}

// parseJson loads values from the JSON file named by -c/-config, if any.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.StoreDriver, c.StoreDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.ChangeFeed, c.ChangeFeed)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.GeoBaseURL, c.GeoBaseURL)
	setString(&config.GeoAPIKey, c.GeoAPIKey)
	setString(&config.GeoCountryCode, c.GeoCountryCode)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)

	if c.GeoTimeout != nil {
		config.GeoTimeout = c.GeoTimeout.Duration
	}
	if c.KeyValidityDuration != nil {
		config.KeyValidityDuration = c.KeyValidityDuration.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
