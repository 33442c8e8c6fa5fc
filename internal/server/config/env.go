package config

import (
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by parseEnv, e.g.
// GEODASH_DATABASE_DSN.
const EnvPrefix = "GEODASH"

// parseEnv overlays GEODASH_* environment variables. Unset variables leave
// the current value untouched; a variable set to the empty string clears it.
func parseEnv(config *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	str("endpoint_addr_grpc", &config.EndpointAddrGRPC)
	str("endpoint_addr_http", &config.EndpointAddrHTTP)
	str("store_driver", &config.StoreDriver)
	str("database_dsn", &config.DatabaseDSN)
	str("change_feed", &config.ChangeFeed)
	str("redis_url", &config.RedisURL)
	str("geo_base_url", &config.GeoBaseURL)
	str("geo_api_key", &config.GeoAPIKey)
	str("geo_country_code", &config.GeoCountryCode)
	str("secret_key", &config.SecretKey)
	str("log_level", &config.LogLevel)

	if v.IsSet("geo_timeout") {
		config.GeoTimeout = v.GetDuration("geo_timeout")
	}
	if v.IsSet("key_validity_duration") {
		config.KeyValidityDuration = v.GetDuration("key_validity_duration")
	}
}
