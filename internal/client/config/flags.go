package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers the CLI flags on fs with the current values of cfg as
// defaults, so a parsed flag overrides JSON and defaults in place.
//
//	-a, --addr string          backend gRPC address
//	-k, --api-key string       API key
//	    --refresh duration     listing stale time in watch mode
//	    --timeout duration     per-request timeout
//	-c, --config string        JSON config file (read before flag parsing)
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.ServerEndpointAddr, "addr", "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVarP(&cfg.APIKey, "api-key", "k", cfg.APIKey, "API key")
	fs.DurationVar(&cfg.RefreshInterval, "refresh", cfg.RefreshInterval, "how long a listing stays fresh in watch mode")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per-request timeout")
	// Consumed by parseJson before cobra runs; registered so cobra accepts it.
	fs.StringP("config", "c", "", "JSON config file")
}
