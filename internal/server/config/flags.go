package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/geodash/internal/flagx"
)

// serverFlags lists the flags parseFlags understands; anything else on the
// command line is left for other consumers.
var serverFlags = []string{"-a", "-w", "-driver", "-d", "-f", "-r", "-g", "-k", "-n", "-t", "-s", "-v", "-l"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     gRPC bind address (e.g., ":50051")
//	-w string     HTTP bind address (e.g., ":8080")
//	-driver str   store driver: postgres or sqlite
//	-d string     database DSN
//	-f string     change feed: postgres, redis or local
//	-r string     Redis URL
//	-g string     geo API base URL
//	-k string     geo API key
//	-n string     geo country code
//	-t duration   geo request timeout (e.g., "10s")
//	-s string     API key HMAC secret
//	-v duration   validity of issued API keys, 0 for none
//	-l string     log level
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port to run server")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.StoreDriver, "driver", config.StoreDriver, "store driver (postgres|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.ChangeFeed, "f", config.ChangeFeed, "change feed (postgres|redis|local)")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.StringVar(&config.GeoBaseURL, "g", config.GeoBaseURL, "geo API base URL")
	fs.StringVar(&config.GeoAPIKey, "k", config.GeoAPIKey, "geo API key")
	fs.StringVar(&config.GeoCountryCode, "n", config.GeoCountryCode, "geo country code")
	fs.DurationVar(&config.GeoTimeout, "t", config.GeoTimeout, "geo request timeout")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.KeyValidityDuration, "v", config.KeyValidityDuration, "issued key validity")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
