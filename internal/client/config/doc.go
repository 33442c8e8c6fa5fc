// Package config loads runtime configuration for the geodash CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c, -config or --config.
//  3. Command-line flags registered by BindFlags on the root cobra command,
//     whose defaults are the values loaded so far.
//
// # JSON schema
//
// Durations may be strings like "5m" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "api_key": "eyJhbGciOi...",
//	  "refresh_interval": "5m",
//	  "request_timeout": "10s"
//	}
package config
