package config

import "time"

// Config holds runtime settings for the geodash CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - APIKey: key sent as access_token metadata; empty sends none.
//   - RefreshInterval: how long a listing stays fresh in watch mode.
//   - RequestTimeout: deadline applied to each unary call.
type Config struct {
	ServerEndpointAddr string
	APIKey             string
	RefreshInterval    time.Duration
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.APIKey = ""
	c.RefreshInterval = 5 * time.Minute
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config from defaults and the optional JSON file.
// Flags are layered on top by BindFlags once the command line is parsed.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	return cfg
}
