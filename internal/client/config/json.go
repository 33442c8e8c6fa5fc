package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/geodash/internal/flagx"
	"github.com/dmitrijs2005/geodash/internal/timex"
)

type JsonConfig struct {
	ServerEndpointAddr string          `json:"server_endpoint_addr"`
	APIKey             string          `json:"api_key"`
	RefreshInterval    *timex.Duration `json:"refresh_interval"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
}

// parseJson overlays values from the JSON file named on the command line.
// It panics if the file cannot be read or parsed.
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

	if c.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = c.ServerEndpointAddr
	}
	if c.APIKey != "" {
		cfg.APIKey = c.APIKey
	}
	if c.RefreshInterval != nil {
		cfg.RefreshInterval = c.RefreshInterval.Duration
	}
	if c.RequestTimeout != nil {
		cfg.RequestTimeout = c.RequestTimeout.Duration
	}
}
