package config

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = append([]string{"testbin"}, args...)
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, DriverPostgres, c.StoreDriver)
	assert.Equal(t, FeedPostgres, c.ChangeFeed)
	assert.Equal(t, "US", c.GeoCountryCode)
	assert.Equal(t, 10*time.Second, c.GeoTimeout)
	assert.Equal(t, time.Duration(0), c.KeyValidityDuration)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	withArgs(t)
	c := LoadConfig()
	require.NotNil(t, c)
	assert.Empty(t, cmp.Diff(defaults(), c))
}

func TestParseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_grpc":    "www.example:9000",
		"store_driver":          "sqlite",
		"database_dsn":          "file:geodash.db",
		"change_feed":           "redis",
		"geo_api_key":           "owm-key",
		"geo_timeout":           "3s",
		"key_validity_duration": 7200000000000,
	})

	t.Run("loads from json", func(t *testing.T) {
		withArgs(t, "-config", path)

		cfg := defaults()
		parseJson(cfg)

		want := defaults()
		want.EndpointAddrGRPC = "www.example:9000"
		want.StoreDriver = DriverSQLite
		want.DatabaseDSN = "file:geodash.db"
		want.ChangeFeed = FeedRedis
		want.GeoAPIKey = "owm-key"
		want.GeoTimeout = 3 * time.Second
		want.KeyValidityDuration = 2 * time.Hour
		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("no config flag leaves values", func(t *testing.T) {
		withArgs(t)
		cfg := defaults()
		parseJson(cfg)
		assert.Empty(t, cmp.Diff(defaults(), cfg))
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		withArgs(t, "-c", bad)
		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		withArgs(t, "-c", filepath.Join(t.TempDir(), "nope.json"))
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}

func TestParseEnv(t *testing.T) {
	t.Setenv("GEODASH_DATABASE_DSN", "postgres://env")
	t.Setenv("GEODASH_CHANGE_FEED", "local")
	t.Setenv("GEODASH_GEO_TIMEOUT", "250ms")
	t.Setenv("GEODASH_SECRET_KEY", "")

	cfg := defaults()
	parseEnv(cfg)

	want := defaults()
	want.DatabaseDSN = "postgres://env"
	want.ChangeFeed = FeedLocal
	want.GeoTimeout = 250 * time.Millisecond
	want.SecretKey = ""
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-w", ":9091", "-driver", "sqlite", "-d", "db", "-f", "local",
				"-r", "redis://r:6379/1", "-g", "http://geo", "-k", "key", "-n", "CA", "-t", "2s",
				"-s", "secret", "-v", "1h", "-l", "debug",
			},
			expected: &Config{
				EndpointAddrGRPC:    "127.0.0.1:9090",
				EndpointAddrHTTP:    ":9091",
				StoreDriver:         DriverSQLite,
				DatabaseDSN:         "db",
				ChangeFeed:          FeedLocal,
				RedisURL:            "redis://r:6379/1",
				GeoBaseURL:          "http://geo",
				GeoAPIKey:           "key",
				GeoCountryCode:      "CA",
				GeoTimeout:          2 * time.Second,
				SecretKey:           "secret",
				KeyValidityDuration: time.Hour,
				LogLevel:            "debug",
			},
		},
		{
			name:     "foreign flags ignored",
			args:     []string{"-c", "conf.json", "-issue-key", "anon", "-a", ":1"},
			expected: func() *Config { c := defaults(); c.EndpointAddrGRPC = ":1"; return c }(),
		},
		{
			name:        "bad duration panics",
			args:        []string{"-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
			withArgs(t, tt.args...)

			config := defaults()

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(tt.expected, config))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
