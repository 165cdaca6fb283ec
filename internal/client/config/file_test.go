package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophloyalty/internal/geo"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseFile_JSON(t *testing.T) {
	path := writeTemp(t, "client.json", `{
		"backend_url": "https://json.example",
		"profile_retry_delay": "250ms",
		"requests_per_second": 2.5,
		"location_enabled": false,
		"storage": {"bucket": "avatars", "use_path_style": true}
	}`)

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseFile(cfg, []string{"-c", path}))

	assert.Equal(t, "https://json.example", cfg.BackendURL)
	assert.Equal(t, 250*time.Millisecond, cfg.ProfileRetryDelay)
	assert.Equal(t, 2.5, cfg.RequestsPerSecond)
	assert.False(t, cfg.LocationEnabled)
	assert.Equal(t, "avatars", cfg.Storage.Bucket)
	assert.True(t, cfg.Storage.UsePathStyle)
	assert.Equal(t, "us-east-1", cfg.Storage.Region, "absent keys keep defaults")
	assert.Equal(t, BackendREST, cfg.DataBackend)
}

func TestParseFile_YAML(t *testing.T) {
	path := writeTemp(t, "client.yaml", `
backend_url: https://yaml.example
data_backend: postgres
database_dsn: postgres://u:p@localhost/loyalty
refresh_margin: 2m
fallback_location:
  lat: -33.9249
  lng: 18.4241
device_location:
  lat: -26.1076
  lng: 28.0567
log_level: debug
`)

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseFile(cfg, []string{"-config=" + path}))

	assert.Equal(t, "https://yaml.example", cfg.BackendURL)
	assert.Equal(t, BackendPostgres, cfg.DataBackend)
	assert.Equal(t, 2*time.Minute, cfg.RefreshMargin)
	assert.Equal(t, geo.Coordinate{Lat: -33.9249, Lng: 18.4241}, cfg.FallbackLocation)
	require.NotNil(t, cfg.DeviceLocation)
	assert.Equal(t, geo.Coordinate{Lat: -26.1076, Lng: 28.0567}, *cfg.DeviceLocation)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseFile_Errors(t *testing.T) {
	cfg := &Config{}

	require.Error(t, parseFile(cfg, []string{"-c", filepath.Join(t.TempDir(), "missing.json")}))

	bad := writeTemp(t, "bad.json", `{ this is not valid json`)
	require.ErrorContains(t, parseFile(cfg, []string{"-c", bad}), "decode config")

	require.NoError(t, parseFile(cfg, nil), "no file flag is not an error")
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeTemp(t, "client.yml", "backend_url: https://file.example\nlog_level: warn\n")

	cfg, err := Load([]string{"-c", path, "-a", "https://flag.example"})
	require.NoError(t, err)

	assert.Equal(t, "https://flag.example", cfg.BackendURL)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_InvalidResult(t *testing.T) {
	path := writeTemp(t, "client.json", `{"data_backend": "postgres"}`)

	_, err := Load([]string{"-c", path})
	require.ErrorContains(t, err, "database dsn")
}
