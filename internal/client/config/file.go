package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/gophloyalty/internal/flagx"
	"github.com/dmitrijs2005/gophloyalty/internal/geo"
	"github.com/dmitrijs2005/gophloyalty/internal/timex"
)

// fileConfig is the on-disk shape shared by JSON and YAML files. Pointer
// fields distinguish "absent" from zero so only given keys override.
type fileConfig struct {
	BackendURL  *string `json:"backend_url" yaml:"backend_url"`
	APIKey      *string `json:"api_key" yaml:"api_key"`
	DataBackend *string `json:"data_backend" yaml:"data_backend"`
	DatabaseDSN *string `json:"database_dsn" yaml:"database_dsn"`

	LocalDatabasePath *string `json:"local_database_path" yaml:"local_database_path"`
	DeviceSecret      *string `json:"device_secret" yaml:"device_secret"`

	Storage *fileStorage `json:"storage" yaml:"storage"`

	RequestTimeout    *timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	RequestsPerSecond *float64        `json:"requests_per_second" yaml:"requests_per_second"`
	RefreshMargin     *timex.Duration `json:"refresh_margin" yaml:"refresh_margin"`
	ProfileRetryDelay *timex.Duration `json:"profile_retry_delay" yaml:"profile_retry_delay"`

	LocationEnabled  *bool           `json:"location_enabled" yaml:"location_enabled"`
	DeviceLocation   *geo.Coordinate `json:"device_location" yaml:"device_location"`
	GeolocationURL   *string         `json:"geolocation_url" yaml:"geolocation_url"`
	FallbackLocation *geo.Coordinate `json:"fallback_location" yaml:"fallback_location"`

	LogLevel *string `json:"log_level" yaml:"log_level"`
	LogPath  *string `json:"log_path" yaml:"log_path"`
}

type fileStorage struct {
	Endpoint     *string `json:"endpoint" yaml:"endpoint"`
	Region       *string `json:"region" yaml:"region"`
	Bucket       *string `json:"bucket" yaml:"bucket"`
	AccessKey    *string `json:"access_key" yaml:"access_key"`
	SecretKey    *string `json:"secret_key" yaml:"secret_key"`
	PublicURL    *string `json:"public_url" yaml:"public_url"`
	UsePathStyle *bool   `json:"use_path_style" yaml:"use_path_style"`
}

// parseFile overlays Config with the file named by -c/-config in args.
// The format follows the extension: .yaml/.yml is YAML, anything else JSON.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	switch flagx.FormatOf(path) {
	case flagx.FormatYAML:
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.BackendURL, fc.BackendURL)
	setString(&cfg.APIKey, fc.APIKey)
	setString(&cfg.DataBackend, fc.DataBackend)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.LocalDatabasePath, fc.LocalDatabasePath)
	setString(&cfg.DeviceSecret, fc.DeviceSecret)

	if s := fc.Storage; s != nil {
		setString(&cfg.Storage.Endpoint, s.Endpoint)
		setString(&cfg.Storage.Region, s.Region)
		setString(&cfg.Storage.Bucket, s.Bucket)
		setString(&cfg.Storage.AccessKey, s.AccessKey)
		setString(&cfg.Storage.SecretKey, s.SecretKey)
		setString(&cfg.Storage.PublicURL, s.PublicURL)
		if s.UsePathStyle != nil {
			cfg.Storage.UsePathStyle = *s.UsePathStyle
		}
	}

	setDuration(&cfg.RequestTimeout, fc.RequestTimeout)
	setDuration(&cfg.RefreshMargin, fc.RefreshMargin)
	setDuration(&cfg.ProfileRetryDelay, fc.ProfileRetryDelay)
	if fc.RequestsPerSecond != nil {
		cfg.RequestsPerSecond = *fc.RequestsPerSecond
	}

	if fc.LocationEnabled != nil {
		cfg.LocationEnabled = *fc.LocationEnabled
	}
	if fc.DeviceLocation != nil {
		loc := *fc.DeviceLocation
		cfg.DeviceLocation = &loc
	}
	setString(&cfg.GeolocationURL, fc.GeolocationURL)
	if fc.FallbackLocation != nil {
		cfg.FallbackLocation = *fc.FallbackLocation
	}

	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogPath, fc.LogPath)
}
