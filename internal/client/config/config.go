package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophloyalty/internal/geo"
)

// Data backends.
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
)

// S3Config addresses the profile picture bucket.
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicURL    string
	UsePathStyle bool
}

// Config holds runtime settings for the GophLoyalty CLI.
type Config struct {
	BackendURL string
	APIKey     string
	// DataBackend selects the data client: BackendREST or BackendPostgres.
	DataBackend string
	DatabaseDSN string

	LocalDatabasePath string
	// DeviceSecret keys the sealed session. When empty a random secret is
	// kept in a 0600 file next to the local database.
	DeviceSecret string

	Storage S3Config

	RequestTimeout    time.Duration
	RequestsPerSecond float64
	RefreshMargin     time.Duration
	ProfileRetryDelay time.Duration

	LocationEnabled bool
	// DeviceLocation is a fixed device position. When it is nil and no
	// GeolocationURL is set the position is unavailable and
	// FallbackLocation is used.
	DeviceLocation   *geo.Coordinate
	GeolocationURL   string
	FallbackLocation geo.Coordinate

	LogLevel string
	LogPath  string
}

// FallbackLocation is used when the device position cannot be determined.
var FallbackLocation = geo.Coordinate{Lat: -26.0167, Lng: 28.1067}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://127.0.0.1:54321"
	c.APIKey = ""
	c.DataBackend = BackendREST
	c.DatabaseDSN = ""

	c.LocalDatabasePath = "loyalty.db"
	c.DeviceSecret = ""

	c.Storage = S3Config{
		Region: "us-east-1",
		Bucket: "profile-pictures",
	}

	c.RequestTimeout = 10 * time.Second
	c.RequestsPerSecond = 10
	c.RefreshMargin = time.Minute
	c.ProfileRetryDelay = 500 * time.Millisecond

	c.LocationEnabled = true
	c.DeviceLocation = nil
	c.GeolocationURL = ""
	c.FallbackLocation = FallbackLocation

	c.LogLevel = "info"
	c.LogPath = ""
}

// Load builds a Config from defaults, then the config file named by -c or
// -config, then command-line flags. Later sources take precedence.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return errors.New("backend url is required")
	}
	switch c.DataBackend {
	case BackendREST:
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			return errors.New("database dsn is required for the postgres data backend")
		}
	default:
		return fmt.Errorf("unknown data backend %q", c.DataBackend)
	}
	if c.LocalDatabasePath == "" {
		return errors.New("local database path is required")
	}
	return nil
}
