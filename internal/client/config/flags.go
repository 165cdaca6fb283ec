package config

import (
	"flag"
	"fmt"

	"github.com/dmitrijs2005/gophloyalty/internal/flagx"
)

// parseFlags overlays Config with command-line flags.
//
//	-a string   backend base URL
//	-k string   backend API key
//	-d string   local SQLite database path
//	-l string   log level (debug, info, warn, error)
//
// Only these flags are looked at; everything else in args is ignored.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-k", "-d", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendURL, "a", cfg.BackendURL, "backend base URL")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "backend API key")
	fs.StringVar(&cfg.LocalDatabasePath, "d", cfg.LocalDatabasePath, "local database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
