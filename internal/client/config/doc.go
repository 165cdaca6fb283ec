// Package config loads runtime configuration for the GophLoyalty CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config. Files ending in
//     .yaml or .yml are read as YAML, anything else as JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   backend base URL
//	-k string   backend API key
//	-d string   local SQLite database path
//	-l string   log level
//
// # File schema
//
// Durations use timex.Duration, so they can be strings like "500ms" or
// integer nanoseconds:
//
//	backend_url: https://project.example.co
//	api_key: anon-key
//	data_backend: rest
//	profile_retry_delay: 500ms
//	fallback_location: {lat: -26.0167, lng: 28.1067}
//	storage:
//	  endpoint: https://project.example.co/storage/v1/s3
//	  bucket: profile-pictures
//	  use_path_style: true
//
// Only keys present in the file override defaults.
package config
