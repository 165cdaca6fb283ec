// Package catalog caches backend reference data (stores, tiers, rewards)
// in the local SQLite database so the CLI can show something offline.
package catalog
