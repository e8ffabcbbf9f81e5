// Package config loads and validates the dubwatch TOML configuration.
package config
