// Package config loads pipeline configuration from YAML with
// environment variable overrides layered on top of built-in defaults.
package config
