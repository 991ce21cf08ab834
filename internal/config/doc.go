// Package config handles loading and validation of the broker configuration
// from a YAML file.
package config
