// Package config loads, validates, and defaults the TOML configuration
// shared by the synapse CLI and the synapsed daemon.
package config
