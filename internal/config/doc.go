// Package config provides configuration management for the heartbeat
// service.
//
// Configuration is loaded from a YAML file with environment variable
// substitution: ${VAR} expands to the variable's value and
// ${VAR:-default} falls back to default when the variable is unset.
// Values absent from the file keep their defaults from DefaultConfig.
//
// A Watcher can observe the configuration file and deliver validated
// configurations to a callback when the file changes, enabling probe
// reconfiguration without a restart.
package config
