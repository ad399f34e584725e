// Package config manages the smaev user configuration file.
//
// The configuration is a YAML registry of known chargers (keyed by serial
// number) plus application preferences, stored under the platform config
// directory (~/.config/smaev/config.yaml on Linux). Device passwords are
// never stored; they are prompted when needed.
package config
