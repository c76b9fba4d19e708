// Package config loads, normalizes, and validates montage's TOML
// configuration. Defaults apply first, then file overrides; every path field
// is expanded to an absolute path before use.
package config
