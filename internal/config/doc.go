// Package config loads, validates, and normalizes printq configuration.
//
// Configuration is a single TOML document. Load resolves the file path
// (explicit flag, then ~/.config/printq/config.toml, then ./printq.toml),
// decodes it over the defaults, expands ~ in path fields, and validates the
// result. A missing file is not an error; defaults apply.
package config
