// Package config loads, normalizes, and validates the TOML configuration that
// drives a pipeline run. Credentials can come from the config file or from
// environment variables; optional capabilities (classification oracle,
// metadata catalog) are considered configured when their credential is present.
package config
