// Package config loads and validates the shareline configuration.
//
// Configuration is layered with the usual precedence: CLI flags over
// environment variables (prefix SHARELINE_) over YAML config files over
// built-in defaults. The loaded Config travels through context so cobra
// subcommands share a single validated instance.
package config
