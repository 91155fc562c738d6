// Package config loads runtime configuration for the storefront terminal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c, -config or --config.
//  3. STOREFRONT_CLIENT_* environment variables, seeded from .env if present.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string     base URL of the CMS API (e.g. "http://localhost:1337")
//	-f string     path of the local SQLite session database
//	-t duration   per-request timeout; 0 disables it
//	-w int        viewport width in columns used by the feed layout
//	-l string     log level
//
// # JSON schema
//
//	{
//	  "api_url": "http://localhost:1337",
//	  "db_path": "storefront.db",
//	  "request_timeout": "10s",
//	  "viewport_width": 120,
//	  "log_level": "warn"
//	}
package config
