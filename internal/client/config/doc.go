// Package config loads runtime configuration for the socialnet client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file named by --config.
//  3. Command-line flags that were set explicitly, which override earlier values.
//
// # File schema
//
// Durations use timex.Duration, so values can be either strings like "30s"
// or integer nanoseconds:
//
//	{
//	  "server_addr": "127.0.0.1:8000",
//	  "diagnostics_addr": "127.0.0.1:50051",
//	  "data_dir": "client_data",
//	  "read_timeout": "30s",
//	  "inject_faults": true
//	}
//
// Note: This package does not read environment variables directly.
package config
