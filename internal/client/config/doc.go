// Package config loads runtime configuration for the Turismap client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "grace_window": "4s",
//	  "remote_timeout": "15s",
//	  "data_dir": "/home/ana/.config/turismap",
//	  "cache_backend": "bolt",
//	  "log_level": "debug",
//	  "log_format": "json"
//	}
package config
