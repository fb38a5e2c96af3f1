// Package config provides loading and environment overlay for stratadump
// tooling configuration. It exposes a Default() baseline that a JSON or YAML
// file and STRATADUMP_* environment variables can override.
//
// Example:
//
//	cfg, err := config.Load("/etc/stratadump.yaml")
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
