package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays STRATADUMP_* environment variables onto cfg. Malformed
// values are ignored.
func FromEnv(cfg *Config) {
	if v := os.Getenv("STRATADUMP_DUMP_DIR"); v != "" {
		cfg.DumpDir = v
	}
	if v := os.Getenv("STRATADUMP_CACHE_NAME"); v != "" {
		cfg.CacheName = v
	}
	if v := os.Getenv("STRATADUMP_SECDIST_PATH"); v != "" {
		cfg.SecdistPath = v
	}
	if v := os.Getenv("STRATADUMP_FORMAT_VERSION"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.FormatVersion = n
		}
	}
	if v := os.Getenv("STRATADUMP_ENCRYPT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Encrypt = b
		}
	}
	if v := os.Getenv("STRATADUMP_FILE_PERM"); v != "" {
		if m, err := parseFileMode(v); err == nil {
			cfg.FilePerm = m
		}
	}
	if v := os.Getenv("STRATADUMP_MAX_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxCount = n
		}
	}
	if v := os.Getenv("STRATADUMP_MAX_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MaxAge = Duration(d)
		}
	}
	if v := os.Getenv("STRATADUMP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("STRATADUMP_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v := os.Getenv("STRATADUMP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("STRATADUMP_REDIS_KEY_PREFIX"); v != "" {
		cfg.Redis.KeyPrefix = v
	}
}
