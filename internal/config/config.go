package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DumpDir       string `json:"dumpDir" yaml:"dumpDir"`
	CacheName     string `json:"cacheName" yaml:"cacheName"`
	SecdistPath   string `json:"secdistPath" yaml:"secdistPath"`
	FormatVersion uint64 `json:"formatVersion" yaml:"formatVersion"`
	// Encrypt requires a key for CacheName in the secdist document.
	Encrypt  bool     `json:"encrypt" yaml:"encrypt"`
	FilePerm FileMode `json:"filePerm" yaml:"filePerm"`
	MaxCount int      `json:"maxCount" yaml:"maxCount"`
	MaxAge   Duration `json:"maxAge" yaml:"maxAge"`
	Redis    Redis    `json:"redis" yaml:"redis"`
}

// Redis captures the connection used by the redis snapshot commands.
type Redis struct {
	Addr      string `json:"addr" yaml:"addr"`
	DB        int    `json:"db" yaml:"db"`
	Password  string `json:"password" yaml:"password"`
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DumpDir:       "/var/cache/stratadump",
		CacheName:     "default",
		SecdistPath:   "/etc/stratadump/secdist.json",
		FormatVersion: 1,
		Encrypt:       true,
		FilePerm:      0o600,
		MaxCount:      1,
		Redis:         Redis{Addr: "127.0.0.1:6379"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) on top of
// the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	default:
		err = json.Unmarshal(b, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports settings no command can work with.
func (c Config) Validate() error {
	switch {
	case c.DumpDir == "":
		return fmt.Errorf("config: dumpDir is required")
	case c.CacheName == "":
		return fmt.Errorf("config: cacheName is required")
	case c.FilePerm&^0o777 != 0:
		return fmt.Errorf("config: filePerm %o has non-permission bits", uint32(c.FilePerm))
	case c.MaxCount < 0:
		return fmt.Errorf("config: maxCount must not be negative")
	case c.MaxAge < 0:
		return fmt.Errorf("config: maxAge must not be negative")
	}
	return nil
}

// FileMode is an os.FileMode written as an octal string ("0640") in config
// files.
type FileMode os.FileMode

func parseFileMode(s string) (FileMode, error) {
	var m uint32
	if _, err := fmt.Sscanf(s, "%o", &m); err != nil {
		return 0, fmt.Errorf("config: file mode %q: %w", s, err)
	}
	return FileMode(m), nil
}

// String returns the mode in octal.
func (m FileMode) String() string { return fmt.Sprintf("%04o", uint32(m)) }

// Perm returns the mode as an os.FileMode.
func (m FileMode) Perm() os.FileMode { return os.FileMode(m) }

// UnmarshalJSON accepts "0640" or a plain number.
func (m *FileMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n uint32
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("config: file mode %s", b)
		}
		*m = FileMode(n)
		return nil
	}
	v, err := parseFileMode(s)
	*m = v
	return err
}

// UnmarshalYAML accepts 0640 or "0640".
func (m *FileMode) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseFileMode(node.Value)
	*m = v
	return err
}

// Duration is a time.Duration written as "72h" in config files.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("config: duration %s: %w", b, err)
	}
	v, err := time.ParseDuration(s)
	*d = Duration(v)
	return err
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	*d = Duration(v)
	return err
}
