package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/AndrewDonelson/stratadump"
	"github.com/AndrewDonelson/stratadump/internal/config"
	"github.com/AndrewDonelson/stratadump/internal/dumper"
	"github.com/AndrewDonelson/stratadump/internal/secdist"
	"github.com/spf13/cobra"
)

// NewRoot constructs the root Cobra command and registers every command
// group.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "stratadump",
		Short:         "Inspect and manage cache dumps",
		SilenceUsage: true,
	}
	f := root.PersistentFlags()
	f.String("config", "", "Config file (.json, .yaml)")
	f.String("dir", "", "Parent directory of the per-cache dump directories")
	f.String("cache", "", "Cache name")
	f.String("secdist", "", "Secdist document holding the dump keys")
	f.Uint64("format-version", 0, "Format version of the cache's dumps")
	f.Bool("plain", false, "Dumps are not encrypted")
	f.String("log-level", "warn", "Log level: debug|info|warn|error")

	root.AddCommand(newKeygenCommand())
	root.AddCommand(newVerifyCommand())
	root.AddCommand(newListCommand())
	root.AddCommand(newCleanupCommand())
	root.AddCommand(newRedisCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// settings resolves the config file, the environment and the flags of cmd,
// in increasing precedence.
func settings(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	config.FromEnv(&cfg)

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.DumpDir, _ = flags.GetString("dir")
	}
	if flags.Changed("cache") {
		cfg.CacheName, _ = flags.GetString("cache")
	}
	if flags.Changed("secdist") {
		cfg.SecdistPath, _ = flags.GetString("secdist")
	}
	if flags.Changed("format-version") {
		cfg.FormatVersion, _ = flags.GetUint64("format-version")
	}
	if flags.Changed("plain") {
		plain, _ := flags.GetBool("plain")
		cfg.Encrypt = !plain
	}
	if flags.Changed("max-count") {
		cfg.MaxCount, _ = flags.GetInt("max-count")
	}
	if flags.Changed("max-age") {
		age, _ := flags.GetDuration("max-age")
		cfg.MaxAge = config.Duration(age)
	}
	if flags.Changed("redis-addr") {
		cfg.Redis.Addr, _ = flags.GetString("redis-addr")
	}
	if flags.Changed("key-prefix") {
		cfg.Redis.KeyPrefix, _ = flags.GetString("key-prefix")
	}
	return cfg, cfg.Validate()
}

// logger returns a text slog logger on the command's stderr.
func logger(cmd *cobra.Command) (stratadump.Logger, error) {
	name, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q; use debug|info|warn|error", name)
	}
	h := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	return stratadump.NewSlogLogger(slog.New(h)), nil
}

// factory builds the operations factory for cfg.
func factory(cfg config.Config, log stratadump.Logger) (stratadump.OperationsFactory, error) {
	fc := stratadump.Config{FilePerm: cfg.FilePerm.Perm(), Logger: log}
	if cfg.Encrypt {
		doc, err := secdist.Load(cfg.SecdistPath, false)
		if err != nil {
			return nil, err
		}
		if fc.SecretKey, err = doc.SecretKey(cfg.CacheName); err != nil {
			return nil, err
		}
	}
	return stratadump.NewOperationsFactory(fc)
}

// env bundles what most commands need.
type env struct {
	cfg     config.Config
	log     stratadump.Logger
	factory stratadump.OperationsFactory
}

func newEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := settings(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger(cmd)
	if err != nil {
		return nil, err
	}
	f, err := factory(cfg, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, factory: f}, nil
}

func (e *env) dumper() (*dumper.Dumper, error) {
	return dumper.New(dumper.Options{
		Dir:           e.cfg.DumpDir,
		CacheName:     e.cfg.CacheName,
		FormatVersion: e.cfg.FormatVersion,
		Factory:       e.factory,
		MaxCount:      e.cfg.MaxCount,
		MaxAge:        e.cfg.MaxAge.Std(),
		Logger:        e.log,
	})
}
