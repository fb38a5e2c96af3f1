package cli

import (
	"context"
	"fmt"

	"github.com/AndrewDonelson/stratadump"
	"github.com/AndrewDonelson/stratadump/internal/l2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newRedisCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "redis", Short: "Snapshot and restore a Redis namespace"}
	cmd.PersistentFlags().String("redis-addr", "", "Redis address")
	cmd.PersistentFlags().String("key-prefix", "", "Namespace to snapshot (keys are <prefix>:*)")
	cmd.AddCommand(newRedisSnapshotCommand())
	cmd.AddCommand(newRedisRestoreCommand())
	return cmd
}

// withRedis provides an l2 store for the configured namespace and closes the
// client afterwards.
func withRedis(e *env, fn func(*l2.Store) error) error {
	client := redis.NewClient(&redis.Options{
		Addr:     e.cfg.Redis.Addr,
		DB:       e.cfg.Redis.DB,
		Password: e.cfg.Redis.Password,
	})
	defer func() { _ = client.Close() }()
	return fn(l2.New(l2.Options{Client: client, KeyPrefix: e.cfg.Redis.KeyPrefix, Logger: e.log}))
}

// keyspace adapts Store.Dump to stratadump.Encoder.
type keyspace struct {
	ctx     context.Context
	store   *l2.Store
	entries int
}

func (k *keyspace) EncodeDump(w stratadump.Writer) error {
	n, err := k.store.Dump(k.ctx, w)
	k.entries = n
	return err
}

func newRedisSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write the string keys of a namespace to a new dump",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			d, err := e.dumper()
			if err != nil {
				return err
			}
			return withRedis(e, func(store *l2.Store) error {
				ks := &keyspace{ctx: cmd.Context(), store: store}
				info, err := d.Dump(cmd.Context(), ks)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dumped %d keys to %s (%d bytes)\n", ks.entries, info.Path, info.Size)
				return nil
			})
		},
	}
	return cmd
}

func newRedisRestoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Load the newest dump (or --file) into a namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			file, _ := cmd.Flags().GetString("file")
			return withRedis(e, func(store *l2.Store) error {
				var (
					n      int
					source string
				)
				if file != "" {
					r, err := e.factory.CreateReader(file)
					if err != nil {
						return err
					}
					defer r.Close()
					if n, err = store.Restore(cmd.Context(), r); err != nil {
						return err
					}
					source = file
				} else {
					d, err := e.dumper()
					if err != nil {
						return err
					}
					var snap l2.Snapshot
					info, err := d.Load(cmd.Context(), &snap)
					if err != nil {
						return err
					}
					if n, err = store.Apply(cmd.Context(), &snap); err != nil {
						return err
					}
					source = info.Path
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %d keys from %s\n", n, source)
				return nil
			})
		},
	}
	cmd.Flags().String("file", "", "Restore this dump file instead of the newest one")
	return cmd
}
