package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/AndrewDonelson/stratadump"
	"github.com/spf13/cobra"
)

// verifyChunk is the payload read per ReadRaw call by verify.
const verifyChunk = 64 * 1024

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Read a dump file end to end and check its integrity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			path := args[0]
			st, err := os.Stat(path)
			if err != nil {
				return err
			}
			payload := st.Size()
			if e.cfg.Encrypt {
				payload -= stratadump.EncryptionOverhead
			}
			if payload < 0 {
				return fmt.Errorf("%s: %w: %d bytes is shorter than the encryption overhead",
					path, stratadump.ErrTruncated, st.Size())
			}

			r, err := e.factory.CreateReader(path)
			if err != nil {
				return err
			}
			defer r.Close()
			for left := payload; left > 0; {
				n := min(left, verifyChunk)
				if _, err := r.ReadRaw(int(n)); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				left -= n
			}
			if err := r.Finish(); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s (%d payload bytes)\n", path, payload)
			return nil
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the dumps of a cache, newest first",
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
			infos, err := d.List()
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no dumps in %s\n", d.Dir())
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "UPDATED\tVERSION\tSIZE\tFILE")
			for _, info := range infos {
				version := fmt.Sprintf("v%d", info.FormatVersion)
				if info.FormatVersion != e.cfg.FormatVersion {
					version += " (stale)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
					info.UpdateTime.Format(time.RFC3339), version, info.Size, info.Path)
			}
			return tw.Flush()
		},
	}
}

func newCleanupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Apply the retention policy to the dumps of a cache",
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
			n, err := d.Cleanup()
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d file(s) from %s\n", n, d.Dir())
			return err
		},
	}
	cmd.Flags().Int("max-count", 0, "Dumps of the current version to keep")
	cmd.Flags().Duration("max-age", 0, "Remove dumps older than this (0 = unlimited)")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), stratadump.Version())
		},
	}
}
