package cli

import (
	"encoding/base64"
	"fmt"

	"github.com/AndrewDonelson/stratadump"
	"github.com/AndrewDonelson/stratadump/internal/secdist"
	"github.com/spf13/cobra"
)

func newKeygenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a dump encryption key",
		Long: "Generate a random 32-byte key. Without --write the base64 key is printed; " +
			"with --write it is stored in the secdist document under --cache.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			key, err := stratadump.GenerateSecretKey()
			if err != nil {
				return err
			}
			write, _ := cmd.Flags().GetBool("write")
			if !write {
				fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(key))
				return nil
			}

			doc, err := secdist.Load(cfg.SecdistPath, true)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := doc.SecretKey(cfg.CacheName); err == nil && !force {
				return fmt.Errorf("secdist already has a key for %q; use --force to replace it (existing dumps become unreadable)", cfg.CacheName)
			}
			if err := doc.Put(cfg.CacheName, key); err != nil {
				return err
			}
			if err := doc.Save(cfg.SecdistPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key for %q written to %s\n", cfg.CacheName, cfg.SecdistPath)
			return nil
		},
	}
	cmd.Flags().Bool("write", false, "Store the key in the secdist document")
	cmd.Flags().Bool("force", false, "Replace an existing key")
	return cmd
}
