package cli

import (
	"errors"
	"fmt"

	"protoclient/internal/config"
	"protoclient/internal/secrets"

	"github.com/spf13/cobra"
)

var deletePassword = secrets.DeletePassword

func newLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored POP3 password from the keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Auth.Username == "" || cfg.POP3.Host == "" {
				return fmt.Errorf("pop3.host and auth.username are required")
			}

			err = deletePassword(cfg.Auth.Username, cfg.POP3.Host)
			if errors.Is(err, secrets.ErrSecretNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored password.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed password for %s@%s.\n", cfg.Auth.Username, cfg.POP3.Host)
			return nil
		},
	}
	return cmd
}
