package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Log in and send NOOP to check the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPOP3Config()
			if err != nil {
				return err
			}

			alive, err := newPOP3Service().Ping(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if !alive {
				return fmt.Errorf("%s did not answer NOOP", cfg.POP3.Host)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is alive.\n", cfg.POP3.Host)
			return nil
		},
	}
	return cmd
}
