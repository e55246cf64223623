package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show message count and mailbox size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPOP3Config()
			if err != nil {
				return err
			}

			status, err := newPOP3Service().Status(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d messages, %d octets\n", status.Count, status.Size)
			return nil
		},
	}
	return cmd
}
