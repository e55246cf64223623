package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List message numbers and sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPOP3Config()
			if err != nil {
				return err
			}

			messages, err := newPOP3Service().ListMessages(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Maildrop: %s (total %d)\n", cfg.POP3.Host, len(messages))
			printMessages(cmd.OutOrStdout(), messages)
			return nil
		},
	}
	return cmd
}
