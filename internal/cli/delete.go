package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <n>...",
		Short: "Mark messages deleted; the server removes them at QUIT",
		Long:  "Mark messages deleted. If the server refuses any of them, none are deleted.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			numbers := make([]int, 0, len(args))
			for _, arg := range args {
				n, err := parseMessageNumber(arg)
				if err != nil {
					return err
				}
				numbers = append(numbers, n)
			}

			cfg, err := loadPOP3Config()
			if err != nil {
				return err
			}

			if err := newPOP3Service().Delete(cmd.Context(), cfg, numbers...); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d message(s).\n", len(numbers))
			return nil
		},
	}
	return cmd
}
