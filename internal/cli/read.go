package cli

import (
	"fmt"
	"io"
	"strings"

	"protoclient/internal/email"
	"protoclient/internal/logger"

	"github.com/spf13/cobra"
)

func newReadCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "read <n>",
		Short: "Retrieve a message by number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseMessageNumber(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadPOP3Config()
			if err != nil {
				return err
			}

			content, err := newPOP3Service().Retrieve(cmd.Context(), cfg, n)
			if err != nil {
				return err
			}

			if raw {
				if !strings.HasSuffix(content, "\n") {
					content += "\n"
				}
				_, err := io.WriteString(cmd.OutOrStdout(), content)
				return err
			}

			msg, err := email.Parse(content)
			if err != nil {
				logger.Warn("message is not valid RFC 5322, printing raw", "number", n, "error", err)
				fmt.Fprintln(cmd.OutOrStdout(), content)
				return nil
			}
			printMessage(cmd.OutOrStdout(), n, msg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the message exactly as retrieved")

	return cmd
}
