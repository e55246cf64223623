package cli

import (
	"protoclient/internal/config"
	"protoclient/internal/pop3"

	"github.com/spf13/cobra"
)

// newPOP3Service is replaced in tests with a service backed by a fake server.
var newPOP3Service = pop3.NewService

func newPOP3Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pop3",
		Short: "Read and delete mail on a POP3 server",
	}
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newPingCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newReadCmd())
	cmd.AddCommand(newDeleteCmd())
	return cmd
}

func loadPOP3Config() (config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	if err := config.ValidatePOP3(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
