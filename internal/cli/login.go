package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"protoclient/internal/config"
	"protoclient/internal/pop3"
	"protoclient/internal/secrets"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	setPassword   = secrets.SetPassword
	isTerminal    = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	readPassword  = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
	errNoPassword = errors.New("password required: pass --password or run from a terminal")
)

func newLoginCmd() *cobra.Command {
	var (
		host     string
		port     int
		username string
		password string
		verify   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store POP3 server settings and the password in the keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("host") {
				cfg.POP3.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.POP3.Port = port
			}
			if cmd.Flags().Changed("username") {
				cfg.Auth.Username = username
			}

			if !cmd.Flags().Changed("password") {
				if !isTerminal() {
					return errNoPassword
				}
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				b, err := readPassword()
				fmt.Fprintln(cmd.ErrOrStderr())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(string(b), "\r\n")
			}
			cfg.Auth.Password = password

			if err := config.ValidatePOP3(cfg); err != nil {
				return err
			}

			if verify {
				client, err := pop3.Connect(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				_, _ = client.Quit()
				fmt.Fprintln(cmd.OutOrStdout(), "Login verified.")
			}

			if err := setPassword(cfg.Auth.Username, cfg.POP3.Host, password); err != nil {
				return err
			}

			// The password lives in the keyring only.
			cfg.Auth.Password = ""
			path, err := config.Save(cfg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "POP3 host")
	cmd.Flags().IntVar(&port, "port", 0, "POP3 port")
	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Log in once before saving")

	return cmd
}
