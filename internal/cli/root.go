package cli

import (
	"fmt"
	"os"

	"protoclient/internal/config"
	"protoclient/internal/logger"
	"protoclient/internal/metrics"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel    string
	dumpMetrics bool
	logFile     *os.File
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "protoclient",
		Short:        "protoclient speaks HTTP/1.1 and POP3 over raw TCP sockets",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setupLogging(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.finish(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.dumpMetrics, "metrics", false, "Print collected metrics to stderr after the command")

	cmd.AddCommand(newHTTPCmd())
	cmd.AddCommand(newPOP3Cmd())
	cmd.AddCommand(newConfigCmd())

	cmd.SetErr(os.Stderr)
	cmd.SetOut(os.Stdout)

	return cmd
}

func (o *rootOptions) setupLogging(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		// A broken config file is reported by the command itself; logging
		// falls back to defaults.
		cfg = config.DefaultConfig()
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}

	f, err := logger.Initialize(cfg.Logging)
	if err != nil {
		return err
	}
	o.logFile = f
	return nil
}

func (o *rootOptions) finish(cmd *cobra.Command) error {
	if o.logFile != nil {
		defer o.logFile.Close()
	}
	if !o.dumpMetrics {
		return nil
	}
	return metrics.WriteText(cmd.ErrOrStderr())
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
