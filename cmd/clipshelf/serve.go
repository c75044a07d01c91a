package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the clipboard history daemon",
		Long: `Starts the clipshelf daemon. It records every new clipboard entry, runs
matching command rules, and answers the CLI tools over a local socket.

Config file search order:
  /etc/clipshelf/clipshelf.toml
  $HOME/.config/clipshelf/clipshelf.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPSHELF_* env vars → flags

Command rules:

  [[command]]
  name = "upper"
  match = "^[a-z ]+$"
  cmd = "tr a-z A-Z"
  input = true
  output = true
  shortcut = "ctrl+u"`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runServe(v) },
	}

	addBrowserFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runServe(v *viper.Viper) error {
	setupLogging(v)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := startDaemon(ctx, v)
	if err != nil {
		return err
	}
	d.wait()
	return nil
}
