package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshelf/internal/ipc"
	"go.klb.dev/clipshelf/internal/logging"
	"go.klb.dev/clipshelf/internal/tui"
)

func newBrowseCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Run the daemon with the terminal history browser",
		Long: `Starts the clipshelf daemon in this process and opens the terminal browser
on it. Quitting the browser stops the daemon.

Logs go to clipshelf.log in the data directory while the browser owns the
terminal.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runBrowse(v) },
	}

	addBrowserFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runBrowse(v *viper.Viper) error {
	if ipc.IsRunning() {
		return errors.New("a clipshelf daemon is already running; stop it or use the list/select commands")
	}

	dir := v.GetString("data-dir")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	logFile, err := logging.SetupFile(
		filepath.Join(dir, "clipshelf.log"),
		logging.ParseFormat(v.GetString("log-format")),
		resolveLevel(v.GetBool("no-background"), v.GetString("log-level")),
	)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(context.Background())
	d, err := startDaemon(ctx, v)
	if err != nil {
		cancel()
		return err
	}

	m := tui.New(ctx, d.b)
	_, runErr := tea.NewProgram(m, tea.WithAltScreen()).Run()
	m.Close()

	cancel()
	d.wait()
	return runErr
}
