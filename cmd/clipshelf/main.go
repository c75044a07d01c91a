// clipshelf: clipboard history browser.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/clipshelf/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipshelf",
		Short: "Clipboard history browser",
		Long: `clipshelf keeps a history of everything copied to the system clipboard,
lets you browse, search, edit and re-copy old entries, and runs user-defined
commands on them.

Run "clipshelf serve" to start the daemon, or "clipshelf browse" to start it
together with the terminal browser. Use "clipshelf copy/paste/list/select/
remove/action/status/events" as CLI tools while a daemon is running.

Config file search order (first found wins):
  /etc/clipshelf/clipshelf.toml
  $HOME/.config/clipshelf/clipshelf.toml
  path supplied via --config

All flags can be set via CLIPSHELF_<FLAG> env vars or config-file keys.
Command rules are [[command]] tables in the config file.
See "clipshelf serve --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newBrowseCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newListCmd(),
		newSelectCmd(),
		newRemoveCmd(),
		newActionCmd(),
		newStatusCmd(),
		newEventsCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipshelf %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	logging.Setup(logging.ParseFormat(formatStr), resolveLevel(interactive, levelStr))
}

func resolveLevel(interactive bool, levelStr string) slog.Level {
	if levelStr != "" {
		return logging.ParseLevel(levelStr)
	}
	if interactive {
		return logging.ParseLevel("debug")
	}
	return logging.ParseLevel("info")
}
