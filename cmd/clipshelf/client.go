package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshelf/internal/ipc"
	"go.klb.dev/clipshelf/internal/message"
)

var errNoDaemon = errors.New(`no clipshelf daemon running (start one with "clipshelf serve")`)

// newClientCmd builds a command that talks to the daemon. Client commands
// share the config file so --passphrase is picked up from it.
func newClientCmd(cmd *cobra.Command, v *viper.Viper, run func(*cobra.Command, []string) error) *cobra.Command {
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) }
	cmd.RunE = run
	addPassphraseFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

// request sends req to the local daemon.
func request(v *viper.Viper, req *message.Message) (*message.Message, error) {
	if !ipc.IsRunning() {
		return nil, errNoDaemon
	}
	key, err := passphraseKey(v)
	if err != nil {
		return nil, err
	}
	return ipc.Request(req, key)
}

// parseRows converts row arguments; "current" or "-" is the current row.
func parseRows(args []string) ([]int, error) {
	rows := make([]int, 0, len(args))
	for _, a := range args {
		if a == "current" || a == "-" {
			rows = append(rows, -1)
			continue
		}
		n, err := strconv.Atoi(a)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid row %q", a)
		}
		rows = append(rows, n)
	}
	return rows, nil
}

// firstLine shortens text to its first line for table output.
func firstLine(text string, width int) string {
	line, _, multi := strings.Cut(strings.TrimRight(text, "\n"), "\n")
	line = strings.ReplaceAll(line, "\t", " ")
	r := []rune(line)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	if multi {
		return line + " …"
	}
	return line
}

func fmtAge(t time.Time) string {
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	if age < 24*time.Hour {
		return t.Format("15:04:05")
	}
	return t.Format("2006-01-02")
}
