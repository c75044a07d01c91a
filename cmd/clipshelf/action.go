package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshelf/internal/message"
)

func newActionCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "action [command line...]",
		Short: "Run a command on a history item",
		Long: `Runs a configured command rule (--command) or an ad-hoc command line on the
item at --row (default: the current item). In the command line %1 stands for
the item text.

  clipshelf action --command upper
  clipshelf action --input --output --wait -- tr a-z A-Z`,
	}
	newClientCmd(cmd, v, func(_ *cobra.Command, args []string) error { return runAction(v, args) })

	f := cmd.Flags()
	f.String("command", "", "name of a configured command rule")
	f.Int("row", -1, "history row (-1 = current)")
	f.String("sep", `\n`, "separator splitting the output into items")
	f.Bool("input", false, "send the item text to stdin")
	f.Bool("output", false, "add the output to the history")
	f.Bool("wait", false, "wait for the command and print its output")

	return cmd
}

func runAction(v *viper.Viper, args []string) error {
	req := &message.Message{
		Type:    message.TypeAction,
		Row:     v.GetInt("row"),
		Command: v.GetString("command"),
	}
	if req.Command == "" {
		if len(args) == 0 {
			return errors.New("give --command or a command line")
		}
		req.Action = &message.Action{
			Cmd:    strings.Join(args, " "),
			Sep:    v.GetString("sep"),
			Input:  v.GetBool("input"),
			Output: v.GetBool("output"),
			Wait:   v.GetBool("wait"),
		}
	}

	resp, err := request(v, req)
	if err != nil {
		return err
	}
	if out := resp.TextPayload(); out != "" {
		fmt.Print(out)
	}
	return nil
}
