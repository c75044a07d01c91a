package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshelf/internal/message"
)

func newSelectCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "select <row>",
		Short: "Move a history item to the top and onto the clipboard",
		Args:  cobra.ExactArgs(1),
	}
	return newClientCmd(cmd, v, func(_ *cobra.Command, args []string) error {
		rows, err := parseRows(args)
		if err != nil {
			return err
		}
		_, err = request(v, &message.Message{Type: message.TypeSelect, Row: rows[0]})
		return err
	})
}

func newRemoveCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "remove [row...]",
		Short: "Remove history items (default: the current one)",
		Long: `Removes the given rows from the history. "current" or "-" names the
current row. Either all rows exist and are removed, or nothing changes.`,
	}
	return newClientCmd(cmd, v, func(_ *cobra.Command, args []string) error {
		rows, err := parseRows(args)
		if err != nil {
			return err
		}
		_, err = request(v, &message.Message{Type: message.TypeRemove, Rows: rows})
		return err
	})
}
