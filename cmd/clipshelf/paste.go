package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshelf/internal/message"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste [row]",
		Short: "Print a history item to stdout (like pbpaste)",
		Long: `Writes the current history item, or the one at row, to stdout.

If the item has no data of type --mime, nothing is printed (exit 0). To
retrieve an image:

  clipshelf paste --mime image/png > screenshot.png`,
		Args: cobra.MaximumNArgs(1),
	}
	newClientCmd(cmd, v, func(_ *cobra.Command, args []string) error { return runPaste(v, args) })

	cmd.Flags().String("mime", "text/plain", "preferred MIME type to output")

	return cmd
}

func runPaste(v *viper.Viper, args []string) error {
	row := -1
	if len(args) == 1 {
		rows, err := parseRows(args)
		if err != nil {
			return err
		}
		row = rows[0]
	}

	resp, err := request(v, &message.Message{Type: message.TypeGet, Row: row})
	if err != nil {
		return err
	}
	mime := v.GetString("mime")
	for _, e := range resp.Entries {
		for _, it := range e.Items {
			if it.MIME != mime {
				continue
			}
			data, err := it.Decode()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		}
	}

	// Requested type not present — exit 0, print nothing (pbpaste behaviour).
	return nil
}
