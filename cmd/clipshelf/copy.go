package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/h2non/filetype"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshelf/internal/message"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy [text...]",
		Short: "Add text or stdin to the history (like pbcopy)",
		Long: `Adds the arguments, or stdin when there are none, on top of the clipboard
history and puts it on the system clipboard.

Binary input is recognised by content (images, archives, ...) unless --mime
is given:

  clipshelf copy < screenshot.png`,
	}
	newClientCmd(cmd, v, func(_ *cobra.Command, args []string) error { return runCopy(cmd, v, args) })

	f := cmd.Flags()
	f.String("mime", "text/plain", "MIME type of the data being copied")
	f.Bool("no-select", false, "only add to the history, leave the clipboard alone")

	return cmd
}

func runCopy(cmd *cobra.Command, v *viper.Viper, args []string) error {
	var data []byte
	if len(args) > 0 {
		data = []byte(strings.Join(args, " "))
	} else {
		var err error
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}
	if len(data) == 0 {
		return nil
	}

	mime := v.GetString("mime")
	if !cmd.Flags().Changed("mime") {
		if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
			mime = kind.MIME.Value
		}
	}

	var item message.Item
	if mime == "text/plain" {
		item = message.NewTextItem(string(data))
	} else {
		item = message.NewBinaryItem(mime, data)
	}

	_, err := request(v, &message.Message{
		Type:   message.TypeAdd,
		Items:  []message.Item{item},
		Select: !v.GetBool("no-select"),
	})
	return err
}
