package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshelf/internal/message"
)

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the clipboard history",
		Long: `Prints the history, newest first. --filter takes a case-insensitive regular
expression, falling back to fuzzy matching when it does not compile.`,
		Args: cobra.NoArgs,
	}
	newClientCmd(cmd, v, func(_ *cobra.Command, _ []string) error { return runList(v) })

	f := cmd.Flags()
	f.String("filter", "", "only items matching this expression")
	f.Int("limit", 0, "at most this many items (0 = all)")
	f.Int("width", 60, "characters of text shown per item")
	f.Bool("json", false, "output raw JSON")

	return cmd
}

func runList(v *viper.Viper) error {
	resp, err := request(v, &message.Message{
		Type:   message.TypeList,
		Filter: v.GetString("filter"),
		Limit:  v.GetInt("limit"),
	})
	if err != nil {
		return err
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(resp.Entries, "", "  ")
		fmt.Println(string(enc))
		return nil
	}

	if len(resp.Entries) == 0 {
		fmt.Println("No items.")
		return nil
	}

	width := max(v.GetInt("width"), 8)
	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ROW\tADDED\tTYPE\tTEXT\n")
	_, _ = fmt.Fprintf(tw, "---\t-----\t----\t----\n")
	for _, e := range resp.Entries {
		mimes := make([]string, 0, len(e.Items))
		for _, it := range e.Items {
			mimes = append(mimes, it.MIME)
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			e.Row, fmtAge(e.Created), strings.Join(mimes, ","), firstLine(e.Text(), width),
		)
	}
	return tw.Flush()
}
