package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshelf/internal/ipc"
	"go.klb.dev/clipshelf/internal/message"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the running daemon",
		Long: `Displays the daemon's clipboard backend, history size, data file and the
HTTP API address with its token.`,
		Args: cobra.NoArgs,
	}
	newClientCmd(cmd, v, func(_ *cobra.Command, _ []string) error { return runStatus(v) })

	cmd.Flags().Bool("json", false, "output raw JSON")

	return cmd
}

func runStatus(v *viper.Viper) error {
	resp, err := request(v, &message.Message{Type: message.TypeStatus})
	if err != nil {
		return err
	}
	st := resp.Status
	if st == nil {
		return fmt.Errorf("status: empty response")
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(st, "", "  ")
		fmt.Println(string(enc))
		return nil
	}

	printStatus(st)
	return nil
}

func printStatus(st *message.Status) {
	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Version:\t%s\n", st.Version)
	fmt.Fprintf(w, "Transport:\tipc (%s)\n", ipc.SocketPath())
	fmt.Fprintf(w, "Started:\t%s (%s)\n", st.StartedAt.UTC().Format(time.RFC3339), fmtAge(st.StartedAt))
	fmt.Fprintf(w, "Backend:\t%s\n", st.Backend)
	fmt.Fprintf(w, "Monitoring:\t%t\n", st.Monitoring)
	fmt.Fprintf(w, "Items:\t%d / %d\n", st.Items, st.MaxItems)
	fmt.Fprintf(w, "Current row:\t%d\n", st.Current)
	fmt.Fprintf(w, "Commands:\t%d\n", st.Commands)
	if st.DataFile != "" {
		saved := "saved"
		if st.Pending {
			saved = "save pending"
		}
		fmt.Fprintf(w, "Data file:\t%s (%s)\n", st.DataFile, saved)
	}
	if st.HTTP != "" {
		fmt.Fprintf(w, "HTTP API:\t%s/api\n", st.HTTP)
	}
	if st.HTTPToken != "" {
		fmt.Fprintf(w, "HTTP token:\t%s\n", st.HTTPToken)
	}
	_ = w.Flush()
}
