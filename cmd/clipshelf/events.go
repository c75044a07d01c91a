package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshelf/internal/message"
	"go.klb.dev/clipshelf/internal/tlsconf"
)

func newEventsCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream daemon events as JSON lines",
		Long: `Connects to the event stream of the daemon's HTTP API and prints every
event on its own line until interrupted. The daemon must run with --http.
With --http-tls the server key is checked against --passphrase.`,
		Args: cobra.NoArgs,
	}
	newClientCmd(cmd, v, func(_ *cobra.Command, _ []string) error { return runEvents(v) })

	return cmd
}

func runEvents(v *viper.Viper) error {
	resp, err := request(v, &message.Message{Type: message.TypeStatus})
	if err != nil {
		return err
	}
	st := resp.Status
	if st == nil || st.HTTP == "" {
		return fmt.Errorf("events: the daemon has no HTTP API (start it with --http)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := dialEvents(ctx, st.HTTP, st.HTTPToken, tlsPassphrase(v))
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	err = copyEvents(os.Stdout, conn)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// dialEvents opens the event stream of the API at base. HTTPS servers are
// verified against the key derived from passphrase.
func dialEvents(ctx context.Context, base, token, passphrase string) (*websocket.Conn, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	d := *websocket.DefaultDialer
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
		if d.TLSClientConfig, err = tlsconf.ClientConfig(passphrase); err != nil {
			return nil, err
		}
	case "http":
		u.Scheme = "ws"
	default:
		return nil, fmt.Errorf("events: unsupported API address %q", base)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/events"
	u.RawQuery = url.Values{"token": {token}}.Encode()

	conn, resp, err := d.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("events: token rejected by %s", base)
		}
		return nil, fmt.Errorf("events: %w", err)
	}
	return conn, nil
}

// copyEvents writes each text frame from conn to w as one line.
func copyEvents(w io.Writer, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return err
		}
	}
}
