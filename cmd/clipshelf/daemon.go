package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"go.klb.dev/clipshelf/internal/browser"
	"go.klb.dev/clipshelf/internal/clip"
	"go.klb.dev/clipshelf/internal/httpapi"
	"go.klb.dev/clipshelf/internal/ipc"
	"go.klb.dev/clipshelf/internal/store"
	"go.klb.dev/clipshelf/internal/tlsconf"
)

const shutdownTimeout = 5 * time.Second

// daemon is a running browser with its IPC and HTTP front ends.
type daemon struct {
	b       *browser.Browser
	backend clip.Backend
	http    *http.Server
	done    chan struct{}
}

// startDaemon loads the history, starts the clipboard monitor and serves
// IPC (and HTTP when configured) until ctx is done.
func startDaemon(ctx context.Context, v *viper.Viper) (*daemon, error) {
	settings, err := settingsFromViper(v)
	if err != nil {
		return nil, err
	}
	key, err := passphraseKey(v)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(v.GetString("data-dir"), v.GetString("passphrase"))
	if err != nil {
		return nil, err
	}
	cmds, err := store.OpenCommands(v.GetString("data-dir"))
	if err != nil {
		return nil, err
	}
	// Rules edited at runtime replace the ones of the config file.
	if stored, ok, err := cmds.Load(); err != nil {
		slog.Warn("ignoring stored command rules", "err", err)
	} else if ok {
		settings.Commands = stored
		slog.Debug("using stored command rules", "path", cmds.Path())
	}

	ipcLn, err := ipc.Listen()
	if err != nil {
		return nil, fmt.Errorf("ipc: %w", err)
	}

	var backend clip.Backend
	if v.GetBool("headless") {
		backend = clip.NewHeadless()
	} else {
		backend = clip.New()
	}

	b := browser.New(browser.Options{Backend: backend, Store: st, Commands: cmds})
	if err := b.ReadSettings(settings); err != nil {
		slog.Warn("some command rules were skipped", "err", err)
	}
	if err := b.LoadItems(); err != nil {
		ipcLn.Close()
		backend.Close()
		return nil, fmt.Errorf("load history: %w", err)
	}

	d := &daemon{b: b, backend: backend, done: make(chan struct{})}

	var httpURL, token string
	if addr := v.GetString("http"); addr != "" {
		token, err = httpToken(v)
		if err != nil {
			ipcLn.Close()
			d.close()
			return nil, err
		}
		ln, err := listenHTTP(v, addr)
		if err != nil {
			ipcLn.Close()
			d.close()
			return nil, err
		}
		httpURL = "http://" + ln.Addr().String()
		if v.GetBool("http-tls") {
			httpURL = "https://" + ln.Addr().String()
		}
		d.http = &http.Server{Handler: httpapi.RegisterRoutes(b, token)}
		go func() {
			if err := d.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server failed", "err", err)
			}
		}()
		slog.Info("HTTP API listening", "url", httpURL, "token_from", `"clipshelf status"`)
	}

	b.StartMonitoring(ctx)

	srv := ipc.NewServer(b, key, ipc.Info{
		Version:   Version,
		DataFile:  st.Path(),
		HTTP:      httpURL,
		HTTPToken: token,
	})
	go func() {
		defer close(d.done)
		if err := srv.Serve(ctx, ipcLn); err != nil {
			slog.Error("ipc server failed", "err", err)
		}
	}()

	slog.Info("clipshelf daemon started",
		"version", Version,
		"backend", backend.Name(),
		"data_file", st.Path(),
		"items", b.Length(),
		"commands", b.Commands().Len(),
		"ipc", ipc.SocketPath(),
		"sealed", key != nil,
	)
	return d, nil
}

// listenHTTP opens the API listener, wrapped in TLS with a key derived from
// the passphrase when --http-tls is set.
func listenHTTP(v *viper.Viper, addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	if !v.GetBool("http-tls") {
		return ln, nil
	}
	cfg, err := tlsconf.ServerConfig(tlsPassphrase(v))
	if err != nil {
		ln.Close()
		return nil, err
	}
	return tls.NewListener(ln, cfg), nil
}

// wait blocks until the IPC server stopped, then shuts everything down.
func (d *daemon) wait() {
	<-d.done
	d.close()
}

func (d *daemon) close() {
	if d.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := d.http.Shutdown(ctx); err != nil {
			slog.Warn("http shutdown", "err", err)
		}
		cancel()
	}
	d.b.Close()
	d.backend.Close()
	slog.Info("clipshelf daemon stopped")
}
