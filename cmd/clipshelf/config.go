package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshelf/internal/browser"
	"go.klb.dev/clipshelf/internal/crypto"
	"go.klb.dev/clipshelf/internal/logging"
	"go.klb.dev/clipshelf/internal/tlsconf"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPSHELF_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPSHELF_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipshelf")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipshelf/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/clipshelf", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPSHELF")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addPassphraseFlag adds --passphrase, which seals the history file and the
// IPC socket traffic.
func addPassphraseFlag(cmd *cobra.Command) {
	cmd.Flags().String("passphrase", "", "passphrase sealing the history file and IPC traffic (empty = plain)")
}

// addBrowserFlags adds the daemon settings shared by serve and browse.
func addBrowserFlags(cmd *cobra.Command) {
	d := browser.DefaultSettings()
	f := cmd.Flags()
	f.Int("max-items", d.MaxItems, "maximum number of history items")
	f.String("editor", d.Editor, "external editor command, %1 is the file (default: $VISUAL, $EDITOR, vi)")
	f.String("callback", d.Callback, "program run after the clipboard changes")
	f.StringSlice("callback-args", d.CallbackArgs, "callback arguments, %1 is the new clipboard text")
	f.Duration("save-delay", d.SaveDelay, "delay before writing history changes to disk (0 = immediately)")
	f.Duration("notify-timeout", d.NotifyTimeout, "how long clipboard notifications stay (0 = none)")
	f.Int("notify-lines", d.NotifyLines, "text lines shown in clipboard notifications")
	f.Int("page-size", d.PageSize, "rows moved by page up/down")
	f.String("data-dir", defaultDataDir(), "directory holding the history and command rule files")
	f.String("http", "", "HTTP API listen address, e.g. 127.0.0.1:8753 (empty = disabled)")
	f.Bool("http-tls", false, "serve the HTTP API over TLS with a key derived from the passphrase")
	f.String("http-token", "", "bearer token required by the HTTP API (empty = generated at startup)")
	f.Bool("headless", false, "do not touch the system clipboard")
	addPassphraseFlag(cmd)
}

// settingsFromViper assembles browser settings, including the [[command]]
// tables of the config file.
func settingsFromViper(v *viper.Viper) (browser.Settings, error) {
	s := browser.Settings{
		MaxItems:      v.GetInt("max-items"),
		Editor:        v.GetString("editor"),
		Callback:      v.GetString("callback"),
		CallbackArgs:  v.GetStringSlice("callback-args"),
		SaveDelay:     v.GetDuration("save-delay"),
		NotifyTimeout: v.GetDuration("notify-timeout"),
		NotifyLines:   v.GetInt("notify-lines"),
		PageSize:      v.GetInt("page-size"),
	}
	if err := v.UnmarshalKey("command", &s.Commands); err != nil {
		return s, fmt.Errorf("config: command rules: %w", err)
	}
	return s, nil
}

// passphraseKey derives the IPC key, or nil without a passphrase.
func passphraseKey(v *viper.Viper) (*crypto.Key, error) {
	p := v.GetString("passphrase")
	if p == "" {
		return nil, nil
	}
	key, err := crypto.DeriveKey(p)
	if err != nil {
		return nil, fmt.Errorf("key derivation: %w", err)
	}
	return key, nil
}

// httpToken returns the configured API token or a random one.
func httpToken(v *viper.Viper) (string, error) {
	if t := v.GetString("http-token"); t != "" {
		return t, nil
	}
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("http token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// tlsPassphrase is the passphrase the HTTPS key is derived from.
func tlsPassphrase(v *viper.Viper) string {
	if p := v.GetString("passphrase"); p != "" {
		return p
	}
	return tlsconf.DefaultPassphrase
}

func defaultDataDir() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, "clipshelf")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "clipshelf")
	}
	return filepath.Join(os.TempDir(), "clipshelf")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	resolveLogging(interactive, v.GetString("log-format"), v.GetString("log-level"))
}
