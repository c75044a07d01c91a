//go:build !windows

package ipc

import (
	"errors"
	"net"
	"os"
	"path/filepath"
)

func socketPath() string {
	// Linux: prefer XDG_RUNTIME_DIR
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipshelf.sock")
	}
	// macOS / fallback
	return filepath.Join(os.TempDir(), "clipshelf.sock")
}

func listenIPC(path string) (net.Listener, error) {
	// A live daemon still answers; only a stale socket from a crashed run
	// may be removed.
	if c, err := net.Dial("unix", path); err == nil {
		_ = c.Close()
		return nil, errors.New("another daemon is listening")
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	_ = os.Chmod(path, 0o600)
	return ln, nil
}

func dialIPC(path string) (net.Conn, error) {
	return net.Dial("unix", path)
}
