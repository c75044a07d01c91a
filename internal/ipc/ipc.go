// Package ipc is the local channel between the clipshelf daemon and the CLI
// tools (copy, paste, list, select, remove, action, status).
//
// Requests are wire-framed message.Messages over a Unix domain socket, or a
// named pipe on Windows. Each connection carries one request and its
// response.
package ipc

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"go.klb.dev/clipshelf/internal/crypto"
	"go.klb.dev/clipshelf/internal/message"
	"go.klb.dev/clipshelf/internal/wire"
)

// requestTimeout bounds how long a client waits for a response. Waiting
// actions may run for a while.
const requestTimeout = 2 * time.Minute

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux / macOS: $XDG_RUNTIME_DIR/clipshelf.sock or $TMPDIR/clipshelf.sock
//     (override with $CLIPSHELF_SOCKET)
//   - Windows:       \\.\pipe\clipshelf
func SocketPath() string {
	if s := os.Getenv("CLIPSHELF_SOCKET"); s != "" && runtime.GOOS != "windows" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a clipshelf daemon appears to be listening on
// the IPC socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on the IPC socket path, removing any stale
// socket file first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	ln, err := listenIPC(path)
	if err != nil {
		return nil, fmt.Errorf("ipc listen %s: %w", path, err)
	}
	return ln, nil
}

// Dial connects to the daemon.
func Dial() (net.Conn, error) {
	return dialIPC(SocketPath())
}

// Request sends req to the running daemon and returns its response. key
// must match the daemon's.
func Request(req *message.Message, key *crypto.Key) (*message.Message, error) {
	conn, err := Dial()
	if err != nil {
		return nil, fmt.Errorf("no clipshelf daemon at %s: %w", SocketPath(), err)
	}
	wc := wire.New(conn, key)
	defer wc.Close()
	wc.SetReadDeadline(requestTimeout)
	return wc.Request(req)
}
