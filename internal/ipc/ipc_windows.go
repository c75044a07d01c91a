//go:build windows

package ipc

import (
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

const pipeName = `\\.\pipe\clipshelf`

const dialTimeout = 2 * time.Second

func socketPath() string { return pipeName }

func listenIPC(_ string) (net.Listener, error) {
	// Restrict the pipe to the current user.
	return winio.ListenPipe(pipeName, &winio.PipeConfig{SecurityDescriptor: "D:P(A;;GA;;;OW)"})
}

func dialIPC(_ string) (net.Conn, error) {
	timeout := dialTimeout
	return winio.DialPipe(pipeName, &timeout)
}
