//go:build !darwin && !windows && !linux

package clip

// New returns a no-op backend; there is no supported clipboard on this
// platform.
func New() Backend {
	return &headlessBackend{watchCh: make(chan struct{})}
}
