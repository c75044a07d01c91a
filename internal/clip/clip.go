// Package clip provides a unified interface to the system clipboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_darwin.go   — macOS via golang.design/x/clipboard + cgo changeCount
//	clip_windows.go  — Windows via golang.design/x/clipboard + AddClipboardFormatListener
//	clip_linux.go    — Linux via golang.design/x/clipboard, polling only
//	clip_other.go    — headless stub
//
// NewHeadless backs --headless; memory.go holds an in-process backend used
// by tests.
package clip

import (
	"errors"
	"fmt"
	"strings"

	"golang.design/x/clipboard"

	"go.klb.dev/clipshelf/internal/history"
)

// Item is one clipboard representation; it mirrors history.Format.
type Item = history.Format

// Mode selects which clipboard is addressed.
type Mode int

const (
	// ModeClipboard is the regular copy/paste clipboard.
	ModeClipboard Mode = iota
	// ModeSelection is the X11 primary selection.
	ModeSelection
)

func (m Mode) String() string {
	if m == ModeSelection {
		return "selection"
	}
	return "clipboard"
}

// ParseMode converts a flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "clipboard":
		return ModeClipboard, nil
	case "selection", "primary":
		return ModeSelection, nil
	}
	return ModeClipboard, fmt.Errorf("unknown clipboard mode %q", s)
}

// ErrSelectionUnsupported is returned when a backend has no primary
// selection.
var ErrSelectionUnsupported = errors.New("primary selection not supported by this backend")

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard contents as a slice of typed items.
	// Returns nil, nil if the clipboard is empty or contains only unsupported types.
	Read() ([]Item, error)

	// Write sets the clipboard contents to the provided items.
	Write(items []Item) error

	// Watch returns a channel that receives a signal whenever the clipboard
	// changes. The channel is never closed. On platforms without native change
	// notification this is implemented via polling.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

// SelectionBackend is implemented by backends that also own a primary
// selection.
type SelectionBackend interface {
	Backend
	ReadSelection() ([]Item, error)
	WriteSelection(items []Item) error
}

// ReadMode reads the clipboard addressed by mode.
func ReadMode(b Backend, mode Mode) ([]Item, error) {
	if mode == ModeClipboard {
		return b.Read()
	}
	sb, ok := b.(SelectionBackend)
	if !ok {
		return nil, ErrSelectionUnsupported
	}
	return sb.ReadSelection()
}

// WriteMode writes the clipboard addressed by mode.
func WriteMode(b Backend, mode Mode, items []Item) error {
	if mode == ModeClipboard {
		return b.Write(items)
	}
	sb, ok := b.(SelectionBackend)
	if !ok {
		return ErrSelectionUnsupported
	}
	return sb.WriteSelection(items)
}

// readSystem reads text and image formats through golang.design/x/clipboard.
func readSystem() []Item {
	var items []Item
	if text := clipboard.Read(clipboard.FmtText); text != nil {
		items = append(items, Item{MIME: history.MIMEText, Data: text})
	}
	if img := clipboard.Read(clipboard.FmtImage); img != nil {
		items = append(items, Item{MIME: "image/png", Data: img})
	}
	return items
}

// writeSystem writes the first supported format; the system clipboard holds
// a single format through this API.
func writeSystem(items []Item) error {
	for _, it := range items {
		switch it.MIME {
		case history.MIMEText:
			clipboard.Write(clipboard.FmtText, it.Data)
			return nil
		case "image/png":
			clipboard.Write(clipboard.FmtImage, it.Data)
			return nil
		}
	}
	if len(items) == 0 {
		return nil
	}
	return fmt.Errorf("unsupported MIME type: %s", items[0].MIME)
}

// headlessBackend is a no-op clipboard backend for environments without a
// display server (headless Linux servers, containers, etc.).
// It never produces Watch events and silently discards writes.
type headlessBackend struct {
	watchCh chan struct{}
}

// NewHeadless returns the no-op backend regardless of the platform.
func NewHeadless() Backend {
	return &headlessBackend{watchCh: make(chan struct{})}
}

func (b *headlessBackend) Name() string           { return "headless (no-op)" }
func (b *headlessBackend) Read() ([]Item, error)  { return nil, nil }
func (b *headlessBackend) Write(_ []Item) error   { return nil }
func (b *headlessBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *headlessBackend) Close()                 {}
