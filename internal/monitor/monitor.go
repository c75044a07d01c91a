// Package monitor watches the system clipboard and feeds new content to the
// clipboard browser.
package monitor

import (
	"context"
	"log/slog"
	"sync"

	"go.klb.dev/clipshelf/internal/clip"
	"go.klb.dev/clipshelf/internal/history"
)

// Handler receives clipboard content that differs from what was last seen.
type Handler interface {
	CheckClipboard(mode clip.Mode, items []clip.Item)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(mode clip.Mode, items []clip.Item)

func (f HandlerFunc) CheckClipboard(mode clip.Mode, items []clip.Item) { f(mode, items) }

// Monitor owns the watch loop over a clip.Backend.
type Monitor struct {
	backend clip.Backend
	handler Handler

	mu   sync.Mutex
	last []clip.Item
}

// New creates a monitor but does not start it.
func New(backend clip.Backend, handler Handler) *Monitor {
	return &Monitor{backend: backend, handler: handler}
}

// Remember records items written by clipshelf itself so the resulting change
// notification is not fed back as new content.
func (m *Monitor) Remember(items []clip.Item) {
	m.mu.Lock()
	m.last = items
	m.mu.Unlock()
}

// Run delivers the current clipboard content, then every change, until ctx
// is done.
func (m *Monitor) Run(ctx context.Context) {
	slog.Info("clipboard monitor started", "backend", m.backend.Name())
	defer slog.Info("clipboard monitor stopped")

	m.Check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.backend.Watch():
			m.Check()
		}
	}
}

// Check reads the clipboard once and hands changed content to the handler.
// It reports whether anything was delivered.
func (m *Monitor) Check() bool {
	items, err := m.backend.Read()
	if err != nil {
		slog.Error("clipboard read failed", "err", err)
		return false
	}
	if len(items) == 0 {
		return false
	}

	m.mu.Lock()
	if sameContent(items, m.last) {
		m.mu.Unlock()
		return false
	}
	m.last = items
	m.mu.Unlock()

	LogItems("clipboard changed", clip.ModeClipboard, items)
	m.handler.CheckClipboard(clip.ModeClipboard, items)
	return true
}

func sameContent(a, b []clip.Item) bool {
	if len(a) != len(b) {
		return false
	}
	return history.Item{Formats: a}.Equal(history.Item{Formats: b})
}
