package clip

import (
	"bytes"
	"slices"
	"sync"
)

// Memory is an in-process clipboard with a primary selection. Writes to it,
// whether from clipshelf or from Set, trigger Watch like a real clipboard.
type Memory struct {
	mu        sync.Mutex
	clipboard []Item
	selection []Item
	writes    int
	watchCh   chan struct{}
}

// NewMemory returns an empty in-memory clipboard.
func NewMemory() *Memory {
	return &Memory{watchCh: make(chan struct{}, 1)}
}

func (m *Memory) Name() string { return "in-memory" }

// Read returns a copy of the clipboard contents.
func (m *Memory) Read() ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneItems(m.clipboard), nil
}

// Write replaces the clipboard contents.
func (m *Memory) Write(items []Item) error {
	m.mu.Lock()
	m.clipboard = cloneItems(items)
	m.writes++
	m.mu.Unlock()
	m.notify()
	return nil
}

// ReadSelection returns a copy of the primary selection.
func (m *Memory) ReadSelection() ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneItems(m.selection), nil
}

// WriteSelection replaces the primary selection. Selection changes are not
// reported through Watch.
func (m *Memory) WriteSelection(items []Item) error {
	m.mu.Lock()
	m.selection = cloneItems(items)
	m.mu.Unlock()
	return nil
}

// SetText simulates another application copying text.
func (m *Memory) SetText(text string) {
	_ = m.Write([]Item{{MIME: "text/plain", Data: []byte(text)}})
}

// Writes returns the number of clipboard writes so far.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Watch() <-chan struct{} { return m.watchCh }
func (m *Memory) Close()                 {}

func (m *Memory) notify() {
	select {
	case m.watchCh <- struct{}{}:
	default:
	}
}

func cloneItems(items []Item) []Item {
	out := slices.Clone(items)
	for i := range out {
		out[i].Data = bytes.Clone(out[i].Data)
	}
	return out
}
