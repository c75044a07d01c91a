package history

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxItems bounds the history when no explicit limit is configured.
const DefaultMaxItems = 200

// ErrNoSuchRow is returned when a row index is out of range.
var ErrNoSuchRow = errors.New("no such row")

// Model is the ordered clipboard history. Row 0 is the newest item.
// It is safe for concurrent use.
type Model struct {
	mu    sync.RWMutex
	items []Item
	max   int

	listenerMu sync.RWMutex
	onChange   func()
}

// NewModel returns an empty history bounded by maxItems (<= 0 means
// unbounded).
func NewModel(maxItems int) *Model {
	return &Model{max: maxItems}
}

// OnChange registers fn to be called after every mutation. Only one listener
// is supported; calling again replaces it. fn is never called with the
// model's lock held.
func (m *Model) OnChange(fn func()) {
	m.listenerMu.Lock()
	m.onChange = fn
	m.listenerMu.Unlock()
}

func (m *Model) changed() {
	m.listenerMu.RLock()
	fn := m.onChange
	m.listenerMu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Add inserts item at the top. With ignoreEmpty, empty items are rejected.
// An item equal to one already present moves that entry to the top instead.
// Add reports whether the history changed.
func (m *Model) Add(item Item, ignoreEmpty bool) bool {
	if ignoreEmpty && item.IsEmpty() {
		return false
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Created.IsZero() {
		item.Created = time.Now()
	}

	m.mu.Lock()
	idx := -1
	for i, it := range m.items {
		if it.Equal(item) {
			idx = i
			break
		}
	}
	switch {
	case idx == 0:
		m.mu.Unlock()
		return false
	case idx > 0:
		existing := m.items[idx]
		m.items = slices.Delete(m.items, idx, idx+1)
		m.items = slices.Insert(m.items, 0, existing)
	default:
		m.items = slices.Insert(m.items, 0, item)
		m.trimLocked()
	}
	m.mu.Unlock()

	m.changed()
	return true
}

// Insert places item at row without deduplication. Used for items the user
// creates explicitly.
func (m *Model) Insert(row int, item Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Created.IsZero() {
		item.Created = time.Now()
	}
	m.mu.Lock()
	if row < 0 || row > len(m.items) {
		m.mu.Unlock()
		return fmt.Errorf("insert at %d: %w", row, ErrNoSuchRow)
	}
	m.items = slices.Insert(m.items, row, item)
	m.trimLocked()
	m.mu.Unlock()

	m.changed()
	return nil
}

// Remove deletes the given rows. Either all rows are valid and removed or
// nothing changes.
func (m *Model) Remove(rows ...int) error {
	if len(rows) == 0 {
		return nil
	}
	rows = slices.Clone(rows)
	slices.Sort(rows)
	rows = slices.Compact(rows)

	m.mu.Lock()
	for _, r := range rows {
		if r < 0 || r >= len(m.items) {
			m.mu.Unlock()
			return fmt.Errorf("remove row %d: %w", r, ErrNoSuchRow)
		}
	}
	for i := len(rows) - 1; i >= 0; i-- {
		m.items = slices.Delete(m.items, rows[i], rows[i]+1)
	}
	m.mu.Unlock()

	m.changed()
	return nil
}

// Move moves the item at from so that it ends up at row to.
func (m *Model) Move(from, to int) error {
	m.mu.Lock()
	if from < 0 || from >= len(m.items) || to < 0 || to >= len(m.items) {
		m.mu.Unlock()
		return fmt.Errorf("move %d→%d: %w", from, to, ErrNoSuchRow)
	}
	if from == to {
		m.mu.Unlock()
		return nil
	}
	it := m.items[from]
	m.items = slices.Delete(m.items, from, from+1)
	m.items = slices.Insert(m.items, to, it)
	m.mu.Unlock()

	m.changed()
	return nil
}

// Replace swaps the content of row for item's content, keeping the row's ID.
func (m *Model) Replace(row int, item Item) error {
	m.mu.Lock()
	if row < 0 || row >= len(m.items) {
		m.mu.Unlock()
		return fmt.Errorf("replace row %d: %w", row, ErrNoSuchRow)
	}
	if m.items[row].Equal(item) {
		m.mu.Unlock()
		return nil
	}
	item.ID = m.items[row].ID
	item.Created = m.items[row].Created
	m.items[row] = item
	m.mu.Unlock()

	m.changed()
	return nil
}

// SetText replaces the content of row with text.
func (m *Model) SetText(row int, text string) error {
	m.mu.Lock()
	if row < 0 || row >= len(m.items) {
		m.mu.Unlock()
		return fmt.Errorf("set text row %d: %w", row, ErrNoSuchRow)
	}
	it := m.items[row].WithText(text)
	if m.items[row].Equal(it) {
		m.mu.Unlock()
		return nil
	}
	m.items[row] = it
	m.mu.Unlock()

	m.changed()
	return nil
}

// Len returns the number of items.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// At returns a copy of the item at row.
func (m *Model) At(row int) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row < 0 || row >= len(m.items) {
		return Item{}, fmt.Errorf("row %d: %w", row, ErrNoSuchRow)
	}
	return m.items[row].Clone(), nil
}

// Text returns the text of row, or "" when row is out of range.
func (m *Model) Text(row int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row < 0 || row >= len(m.items) {
		return ""
	}
	return m.items[row].Text()
}

// IndexOf returns the row of the item with id, or -1.
func (m *Model) IndexOf(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, it := range m.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Items returns a snapshot of the history.
func (m *Model) Items() []Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Item, len(m.items))
	for i, it := range m.items {
		out[i] = it.Clone()
	}
	return out
}

// Reset replaces the whole history, e.g. after loading from disk.
func (m *Model) Reset(items []Item) {
	m.mu.Lock()
	m.items = slices.Clone(items)
	m.trimLocked()
	m.mu.Unlock()

	m.changed()
}

// MaxItems returns the configured bound.
func (m *Model) MaxItems() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.max
}

// SetMaxItems changes the bound, dropping the oldest items if needed.
func (m *Model) SetMaxItems(n int) {
	m.mu.Lock()
	before := len(m.items)
	m.max = n
	m.trimLocked()
	trimmed := len(m.items) != before
	m.mu.Unlock()

	if trimmed {
		m.changed()
	}
}

// trimLocked drops the oldest items beyond max. Must be called with m.mu held.
func (m *Model) trimLocked() {
	if m.max > 0 && len(m.items) > m.max {
		m.items = m.items[:m.max]
	}
}
