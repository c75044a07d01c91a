// Package notify keeps the set of active user notifications: command
// results, errors and previews of new clipboard content. Views poll Active
// or subscribe to coalesced updates.
package notify

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"go.klb.dev/clipshelf/internal/history"
)

// MIMEHidden marks items whose content must not be previewed.
const MIMEHidden = "application/x-clipshelf-hidden"

const (
	updateDelay = 100 * time.Millisecond
	lineWidth   = 80
)

// Notification is one visible message.
type Notification struct {
	ID      string    `json:"id"`
	Title   string    `json:"title,omitempty"`
	Message string    `json:"message"`
	Icon    string    `json:"icon,omitempty"`
	Created time.Time `json:"created"`
	// Expires is zero for notifications that stay until removed.
	Expires time.Time `json:"expires,omitzero"`
}

type entry struct {
	n     Notification
	timer *time.Timer
}

// Center owns active notifications. Updates are coalesced: listeners see at
// most one callback per 100ms burst of changes.
type Center struct {
	mu       sync.Mutex
	entries  []*entry
	onUpdate func([]Notification)
	pending  bool
	closed   bool
}

// NewCenter returns a Center reporting changes to onUpdate (may be nil).
func NewCenter(onUpdate func([]Notification)) *Center {
	return &Center{onUpdate: onUpdate}
}

// Create shows a notification, replacing the one with the same id if any.
// An empty id allocates a new one. timeout <= 0 keeps it until removed.
func (c *Center) Create(id, title, msg, icon string, timeout time.Duration) string {
	if id == "" {
		id = uuid.NewString()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return id
	}
	e := c.findLocked(id)
	if e == nil {
		e = &entry{n: Notification{ID: id, Created: time.Now()}}
		c.entries = append(c.entries, e)
	}
	e.n.Title = title
	e.n.Message = msg
	e.n.Icon = icon
	c.setIntervalLocked(e, timeout)
	c.scheduleUpdateLocked()
	return id
}

// CreateForItem shows a preview of item: text elided to maxLines with a
// line count, or a summary for binary content.
func (c *Center) CreateForItem(id string, item history.Item, maxLines int, icon string, timeout time.Duration) string {
	return c.Create(id, "", Preview(item, maxLines), icon, timeout)
}

// UpdateInterval restarts the expiry of id. It reports whether id exists.
func (c *Center) UpdateInterval(id string, timeout time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.findLocked(id)
	if e == nil {
		return false
	}
	c.setIntervalLocked(e, timeout)
	c.scheduleUpdateLocked()
	return true
}

// Remove closes the notification id. It reports whether id existed.
func (c *Center) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := slices.IndexFunc(c.entries, func(e *entry) bool { return e.n.ID == id })
	if idx < 0 {
		return false
	}
	if t := c.entries[idx].timer; t != nil {
		t.Stop()
	}
	c.entries = slices.Delete(c.entries, idx, idx+1)
	c.scheduleUpdateLocked()
	return true
}

// Active returns the current notifications, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.n
	}
	return out
}

// Close stops all timers. Later calls to Create are ignored.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, e := range c.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
}

func (c *Center) findLocked(id string) *entry {
	for _, e := range c.entries {
		if e.n.ID == id {
			return e
		}
	}
	return nil
}

func (c *Center) setIntervalLocked(e *entry, timeout time.Duration) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if timeout <= 0 {
		e.n.Expires = time.Time{}
		return
	}
	e.n.Expires = time.Now().Add(timeout)
	id, expires := e.n.ID, e.n.Expires
	e.timer = time.AfterFunc(timeout, func() { c.expire(id, expires) })
}

// expire removes id unless its interval was changed after the timer was set.
func (c *Center) expire(id string, expires time.Time) {
	c.mu.Lock()
	e := c.findLocked(id)
	stale := e == nil || !e.n.Expires.Equal(expires)
	c.mu.Unlock()
	if !stale {
		c.Remove(id)
	}
}

func (c *Center) scheduleUpdateLocked() {
	if c.onUpdate == nil || c.closed || c.pending {
		return
	}
	c.pending = true
	time.AfterFunc(updateDelay, c.fireUpdate)
}

func (c *Center) fireUpdate() {
	c.mu.Lock()
	c.pending = false
	closed := c.closed
	c.mu.Unlock()
	if !closed {
		c.onUpdate(c.Active())
	}
}

// Preview renders item for a notification body.
func Preview(item history.Item, maxLines int) string {
	if item.Has(MIMEHidden) {
		return "(hidden content)"
	}
	if item.Has(history.MIMEText) {
		return ElideText(item.Text(), maxLines)
	}
	for _, f := range item.Formats {
		if strings.HasPrefix(f.MIME, "image/") {
			return fmt.Sprintf("[%s image, %s]", strings.TrimPrefix(f.MIME, "image/"), humanSize(len(f.Data)))
		}
	}
	if len(item.Formats) == 0 {
		return "(empty)"
	}
	return fmt.Sprintf("[%s]", strings.Join(item.MIMEs(), ", "))
}

// ElideText keeps at most maxLines lines (each cut to a fixed width) and
// appends a line count when the text has more than one line.
func ElideText(text string, maxLines int) string {
	text = strings.TrimRight(text, "\n")
	lines := strings.Split(text, "\n")
	n := len(lines)
	if maxLines > 0 && n > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] += " …"
	}
	for i, l := range lines {
		lines[i] = elideLine(l, lineWidth)
	}
	out := strings.Join(lines, "\n")
	if n > 1 {
		out += fmt.Sprintf("\n— %d lines —", n)
	}
	return out
}

func elideLine(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
