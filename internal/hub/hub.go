// Package hub fans browser events out to every attached view: the terminal
// UI, HTTP event streams and anything else that wants to follow the
// clipboard history. Subscribers register, receive events through Send, and
// must never block.
package hub

import (
	"log/slog"
	"sync"
)

// Kind identifies an event.
type Kind string

const (
	// KindChanged: the history or the visible rows changed.
	KindChanged Kind = "changed"
	// KindCurrent: the current row or the selection moved.
	KindCurrent Kind = "current"
	// KindSearch asks views to open the search field with Text.
	KindSearch Kind = "search"
	// KindHideSearch asks views to close the search field.
	KindHideSearch Kind = "hide_search"
	// KindEscape is sent when escape reached the browser with nothing to
	// cancel; views usually close.
	KindEscape Kind = "escape"
	// KindActionDialog asks views to prompt for a command to run on Row.
	KindActionDialog Kind = "action_dialog"
	// KindCloseEditors asks views to abandon open editors.
	KindCloseEditors Kind = "close_editors"
	// KindCommandFinished reports the end of a command run.
	KindCommandFinished Kind = "command_finished"
	// KindNotifications carries the active notification list.
	KindNotifications Kind = "notifications"
)

// Action is the payload of KindActionDialog: a suggested command line and
// its flags, prefilled from a command rule when one was chosen.
type Action struct {
	Cmd    string `json:"cmd,omitempty"`
	Sep    string `json:"sep"`
	Input  bool   `json:"input"`
	Output bool   `json:"output"`
	Wait   bool   `json:"wait"`
}

// Event is delivered to subscribers.
type Event struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text,omitempty"`
	Row  int    `json:"row"`

	// Length is the number of visible rows for KindChanged.
	Length int     `json:"length,omitempty"`
	Action *Action `json:"action,omitempty"`
	Err    string  `json:"error,omitempty"`

	// Payload carries kind-specific data (e.g. notifications).
	Payload any `json:"payload,omitempty"`
}

// Subscriber is anything that can receive events from the hub.
type Subscriber interface {
	ID() string
	// Send delivers an event to the subscriber. Must be non-blocking.
	Send(Event)
}

// sticky kinds are replayed to subscribers when they register.
var sticky = map[Kind]bool{
	KindChanged:       true,
	KindCurrent:       true,
	KindNotifications: true,
}

// Hub routes browser events to all registered subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]Subscriber
	latest map[Kind]Event
	order  []Kind
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{
		subs:   make(map[string]Subscriber),
		latest: make(map[Kind]Event),
	}
}

// Register adds s and immediately replays the latest state events.
func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	h.subs[s.ID()] = s
	replay := make([]Event, 0, len(h.order))
	for _, k := range h.order {
		replay = append(replay, h.latest[k])
	}
	total := len(h.subs)
	h.mu.Unlock()

	slog.Debug("subscriber registered", "subscriber", s.ID(), "total", total)
	for _, ev := range replay {
		s.Send(ev)
	}
}

// Unregister removes s.
func (h *Hub) Unregister(s Subscriber) {
	h.mu.Lock()
	delete(h.subs, s.ID())
	total := len(h.subs)
	h.mu.Unlock()
	slog.Debug("subscriber unregistered", "subscriber", s.ID(), "total", total)
}

// Publish delivers ev to every subscriber.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	if sticky[ev.Kind] {
		if _, seen := h.latest[ev.Kind]; !seen {
			h.order = append(h.order, ev.Kind)
		}
		h.latest[ev.Kind] = ev
	}
	targets := make([]Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		s.Send(ev)
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Chan is a Subscriber backed by a buffered channel. Events are dropped,
// with a warning, when the reader falls behind.
type Chan struct {
	id string
	ch chan Event
}

// NewChan returns a channel subscriber with room for size events.
func NewChan(id string, size int) *Chan {
	return &Chan{id: id, ch: make(chan Event, size)}
}

func (c *Chan) ID() string { return c.id }

// C returns the receive side.
func (c *Chan) C() <-chan Event { return c.ch }

func (c *Chan) Send(ev Event) {
	select {
	case c.ch <- ev:
	default:
		slog.Warn("subscriber channel full, dropping", "subscriber", c.id, "kind", ev.Kind)
	}
}
