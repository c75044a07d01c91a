// Package browser is the clipboard browser: the history list together with
// its cursor, selection and filter, the command rules offered for items, the
// clipboard monitor feeding it and the timer persisting it.
//
// Rows passed to and returned from the Browser are model rows; row 0 is the
// newest item. A filter hides rows without renumbering them, and views walk
// Visible() to render.
package browser

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.klb.dev/clipshelf/internal/clip"
	"go.klb.dev/clipshelf/internal/command"
	"go.klb.dev/clipshelf/internal/history"
	"go.klb.dev/clipshelf/internal/hub"
	"go.klb.dev/clipshelf/internal/monitor"
	"go.klb.dev/clipshelf/internal/notify"
	"go.klb.dev/clipshelf/internal/store"
)

const (
	DefaultSaveDelay     = 30 * time.Second
	DefaultNotifyTimeout = 8 * time.Second
	DefaultNotifyLines   = 4
	DefaultPageSize      = 10
)

// ErrNoCurrent is returned by operations on the current row when the
// history is empty or every row is filtered out.
var ErrNoCurrent = errors.New("no current item")

// Store loads and saves the history.
type Store interface {
	Load() ([]history.Item, error)
	Save(items []history.Item) error
}

// CommandStore persists the command table after it changes.
type CommandStore interface {
	Save(cfgs []command.Config) error
}

// Options wires a Browser to its collaborators. Backend is required; the
// rest default to in-process implementations.
type Options struct {
	Backend  clip.Backend
	Store    Store
	Commands CommandStore
	Hub      *hub.Hub
	Runner   *command.Runner
}

// Browser is safe for concurrent use.
type Browser struct {
	model   *history.Model
	runner  *command.Runner
	backend clip.Backend
	store   Store
	cmds    CommandStore
	saver   *store.Saver
	notes   *notify.Center
	hub     *hub.Hub
	monitor *monitor.Monitor

	// mu guards everything below. It may be held while reading the model
	// but never while mutating it, since the change listener takes it.
	mu         sync.Mutex
	settings   Settings
	commands   *command.Table
	view       view
	menu       []MenuEntry
	menuFn     func([]MenuEntry)
	editors    map[*Editor]struct{}
	monitoring bool
	cancel     context.CancelFunc
}

// New creates a browser with default settings and an empty history.
func New(opts Options) *Browser {
	b := &Browser{
		model:    history.NewModel(history.DefaultMaxItems),
		runner:   opts.Runner,
		backend:  opts.Backend,
		store:    opts.Store,
		cmds:     opts.Commands,
		hub:      opts.Hub,
		settings: DefaultSettings(),
		commands: command.NewTable(),
		editors:  make(map[*Editor]struct{}),
	}
	if b.runner == nil {
		b.runner = &command.Runner{}
	}
	b.commands.UseRunner(b.runner)
	if b.hub == nil {
		b.hub = hub.New()
	}
	if b.store != nil {
		b.saver = store.NewSaver(b.store, b.model.Items)
	}
	b.notes = notify.NewCenter(func(ns []notify.Notification) {
		b.hub.Publish(hub.Event{Kind: hub.KindNotifications, Length: len(ns), Payload: ns})
	})
	b.view.currentRow = -1
	b.model.OnChange(b.modelChanged)
	return b
}

// Hub returns the event hub views subscribe to.
func (b *Browser) Hub() *hub.Hub { return b.hub }

// Notifications returns the notification center.
func (b *Browser) Notifications() *notify.Center { return b.notes }

// Backend returns the clipboard backend.
func (b *Browser) Backend() clip.Backend { return b.backend }

// Items returns a snapshot of the history, newest first.
func (b *Browser) Items() []history.Item { return b.model.Items() }

// Monitoring reports whether the clipboard monitor is running.
func (b *Browser) Monitoring() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.monitoring
}

// LoadItems replaces the history with the stored one.
func (b *Browser) LoadItems() error {
	if b.store == nil {
		return nil
	}
	items, err := b.store.Load()
	if err != nil {
		return err
	}
	b.model.Reset(items)
	slog.Info("history loaded", "items", b.model.Len())
	return nil
}

// SaveItems schedules persistence after delay; zero saves immediately.
func (b *Browser) SaveItems(delay time.Duration) {
	if b.saver == nil {
		return
	}
	b.saver.Schedule(delay)
}

// Pending reports whether a save is scheduled.
func (b *Browser) Pending() bool {
	return b.saver != nil && b.saver.Pending()
}

// StartMonitoring starts the clipboard monitor. Calling it again is a no-op.
func (b *Browser) StartMonitoring(ctx context.Context) {
	b.mu.Lock()
	if b.monitoring {
		b.mu.Unlock()
		return
	}
	b.monitoring = true
	ctx, b.cancel = context.WithCancel(ctx)
	b.monitor = monitor.New(b.backend, monitor.HandlerFunc(b.CheckClipboard))
	m := b.monitor
	b.mu.Unlock()

	go m.Run(ctx)
}

// Close stops the monitor, drops open editors, flushes pending saves and
// clears notifications.
func (b *Browser) Close() {
	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.monitoring = false
	b.mu.Unlock()

	b.CloseAllEditors()
	if b.saver != nil {
		b.saver.Close()
	}
	b.notes.Close()
}

func (b *Browser) modelChanged() {
	b.mu.Lock()
	b.view.refresh(b.model.Items())
	length := len(b.view.visible)
	filter := b.view.filter
	delay := b.settings.SaveDelay
	b.mu.Unlock()

	b.hub.Publish(hub.Event{Kind: hub.KindChanged, Length: length, Text: filter})
	b.publishCurrent()
	b.UpdateMenuItems()
	b.SaveItems(delay)
}

func (b *Browser) publishCurrent() {
	b.mu.Lock()
	row := b.view.currentRow
	b.mu.Unlock()
	b.hub.Publish(hub.Event{Kind: hub.KindCurrent, Row: row, Text: b.model.Text(row)})
}

func (b *Browser) remember(items []clip.Item) {
	b.mu.Lock()
	m := b.monitor
	b.mu.Unlock()
	if m != nil {
		m.Remember(items)
	}
}
