// Package tui is the terminal view of the clipboard browser: a scrolling
// history list with search, a context menu, an action prompt and external
// editing, following the browser through its event hub.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"go.klb.dev/clipshelf/internal/browser"
	"go.klb.dev/clipshelf/internal/command"
	"go.klb.dev/clipshelf/internal/hub"
	"go.klb.dev/clipshelf/internal/notify"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeAction
	modeMenu
)

const eventBuffer = 256

// --- Messages ---

// eventMsg wraps a browser event.
type eventMsg hub.Event

// menuMsg carries the context menu rebuilt by the browser.
type menuMsg []browser.MenuEntry

// editorDoneMsg is sent when an external editor exits.
type editorDoneMsg struct{ err error }

// actionDoneMsg carries the outcome of a command started from the view.
type actionDoneMsg struct {
	name string
	res  *command.Result
	err  error
}

// Model is the bubbletea model of the history browser.
type Model struct {
	ctx  context.Context
	b    *browser.Browser
	sub  *hub.Chan
	keys keyMap
	help help.Model

	mode   mode
	search textinput.Model

	// action dialog
	prompt    textinput.Model
	actionRow int
	action    hub.Action

	// context menu
	menus      chan []browser.MenuEntry
	menu       []browser.MenuEntry
	menuCursor int

	notes  []notify.Notification
	status string
	err    error

	width, height int
	offset        int
}

// New attaches a view to b. Call Close when the program ends.
func New(ctx context.Context, b *browser.Browser) Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "regex or fuzzy filter"
	search.CharLimit = 200

	prompt := textinput.New()
	prompt.Prompt = "$ "
	prompt.Placeholder = "command, %1 is the item text"
	prompt.CharLimit = 1024

	m := Model{
		ctx:    ctx,
		b:      b,
		sub:    hub.NewChan("tui:"+uuid.NewString(), eventBuffer),
		menus:  make(chan []browser.MenuEntry, 1),
		keys:   defaultKeyMap(),
		help:   help.New(),
		search: search,
		prompt: prompt,
		height: 24,
		width:  80,
	}
	b.Hub().Register(m.sub)
	menus := m.menus
	b.SetMenu(func(menu []browser.MenuEntry) {
		// Keep only the latest menu.
		select {
		case <-menus:
		default:
		}
		select {
		case menus <- menu:
		default:
		}
	})
	return m
}

// Close detaches the view from the browser.
func (m Model) Close() {
	m.b.Hub().Unregister(m.sub)
	m.b.SetMenu(nil)
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.sub), waitForMenu(m.menus))
}

func waitForMenu(menus <-chan []browser.MenuEntry) tea.Cmd {
	return func() tea.Msg {
		return menuMsg(<-menus)
	}
}

func waitForEvent(sub *hub.Chan) tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-sub.C())
	}
}

// listHeight is the number of history rows that fit on screen.
func (m Model) listHeight() int {
	chrome := 5
	if m.mode == modeSearch || m.mode == modeAction {
		chrome += 2
	}
	chrome += 3 * min(len(m.notes), 2)
	return max(3, m.height-chrome)
}

// follow scrolls so the current row stays on screen.
func (m *Model) follow() {
	pos := position(m.b.Visible(), m.b.Current())
	h := m.listHeight()
	switch {
	case pos < 0:
		m.offset = 0
	case pos < m.offset:
		m.offset = pos
	case pos >= m.offset+h:
		m.offset = pos - h + 1
	}
}

func position(rows []int, row int) int {
	for i, r := range rows {
		if r == row {
			return i
		}
	}
	return -1
}
