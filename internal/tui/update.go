package tui

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"go.klb.dev/clipshelf/internal/browser"
	"go.klb.dev/clipshelf/internal/hub"
	"go.klb.dev/clipshelf/internal/notify"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.follow()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		return m.handleEvent(hub.Event(msg))

	case menuMsg:
		m.menu = msg
		if m.menuCursor >= len(m.menu) {
			m.menuCursor = max(0, len(m.menu)-1)
		}
		return m, waitForMenu(m.menus)

	case editorDoneMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = "item saved"
		}
		return m, nil

	case actionDoneMsg:
		m.err = msg.err
		if msg.err == nil && msg.res != nil {
			m.status = fmt.Sprintf("%s: %d item(s)", msg.name, len(msg.res.Items))
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.Close()
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.handleSearchKey(msg)
		case modeAction:
			return m.handleActionKey(msg)
		case modeMenu:
			return m.handleMenuKey(msg)
		}
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m Model) handleEvent(ev hub.Event) (Model, tea.Cmd) {
	wait := waitForEvent(m.sub)
	switch ev.Kind {
	case hub.KindSearch:
		m.mode = modeSearch
		m.search.SetValue(ev.Text)
		m.search.CursorEnd()
		if ev.Text != "" {
			m.b.FilterItems(ev.Text)
		}
		focus := m.search.Focus()
		return m, tea.Batch(wait, focus)

	case hub.KindHideSearch:
		if m.mode == modeSearch {
			m.mode = modeList
		}
		m.search.Blur()
		m.search.SetValue("")

	case hub.KindEscape:
		m.Close()
		return m, tea.Quit

	case hub.KindActionDialog:
		m.mode = modeAction
		m.actionRow = ev.Row
		m.action = hub.Action{Sep: `\n`, Input: true}
		if ev.Action != nil {
			m.action = *ev.Action
			if ev.Action.Cmd == "" {
				m.action.Input = true
			}
		}
		m.prompt.SetValue(m.action.Cmd)
		m.prompt.CursorEnd()
		focus := m.prompt.Focus()
		return m, tea.Batch(wait, focus)

	case hub.KindCloseEditors:
		if ev.Length > 0 {
			m.status = fmt.Sprintf("%d editor(s) closed", ev.Length)
		}

	case hub.KindCommandFinished:
		if ev.Err != "" {
			m.err = fmt.Errorf("%s: %s", ev.Text, ev.Err)
		} else {
			m.status = fmt.Sprintf("%s finished", ev.Text)
		}

	case hub.KindNotifications:
		m.notes, _ = ev.Payload.([]notify.Notification)
	}
	return m, wait
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.err = nil
	switch {
	case key.Matches(msg, m.keys.Edit):
		return m, m.editRow(m.b.Current())
	case key.Matches(msg, m.keys.New):
		if err := m.b.NewItem(""); err != nil {
			m.err = err
			return m, nil
		}
		return m, m.editRow(0)
	case key.Matches(msg, m.keys.Menu):
		if m.b.Current() < 0 {
			return m, nil
		}
		m.menu = m.b.Menu()
		m.menuCursor = 0
		m.mode = modeMenu
		return m, nil
	}
	if k := msg.String(); !browser.BuiltinKey(k) {
		if c, ok := m.b.ShortcutCommand(k); ok {
			return m, m.runCommand(c.Name)
		}
	}
	if !m.b.KeyEvent(m.ctx, msg.String()) {
		slog.Debug("unhandled key", "key", msg.String())
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.search.Blur()
		m.b.KeyEvent(m.ctx, "esc")
		return m, nil
	case "up", "down", "pgup", "pgdown", "shift+up", "shift+down", "enter":
		m.b.KeyEvent(m.ctx, msg.String())
		return m, nil
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.b.FilterItems(v)
	}
	return m, cmd
}

func (m Model) handleActionKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		m.mode = modeList
		m.prompt.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Input):
		m.action.Input = !m.action.Input
		return m, nil
	case key.Matches(msg, m.keys.Output):
		m.action.Output = !m.action.Output
		return m, nil
	case key.Matches(msg, m.keys.Wait):
		m.action.Wait = !m.action.Wait
		return m, nil
	case msg.String() == "enter":
		m.mode = modeList
		m.prompt.Blur()
		a := m.action
		a.Cmd = m.prompt.Value()
		if a.Cmd == "" {
			return m, nil
		}
		return m, m.runAction(m.actionRow, a)
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) handleMenuKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "tab":
		m.mode = modeList
	case "up":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case "down":
		if m.menuCursor < len(m.menu)-1 {
			m.menuCursor++
		}
	case "enter":
		m.mode = modeList
		if m.menuCursor >= len(m.menu) {
			return m, nil
		}
		return m, m.menuAction(m.menu[m.menuCursor].Name)
	}
	return m, nil
}

// menuAction runs a context menu entry. Editing needs the terminal, so it
// is handled here rather than by the browser.
func (m Model) menuAction(name string) tea.Cmd {
	if name == browser.ActionEdit {
		return m.editRow(m.b.Current())
	}
	ctx, b := m.ctx, m.b
	return func() tea.Msg {
		return actionDoneMsg{name: name, err: b.ContextMenuAction(ctx, name)}
	}
}

// runCommand runs a rule outside Update; waiting rules block until the
// program exits.
func (m Model) runCommand(name string) tea.Cmd {
	ctx, b := m.ctx, m.b
	return func() tea.Msg {
		res, err := b.RunCommand(ctx, name, -1)
		return actionDoneMsg{name: name, res: res, err: err}
	}
}

func (m Model) runAction(row int, a hub.Action) tea.Cmd {
	ctx, b := m.ctx, m.b
	return func() tea.Msg {
		res, err := b.RunAction(ctx, row, a)
		return actionDoneMsg{name: "action", res: res, err: err}
	}
}

// editRow suspends the program while an external editor runs on row.
func (m Model) editRow(row int) tea.Cmd {
	e, err := m.b.OpenEditorAt(row)
	if err != nil {
		return func() tea.Msg { return editorDoneMsg{err: err} }
	}
	return tea.ExecProcess(e.Cmd(m.ctx), func(err error) tea.Msg {
		return editorDoneMsg{err: e.Finish(err)}
	})
}
