package tui

import (
	"context"
	"runtime"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"go.klb.dev/clipshelf/internal/browser"
	"go.klb.dev/clipshelf/internal/clip"
	"go.klb.dev/clipshelf/internal/hub"
)

func newModel(t *testing.T, texts ...string) (Model, *browser.Browser) {
	t.Helper()
	b := browser.New(browser.Options{Backend: clip.NewMemory()})
	t.Cleanup(b.Close)
	for i := len(texts) - 1; i >= 0; i-- {
		b.Add(texts[i], true)
	}
	m := New(context.Background(), b)
	t.Cleanup(m.Close)
	return m, b
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

// TestListNavigation verifies that list keys reach the browser.
func TestListNavigation(t *testing.T) {
	m, b := newModel(t, "one", "two", "three")

	m, _ = send(m, keyMsg("down"), keyMsg("down"))
	if b.Current() != 2 {
		t.Fatalf("expected current row 2, got %d", b.Current())
	}
	view := m.View()
	if !strings.Contains(view, "› ") || !strings.Contains(view, "three") {
		t.Fatalf("expected cursor on the last row, got:\n%s", view)
	}

	m, _ = send(m, keyMsg("enter"))
	if b.ItemText(0) != "three" {
		t.Fatalf("expected enter to move the item to the top, got %q", b.ItemText(0))
	}
}

// TestSearchFilters checks that typing in the search field filters the list
// and escape clears it.
func TestSearchFilters(t *testing.T) {
	m, b := newModel(t, "apple", "banana", "cherry")

	m, _ = send(m, eventMsg(hub.Event{Kind: hub.KindSearch, Text: "b"}))
	if m.mode != modeSearch {
		t.Fatalf("expected search mode, got %v", m.mode)
	}
	if got := b.Visible(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected only row 1 visible, got %v", got)
	}

	m, _ = send(m, keyMsg("a"), keyMsg("n"))
	if b.Filter() != "ban" || m.search.Value() != "ban" {
		t.Fatalf("expected filter %q, got %q", "ban", b.Filter())
	}

	m, _ = send(m, keyMsg("esc"))
	if m.mode != modeList || b.Filter() != "" {
		t.Fatalf("expected escape to clear the filter, mode %v filter %q", m.mode, b.Filter())
	}
	if !strings.Contains(m.View(), "cherry") {
		t.Fatal("expected all rows visible after escape")
	}
}

func TestEscapeEventQuits(t *testing.T) {
	m, _ := newModel(t, "x")
	if _, cmd := send(m, eventMsg(hub.Event{Kind: hub.KindEscape})); !isQuit(cmd) {
		t.Fatal("expected quit on escape event")
	}
	if _, cmd := send(m, keyMsg("ctrl+c")); !isQuit(cmd) {
		t.Fatal("expected quit on ctrl+c")
	}
}

func TestContextMenu(t *testing.T) {
	m, b := newModel(t, "first", "second")
	b.SetCurrent(1, false, false)

	m, _ = send(m, keyMsg("tab"))
	if m.mode != modeMenu || len(m.menu) == 0 {
		t.Fatalf("expected open menu, got mode %v with %d entries", m.mode, len(m.menu))
	}
	if !strings.Contains(m.View(), browser.ActionCopy) {
		t.Fatal("expected menu entries in view")
	}

	// The first entry copies the item.
	m, cmd := send(m, keyMsg("enter"))
	if m.mode != modeList || cmd == nil {
		t.Fatalf("expected menu to close with a command, mode %v", m.mode)
	}
	m, _ = send(m, cmd())
	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if b.ItemText(0) != "second" {
		t.Fatalf("expected copied item on top, got %q", b.ItemText(0))
	}
}

func TestActionDialog(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX tools")
	}
	m, b := newModel(t, "shout")

	m, _ = send(m, eventMsg(hub.Event{Kind: hub.KindActionDialog, Row: 0, Action: &hub.Action{Sep: `\n`}}))
	if m.mode != modeAction || !m.action.Input {
		t.Fatalf("expected action prompt with input on, got mode %v %+v", m.mode, m.action)
	}

	m, _ = send(m, keyMsg("tr a-z A-Z"))
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}, Alt: true})
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}, Alt: true})
	if !m.action.Output || !m.action.Wait {
		t.Fatalf("expected output and wait toggled, got %+v", m.action)
	}

	m, cmd := send(m, keyMsg("enter"))
	if cmd == nil {
		t.Fatal("expected action command")
	}
	m, _ = send(m, cmd())
	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if b.ItemText(0) != "SHOUT" {
		t.Fatalf("expected command output on top, got %q", b.ItemText(0))
	}
	if !strings.Contains(m.status, "1 item") {
		t.Fatalf("expected status with item count, got %q", m.status)
	}
}

func TestRowLabel(t *testing.T) {
	_, b := newModel(t, "line one\nline two\nline three")
	it, err := b.Item(0)
	if err != nil {
		t.Fatal(err)
	}
	got := rowLabel(it, 40, "")
	if !strings.HasPrefix(got, "line one") || !strings.Contains(got, "+2 lines") {
		t.Fatalf("unexpected label %q", got)
	}
	if got := truncate("abcdefgh", 5); got != "abcd…" {
		t.Fatalf("truncate = %q", got)
	}
}

func TestRowLabelHighlightsMatch(t *testing.T) {
	_, b := newModel(t, "say hello there")
	it, err := b.Item(0)
	if err != nil {
		t.Fatal(err)
	}
	want := "say " + matchStyle.Render("hello") + " there"
	if got := rowLabel(it, 40, "HELLO"); got != want {
		t.Fatalf("rowLabel = %q, want %q", got, want)
	}
	// The match is cut by truncation.
	want = "say " + matchStyle.Render("hel") + "…"
	if got := rowLabel(it, 8, "hello"); got != want {
		t.Fatalf("truncated rowLabel = %q, want %q", got, want)
	}
}

func TestScrollFollowsCursor(t *testing.T) {
	texts := make([]string, 50)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}
	m, b := newModel(t, texts...)
	m, _ = send(m, tea.WindowSizeMsg{Width: 80, Height: 12})

	b.SetCurrent(40, false, false)
	m, _ = send(m, eventMsg(hub.Event{Kind: hub.KindCurrent}))
	if pos := 40 - m.offset; pos < 0 || pos >= m.listHeight() {
		t.Fatalf("current row off screen: offset %d height %d", m.offset, m.listHeight())
	}
}

func TestMenuFollowsBrowser(t *testing.T) {
	m, b := newModel(t, "hello")

	m, _ = send(m, keyMsg("tab"))
	before := len(m.menu)
	if err := b.AddPreferredCommand("upper", "tr a-z A-Z", "", "", true, true, true, "", ""); err != nil {
		t.Fatal(err)
	}
	m, _ = send(m, waitForMenu(m.menus)())
	if len(m.menu) != before+1 || m.menu[len(m.menu)-1].Name != "upper" {
		t.Fatalf("menu not refreshed: %+v", m.menu)
	}
}

func TestShortcutRunsOutsideUpdate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX tools")
	}
	m, b := newModel(t, "hello")
	if err := b.AddPreferredCommand("upper", "tr a-z A-Z", "", "", true, true, true, "", "ctrl+u"); err != nil {
		t.Fatal(err)
	}

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlU})
	if cmd == nil {
		t.Fatal("expected the shortcut to return a command")
	}
	if b.ItemText(0) != "hello" {
		t.Fatalf("rule ran inside Update: top %q", b.ItemText(0))
	}
	m, _ = send(m, cmd())
	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if b.ItemText(0) != "HELLO" {
		t.Fatalf("expected rule output on top, got %q", b.ItemText(0))
	}
}
