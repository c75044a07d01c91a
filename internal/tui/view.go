package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.klb.dev/clipshelf/internal/browser"
	"go.klb.dev/clipshelf/internal/history"
	"go.klb.dev/clipshelf/internal/notify"
)

func (m Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("clipshelf  %d item(s)", m.b.Length())
	if m.b.Filter() != "" {
		title += fmt.Sprintf(", %d shown", len(m.b.Visible()))
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", max(10, m.width-2))) + "\n")

	b.WriteString(m.renderList())

	switch m.mode {
	case modeSearch:
		b.WriteString("\n" + m.search.View() + "\n")
	case modeAction:
		b.WriteString("\n" + m.prompt.View() + "\n")
		b.WriteString(subtleStyle.Render(m.actionFlags()) + "\n")
	case modeMenu:
		b.WriteString("\n" + m.renderMenu() + "\n")
	}

	for _, n := range m.notes[:min(len(m.notes), 2)] {
		b.WriteString(noteStyle.Render(renderNote(n)) + "\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("! "+m.err.Error()) + "\n")
	case m.status != "":
		b.WriteString(subtleStyle.Render(m.status) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderList() string {
	rows := m.b.Visible()
	if len(rows) == 0 {
		if m.b.Filter() != "" {
			return subtleStyle.Render("no matching items") + "\n"
		}
		return subtleStyle.Render("history is empty") + "\n"
	}
	items := m.b.Items()
	current := m.b.Current()
	width := max(20, m.width-8)

	var b strings.Builder
	start := min(m.offset, len(rows))
	end := min(len(rows), start+m.listHeight())
	for _, row := range rows[start:end] {
		if row >= len(items) {
			continue
		}
		mark := " "
		if m.b.IsSelected(row) {
			mark = markStyle.Render("•")
		}
		line := fmt.Sprintf("%3d %s %s", row, mark, rowLabel(items[row], width, m.b.Filter()))
		if row == current {
			b.WriteString(cursorLineStyle.Render("›"+line) + "\n")
		} else {
			b.WriteString(rowStyle.Render(" "+line) + "\n")
		}
	}
	return b.String()
}

func (m Model) renderMenu() string {
	var lines []string
	for i, e := range m.menu {
		label := e.Name
		if e.Shortcut != "" {
			label += "  " + subtleStyle.Render(e.Shortcut)
		}
		if i == m.menuCursor {
			label = menuSelectedStyle.Render(e.Name)
		}
		lines = append(lines, label)
	}
	return menuStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) actionFlags() string {
	flag := func(name string, on bool) string {
		if on {
			return "[x] " + name
		}
		return "[ ] " + name
	}
	return strings.Join([]string{
		flag("input (alt+i)", m.action.Input),
		flag("output (alt+o)", m.action.Output),
		flag("wait (alt+w)", m.action.Wait),
	}, "  ")
}

// rowLabel renders an item on one line: the first line of its text with a
// line count, or a summary of its formats. Parts of the first line matched
// by filter are highlighted.
func rowLabel(it history.Item, width int, filter string) string {
	if !it.Has(history.MIMEText) {
		return notify.Preview(it, 1)
	}
	text := strings.TrimRight(it.Text(), "\n")
	first, rest, multi := strings.Cut(text, "\n")
	first = strings.ReplaceAll(first, "\t", " ")
	suffix := ""
	if multi {
		suffix = fmt.Sprintf(" (+%d lines)", strings.Count(rest, "\n")+1)
	}
	label := truncate(first, width-utf8.RuneCountInString(suffix))
	kept := label
	if label != first {
		kept = strings.TrimSuffix(label, "…")
	}
	return highlight(kept, browser.MatchSpans(filter, first)) + label[len(kept):] + subtleStyle.Render(suffix)
}

// highlight renders the byte ranges spans of s with matchStyle. Ranges past
// the end of s are clipped.
func highlight(s string, spans [][2]int) string {
	if len(spans) == 0 {
		return s
	}
	var b strings.Builder
	pos := 0
	for _, sp := range spans {
		start, end := min(sp[0], len(s)), min(sp[1], len(s))
		if start < pos || start >= end {
			continue
		}
		b.WriteString(s[pos:start])
		b.WriteString(matchStyle.Render(s[start:end]))
		pos = end
	}
	b.WriteString(s[pos:])
	return b.String()
}

func truncate(s string, width int) string {
	if width < 1 {
		return ""
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}

func renderNote(n notify.Notification) string {
	if n.Title == "" {
		return n.Message
	}
	return titleStyle.Render(n.Title) + "\n" + n.Message
}
