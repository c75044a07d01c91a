package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings the view handles itself. Everything else goes
// to the browser.
type keyMap struct {
	Copy   key.Binding
	Edit   key.Binding
	New    key.Binding
	Menu   key.Binding
	Action key.Binding
	Search key.Binding
	Quit   key.Binding

	// action dialog toggles
	Input  key.Binding
	Output key.Binding
	Wait   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Copy:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "copy")),
		Edit:   key.NewBinding(key.WithKeys("f2", "ctrl+e"), key.WithHelp("f2", "edit")),
		New:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new")),
		Menu:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "menu")),
		Action: key.NewBinding(key.WithKeys("f5"), key.WithHelp("f5", "action")),
		Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Input:  key.NewBinding(key.WithKeys("alt+i"), key.WithHelp("alt+i", "input")),
		Output: key.NewBinding(key.WithKeys("alt+o"), key.WithHelp("alt+o", "output")),
		Wait:   key.NewBinding(key.WithKeys("alt+w"), key.WithHelp("alt+w", "wait")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Copy, k.Edit, k.New, k.Menu, k.Action, k.Search, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Input, k.Output, k.Wait}}
}
