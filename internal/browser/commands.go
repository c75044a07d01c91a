package browser

import (
	"context"
	"fmt"
	"log/slog"

	"go.klb.dev/clipshelf/internal/command"
	"go.klb.dev/clipshelf/internal/hub"
)

// Built-in menu actions.
const (
	ActionCopy   = "copy"
	ActionEdit   = "edit"
	ActionRemove = "remove"
	ActionRun    = "action"
)

// MenuEntry is one item of the current row's context menu.
type MenuEntry struct {
	Name     string `json:"name"`
	Icon     string `json:"icon,omitempty"`
	Shortcut string `json:"shortcut,omitempty"`
	Builtin  bool   `json:"builtin,omitempty"`
}

var builtinMenu = []MenuEntry{
	{Name: ActionCopy, Shortcut: "enter", Builtin: true},
	{Name: ActionEdit, Shortcut: "f2", Builtin: true},
	{Name: ActionRemove, Shortcut: "delete", Builtin: true},
	{Name: ActionRun, Shortcut: "f5", Builtin: true},
}

// AddPreferredCommand adds a command rule or replaces the one named name.
func (b *Browser) AddPreferredCommand(name, cmd, re, sep string, input, output, wait bool, icon, shortcut string) error {
	c, err := command.New(command.Config{
		Name:     name,
		Match:    re,
		Cmd:      cmd,
		Sep:      sep,
		Input:    input,
		Output:   output,
		Wait:     wait,
		Icon:     icon,
		Shortcut: shortcut,
	})
	if err != nil {
		return err
	}
	return b.AddCommand(c)
}

// AddCommand adds c or replaces the rule of the same name, then stores the
// table.
func (b *Browser) AddCommand(c command.Command) error {
	b.Commands().Add(c)
	b.UpdateMenuItems()
	return b.saveCommands()
}

// DeleteCommand removes the rule name and stores the table.
func (b *Browser) DeleteCommand(name string) error {
	if !b.Commands().Delete(name) {
		return fmt.Errorf("%q: %w", name, command.ErrUnknownCommand)
	}
	b.UpdateMenuItems()
	return b.saveCommands()
}

func (b *Browser) saveCommands() error {
	if b.cmds == nil {
		return nil
	}
	if err := b.cmds.Save(b.Commands().Configs()); err != nil {
		slog.Warn("saving command rules failed", "err", err)
		return fmt.Errorf("save commands: %w", err)
	}
	return nil
}

// SetMenu registers fn to receive the context menu whenever it is rebuilt.
func (b *Browser) SetMenu(fn func([]MenuEntry)) {
	b.mu.Lock()
	b.menuFn = fn
	b.mu.Unlock()
	b.UpdateMenuItems()
}

// Menu returns the context menu of the current row.
func (b *Browser) Menu() []MenuEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]MenuEntry(nil), b.menu...)
}

// MenuFor returns the built-in actions followed by the command rules
// matching row.
func (b *Browser) MenuFor(row int) []MenuEntry {
	if _, err := b.model.At(row); err != nil {
		return nil
	}
	menu := append([]MenuEntry(nil), builtinMenu...)
	for _, c := range b.Commands().Match(b.model.Text(row)) {
		menu = append(menu, MenuEntry{Name: c.Name, Icon: c.Icon, Shortcut: c.Shortcut})
	}
	return menu
}

// UpdateMenuItems rebuilds the context menu for the current row.
func (b *Browser) UpdateMenuItems() {
	menu := b.MenuFor(b.Current())

	b.mu.Lock()
	b.menu = menu
	fn := b.menuFn
	b.mu.Unlock()

	if fn != nil {
		fn(menu)
	}
}

// ContextMenuAction triggers the menu entry name on the selected items.
func (b *Browser) ContextMenuAction(ctx context.Context, name string) error {
	row := b.Current()
	if row < 0 {
		return ErrNoCurrent
	}
	switch name {
	case ActionCopy:
		return b.MoveToClipboard(row)
	case ActionRemove:
		return b.Remove()
	case ActionEdit:
		e, err := b.OpenEditorAt(row)
		if err != nil {
			return err
		}
		return e.Run(ctx)
	case ActionRun:
		b.RequestActionDialog(row, nil)
		return nil
	}
	_, err := b.RunCommand(ctx, name, -1)
	return err
}

// RunCommand runs the rule name on row, or on the selected text when row is
// -1. Waiting rules return their result; the others report through
// KindCommandFinished.
func (b *Browser) RunCommand(ctx context.Context, name string, row int) (*command.Result, error) {
	c, err := b.Commands().Get(name)
	if err != nil {
		return nil, err
	}
	row, text := b.target(row)
	return b.dispatch(ctx, c, text, row)
}

// RunAction runs an ad-hoc command line, as entered in the action dialog,
// on row.
func (b *Browser) RunAction(ctx context.Context, row int, a hub.Action) (*command.Result, error) {
	c := command.Command{
		Name:   "action",
		Cmd:    a.Cmd,
		Sep:    a.Sep,
		Input:  a.Input,
		Output: a.Output,
		Wait:   a.Wait,
		Enable: true,
	}
	row, text := b.target(row)
	return b.dispatch(ctx, c, text, row)
}

// RequestActionDialog asks views to prompt for a command on row, prefilled
// from the rule named by a when given.
func (b *Browser) RequestActionDialog(row int, a *hub.Action) {
	if a == nil {
		a = &hub.Action{Sep: `\n`}
	}
	b.hub.Publish(hub.Event{Kind: hub.KindActionDialog, Row: row, Text: b.ItemText(row), Action: a})
}

// RequestSearch asks views to open the search field with text.
func (b *Browser) RequestSearch(text string) {
	b.hub.Publish(hub.Event{Kind: hub.KindSearch, Text: text})
}

func (b *Browser) commandFinished(c command.Command, res *command.Result, err error) {
	ev := hub.Event{Kind: hub.KindCommandFinished, Text: c.Name, Row: -1}
	if err != nil {
		ev.Err = err.Error()
		timeout := b.current().NotifyTimeout
		if timeout <= 0 {
			timeout = DefaultNotifyTimeout
		}
		b.notes.Create("command-"+c.Name, fmt.Sprintf("Command %q failed", c.Name), err.Error(), c.Icon, timeout)
	} else if res != nil {
		ev.Length = len(res.Items)
		slog.Debug("command done", "command", c.Name, "exit", res.ExitCode, "items", len(res.Items))
	}
	b.hub.Publish(ev)
}

// ShortcutCommand returns the rule bound to key for the current row.
func (b *Browser) ShortcutCommand(key string) (command.Command, bool) {
	row := b.Current()
	if row < 0 {
		return command.Command{}, false
	}
	return b.Commands().ByShortcut(key, b.model.Text(row))
}

// target resolves row -1 to the current row and the selected text.
func (b *Browser) target(row int) (int, string) {
	if row == -1 {
		return b.Current(), b.SelectedText()
	}
	return row, b.model.Text(row)
}
