package browser

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"go.klb.dev/clipshelf/internal/hub"
)

var builtinKeys = map[string]bool{
	"up": true, "down": true, "shift+up": true, "shift+down": true,
	"pgup": true, "pgdown": true, "home": true, "end": true,
	"ctrl+a": true, "enter": true, "delete": true, "f5": true,
	"esc": true, "/": true,
}

// BuiltinKey reports whether KeyEvent handles key itself instead of looking
// for a rule bound to it.
func BuiltinKey(key string) bool { return builtinKeys[key] }

// KeyEvent handles a key pressed in a list view. Keys are named the way
// terminal libraries print them ("up", "shift+down", "ctrl+a", "x"). It
// reports whether the key was consumed; views handle the rest, such as
// opening an editor.
func (b *Browser) KeyEvent(ctx context.Context, key string) bool {
	page := b.current().PageSize

	switch key {
	case "up":
		b.Step(-1, true, false)
	case "down":
		b.Step(1, true, false)
	case "shift+up":
		b.Step(-1, false, true)
	case "shift+down":
		b.Step(1, false, true)
	case "pgup":
		b.Step(-page, false, false)
	case "pgdown":
		b.Step(page, false, false)
	case "home":
		b.SetCurrent(0, false, false)
	case "end":
		b.SetCurrent(b.Length()-1, false, false)
	case "ctrl+a":
		b.SelectAll()
	case "enter":
		if err := b.MoveToClipboard(-1); err != nil {
			slog.Debug("move to clipboard", "err", err)
		}
	case "delete":
		if err := b.Remove(); err != nil {
			slog.Debug("remove", "err", err)
		}
	case "f5":
		b.RequestActionDialog(b.Current(), nil)
	case "esc":
		if b.Filter() != "" {
			b.ClearFilter()
			b.hub.Publish(hub.Event{Kind: hub.KindHideSearch})
		} else {
			b.hub.Publish(hub.Event{Kind: hub.KindEscape})
		}
	case "/":
		b.RequestSearch("")
	default:
		if c, ok := b.ShortcutCommand(key); ok {
			if _, err := b.RunCommand(ctx, c.Name, -1); err != nil {
				slog.Warn("command failed", "command", c.Name, "err", err)
			}
			return true
		}
		if utf8.RuneCountInString(key) == 1 && key != " " {
			b.RequestSearch(key)
			return true
		}
		return false
	}
	return true
}
