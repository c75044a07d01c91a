package browser

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.klb.dev/clipshelf/internal/clip"
	"go.klb.dev/clipshelf/internal/command"
	"go.klb.dev/clipshelf/internal/history"
)

// Add puts text on top of the history. It reports whether the history
// changed.
func (b *Browser) Add(text string, ignoreEmpty bool) bool {
	return b.AddItem(history.NewTextItem(text), ignoreEmpty)
}

// AddItem puts item on top of the history. An equal item already in the
// history is moved to the top instead; with ignoreEmpty blank items are
// rejected.
func (b *Browser) AddItem(item history.Item, ignoreEmpty bool) bool {
	return b.model.Add(item, ignoreEmpty)
}

// Item returns the item at row; -1 means the current row.
func (b *Browser) Item(row int) (history.Item, error) {
	if row == -1 {
		row = b.Current()
	}
	return b.model.At(row)
}

// ItemText returns the text of row, or "" for a missing row. Row -1 means
// the current row.
func (b *Browser) ItemText(row int) string {
	if row == -1 {
		row = b.Current()
	}
	return b.model.Text(row)
}

// SelectedText returns the text of the selected items joined by newlines,
// or the text of the first item when nothing is selected.
func (b *Browser) SelectedText() string {
	rows := b.Selected()
	if len(rows) == 0 {
		return b.model.Text(0)
	}
	texts := make([]string, 0, len(rows))
	for _, r := range rows {
		texts = append(texts, b.model.Text(r))
	}
	return strings.Join(texts, "\n")
}

// Remove deletes the selected items, or the current one.
func (b *Browser) Remove() error {
	rows := b.Selected()
	if len(rows) == 0 {
		return ErrNoCurrent
	}
	return b.RemoveRows(rows...)
}

// RemoveRows deletes the given rows.
func (b *Browser) RemoveRows(rows ...int) error {
	if err := b.model.Remove(rows...); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	b.mu.Lock()
	clear(b.view.selected)
	b.view.anchorID = b.view.currentID
	b.mu.Unlock()
	return nil
}

// SetItemText replaces the content of row with text.
func (b *Browser) SetItemText(row int, text string) error {
	return b.model.SetText(row, text)
}

// ItemModified replaces the text of the current item, the one an editor was
// opened on.
func (b *Browser) ItemModified(text string) error {
	row := b.Current()
	if row < 0 {
		return ErrNoCurrent
	}
	return b.SetItemText(row, text)
}

// Sync copies between the history and the clipboard of mode. With
// listToClipboard the top item is written to the clipboard; otherwise the
// clipboard content is added to the history.
func (b *Browser) Sync(listToClipboard bool, mode clip.Mode) error {
	if !listToClipboard {
		items, err := clip.ReadMode(b.backend, mode)
		if err != nil {
			return fmt.Errorf("sync from %s: %w", mode, err)
		}
		if len(items) > 0 {
			b.AddItem(history.NewItem(items...), true)
		}
		return nil
	}

	top, err := b.model.At(0)
	if err != nil {
		return fmt.Errorf("sync to %s: %w", mode, err)
	}
	if err := clip.WriteMode(b.backend, mode, top.Formats); err != nil {
		return fmt.Errorf("sync to %s: %w", mode, err)
	}
	if mode == clip.ModeClipboard {
		b.remember(top.Formats)
	}
	slog.Debug("clipboard updated", "mode", mode, "mimes", top.MIMEs())
	return nil
}

// MoveToClipboard moves row to the top of the history and puts it on the
// clipboard.
func (b *Browser) MoveToClipboard(row int) error {
	if row == -1 {
		row = b.Current()
	}
	if err := b.model.Move(row, 0); err != nil {
		return fmt.Errorf("move to clipboard: %w", err)
	}
	b.SetCurrent(0, false, false)
	if err := b.Sync(true, clip.ModeClipboard); err != nil {
		return err
	}
	b.RunCallback()
	return nil
}

// NewItem puts text on top of the history without deduplication and makes
// it current. Views open the editor on it.
func (b *Browser) NewItem(text string) error {
	if err := b.model.Insert(0, history.NewTextItem(text)); err != nil {
		return err
	}
	b.SetCurrent(0, false, false)
	return nil
}

// CheckClipboard handles new clipboard content. A matching removing rule
// drops it after the programs of the matching rules ran on it; otherwise
// transforming rules replace it with their output, the result is added to
// the history and the remaining automatic rules run on it.
func (b *Browser) CheckClipboard(mode clip.Mode, data []clip.Item) {
	if len(data) == 0 {
		return
	}
	item := history.NewItem(data...)
	if item.IsEmpty() {
		return
	}
	log := slog.With("mode", mode)

	text := item.Text()
	rules := b.Commands().Automatic(text)
	if i := slices.IndexFunc(rules, func(c command.Command) bool { return c.Remove }); i >= 0 {
		// Dropped content still reaches the programs of the matching rules.
		for _, c := range rules {
			if c.Cmd != "" && !c.Transform {
				b.dispatch(context.Background(), c, text, -1)
			}
		}
		log.Info("clipboard content dropped", "command", rules[i].Name)
		return
	}
	for _, c := range rules {
		if !c.Transform {
			continue
		}
		res, err := b.runner.Run(context.Background(), c, text)
		if err != nil {
			b.commandFinished(c, nil, err)
			continue
		}
		if out := res.Items; len(out) > 0 {
			item = history.NewItem(out[0].Formats...)
			text = item.Text()
			log.Debug("clipboard content transformed", "command", c.Name)
		}
	}

	if !b.AddItem(item, true) {
		return
	}
	log.Debug("clipboard content added", "mimes", item.MIMEs())

	for _, c := range b.Commands().Automatic(text) {
		if c.Remove || c.Transform {
			continue
		}
		b.dispatch(context.Background(), c, text, -1)
	}

	s := b.current()
	if s.NotifyTimeout > 0 {
		b.notes.CreateForItem("clipboard", item, s.NotifyLines, "", s.NotifyTimeout)
	}
	b.RunCallback()
}

// RunCallback starts the configured callback program with the clipboard
// text substituted for %1 in its arguments.
func (b *Browser) RunCallback() {
	s := b.current()
	if s.Callback == "" {
		return
	}
	text := b.model.Text(0)
	args := []string{s.Callback}
	for _, a := range s.CallbackArgs {
		args = append(args, strings.ReplaceAll(a, "%1", text))
	}
	if err := b.runner.Spawn(context.Background(), "callback", args); err != nil {
		slog.Warn("callback failed", "err", err)
	}
}

// dispatch runs c on text; output items are added to the history, or
// replace row for transforming rules.
func (b *Browser) dispatch(ctx context.Context, c command.Command, text string, row int) (*command.Result, error) {
	var id string
	if row >= 0 {
		if it, err := b.model.At(row); err == nil {
			id = it.ID
		}
	}
	done := func(res *command.Result, err error) {
		b.commandFinished(c, res, err)
		if err == nil && res != nil {
			b.applyOutput(c, res, id)
		}
	}
	res, err := b.runner.Dispatch(ctx, c, text, done)
	if c.Wait {
		done(res, err)
	}
	return res, err
}

func (b *Browser) applyOutput(c command.Command, res *command.Result, id string) {
	if !c.Output || len(res.Items) == 0 {
		return
	}
	if c.Transform && id != "" {
		if row := b.model.IndexOf(id); row >= 0 {
			out := res.Items[0]
			if err := b.model.Replace(row, out); err != nil {
				slog.Warn("transform failed", "command", c.Name, "err", err)
			}
			return
		}
	}
	for i := len(res.Items) - 1; i >= 0; i-- {
		b.AddItem(res.Items[i], true)
	}
}
