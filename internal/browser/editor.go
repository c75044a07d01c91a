package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"go.klb.dev/clipshelf/internal/command"
	"go.klb.dev/clipshelf/internal/hub"
)

// Editor is an external editor session on one item. The item text is
// written to a temporary file; closing the session reads it back.
type Editor struct {
	b    *Browser
	id   string
	path string
	orig string
	args []string
}

// EditorCommand returns the configured editor, falling back to $VISUAL,
// $EDITOR and vi.
func EditorCommand(configured string) string {
	for _, e := range []string{configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if strings.TrimSpace(e) != "" {
			return e
		}
	}
	return "vi"
}

// OpenEditor starts an editor session on the current item.
func (b *Browser) OpenEditor() (*Editor, error) {
	row := b.Current()
	if row < 0 {
		return nil, ErrNoCurrent
	}
	return b.OpenEditorAt(row)
}

// OpenEditorAt starts an editor session on row.
func (b *Browser) OpenEditorAt(row int) (*Editor, error) {
	it, err := b.model.At(row)
	if err != nil {
		return nil, fmt.Errorf("open editor: %w", err)
	}

	f, err := os.CreateTemp("", "clipshelf-*.txt")
	if err != nil {
		return nil, fmt.Errorf("open editor: %w", err)
	}
	text := it.Text()
	_, werr := f.WriteString(text)
	if err := errors.Join(werr, f.Close()); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("open editor: %w", err)
	}

	cmdline := EditorCommand(b.current().Editor)
	if !strings.Contains(cmdline, "%1") {
		cmdline += " %1"
	}
	args, err := command.Args(command.Command{Name: "editor", Cmd: cmdline}, f.Name())
	if err != nil {
		os.Remove(f.Name())
		return nil, err
	}

	e := &Editor{b: b, id: it.ID, path: f.Name(), orig: text, args: args}
	b.mu.Lock()
	b.editors[e] = struct{}{}
	b.mu.Unlock()
	slog.Debug("editor opened", "item", it.ID, "file", e.path, "args", args)
	return e, nil
}

// Path returns the temporary file being edited.
func (e *Editor) Path() string { return e.path }

// Args returns the editor command line.
func (e *Editor) Args() []string { return e.args }

// Cmd returns the editor process, unstarted and without stdio attached.
func (e *Editor) Cmd(ctx context.Context) *exec.Cmd {
	return exec.CommandContext(ctx, e.args[0], e.args[1:]...)
}

// Run runs the editor attached to the terminal and closes the session.
func (e *Editor) Run(ctx context.Context) error {
	cmd := e.Cmd(ctx)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	return e.Finish(cmd.Run())
}

// Finish closes the session once the editor process exited with runErr.
// A failed editor leaves the item untouched.
func (e *Editor) Finish(runErr error) error {
	if runErr != nil {
		if e.b.discard(e) {
			os.Remove(e.path)
		}
		return fmt.Errorf("editor: %w", runErr)
	}
	return e.b.CloseEditor(e)
}

// CloseEditor ends the session, storing the edited text in the item if it
// changed and the item still exists.
func (b *Browser) CloseEditor(e *Editor) error {
	if !b.discard(e) {
		return nil
	}
	data, err := os.ReadFile(e.path)
	os.Remove(e.path)
	if err != nil {
		return fmt.Errorf("close editor: %w", err)
	}
	text := string(data)
	if text == e.orig {
		return nil
	}
	row := b.model.IndexOf(e.id)
	if row < 0 {
		slog.Warn("edited item no longer exists", "item", e.id)
		return nil
	}
	return b.SetItemText(row, text)
}

// CloseAllEditors abandons every open session without storing changes.
func (b *Browser) CloseAllEditors() {
	b.mu.Lock()
	open := make([]*Editor, 0, len(b.editors))
	for e := range b.editors {
		open = append(open, e)
	}
	b.mu.Unlock()

	for _, e := range open {
		if b.discard(e) {
			os.Remove(e.path)
		}
	}
	b.hub.Publish(hub.Event{Kind: hub.KindCloseEditors, Length: len(open)})
}

// Editing returns the number of open editor sessions.
func (b *Browser) Editing() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.editors)
}

// discard forgets e and reports whether it was still open.
func (b *Browser) discard(e *Editor) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.editors[e]; !ok {
		return false
	}
	delete(b.editors, e)
	return true
}
