package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/mattn/go-shellwords"

	"go.klb.dev/clipshelf/internal/history"
)

// ErrEmptyCommand is returned when a rule's command line has no program.
var ErrEmptyCommand = errors.New("empty command line")

// Result describes a finished command run.
type Result struct {
	Command  string
	Args     []string
	ExitCode int
	Stdout   []byte
	Stderr   string
	Duration time.Duration

	// Items holds the output items when the rule has Output set.
	Items []history.Item
}

// Runner executes command rules.
type Runner struct {
	// Dir is the working directory for commands; empty means the current one.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// matchTimeout bounds a rule's match program.
const matchTimeout = 5 * time.Second

// Args expands the rule's command line for text.
func Args(c Command, text string) ([]string, error) {
	return parseArgs(c.Name, c.Cmd, text)
}

func parseArgs(name, line, text string) ([]string, error) {
	p := shellwords.NewParser()
	p.ParseEnv = true
	args, err := p.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("command %q: parse: %w", name, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("command %q: %w", name, ErrEmptyCommand)
	}
	for i, a := range args {
		args[i] = strings.ReplaceAll(a, "%1", text)
	}
	return args, nil
}

func (r *Runner) command(ctx context.Context, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}
	return cmd
}

// Accepts runs c's match program with text on stdin and reports whether it
// exited with status 0. Rules without a match program accept everything.
func (r *Runner) Accepts(ctx context.Context, c Command, text string) bool {
	if c.MatchCmd == "" {
		return true
	}
	args, err := parseArgs(c.Name, c.MatchCmd, text)
	if err != nil {
		slog.Warn("match command invalid", "command", c.Name, "err", err)
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, matchTimeout)
	defer cancel()

	cmd := r.command(ctx, args)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		slog.Debug("match command rejected item", "command", c.Name, "err", err)
		return false
	}
	return true
}

// Run executes c for text and waits for it to finish.
func (r *Runner) Run(ctx context.Context, c Command, text string) (*Result, error) {
	args, err := Args(c, text)
	if err != nil {
		return nil, err
	}

	cmd := r.command(ctx, args)
	if c.Input {
		cmd.Stdin = strings.NewReader(text)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log := slog.With("command", c.Name)
	log.Debug("running command", "args", args, "input", c.Input, "output", c.Output)

	start := time.Now()
	err = cmd.Run()
	res := &Result{
		Command:  c.Name,
		Args:     args,
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.Bytes(),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	if err != nil {
		log.Warn("command failed", "err", err, "exit", res.ExitCode, "stderr", res.Stderr)
		if res.Stderr != "" {
			return res, fmt.Errorf("command %q: %w: %s", c.Name, err, res.Stderr)
		}
		return res, fmt.Errorf("command %q: %w", c.Name, err)
	}
	if c.Output {
		res.Items = OutputItems(res.Stdout, c.Separator())
	}
	log.Debug("command finished", "duration", res.Duration, "items", len(res.Items))
	return res, nil
}

// Dispatch runs c honouring its Wait flag. Waiting rules run synchronously
// and their result is returned; the others run in the background, Dispatch
// returns (nil, nil) immediately and done receives the outcome.
func (r *Runner) Dispatch(ctx context.Context, c Command, text string, done func(*Result, error)) (*Result, error) {
	if c.Wait {
		return r.Run(ctx, c, text)
	}
	go func() {
		res, err := r.Run(context.WithoutCancel(ctx), c, text)
		if done != nil {
			done(res, err)
		}
	}()
	return nil, nil
}

// OutputItems turns command output into history items. Recognised binary
// output (images, archives, ...) becomes a single item of the detected MIME
// type; text is split by sep, skipping blank parts.
func OutputItems(out []byte, sep string) []history.Item {
	if len(out) == 0 {
		return nil
	}
	if kind, err := filetype.Match(out); err == nil && kind != filetype.Unknown {
		return []history.Item{history.NewItem(history.Format{MIME: kind.MIME.Value, Data: out})}
	}

	text := strings.TrimRight(string(out), "\n")
	parts := []string{text}
	if sep != "" {
		parts = strings.Split(text, sep)
	}
	var items []history.Item
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		items = append(items, history.NewTextItem(p))
	}
	return items
}

// Spawn starts args in the background without capturing output. Failures
// are logged. It is used for the clipboard-change callback.
func (r *Runner) Spawn(ctx context.Context, name string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s: %w", name, ErrEmptyCommand)
	}
	cmd := r.command(ctx, args)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			slog.Warn("process failed", "name", name, "err", err)
		}
	}()
	return nil
}
