package command

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Table is the name-keyed set of command rules. Insertion order is kept so
// menus list rules the way they were configured. It is safe for concurrent
// use.
type Table struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]Command
	runner *Runner
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byName: make(map[string]Command)}
}

// Load builds a table from persisted configs. Invalid entries are reported
// together; valid ones are still added.
func Load(cfgs []Config) (*Table, error) {
	t := NewTable()
	var errs []string
	for _, cfg := range cfgs {
		c, err := New(cfg)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		t.Add(c)
	}
	if len(errs) > 0 {
		return t, fmt.Errorf("invalid commands: %s", strings.Join(errs, "; "))
	}
	return t, nil
}

// UseRunner sets the runner executing match programs. Without one a zero
// Runner is used.
func (t *Table) UseRunner(r *Runner) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runner = r
}

// Add inserts c, replacing any rule with the same name in place.
func (t *Table) Add(c Command) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byName[c.Name]; !ok {
		t.order = append(t.order, c.Name)
	}
	t.byName[c.Name] = c
}

// Delete removes the named rule.
func (t *Table) Delete(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byName[name]; !ok {
		return false
	}
	delete(t.byName, name)
	t.order = slices.DeleteFunc(t.order, func(n string) bool { return n == name })
	return true
}

// Get returns the named rule.
func (t *Table) Get(name string) (Command, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byName[name]
	if !ok {
		return Command{}, fmt.Errorf("%q: %w", name, ErrUnknownCommand)
	}
	return c, nil
}

// Len returns the number of rules.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// All returns every rule in insertion order.
func (t *Table) All() []Command {
	return t.filter(func(Command) bool { return true })
}

// Configs returns the persisted form of every rule.
func (t *Table) Configs() []Config {
	all := t.All()
	out := make([]Config, len(all))
	for i, c := range all {
		out[i] = c.Config()
	}
	return out
}

// Match returns the enabled menu rules matching text.
func (t *Table) Match(text string) []Command {
	return t.accepted(text, t.filter(func(c Command) bool {
		return c.Enable && c.InMenu && c.Matches(text)
	}))
}

// Automatic returns the enabled automatic or filtering rules matching text,
// i.e. those applied to new clipboard content.
func (t *Table) Automatic(text string) []Command {
	return t.accepted(text, t.filter(func(c Command) bool {
		return c.Enable && (c.Automatic || c.Remove) && c.Matches(text)
	}))
}

// accepted drops the rules whose match program rejects text. It runs
// without the table lock held.
func (t *Table) accepted(text string, rules []Command) []Command {
	t.mu.RLock()
	r := t.runner
	t.mu.RUnlock()
	if r == nil {
		r = &Runner{}
	}
	return slices.DeleteFunc(rules, func(c Command) bool {
		return !r.Accepts(context.Background(), c, text)
	})
}

// ByShortcut returns the enabled rule bound to key that matches text.
func (t *Table) ByShortcut(key, text string) (Command, bool) {
	key = strings.ToLower(key)
	for _, c := range t.Match(text) {
		if c.Shortcut != "" && c.Shortcut == key {
			return c, true
		}
	}
	return Command{}, false
}

func (t *Table) filter(keep func(Command) bool) []Command {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Command
	for _, name := range t.order {
		if c := t.byName[name]; keep(c) {
			out = append(out, c)
		}
	}
	return out
}
