// Package command implements user-configured command rules: a regular
// expression selecting clipboard items and an external program run on them.
//
// A rule's command line is split with shell-word rules; the token %1 is
// replaced by the item text. With Input the text is also written to the
// program's stdin; with Output its stdout becomes new history items, split
// by Sep.
package command

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnknownCommand is returned when no rule has the requested name.
var ErrUnknownCommand = errors.New("unknown command")

// Config is the persisted form of a command rule, one [[command]] table in
// the config file.
type Config struct {
	Name      string `mapstructure:"name" json:"name"`
	Match     string `mapstructure:"match" json:"match,omitempty"`
	MatchCmd  string `mapstructure:"match_cmd" json:"match_cmd,omitempty"`
	Cmd       string `mapstructure:"cmd" json:"cmd"`
	Sep       string `mapstructure:"sep" json:"sep,omitempty"`
	Input     bool   `mapstructure:"input" json:"input,omitempty"`
	Output    bool   `mapstructure:"output" json:"output,omitempty"`
	Wait      bool   `mapstructure:"wait" json:"wait,omitempty"`
	Icon      string `mapstructure:"icon" json:"icon,omitempty"`
	Shortcut  string `mapstructure:"shortcut" json:"shortcut,omitempty"`
	Automatic bool   `mapstructure:"automatic" json:"automatic,omitempty"`
	InMenu    *bool  `mapstructure:"in_menu" json:"in_menu,omitempty"`
	Transform bool   `mapstructure:"transform" json:"transform,omitempty"`
	Remove    bool   `mapstructure:"remove" json:"remove,omitempty"`
	Disabled  bool   `mapstructure:"disabled" json:"disabled,omitempty"`
}

// Command is a compiled rule.
type Command struct {
	Name    string
	Pattern *regexp.Regexp // nil matches every item
	Cmd     string
	Sep     string
	Input   bool
	Output  bool
	Wait    bool

	// MatchCmd, when set, gets the item text on stdin; the rule matches
	// only if it exits with status 0.
	MatchCmd string

	Icon     string
	Shortcut string

	// Automatic rules run on every new matching clipboard item.
	Automatic bool

	// InMenu rules are offered in the item's context menu.
	InMenu bool

	// Transform replaces the item with the command output instead of adding
	// new items.
	Transform bool

	// Remove drops matching clipboard content before it enters the history.
	Remove bool

	Enable bool
}

// New compiles cfg.
func New(cfg Config) (Command, error) {
	if cfg.Name == "" {
		return Command{}, errors.New("command has no name")
	}
	c := Command{
		Name:      cfg.Name,
		MatchCmd:  cfg.MatchCmd,
		Cmd:       cfg.Cmd,
		Sep:       cfg.Sep,
		Input:     cfg.Input,
		Output:    cfg.Output,
		Wait:      cfg.Wait,
		Icon:      cfg.Icon,
		Shortcut:  strings.ToLower(cfg.Shortcut),
		Automatic: cfg.Automatic,
		InMenu:    cfg.InMenu == nil || *cfg.InMenu,
		Transform: cfg.Transform,
		Remove:    cfg.Remove,
		Enable:    !cfg.Disabled,
	}
	if cfg.Match != "" {
		re, err := regexp.Compile(cfg.Match)
		if err != nil {
			return Command{}, fmt.Errorf("command %q: match: %w", cfg.Name, err)
		}
		c.Pattern = re
	}
	if c.Cmd == "" && !c.Remove {
		return Command{}, fmt.Errorf("command %q: empty cmd", cfg.Name)
	}
	return c, nil
}

// Config returns the persisted form of c.
func (c Command) Config() Config {
	inMenu := c.InMenu
	cfg := Config{
		Name:      c.Name,
		MatchCmd:  c.MatchCmd,
		Cmd:       c.Cmd,
		Sep:       c.Sep,
		Input:     c.Input,
		Output:    c.Output,
		Wait:      c.Wait,
		Icon:      c.Icon,
		Shortcut:  c.Shortcut,
		Automatic: c.Automatic,
		InMenu:    &inMenu,
		Transform: c.Transform,
		Remove:    c.Remove,
		Disabled:  !c.Enable,
	}
	if c.Pattern != nil {
		cfg.Match = c.Pattern.String()
	}
	return cfg
}

// Matches reports whether text selects this rule by its pattern. MatchCmd
// is checked separately by Runner.Accepts.
func (c Command) Matches(text string) bool {
	return c.Pattern == nil || c.Pattern.MatchString(text)
}

// Separator returns Sep with \n, \t and \\ escapes interpreted.
func (c Command) Separator() string {
	return unescape(c.Sep)
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
