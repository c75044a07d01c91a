package browser

import (
	"fmt"
	"time"

	"go.klb.dev/clipshelf/internal/command"
	"go.klb.dev/clipshelf/internal/history"
)

// Settings are the user-configurable parts of the browser.
type Settings struct {
	MaxItems int `mapstructure:"max-items" json:"max_items"`

	// Editor is the external editor command line; %1 is replaced by the
	// file to edit and appended when absent.
	Editor string `mapstructure:"editor" json:"editor"`

	// Callback runs after every clipboard change with CallbackArgs, where %1
	// is replaced by the new clipboard text.
	Callback     string   `mapstructure:"callback" json:"callback,omitempty"`
	CallbackArgs []string `mapstructure:"callback-args" json:"callback_args,omitempty"`

	SaveDelay     time.Duration `mapstructure:"save-delay" json:"save_delay"`
	NotifyTimeout time.Duration `mapstructure:"notify-timeout" json:"notify_timeout"`
	NotifyLines   int           `mapstructure:"notify-lines" json:"notify_lines"`
	PageSize      int           `mapstructure:"page-size" json:"page_size"`

	Commands []command.Config `mapstructure:"command" json:"commands,omitempty"`
}

// DefaultSettings returns the settings of a fresh installation.
func DefaultSettings() Settings {
	return Settings{
		MaxItems:      history.DefaultMaxItems,
		SaveDelay:     DefaultSaveDelay,
		NotifyTimeout: DefaultNotifyTimeout,
		NotifyLines:   DefaultNotifyLines,
		PageSize:      DefaultPageSize,
	}
}

// ReadSettings applies s. Invalid command rules are reported in the returned
// error; the valid ones are still installed.
func (b *Browser) ReadSettings(s Settings) error {
	if s.MaxItems <= 0 {
		s.MaxItems = history.DefaultMaxItems
	}
	if s.SaveDelay < 0 {
		s.SaveDelay = 0
	}
	if s.NotifyLines <= 0 {
		s.NotifyLines = DefaultNotifyLines
	}
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}

	table, err := command.Load(s.Commands)
	table.UseRunner(b.runner)
	s.Commands = nil

	b.mu.Lock()
	b.settings = s
	b.commands = table
	b.mu.Unlock()

	b.model.SetMaxItems(s.MaxItems)
	b.UpdateMenuItems()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	return nil
}

// WriteSettings returns the current settings including the command table, in
// the form ReadSettings accepts.
func (b *Browser) WriteSettings() Settings {
	b.mu.Lock()
	s := b.settings
	table := b.commands
	b.mu.Unlock()

	s.MaxItems = b.model.MaxItems()
	s.Commands = table.Configs()
	if len(s.CallbackArgs) > 0 {
		s.CallbackArgs = append([]string(nil), s.CallbackArgs...)
	}
	return s
}

// Commands returns the command table.
func (b *Browser) Commands() *command.Table {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.commands
}

func (b *Browser) current() Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings
}
