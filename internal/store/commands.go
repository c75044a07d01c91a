package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"go.klb.dev/clipshelf/internal/command"
)

// commandsDoc is the layout of commands.json.
type commandsDoc struct {
	Version  int              `json:"version"`
	Commands []command.Config `json:"commands"`
}

// CommandFile stores the command table once it has been changed at
// runtime. From then on it takes the place of the [[command]] tables of
// the config file.
type CommandFile struct {
	path string
}

// OpenCommands returns the command store in dir.
func OpenCommands(dir string) (*CommandFile, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	return &CommandFile{path: filepath.Join(dir, "commands.json")}, nil
}

// Path returns the file path.
func (f *CommandFile) Path() string { return f.path }

// Load returns the stored rules. ok is false when nothing was stored yet.
func (f *CommandFile) Load() (cfgs []command.Config, ok bool, err error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", f.path, err)
	}
	var doc commandsDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", f.path, err)
	}
	if doc.Version > fileVersion {
		return nil, false, fmt.Errorf("%s: unsupported version %d", f.path, doc.Version)
	}
	slog.Debug("command rules loaded", "path", f.path, "commands", len(doc.Commands))
	return doc.Commands, true, nil
}

// Save replaces the stored rules.
func (f *CommandFile) Save(cfgs []command.Config) error {
	if cfgs == nil {
		cfgs = []command.Config{}
	}
	raw, err := json.MarshalIndent(commandsDoc{Version: fileVersion, Commands: cfgs}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := writeAtomic(f.path, raw); err != nil {
		return err
	}
	slog.Debug("command rules saved", "path", f.path, "commands", len(cfgs))
	return nil
}
