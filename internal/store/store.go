// Package store persists clipboard history to a single data file, optionally
// sealed with a passphrase.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"go.klb.dev/clipshelf/internal/crypto"
	"go.klb.dev/clipshelf/internal/history"
)

const fileVersion = 1

// document is the on-disk layout. Binary format data is base64 via
// encoding/json's []byte handling.
type document struct {
	Version int            `json:"version"`
	Items   []history.Item `json:"items"`
}

// File reads and writes the history data file.
type File struct {
	path string
	key  *crypto.Key // nil = plain JSON
}

// Open returns a File store in dir. A non-empty passphrase seals the file.
func Open(dir, passphrase string) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	f := &File{path: filepath.Join(dir, "items.json")}
	if passphrase != "" {
		key, err := crypto.DeriveKey(passphrase)
		if err != nil {
			return nil, err
		}
		f.key = key
		f.path = filepath.Join(dir, "items.sealed")
	}
	return f, nil
}

// Path returns the data file path.
func (f *File) Path() string { return f.path }

// Load reads the stored history. A missing file yields an empty history.
func (f *File) Load() ([]history.Item, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if f.key != nil {
		raw, err = crypto.Open(raw, f.key)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.path, err)
		}
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	if doc.Version > fileVersion {
		return nil, fmt.Errorf("%s: unsupported version %d", f.path, doc.Version)
	}
	slog.Debug("history loaded", "path", f.path, "items", len(doc.Items))
	return doc.Items, nil
}

// Save writes items atomically: a temp file in the same directory is
// renamed over the data file.
func (f *File) Save(items []history.Item) error {
	raw, err := json.Marshal(document{Version: fileVersion, Items: items})
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if f.key != nil {
		raw, err = crypto.Seal(raw, f.key)
		if err != nil {
			return fmt.Errorf("seal: %w", err)
		}
	}

	if err := writeAtomic(f.path, raw); err != nil {
		return err
	}
	slog.Debug("history saved", "path", f.path, "items", len(items))
	return nil
}

// writeAtomic writes raw to a temp file in the same directory and renames it
// over path.
func writeAtomic(path string, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
