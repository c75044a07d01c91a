package store

import (
	"log/slog"
	"sync"
	"time"

	"go.klb.dev/clipshelf/internal/history"
)

// Backend is where a Saver writes snapshots.
type Backend interface {
	Save(items []history.Item) error
}

// Saver debounces history persistence. Each Schedule restarts the timer, so
// a burst of changes produces a single write.
type Saver struct {
	backend  Backend
	snapshot func() []history.Item

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	closed  bool
	saves   int
}

// NewSaver returns a Saver that persists snapshot() to backend.
func NewSaver(backend Backend, snapshot func() []history.Item) *Saver {
	return &Saver{backend: backend, snapshot: snapshot}
}

// Schedule arranges a save after d. d <= 0 saves synchronously.
func (s *Saver) Schedule(d time.Duration) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if d <= 0 {
		s.stopLocked()
		s.mu.Unlock()
		s.save()
		return
	}
	s.pending = true
	if s.timer == nil {
		s.timer = time.AfterFunc(d, s.fire)
	} else {
		s.timer.Reset(d)
	}
	s.mu.Unlock()
}

// Pending reports whether a save is scheduled.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Saves returns how many writes were attempted.
func (s *Saver) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Flush writes immediately if a save is pending.
func (s *Saver) Flush() {
	s.mu.Lock()
	pending := s.pending
	s.stopLocked()
	s.mu.Unlock()
	if pending {
		s.save()
	}
}

// Close flushes pending changes; later Schedule calls are ignored.
func (s *Saver) Close() {
	s.Flush()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Saver) fire() {
	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.mu.Unlock()
	s.save()
}

func (s *Saver) save() {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	if err := s.backend.Save(s.snapshot()); err != nil {
		slog.Error("saving history failed", "err", err)
	}
}

// stopLocked cancels the timer. Must be called with s.mu held.
func (s *Saver) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending = false
}
