package clip

import (
	"errors"
	"testing"
	"time"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"", ModeClipboard, true},
		{"Clipboard", ModeClipboard, true},
		{"primary", ModeSelection, true},
		{"selection", ModeSelection, true},
		{"bogus", ModeClipboard, false},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestMemoryWatch(t *testing.T) {
	m := NewMemory()
	m.SetText("hello")
	select {
	case <-m.Watch():
	case <-time.After(time.Second):
		t.Fatal("no watch signal after write")
	}
	items, _ := m.Read()
	if len(items) != 1 || string(items[0].Data) != "hello" {
		t.Fatalf("items = %+v", items)
	}
	items[0].Data[0] = 'X'
	again, _ := m.Read()
	if string(again[0].Data) != "hello" {
		t.Fatal("Read must return a copy")
	}
}

func TestModeDispatch(t *testing.T) {
	m := NewMemory()
	sel := []Item{{MIME: "text/plain", Data: []byte("sel")}}
	if err := WriteMode(m, ModeSelection, sel); err != nil {
		t.Fatal(err)
	}
	got, err := ReadMode(m, ModeSelection)
	if err != nil || string(got[0].Data) != "sel" {
		t.Fatalf("selection = %+v, %v", got, err)
	}
	if cb, _ := m.Read(); len(cb) != 0 {
		t.Fatal("selection write leaked into clipboard")
	}

	h := &headlessBackend{watchCh: make(chan struct{})}
	if _, err := ReadMode(h, ModeSelection); !errors.Is(err, ErrSelectionUnsupported) {
		t.Fatalf("err = %v, want ErrSelectionUnsupported", err)
	}
	if err := WriteMode(h, ModeSelection, sel); !errors.Is(err, ErrSelectionUnsupported) {
		t.Fatalf("err = %v, want ErrSelectionUnsupported", err)
	}
}
