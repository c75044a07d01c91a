package store

import (
	"testing"

	"go.klb.dev/clipshelf/internal/command"
)

func TestCommandFileRoundTrip(t *testing.T) {
	f, err := OpenCommands(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfgs, ok, err := f.Load(); err != nil || ok || cfgs != nil {
		t.Fatalf("missing file: cfgs=%v ok=%v err=%v", cfgs, ok, err)
	}

	want := []command.Config{
		{Name: "upper", Match: "^[a-z]", Cmd: "tr a-z A-Z", Input: true, Output: true},
		{Name: "scrub", MatchCmd: "grep -q secret", Remove: true},
	}
	if err := f.Save(want); err != nil {
		t.Fatal(err)
	}
	got, ok, err := f.Load()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0].Cmd != "tr a-z A-Z" || got[1].MatchCmd != "grep -q secret" || !got[1].Remove {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	// An emptied table is stored as such, not as "nothing stored".
	if err := f.Save(nil); err != nil {
		t.Fatal(err)
	}
	got, ok, err = f.Load()
	if err != nil || !ok || len(got) != 0 {
		t.Fatalf("empty table: cfgs=%v ok=%v err=%v", got, ok, err)
	}
}
