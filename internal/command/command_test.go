package command

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

func mustNew(t *testing.T, cfg Config) Command {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New(%+v): %v", cfg, err)
	}
	return c
}

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"ok", Config{Name: "x", Cmd: "echo"}, true},
		{"no name", Config{Cmd: "echo"}, false},
		{"bad regex", Config{Name: "x", Cmd: "echo", Match: "("}, false},
		{"empty cmd", Config{Name: "x"}, false},
		{"remove needs no cmd", Config{Name: "x", Remove: true, Match: "secret"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err == nil) != tt.ok {
				t.Fatalf("err = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestSeparatorEscapes(t *testing.T) {
	tests := map[string]string{
		`\n`:    "\n",
		`\t|\t`: "\t|\t",
		`,`:     ",",
		`\\n`:   `\n`,
		`\x`:    `\x`,
		``:      "",
	}
	for in, want := range tests {
		c := Command{Sep: in}
		if got := c.Separator(); got != want {
			t.Errorf("Separator(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTableOrderAndMatch(t *testing.T) {
	tbl := NewTable()
	tbl.Add(mustNew(t, Config{Name: "url", Match: `^https?://`, Cmd: "open %1", Shortcut: "Ctrl+O"}))
	tbl.Add(mustNew(t, Config{Name: "all", Cmd: "wc -c", Input: true}))
	tbl.Add(mustNew(t, Config{Name: "off", Cmd: "true", Disabled: true}))
	tbl.Add(mustNew(t, Config{Name: "url", Match: `^https://`, Cmd: "open %1", Shortcut: "ctrl+o"}))

	names := func(cs []Command) string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Name)
		}
		return strings.Join(out, ",")
	}
	if got := names(tbl.All()); got != "url,all,off" {
		t.Fatalf("All = %s, replacing must keep position", got)
	}
	if got := names(tbl.Match("https://example.com")); got != "url,all" {
		t.Fatalf("Match = %s", got)
	}
	if got := names(tbl.Match("http://example.com")); got != "all" {
		t.Fatalf("Match after replace = %s", got)
	}
	if c, ok := tbl.ByShortcut("CTRL+O", "https://x"); !ok || c.Name != "url" {
		t.Fatalf("ByShortcut = %v %v", c.Name, ok)
	}
	if _, err := tbl.Get("nope"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("err = %v", err)
	}
	if !tbl.Delete("all") || tbl.Len() != 2 {
		t.Fatal("Delete failed")
	}
}

func TestLoadReportsInvalid(t *testing.T) {
	tbl, err := Load([]Config{
		{Name: "good", Cmd: "true"},
		{Name: "bad", Cmd: "true", Match: "["},
	})
	if err == nil {
		t.Fatal("expected error for invalid entry")
	}
	if tbl.Len() != 1 {
		t.Fatalf("len = %d, valid entries must still load", tbl.Len())
	}
}

func TestConfigRoundTrip(t *testing.T) {
	off := false
	in := Config{Name: "n", Match: "a+", Cmd: "echo %1", Sep: `\n`, Output: true, InMenu: &off, Automatic: true}
	c := mustNew(t, in)
	out := c.Config()
	if out.Match != "a+" || *out.InMenu || !out.Automatic || out.Sep != `\n` {
		t.Fatalf("config round trip: %+v", out)
	}
}

func TestArgsSubstitution(t *testing.T) {
	c := mustNew(t, Config{Name: "x", Cmd: `printf '%s|%s' "prefix %1" %1`})
	args, err := Args(c, "hello world")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"printf", "%s|%s", "prefix hello world", "hello world"}
	if strings.Join(args, "\x00") != strings.Join(want, "\x00") {
		t.Fatalf("args = %q, want %q", args, want)
	}
}

func TestRunOutputSplit(t *testing.T) {
	requireUnix(t)
	c := mustNew(t, Config{Name: "split", Cmd: "tr , '\n'", Input: true, Output: true, Sep: `\n`, Wait: true})
	r := &Runner{}
	res, err := r.Run(context.Background(), c, "a,b,,c")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, it := range res.Items {
		got = append(got, it.Text())
	}
	if strings.Join(got, "|") != "a|b|c" {
		t.Fatalf("items = %q", got)
	}
}

func TestRunFailureCarriesStderr(t *testing.T) {
	requireUnix(t)
	c := mustNew(t, Config{Name: "fail", Cmd: "sh -c 'echo boom >&2; exit 3'"})
	res, err := (&Runner{}).Run(context.Background(), c, "")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit = %d, want 3", res.ExitCode)
	}
}

func TestDispatchAsync(t *testing.T) {
	requireUnix(t)
	c := mustNew(t, Config{Name: "async", Cmd: "echo %1", Output: true})
	var (
		wg  sync.WaitGroup
		got *Result
	)
	wg.Add(1)
	res, err := (&Runner{}).Dispatch(context.Background(), c, "hi", func(r *Result, err error) {
		defer wg.Done()
		if err != nil {
			t.Errorf("async run: %v", err)
		}
		got = r
	})
	if res != nil || err != nil {
		t.Fatalf("async dispatch returned %v %v", res, err)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("async command never finished")
	}
	if got == nil || len(got.Items) != 1 || got.Items[0].Text() != "hi" {
		t.Fatalf("result = %+v", got)
	}
}

func TestOutputItemsBinary(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	items := OutputItems(png, "\n")
	if len(items) != 1 || !items[0].Has("image/png") {
		t.Fatalf("binary output: %+v", items)
	}
	if OutputItems(nil, "\n") != nil {
		t.Fatal("empty output should produce no items")
	}
	if n := len(OutputItems([]byte("one line\n"), "")); n != 1 {
		t.Fatalf("no separator: %d items", n)
	}
}

func TestMatchCommand(t *testing.T) {
	requireUnix(t)
	table := NewTable()
	table.UseRunner(&Runner{})
	table.Add(mustNew(t, Config{Name: "keep", MatchCmd: "grep -q keep", Cmd: "cat"}))
	table.Add(mustNew(t, Config{Name: "never", MatchCmd: "false", Cmd: "cat", Automatic: true}))
	table.Add(mustNew(t, Config{Name: "auto", MatchCmd: "grep -q keep", Cmd: "cat", Automatic: true, InMenu: new(bool)}))

	names := func(cs []Command) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Name)
		}
		return out
	}
	if got := names(table.Match("please keep this")); len(got) != 1 || got[0] != "keep" {
		t.Fatalf("Match(keep) = %v", got)
	}
	if got := table.Match("drop this"); len(got) != 0 {
		t.Fatalf("Match(drop) = %v, want none", names(got))
	}
	if got := names(table.Automatic("keep")); len(got) != 1 || got[0] != "auto" {
		t.Fatalf("Automatic(keep) = %v", got)
	}

	c, err := table.Get("keep")
	if err != nil {
		t.Fatal(err)
	}
	if cfg := c.Config(); cfg.MatchCmd != "grep -q keep" {
		t.Fatalf("Config().MatchCmd = %q", cfg.MatchCmd)
	}
}
