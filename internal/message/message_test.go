package message

import (
	"testing"

	"go.klb.dev/clipshelf/internal/history"
)

func TestFormatsRoundTrip(t *testing.T) {
	in := []history.Format{
		{MIME: history.MIMEText, Data: []byte("hello")},
		{MIME: "image/png", Data: []byte{0x89, 'P', 'N', 'G', 0, 1}},
	}
	out, err := Formats(FromFormats(in))
	if err != nil {
		t.Fatal(err)
	}
	if !(history.Item{Formats: in}).Equal(history.Item{Formats: out}) {
		t.Fatalf("formats changed: %v", out)
	}
}

func TestFormatsRejectsBadBase64(t *testing.T) {
	if _, err := Formats([]Item{{MIME: "text/plain", Data: "%%%"}}); err == nil {
		t.Fatal("invalid payload decoded")
	}
}

func TestEntryText(t *testing.T) {
	it := history.NewItem(
		history.Format{MIME: "text/html", Data: []byte("<b>x</b>")},
		history.Format{MIME: history.MIMEText, Data: []byte("x")},
	)
	e := NewEntry(4, it)
	if e.Row != 4 || e.ID != it.ID || e.Text() != "x" {
		t.Fatalf("entry = %+v", e)
	}
}

func TestErr(t *testing.T) {
	if (&Message{Type: TypeOK}).Err() != nil {
		t.Fatal("OK carries an error")
	}
	if err := Errorf("boom %d", 1).Err(); err == nil || err.Error() != "daemon: boom 1" {
		t.Fatalf("Err() = %v", err)
	}
}
