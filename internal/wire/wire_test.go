package wire

import (
	"net"
	"testing"

	"go.klb.dev/clipshelf/internal/crypto"
	"go.klb.dev/clipshelf/internal/message"
)

func pipe(t *testing.T, keyA, keyB *crypto.Key) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return New(a, keyA), New(b, keyB)
}

func TestRoundTrip(t *testing.T) {
	key, err := crypto.DeriveKey("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	for name, k := range map[string]*crypto.Key{"plain": nil, "sealed": key} {
		t.Run(name, func(t *testing.T) {
			client, server := pipe(t, k, k)
			go func() {
				req, err := server.ReadMsg()
				if err != nil {
					return
				}
				_ = server.WriteMsg(&message.Message{
					Type:    message.TypeItems,
					Entries: []message.Entry{{Row: req.Row, Items: req.Items}},
				})
			}()

			resp, err := client.Request(&message.Message{
				Type:  message.TypeGet,
				Row:   3,
				Items: []message.Item{message.NewTextItem("line one\nline two")},
			})
			if err != nil {
				t.Fatal(err)
			}
			if len(resp.Entries) != 1 || resp.Entries[0].Row != 3 {
				t.Fatalf("entries = %+v", resp.Entries)
			}
			if got := resp.Entries[0].Text(); got != "line one\nline two" {
				t.Fatalf("text = %q", got)
			}
		})
	}
}

func TestRequestReturnsDaemonError(t *testing.T) {
	client, server := pipe(t, nil, nil)
	go func() {
		if _, err := server.ReadMsg(); err == nil {
			_ = server.WriteMsg(message.Errorf("no such row %d", 9))
		}
	}()
	resp, err := client.Request(&message.Message{Type: message.TypeSelect, Row: 9})
	if err == nil || resp == nil || resp.Error != "no such row 9" {
		t.Fatalf("Request() = %+v, %v", resp, err)
	}
}

func TestWrongKeyFails(t *testing.T) {
	k1, _ := crypto.DeriveKey("one")
	k2, _ := crypto.DeriveKey("two")
	client, server := pipe(t, k1, k2)
	go func() { _ = client.WriteMsg(&message.Message{Type: message.TypeStatus}) }()
	if _, err := server.ReadMsg(); err == nil {
		t.Fatal("message sealed with another key was accepted")
	}
}
