package tlsconf

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	a, err := deriveKey("secret")
	if err != nil {
		t.Fatal(err)
	}
	b, err := deriveKey("secret")
	if err != nil {
		t.Fatal(err)
	}
	c, err := deriveKey("other")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Fatal("same passphrase produced different keys")
	}
	if a.Equal(c) {
		t.Fatal("different passphrases produced the same key")
	}
}

func newTLSServer(t *testing.T, passphrase string) *httptest.Server {
	t.Helper()
	cfg, err := ServerConfig(passphrase)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	srv.TLS = cfg
	srv.StartTLS()
	t.Cleanup(srv.Close)
	return srv
}

func client(t *testing.T, passphrase string) *http.Client {
	t.Helper()
	cfg, err := ClientConfig(passphrase)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Transport: &http.Transport{TLSClientConfig: cfg}}
}

func TestHandshakeWithMatchingPassphrase(t *testing.T) {
	srv := newTLSServer(t, "secret")

	resp, err := client(t, "secret").Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Fatalf("body = %q", body)
	}
}

func TestHandshakeRejectsOtherPassphrase(t *testing.T) {
	srv := newTLSServer(t, "secret")

	_, err := client(t, "wrong").Get(srv.URL)
	if !errors.Is(err, ErrKeyMismatch) {
		t.Fatalf("GET with the wrong passphrase: %v, want ErrKeyMismatch", err)
	}
}
