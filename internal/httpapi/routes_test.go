package httpapi_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"go.klb.dev/clipshelf/internal/browser"
	"go.klb.dev/clipshelf/internal/clip"
	"go.klb.dev/clipshelf/internal/hub"
	"go.klb.dev/clipshelf/internal/httpapi"
)

const testToken = "s3cr3t-token"

type item struct {
	Row     int      `json:"row"`
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	MIMEs   []string `json:"mimes"`
	Current bool     `json:"current"`
}

func setupServer(t *testing.T, texts ...string) (*httptest.Server, *browser.Browser, *clip.Memory) {
	t.Helper()
	mem := clip.NewMemory()
	b := browser.New(browser.Options{Backend: mem})
	t.Cleanup(b.Close)
	for i := len(texts) - 1; i >= 0; i-- {
		b.Add(texts[i], true)
	}
	srv := httptest.NewServer(httpapi.RegisterRoutes(b, testToken))
	t.Cleanup(srv.Close)
	return srv, b, mem
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)
	return send(t, req)
}

func send(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestListItems(t *testing.T) {
	srv, _, _ := setupServer(t, "alpha", "beta", "gamma")

	resp := do(t, http.MethodGet, srv.URL+"/api/items", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var items []item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 || items[0].Text != "alpha" || !items[0].Current {
		t.Fatalf("unexpected items: %+v", items)
	}
	if len(items[2].MIMEs) != 1 || items[2].MIMEs[0] != "text/plain" {
		t.Fatalf("unexpected mimes: %v", items[2].MIMEs)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/items?filter=^g&limit=5", nil)
	items = nil
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Row != 2 {
		t.Fatalf("filtered items: %+v", items)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/items?limit=1", nil)
	items = nil
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("limited items: %+v", items)
	}
}

func TestAddAndSelectItem(t *testing.T) {
	srv, b, mem := setupServer(t, "old")

	resp := do(t, http.MethodPost, srv.URL+"/api/items", map[string]any{"text": "fresh", "select": true})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var got item
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Row != 0 || got.Text != "fresh" || got.ID == "" {
		t.Fatalf("unexpected item: %+v", got)
	}
	if items, _ := mem.Read(); len(items) != 1 || string(items[0].Data) != "fresh" {
		t.Fatalf("clipboard = %v", items)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/items", map[string]any{"text": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank item: expected 400, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/items/1/select", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("select: expected 204, got %d", resp.StatusCode)
	}
	if b.ItemText(0) != "old" {
		t.Fatalf("top item = %q after select", b.ItemText(0))
	}
}

func TestGetItem(t *testing.T) {
	srv, _, _ := setupServer(t, "one", "two")

	resp := do(t, http.MethodGet, srv.URL+"/api/items/1", nil)
	var got item
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Text != "two" {
		t.Fatalf("unexpected item: %+v", got)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/items/current?mime=text/plain", nil)
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if resp.Header.Get("Content-Type") != "text/plain" || buf.String() != "one" {
		t.Fatalf("raw item: %q (%s)", buf.String(), resp.Header.Get("Content-Type"))
	}

	tests := []struct {
		path string
		want int
	}{
		{"/api/items/9", http.StatusNotFound},
		{"/api/items/x", http.StatusBadRequest},
		{"/api/items/0?mime=image/png", http.StatusNotFound},
	}
	for _, tt := range tests {
		if resp := do(t, http.MethodGet, srv.URL+tt.path, nil); resp.StatusCode != tt.want {
			t.Errorf("GET %s: expected %d, got %d", tt.path, tt.want, resp.StatusCode)
		}
	}
}

func TestSetAndRemoveItem(t *testing.T) {
	srv, b, _ := setupServer(t, "a", "b")

	resp := do(t, http.MethodPut, srv.URL+"/api/items/1", map[string]string{"text": "B"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if b.ItemText(1) != "B" {
		t.Fatalf("item 1 = %q", b.ItemText(1))
	}

	resp = do(t, http.MethodDelete, srv.URL+"/api/items/0", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if b.Length() != 1 || b.ItemText(0) != "B" {
		t.Fatalf("history after delete: %d items", b.Length())
	}

	resp = do(t, http.MethodDelete, srv.URL+"/api/items/4", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCommands(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX tools")
	}
	srv, b, _ := setupServer(t, "hello")

	resp := do(t, http.MethodPost, srv.URL+"/api/commands", map[string]any{
		"name": "upper", "cmd": "tr a-z A-Z", "input": true, "output": true, "wait": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, srv.URL+"/api/commands", map[string]any{"name": "bad", "cmd": "x", "match": "("}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid rule: expected 400, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/items/0/commands", nil)
	var menu []browser.MenuEntry
	if err := json.NewDecoder(resp.Body).Decode(&menu); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range menu {
		found = found || e.Name == "upper"
	}
	if !found {
		t.Fatalf("rule missing from menu: %+v", menu)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/items/0/commands/upper", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var res struct {
		Stdout string `json:"stdout"`
		Items  int    `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Stdout != "HELLO" || res.Items != 1 || b.ItemText(0) != "HELLO" {
		t.Fatalf("unexpected result %+v, top %q", res, b.ItemText(0))
	}

	if resp := do(t, http.MethodPost, srv.URL+"/api/items/0/commands/missing", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown rule: expected 404, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodDelete, srv.URL+"/api/commands/upper", nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	if b.Commands().Len() != 0 {
		t.Fatalf("rules left: %d", b.Commands().Len())
	}
}

func TestEventStream(t *testing.T) {
	srv, b, _ := setupServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events?token=" + testToken
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The subscription is registered after the upgrade completes.
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	go func() {
		for time.Now().Before(deadline) && b.Hub().Len() == 0 {
			time.Sleep(10 * time.Millisecond)
		}
		b.Add("streamed", true)
	}()

	for {
		var ev hub.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read: %v", err)
		}
		if ev.Kind == hub.KindChanged && ev.Length == 1 {
			return
		}
	}
}

func TestEventStreamRejectsForeignOrigin(t *testing.T) {
	srv, _, _ := setupServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events?token=" + testToken
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"http://evil.example"}})
	if err == nil {
		t.Fatal("upgrade from a foreign origin succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", resp)
	}
}

func TestRequestGuards(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX tools")
	}
	srv, b, _ := setupServer(t, "hello")
	marker := filepath.Join(t.TempDir(), "ran")
	rule := `{"name":"x","cmd":"touch ` + marker + `","wait":true}`

	jsonType := http.Header{"Content-Type": {"application/json"}}
	with := func(h http.Header, kv ...string) http.Header {
		out := h.Clone()
		for i := 0; i+1 < len(kv); i += 2 {
			out.Set(kv[i], kv[i+1])
		}
		return out
	}
	bearer := "Bearer " + testToken

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		header http.Header
		want   int
	}{
		{"foreign origin", http.MethodPost, "/api/commands", rule,
			with(jsonType, "Authorization", bearer, "Origin", "http://evil.example"), http.StatusForbidden},
		{"missing token", http.MethodPost, "/api/commands", rule,
			jsonType, http.StatusUnauthorized},
		{"wrong token", http.MethodGet, "/api/items", "",
			http.Header{"Authorization": {"Bearer nope"}}, http.StatusUnauthorized},
		{"text body", http.MethodPost, "/api/commands", rule,
			http.Header{"Content-Type": {"text/plain"}, "Authorization": {bearer}}, http.StatusUnsupportedMediaType},
		{"same origin with header token", http.MethodGet, "/api/items", "",
			http.Header{"X-Auth-Token": {testToken}, "Origin": {srv.URL}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			req.Header = tt.header
			if resp := send(t, req); resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}

	if b.Commands().Len() != 0 {
		t.Fatalf("a refused request installed %d rules", b.Commands().Len())
	}
	if _, err := os.Stat(marker); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("rule program ran: %v", err)
	}
}

func TestAddExistingTopItem(t *testing.T) {
	srv, b, mem := setupServer(t, "same", "older")

	resp := do(t, http.MethodPost, srv.URL+"/api/items", map[string]any{"text": "same", "select": true})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if b.Length() != 2 || b.ItemText(0) != "same" {
		t.Fatalf("history: %d items, top %q", b.Length(), b.ItemText(0))
	}
	if items, _ := mem.Read(); len(items) != 1 || string(items[0].Data) != "same" {
		t.Fatalf("clipboard = %v", items)
	}
}
