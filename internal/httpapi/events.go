package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"go.klb.dev/clipshelf/internal/hub"
)

const (
	eventBuffer = 256
	pingPeriod  = 30 * time.Second
	writeWait   = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// sameOrigin accepts requests without an Origin header (non-browser
// clients) and those from pages served by the API host itself.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
}

// handleEvents streams browser events as JSON text frames. Client frames are
// read only to notice the connection closing.
func (h *handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sub := hub.NewChan("ws:"+uuid.NewString(), eventBuffer)
	h.b.Hub().Register(sub)
	defer h.b.Hub().Unregister(sub)
	slog.Debug("event stream opened", "subscriber", sub.ID(), "remote", r.RemoteAddr)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			slog.Debug("event stream closed", "subscriber", sub.ID())
			return
		case ev := <-sub.C():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
