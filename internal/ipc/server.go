package ipc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"go.klb.dev/clipshelf/internal/browser"
	"go.klb.dev/clipshelf/internal/clip"
	"go.klb.dev/clipshelf/internal/crypto"
	"go.klb.dev/clipshelf/internal/history"
	"go.klb.dev/clipshelf/internal/hub"
	"go.klb.dev/clipshelf/internal/message"
	"go.klb.dev/clipshelf/internal/monitor"
	"go.klb.dev/clipshelf/internal/wire"
)

const readTimeout = 10 * time.Second

// Info is the daemon description reported in STATUS responses.
type Info struct {
	Version   string
	DataFile  string
	HTTP      string
	HTTPToken string
}

// Server answers IPC requests from the browser.
type Server struct {
	b       *browser.Browser
	key     *crypto.Key
	info    Info
	started time.Time
}

// NewServer returns a server for b. A non-nil key seals every message.
func NewServer(b *browser.Browser, key *crypto.Key, info Info) *Server {
	return &Server{b: b, key: key, info: info, started: time.Now()}
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Error("ipc accept failed", "err", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	wc := wire.New(conn, s.key)
	defer wc.Close()

	wc.SetReadDeadline(readTimeout)
	req, err := wc.ReadMsg()
	if err != nil {
		slog.Debug("ipc read failed", "err", err)
		return
	}
	wc.SetReadDeadline(0)

	resp := s.Handle(ctx, req)
	if err := wc.WriteMsg(resp); err != nil {
		slog.Debug("ipc write failed", "type", req.Type, "err", err)
	}
}

// Handle executes one request against the browser.
func (s *Server) Handle(ctx context.Context, req *message.Message) *message.Message {
	log := slog.With("type", req.Type)
	log.Debug("ipc request", "row", req.Row)

	switch req.Type {
	case message.TypeAdd:
		formats, err := message.Formats(req.Items)
		if err != nil {
			return message.Errorf("add: %v", err)
		}
		monitor.LogItems("ipc: add", clip.ModeClipboard, formats)
		item := history.NewItem(formats...)
		if item.IsEmpty() {
			return message.Errorf("add: empty item")
		}
		// An equal entry is moved to the top instead.
		s.b.AddItem(item, true)
		if req.Select {
			if err := s.b.MoveToClipboard(0); err != nil {
				return message.Errorf("%v", err)
			}
		}
		return ok()

	case message.TypeList:
		return s.list(req.Filter, req.Limit)

	case message.TypeGet:
		row := req.Row
		if row == -1 {
			row = s.b.Current()
		}
		it, err := s.b.Item(row)
		if err != nil {
			return message.Errorf("get row %d: %v", req.Row, err)
		}
		return &message.Message{Type: message.TypeItems, Entries: []message.Entry{message.NewEntry(row, it)}}

	case message.TypeSelect:
		if err := s.b.MoveToClipboard(req.Row); err != nil {
			return message.Errorf("%v", err)
		}
		return ok()

	case message.TypeRemove:
		var err error
		if len(req.Rows) == 0 {
			err = s.b.Remove()
		} else {
			err = s.removeRows(req.Rows)
		}
		if err != nil {
			return message.Errorf("%v", err)
		}
		return ok()

	case message.TypeAction:
		return s.action(ctx, req)

	case message.TypeStatus:
		return &message.Message{Type: message.TypeStatusResponse, Status: s.status()}
	}

	log.Warn("ipc: unknown request")
	return message.Errorf("unknown request type %q", req.Type)
}

// removeRows deletes rows, where -1 names the current row.
func (s *Server) removeRows(rows []int) error {
	resolved := make([]int, 0, len(rows))
	for _, r := range rows {
		if r == -1 {
			if r = s.b.Current(); r < 0 {
				return browser.ErrNoCurrent
			}
		}
		resolved = append(resolved, r)
	}
	return s.b.RemoveRows(resolved...)
}

func (s *Server) list(filter string, limit int) *message.Message {
	match := browser.Matcher(filter)
	resp := &message.Message{Type: message.TypeItems}
	for row, it := range s.b.Items() {
		if match != nil && !match(it) {
			continue
		}
		resp.Entries = append(resp.Entries, message.NewEntry(row, it))
		if limit > 0 && len(resp.Entries) == limit {
			break
		}
	}
	return resp
}

func (s *Server) action(ctx context.Context, req *message.Message) *message.Message {
	var err error
	resp := ok()
	switch {
	case req.Command != "":
		res, rerr := s.b.RunCommand(ctx, req.Command, req.Row)
		err = rerr
		if res != nil {
			resp.Items = []message.Item{message.NewTextItem(string(res.Stdout))}
		}
	case req.Action != nil:
		a := hub.Action{
			Cmd:    req.Action.Cmd,
			Sep:    req.Action.Sep,
			Input:  req.Action.Input,
			Output: req.Action.Output,
			Wait:   req.Action.Wait,
		}
		res, rerr := s.b.RunAction(ctx, req.Row, a)
		err = rerr
		if res != nil {
			resp.Items = []message.Item{message.NewTextItem(string(res.Stdout))}
		}
	default:
		return message.Errorf("action: no command given")
	}
	if err != nil {
		return message.Errorf("%v", err)
	}
	return resp
}

func (s *Server) status() *message.Status {
	return &message.Status{
		Version:    s.info.Version,
		Backend:    s.b.Backend().Name(),
		DataFile:   s.info.DataFile,
		Items:      s.b.Length(),
		MaxItems:   s.b.WriteSettings().MaxItems,
		Current:    s.b.Current(),
		Commands:   s.b.Commands().Len(),
		Pending:    s.b.Pending(),
		HTTP:       s.info.HTTP,
		HTTPToken:  s.info.HTTPToken,
		StartedAt:  s.started,
		Monitoring: s.b.Monitoring(),
	}
}

func ok() *message.Message { return &message.Message{Type: message.TypeOK} }
