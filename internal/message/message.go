// Package message defines the clipshelf daemon protocol.
//
// All messages are newline-delimited JSON. Payloads are always base64-encoded
// so that binary content (images, etc.) is safe to embed in JSON strings.
// Each message is exactly one line: <json>\n
//
// Every request gets exactly one response: ITEMS, STATUS_RESPONSE, OK or
// ERROR.
package message

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.klb.dev/clipshelf/internal/history"
)

// Type identifies the kind of message.
type Type string

const (
	// TypeAdd puts Items on top of the history as one entry.
	TypeAdd Type = "ADD"
	// TypeList asks for the history, optionally filtered and limited.
	TypeList Type = "LIST"
	// TypeItems answers LIST and GET.
	TypeItems Type = "ITEMS"
	// TypeGet asks for the entry at Row; -1 is the current row.
	TypeGet Type = "GET"
	// TypeSelect moves Row to the top and onto the clipboard.
	TypeSelect Type = "SELECT"
	// TypeRemove deletes Rows.
	TypeRemove Type = "REMOVE"
	// TypeAction runs the rule Command, or the ad-hoc Action, on Row.
	TypeAction         Type = "ACTION"
	TypeStatus         Type = "STATUS"
	TypeStatusResponse Type = "STATUS_RESPONSE"
	TypeOK             Type = "OK"
	TypeError          Type = "ERROR"
)

// Item is a single clipboard representation with a MIME type.
// Data is always base64-encoded.
type Item struct {
	MIME string `json:"mime"`
	Data string `json:"data"` // base64-encoded
}

// NewTextItem creates a text/plain Item from a plain string.
func NewTextItem(text string) Item {
	return NewBinaryItem(history.MIMEText, []byte(text))
}

// NewBinaryItem creates an Item from raw bytes with the given MIME type.
func NewBinaryItem(mime string, data []byte) Item {
	return Item{
		MIME: mime,
		Data: base64.StdEncoding.EncodeToString(data),
	}
}

// Decode returns the raw bytes of the item payload.
func (it Item) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(it.Data)
}

// FromFormats encodes history formats for the wire.
func FromFormats(formats []history.Format) []Item {
	out := make([]Item, 0, len(formats))
	for _, f := range formats {
		out = append(out, NewBinaryItem(f.MIME, f.Data))
	}
	return out
}

// Formats decodes items back into history formats.
func Formats(items []Item) ([]history.Format, error) {
	out := make([]history.Format, 0, len(items))
	for _, it := range items {
		data, err := it.Decode()
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", it.MIME, err)
		}
		out = append(out, history.Format{MIME: it.MIME, Data: data})
	}
	return out, nil
}

// Entry is one history row.
type Entry struct {
	Row     int       `json:"row"`
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Items   []Item    `json:"items"`
}

// NewEntry encodes the history item at row.
func NewEntry(row int, it history.Item) Entry {
	return Entry{Row: row, ID: it.ID, Created: it.Created, Items: FromFormats(it.Formats)}
}

// Text returns the decoded text/plain payload of the entry, or "".
func (e Entry) Text() string {
	return textOf(e.Items)
}

// Action is an ad-hoc command line with its flags.
type Action struct {
	Cmd    string `json:"cmd"`
	Sep    string `json:"sep,omitempty"`
	Input  bool   `json:"input,omitempty"`
	Output bool   `json:"output,omitempty"`
	Wait   bool   `json:"wait,omitempty"`
}

// Status describes a running daemon.
type Status struct {
	Version    string    `json:"version"`
	Backend    string    `json:"backend"`
	DataFile   string    `json:"data_file,omitempty"`
	Items      int       `json:"items"`
	MaxItems   int       `json:"max_items"`
	Current    int       `json:"current"`
	Commands   int       `json:"commands"`
	Pending    bool      `json:"pending_save"`
	HTTP       string    `json:"http,omitempty"`
	HTTPToken  string    `json:"http_token,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	Monitoring bool      `json:"monitoring"`
}

// Message is the top-level wire envelope.
type Message struct {
	// Always present
	Type Type `json:"type"`

	// ADD, and the output of waiting ACTIONs. Select also puts the added
	// entry on the clipboard.
	Items  []Item `json:"items,omitempty"`
	Select bool   `json:"select,omitempty"`

	// GET, SELECT, ACTION; -1 means the current row
	Row int `json:"row,omitempty"`

	// REMOVE
	Rows []int `json:"rows,omitempty"`

	// LIST
	Filter string `json:"filter,omitempty"`
	Limit  int    `json:"limit,omitempty"`

	// ITEMS
	Entries []Entry `json:"entries,omitempty"`

	// ACTION: either a rule name or an ad-hoc command line
	Command string  `json:"command,omitempty"`
	Action  *Action `json:"action,omitempty"`

	// STATUS_RESPONSE
	Status *Status `json:"status,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}

// TextPayload returns the decoded content of the first text/plain item, or "".
func (m *Message) TextPayload() string {
	return textOf(m.Items)
}

// Errorf builds an ERROR response.
func Errorf(format string, args ...any) *Message {
	return &Message{Type: TypeError, Error: fmt.Sprintf(format, args...)}
}

// Err returns the error carried by an ERROR message, or nil.
func (m *Message) Err() error {
	if m.Type != TypeError {
		return nil
	}
	return fmt.Errorf("daemon: %s", m.Error)
}

func textOf(items []Item) string {
	for _, it := range items {
		if it.MIME == history.MIMEText {
			b, err := it.Decode()
			if err != nil {
				return ""
			}
			return string(b)
		}
	}
	return ""
}
