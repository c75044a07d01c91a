// Package history holds the ordered clipboard history: newest item first,
// bounded by a configurable maximum, with duplicates collapsed by moving the
// existing entry back to the top.
package history

import (
	"bytes"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MIMEText is the MIME type of plain-text clipboard data.
const MIMEText = "text/plain"

// Format is one representation of a clipboard item.
type Format struct {
	MIME string `json:"mime"`
	Data []byte `json:"data"`
}

// Item is a single history entry. An item carries one or more formats of
// the same clipboard content (e.g. text/plain and text/html).
type Item struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Formats []Format  `json:"formats"`
}

// NewItem returns an item with a fresh ID holding formats.
func NewItem(formats ...Format) Item {
	return Item{
		ID:      uuid.NewString(),
		Created: time.Now(),
		Formats: formats,
	}
}

// NewTextItem returns a text/plain item.
func NewTextItem(text string) Item {
	return NewItem(Format{MIME: MIMEText, Data: []byte(text)})
}

// Data returns the payload for mime, or nil.
func (it Item) Data(mime string) []byte {
	for _, f := range it.Formats {
		if f.MIME == mime {
			return f.Data
		}
	}
	return nil
}

// Has reports whether the item carries mime.
func (it Item) Has(mime string) bool {
	for _, f := range it.Formats {
		if f.MIME == mime {
			return true
		}
	}
	return false
}

// Text returns the text/plain representation, or "".
func (it Item) Text() string {
	return string(it.Data(MIMEText))
}

// MIMEs lists the item's formats in order.
func (it Item) MIMEs() []string {
	out := make([]string, len(it.Formats))
	for i, f := range it.Formats {
		out[i] = f.MIME
	}
	return out
}

// IsEmpty reports whether the item has nothing worth keeping: no formats,
// or only whitespace text.
func (it Item) IsEmpty() bool {
	if len(it.Formats) == 0 {
		return true
	}
	for _, f := range it.Formats {
		if f.MIME != MIMEText {
			if len(f.Data) > 0 {
				return false
			}
			continue
		}
		if strings.TrimSpace(string(f.Data)) != "" {
			return false
		}
	}
	return true
}

// Equal compares content only; ID and creation time are ignored.
func (it Item) Equal(other Item) bool {
	if len(it.Formats) != len(other.Formats) {
		return false
	}
	for _, f := range it.Formats {
		if !bytes.Equal(f.Data, other.Data(f.MIME)) || !other.Has(f.MIME) {
			return false
		}
	}
	return true
}

// WithText returns a copy of the item whose content is replaced by text.
func (it Item) WithText(text string) Item {
	it.Formats = []Format{{MIME: MIMEText, Data: []byte(text)}}
	return it
}

// Clone returns a deep copy.
func (it Item) Clone() Item {
	out := it
	out.Formats = make([]Format, len(it.Formats))
	for i, f := range it.Formats {
		out.Formats[i] = Format{MIME: f.MIME, Data: bytes.Clone(f.Data)}
	}
	return out
}
