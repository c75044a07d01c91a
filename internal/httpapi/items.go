package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.klb.dev/clipshelf/internal/browser"
	"go.klb.dev/clipshelf/internal/history"
)

// itemView is the JSON form of a history row.
type itemView struct {
	Row      int       `json:"row"`
	ID       string    `json:"id"`
	Created  time.Time `json:"created"`
	Text     string    `json:"text"`
	MIMEs    []string  `json:"mimes"`
	Size     int       `json:"size"`
	Current  bool      `json:"current,omitempty"`
	Selected bool      `json:"selected,omitempty"`
}

func (h *handler) view(row int, it history.Item) itemView {
	size := 0
	for _, f := range it.Formats {
		size += len(f.Data)
	}
	return itemView{
		Row:      row,
		ID:       it.ID,
		Created:  it.Created,
		Text:     it.Text(),
		MIMEs:    it.MIMEs(),
		Size:     size,
		Current:  row == h.b.Current(),
		Selected: h.b.IsSelected(row),
	}
}

func (h *handler) listItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	match := browser.Matcher(q.Get("filter"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	out := []itemView{}
	for row, it := range h.b.Items() {
		if match != nil && !match(it) {
			continue
		}
		out = append(out, h.view(row, it))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type addRequest struct {
	Text   string `json:"text"`
	Select bool   `json:"select"`
}

func (h *handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	item := history.NewTextItem(req.Text)
	if item.IsEmpty() {
		http.Error(w, "empty item", http.StatusBadRequest)
		return
	}
	h.b.AddItem(item, true)
	if req.Select {
		if err := h.b.MoveToClipboard(0); err != nil {
			writeError(w, err)
			return
		}
	}
	it, err := h.b.Item(0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.view(0, it))
}

// getItem returns the row as JSON, or the raw data of one format with
// ?mime=type.
func (h *handler) getItem(w http.ResponseWriter, r *http.Request) {
	row, ok := h.rowParam(w, r)
	if !ok {
		return
	}
	it, err := h.b.Item(row)
	if err != nil {
		writeError(w, err)
		return
	}
	if mime := r.URL.Query().Get("mime"); mime != "" {
		if !it.Has(mime) {
			http.Error(w, "format not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", mime)
		_, _ = w.Write(it.Data(mime))
		return
	}
	writeJSON(w, http.StatusOK, h.view(row, it))
}

func (h *handler) setItem(w http.ResponseWriter, r *http.Request) {
	row, ok := h.rowParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.b.SetItemText(row, req.Text); err != nil {
		writeError(w, err)
		return
	}
	it, err := h.b.Item(row)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(row, it))
}

func (h *handler) removeItem(w http.ResponseWriter, r *http.Request) {
	row, ok := h.rowParam(w, r)
	if !ok {
		return
	}
	if err := h.b.RemoveRows(row); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) selectItem(w http.ResponseWriter, r *http.Request) {
	row, ok := h.rowParam(w, r)
	if !ok {
		return
	}
	if err := h.b.MoveToClipboard(row); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
