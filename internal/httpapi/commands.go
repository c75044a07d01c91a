package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"go.klb.dev/clipshelf/internal/command"
)

type runResponse struct {
	Command  string        `json:"command"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration"`
	Items    int           `json:"items"`
}

func (h *handler) itemCommands(w http.ResponseWriter, r *http.Request) {
	row, ok := h.rowParam(w, r)
	if !ok {
		return
	}
	if _, err := h.b.Item(row); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.b.MenuFor(row))
}

// runCommand runs a rule on a row. Waiting rules answer with their result;
// the others are accepted and report through the event stream.
func (h *handler) runCommand(w http.ResponseWriter, r *http.Request) {
	row, ok := h.rowParam(w, r)
	if !ok {
		return
	}
	if _, err := h.b.Item(row); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.b.RunCommand(r.Context(), chi.URLParam(r, "name"), row)
	if err != nil {
		writeError(w, err)
		return
	}
	if res == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, runResponse{
		Command:  res.Command,
		ExitCode: res.ExitCode,
		Stdout:   string(res.Stdout),
		Stderr:   res.Stderr,
		Duration: res.Duration,
		Items:    len(res.Items),
	})
}

func (h *handler) listCommands(w http.ResponseWriter, r *http.Request) {
	out := h.b.Commands().Configs()
	if out == nil {
		out = []command.Config{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) addCommand(w http.ResponseWriter, r *http.Request) {
	var cfg command.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	c, err := command.New(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.b.AddCommand(c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c.Config())
}

func (h *handler) deleteCommand(w http.ResponseWriter, r *http.Request) {
	if err := h.b.DeleteCommand(chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
