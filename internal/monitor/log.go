package monitor

import (
	"context"
	"log/slog"

	"go.klb.dev/clipshelf/internal/clip"
	"go.klb.dev/clipshelf/internal/history"
)

const previewLen = 120

// LogItems logs clipboard content at INFO (mode, mime types) and DEBUG
// (text preview up to 120 chars, or byte size for binary formats).
func LogItems(event string, mode clip.Mode, items []clip.Item) {
	mimes := make([]string, len(items))
	for i, it := range items {
		mimes[i] = it.MIME
	}
	slog.Info(event, "mode", mode, "types", mimes)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, it := range items {
		if it.MIME == history.MIMEText {
			preview := []rune(string(it.Data))
			if len(preview) > previewLen {
				preview = append(preview[:previewLen], '…')
			}
			slog.Debug("clipboard format", "mime", it.MIME, "preview", string(preview))
		} else {
			slog.Debug("clipboard format", "mime", it.MIME, "size_bytes", len(it.Data))
		}
	}
}
