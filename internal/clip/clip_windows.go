//go:build windows

package clip

// #cgo LDFLAGS: -luser32
//
// #include <windows.h>
// #include <stdlib.h>
//
// static HWND clipshelf_create_listener_window();
// static void clipshelf_pump_messages(HWND hwnd, int* changed);
//
// static LRESULT CALLBACK clipshelf_wnd_proc(HWND hwnd, UINT msg, WPARAM wp, LPARAM lp) {
//     if (msg == WM_CLIPBOARDUPDATE) {
//         PostMessage(hwnd, WM_USER + 1, 0, 0);
//         return 0;
//     }
//     return DefWindowProc(hwnd, msg, wp, lp);
// }
//
// static HWND clipshelf_create_listener_window() {
//     WNDCLASS wc = {0};
//     wc.lpfnWndProc   = clipshelf_wnd_proc;
//     wc.hInstance     = GetModuleHandle(NULL);
//     wc.lpszClassName = "ClipshelfClipboard";
//     RegisterClass(&wc);
//     HWND hwnd = CreateWindowEx(0, "ClipshelfClipboard", NULL, 0,
//         0, 0, 0, 0, HWND_MESSAGE, NULL, GetModuleHandle(NULL), NULL);
//     AddClipboardFormatListener(hwnd);
//     return hwnd;
// }
//
// static void clipshelf_pump_messages(HWND hwnd, int* changed) {
//     MSG msg;
//     *changed = 0;
//     while (PeekMessage(&msg, hwnd, 0, 0, PM_REMOVE)) {
//         if (msg.message == WM_USER + 1) { *changed = 1; }
//         TranslateMessage(&msg);
//         DispatchMessage(&msg);
//     }
// }
import "C"

import (
	"log/slog"
	"time"

	"golang.design/x/clipboard"
)

const windowsPumpInterval = 50 * time.Millisecond

type windowsBackend struct {
	hwnd    C.HWND
	watchCh chan struct{}
	done    chan struct{}
}

// New returns the Windows clipboard backend. A message-only window receives
// WM_CLIPBOARDUPDATE; its queue is pumped on a short ticker.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard init failed", "err", err)
	}
	hwnd := C.clipshelf_create_listener_window()
	b := &windowsBackend{
		hwnd:    hwnd,
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go b.pump()
	return b
}

func (b *windowsBackend) Name() string { return "Windows Clipboard" }

func (b *windowsBackend) pump() {
	t := time.NewTicker(windowsPumpInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			var changed C.int
			C.clipshelf_pump_messages(b.hwnd, &changed)
			if changed != 0 {
				select {
				case b.watchCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (b *windowsBackend) Read() ([]Item, error)    { return readSystem(), nil }
func (b *windowsBackend) Write(items []Item) error { return writeSystem(items) }
func (b *windowsBackend) Watch() <-chan struct{}   { return b.watchCh }
func (b *windowsBackend) Close()                   { close(b.done) }
