// Package x11 is the X11 backend. X11 has no layer-shell protocol, so its
// windows are always ordinary top-level windows.
package x11

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/shellwin/internal/platform"
)

// Display is the part of an X server connection the backend uses.
type Display interface {
	CreateWindow(title string, class WMClass) (uint32, error)
	DestroyWindow(id uint32) error
	Monitors() ([]platform.Monitor, error)
	// Poll handles queued events without blocking.
	Poll() error
	Close() error
}

// WindowRequest describes a window to create.
type WindowRequest struct {
	Title string
	// AppID becomes both the instance and the class of WM_CLASS.
	AppID string
}

// Backend owns a Display and the windows created on it.
type Backend struct {
	display Display
	logger  *slog.Logger
	windows map[uint32]*Window
}

// Connect opens the X display and wraps it in a Backend.
func Connect(display string, logger *slog.Logger) (*Backend, error) {
	conn, err := NewConnection(display, logger)
	if err != nil {
		return nil, err
	}
	return NewBackend(conn, logger), nil
}

func NewBackend(display Display, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		display: display,
		logger:  logger,
		windows: make(map[uint32]*Window),
	}
}

func (b *Backend) CreateWindow(req WindowRequest) (*Window, error) {
	id, err := b.display.CreateWindow(req.Title, WMClass{Instance: req.AppID, Class: req.AppID})
	if err != nil {
		return nil, fmt.Errorf("create x11 window: %w", err)
	}
	w := &Window{id: id, title: req.Title, appID: req.AppID, backend: b}
	b.windows[id] = w
	b.logger.Debug("x11 window created", "window", id, "app_id", req.AppID)
	return w, nil
}

func (b *Backend) Monitors() ([]platform.Monitor, error) {
	return b.display.Monitors()
}

func (b *Backend) Pump() error {
	return b.display.Poll()
}

func (b *Backend) Windows() int {
	return len(b.windows)
}

// Close destroys every live window and closes the display.
func (b *Backend) Close() error {
	var errs []error
	for _, w := range b.windows {
		errs = append(errs, w.Destroy())
	}
	errs = append(errs, b.display.Close())
	return errors.Join(errs...)
}

// Window is the native record behind one X11 window.
type Window struct {
	id        uint32
	title     string
	appID     string
	destroyed bool
	backend   *Backend
}

func (w *Window) ID() uint32 { return w.id }

func (w *Window) Title() string { return w.title }

func (w *Window) AppID() string { return w.appID }

func (w *Window) Destroyed() bool { return w.destroyed }

// Destroy releases the X window. Destroying twice is a no-op.
func (w *Window) Destroy() error {
	if w.destroyed {
		return nil
	}
	w.destroyed = true
	delete(w.backend.windows, w.id)
	return w.backend.display.DestroyWindow(w.id)
}
