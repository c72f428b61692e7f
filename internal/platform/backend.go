package platform

import (
	"errors"
	"fmt"
	"strings"
)

// BackendKind names a native window system implementation.
type BackendKind int

const (
	// BackendAuto defers the choice to environment detection.
	BackendAuto BackendKind = iota
	BackendWayland
	BackendX11
)

func (k BackendKind) String() string {
	switch k {
	case BackendAuto:
		return "auto"
	case BackendWayland:
		return "wayland"
	case BackendX11:
		return "x11"
	default:
		return fmt.Sprintf("backend(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k BackendKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BackendKind) UnmarshalText(text []byte) error {
	parsed, err := ParseBackendKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseBackendKind parses "auto", "wayland" or "x11".
func ParseBackendKind(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return BackendAuto, nil
	case "wayland":
		return BackendWayland, nil
	case "x11", "xorg":
		return BackendX11, nil
	default:
		return BackendAuto, fmt.Errorf("unknown backend %q (want auto, wayland or x11)", s)
	}
}

var (
	// ErrBackendUnavailable means the requested backend cannot be
	// instantiated in the current environment.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrBackendThreadViolation means a loop or window operation that must
	// run on the owning thread was called from another one.
	ErrBackendThreadViolation = errors.New("called off the event loop thread")
	// ErrShellProtocolUnsupported means the compositor does not advertise the
	// layer-shell protocol.
	ErrShellProtocolUnsupported = errors.New("compositor does not support zwlr_layer_shell_v1")
)

// Detect picks a backend from the session environment: a Wayland display
// wins over an X11 one. It reports false when neither is present.
func Detect(getenv func(string) string) (BackendKind, bool) {
	if getenv("WAYLAND_DISPLAY") != "" || getenv("WAYLAND_SOCKET") != "" {
		return BackendWayland, true
	}
	if getenv("DISPLAY") != "" {
		return BackendX11, true
	}
	return BackendAuto, false
}

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Monitor describes a physical display as reported by a backend.
type Monitor struct {
	// NativeID is the backend's own identifier: the wl_output global name on
	// Wayland, the RandR output on X11.
	NativeID uint32
	Name     string
	Bounds   Rect
}
