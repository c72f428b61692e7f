package shellwin

import (
	"github.com/1broseidon/shellwin/internal/wayland"
	"github.com/1broseidon/shellwin/internal/x11"
)

// nativeBackend is the closed set of backends an event loop drives. Every
// use type-switches over the variants below.
type nativeBackend interface {
	isNativeBackend()
}

type waylandBackend struct{ *wayland.Backend }

type x11Backend struct{ *x11.Backend }

func (waylandBackend) isNativeBackend() {}
func (x11Backend) isNativeBackend()     {}

// backendWindow is the closed set of native window records. A Window holds
// exactly one for its whole life; nil means destroyed.
type backendWindow interface {
	isBackendWindow()
}

type waylandWindow struct{ *wayland.Window }

type x11Window struct{ *x11.Window }

func (waylandWindow) isBackendWindow() {}
func (x11Window) isBackendWindow()     {}
