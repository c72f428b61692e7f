package shellwin

import (
	"errors"

	"github.com/1broseidon/shellwin/internal/platform"
	"github.com/1broseidon/shellwin/internal/wayland"
)

var (
	// ErrBackendUnavailable is returned by EventLoopBuilder.Build when the
	// requested backend cannot be reached.
	ErrBackendUnavailable = platform.ErrBackendUnavailable
	// ErrBackendThreadViolation is returned when a loop or window is created,
	// run or closed off the owning thread of a loop built without AnyThread.
	ErrBackendThreadViolation = platform.ErrBackendThreadViolation
	// ErrShellProtocolUnsupported is returned by window creation when a layer
	// surface is requested from a backend without layer-shell support.
	ErrShellProtocolUnsupported = platform.ErrShellProtocolUnsupported
	// ErrNotLayerSurface is logged when a layer-shell operation targets a
	// Wayland toplevel.
	ErrNotLayerSurface = wayland.ErrNotLayerSurface

	ErrLayerShellNotRequested = errors.New("layer shell options set without WithLayerShell")
	ErrEventLoopClosed        = errors.New("event loop closed")
	ErrEventLoopRunning       = errors.New("event loop already running")
	ErrBuilderConsumed        = errors.New("window builder already used")
)
