// Package wayland is the Wayland backend: a compositor connection, the
// shell surfaces created on it and the native window records that own them.
//
// Everything in this package is owned by one thread. Callers on other
// threads go through the event loop's dispatcher.
package wayland

import (
	"errors"

	"github.com/1broseidon/shellwin/layershell"
)

// Protocol interface names this backend binds.
const (
	InterfaceCompositor = "wl_compositor"
	InterfaceOutput     = "wl_output"
	InterfaceLayerShell = "zwlr_layer_shell_v1"
	InterfaceWMBase     = "xdg_wm_base"
)

var (
	// ErrNotLayerSurface is returned by layer-shell requests on a window that
	// was created as an ordinary toplevel.
	ErrNotLayerSurface = errors.New("window is not a layer surface")
	// ErrWindowDestroyed is returned by requests on a destroyed window.
	ErrWindowDestroyed = errors.New("window destroyed")
	// ErrToplevelUnsupported means the compositor lacks xdg_wm_base.
	ErrToplevelUnsupported = errors.New("compositor does not support xdg_wm_base")
	// ErrRequestUnsupported means the bound protocol version is too old for
	// a request or argument.
	ErrRequestUnsupported = errors.New("request not supported by bound protocol version")
)

// Global is an object advertised by the compositor registry.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Output is a wl_output as described by its events. Name is the registry
// global name, which stays the same for the lifetime of the output.
type Output struct {
	Name        uint32
	Connector   string
	Description string
	X, Y        int32
	Width       int32
	Height      int32
}

// LayerSurfaceRequest describes a layer surface to create.
type LayerSurfaceRequest struct {
	Namespace string
	// Output is the registry name of the wl_output to place the surface on.
	// Zero lets the compositor choose.
	Output uint32
	Layer  layershell.Layer
}

// Compositor is the narrow view of a compositor connection the backend
// needs. Implementations are not safe for concurrent use.
type Compositor interface {
	Globals() []Global
	Outputs() []Output
	CreateToplevel(title, appID string) (Toplevel, error)
	CreateLayerSurface(req LayerSurfaceRequest) (LayerSurface, error)
	// Dispatch handles the events that have arrived without blocking.
	Dispatch() error
	Close() error
}

// Toplevel is an xdg_toplevel and its surfaces.
type Toplevel interface {
	Destroy() error
}

// LayerSurface is a zwlr_layer_surface_v1 and its wl_surface. Property
// requests are double-buffered until Commit.
type LayerSurface interface {
	SetSize(layershell.Size) error
	SetLayer(layershell.Layer) error
	SetAnchor(layershell.Anchor) error
	SetExclusiveZone(int32) error
	SetMargin(layershell.Margin) error
	SetKeyboardInteractivity(layershell.KeyboardInteractivity) error
	Commit() error
	Destroy() error
}
