package wayland

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/1broseidon/shellwin/internal/platform"
	"github.com/1broseidon/shellwin/layershell"
)

// DefaultNamespace is used for layer surfaces created without an app id.
const DefaultNamespace = "shellwin"

// WindowRequest describes a window to create. A non-nil LayerShell makes it a
// layer surface; otherwise it is an xdg toplevel.
type WindowRequest struct {
	Title      string
	AppID      string
	LayerShell *layershell.Config
	// Output is the registry name of the output for a layer surface.
	Output uint32
}

// Backend owns a compositor connection and the windows created on it.
type Backend struct {
	comp   Compositor
	logger *slog.Logger

	nextID  uint32
	windows map[uint32]*Window
}

// Connect dials the compositor and wraps it in a Backend.
func Connect(display string, logger *slog.Logger) (*Backend, error) {
	conn, err := Dial(display, logger)
	if err != nil {
		return nil, err
	}
	return NewBackend(conn, logger), nil
}

func NewBackend(comp Compositor, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		comp:    comp,
		logger:  logger,
		windows: make(map[uint32]*Window),
	}
}

// HasGlobal reports whether the compositor advertises iface.
func (b *Backend) HasGlobal(iface string) bool {
	for _, g := range b.comp.Globals() {
		if g.Interface == iface {
			return true
		}
	}
	return false
}

func (b *Backend) SupportsLayerShell() bool {
	return b.HasGlobal(InterfaceLayerShell)
}

// Monitors returns one entry per wl_output. The native id is the output's
// registry name.
func (b *Backend) Monitors() []platform.Monitor {
	outputs := b.comp.Outputs()
	monitors := make([]platform.Monitor, 0, len(outputs))
	for _, o := range outputs {
		name := o.Connector
		if name == "" {
			name = o.Description
		}
		if name == "" {
			name = fmt.Sprintf("wl_output-%d", o.Name)
		}
		monitors = append(monitors, platform.Monitor{
			NativeID: o.Name,
			Name:     name,
			Bounds: platform.Rect{
				X:      int(o.X),
				Y:      int(o.Y),
				Width:  int(o.Width),
				Height: int(o.Height),
			},
		})
	}
	sort.Slice(monitors, func(i, j int) bool { return monitors[i].NativeID < monitors[j].NativeID })
	return monitors
}

// CreateWindow creates a toplevel or a layer surface. Layer surface creation
// is all-or-nothing: on any failure the partial surface is destroyed and no
// window is registered.
func (b *Backend) CreateWindow(req WindowRequest) (*Window, error) {
	if req.LayerShell == nil {
		return b.createToplevel(req)
	}
	return b.createLayerSurface(req)
}

func (b *Backend) createToplevel(req WindowRequest) (*Window, error) {
	top, err := b.comp.CreateToplevel(req.Title, req.AppID)
	if err != nil {
		return nil, fmt.Errorf("create toplevel: %w", err)
	}
	w := b.register(&Window{title: req.Title, appID: req.AppID, toplevel: top})
	b.logger.Debug("wayland toplevel created", "window", w.id, "app_id", req.AppID)
	return w, nil
}

func (b *Backend) createLayerSurface(req WindowRequest) (*Window, error) {
	cfg := *req.LayerShell
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("layer shell config: %w", err)
	}
	if !b.SupportsLayerShell() {
		return nil, platform.ErrShellProtocolUnsupported
	}
	namespace := req.AppID
	if namespace == "" {
		namespace = DefaultNamespace
	}

	surface, err := b.comp.CreateLayerSurface(LayerSurfaceRequest{
		Namespace: namespace,
		Output:    req.Output,
		Layer:     cfg.Layer,
	})
	if err != nil {
		return nil, fmt.Errorf("create layer surface: %w", err)
	}

	err = errors.Join(
		surface.SetSize(cfg.Size),
		surface.SetAnchor(cfg.Anchor),
		surface.SetExclusiveZone(cfg.ExclusiveZone.Raw()),
		surface.SetMargin(cfg.Margin),
		surface.SetKeyboardInteractivity(cfg.KeyboardInteractivity),
	)
	if err == nil {
		err = surface.Commit()
	}
	if err != nil {
		if derr := surface.Destroy(); derr != nil {
			b.logger.Warn("failed to destroy partial layer surface", "error", derr)
		}
		return nil, fmt.Errorf("configure layer surface: %w", err)
	}

	w := b.register(&Window{
		title:     req.Title,
		appID:     req.AppID,
		namespace: namespace,
		output:    req.Output,
		surface:   surface,
		state:     cfg,
	})
	b.logger.Debug("wayland layer surface created", "window", w.id, "namespace", namespace, "config", cfg.String())
	return w, nil
}

func (b *Backend) register(w *Window) *Window {
	b.nextID++
	w.id = b.nextID
	w.onDestroy = func(w *Window) { delete(b.windows, w.id) }
	b.windows[w.id] = w
	return w
}

// Windows returns the number of live windows.
func (b *Backend) Windows() int {
	return len(b.windows)
}

// Pump handles pending compositor events without blocking.
func (b *Backend) Pump() error {
	return b.comp.Dispatch()
}

// Close destroys every live window and closes the connection.
func (b *Backend) Close() error {
	var errs []error
	for _, w := range b.windows {
		errs = append(errs, w.Destroy())
	}
	errs = append(errs, b.comp.Close())
	return errors.Join(errs...)
}
