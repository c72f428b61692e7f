package shellwin

import (
	"context"
	"fmt"

	"github.com/1broseidon/shellwin/internal/wayland"
	"github.com/1broseidon/shellwin/internal/x11"
	"github.com/1broseidon/shellwin/layershell"
)

// ApplicationIdentity is the desktop-entry style application id of a window.
// General becomes the Wayland app id and both parts of the X11 WM_CLASS.
// Instance is accepted for compatibility but currently has no effect.
type ApplicationIdentity struct {
	General  string
	Instance string
}

// WindowCreationConfig is everything a window is created with.
type WindowCreationConfig struct {
	Title    string
	Identity *ApplicationIdentity
	// LayerShell makes the window a layer surface. Nil creates an ordinary
	// toplevel.
	LayerShell *layershell.Config
	// Output is the NativeID of the monitor for a layer surface. Zero lets
	// the compositor choose.
	Output uint32
}

// WindowBuilder accumulates a WindowCreationConfig. Nothing touches the
// display until Build. A builder builds at most one window.
type WindowBuilder struct {
	cfg WindowCreationConfig

	layer          layershell.Config
	layerRequested bool
	layerOptions   []string

	consumed bool
}

func NewWindowBuilder() *WindowBuilder {
	return &WindowBuilder{layer: layershell.DefaultConfig(layershell.DefaultLayer)}
}

// WithName sets the application identity.
func (b *WindowBuilder) WithName(general, instance string) *WindowBuilder {
	b.cfg.Identity = &ApplicationIdentity{General: general, Instance: instance}
	return b
}

func (b *WindowBuilder) WithTitle(title string) *WindowBuilder {
	b.cfg.Title = title
	return b
}

// WithLayerShell requests a layer surface on layer. The other layer-shell
// options are only valid together with it, in any order.
func (b *WindowBuilder) WithLayerShell(layer layershell.Layer) *WindowBuilder {
	b.layer.Layer = layer
	b.layerRequested = true
	return b
}

// WithAnchor adds edges to the initial anchor.
func (b *WindowBuilder) WithAnchor(edges layershell.Anchor) *WindowBuilder {
	b.layer.Anchor = b.layer.Anchor.With(edges)
	return b.layerOption("anchor")
}

func (b *WindowBuilder) WithExclusiveZone(zone layershell.ExclusiveZone) *WindowBuilder {
	b.layer.ExclusiveZone = zone
	return b.layerOption("exclusive_zone")
}

func (b *WindowBuilder) WithMargin(top, right, bottom, left int32) *WindowBuilder {
	b.layer.Margin = layershell.NewMargin(top, right, bottom, left)
	return b.layerOption("margin")
}

// WithSize sets the initial surface size. A zero dimension stretches the
// surface between opposite anchors and needs both of them.
func (b *WindowBuilder) WithSize(width, height uint32) *WindowBuilder {
	b.layer.Size = layershell.NewSize(width, height)
	return b.layerOption("size")
}

func (b *WindowBuilder) WithKeyboardInteractivity(k layershell.KeyboardInteractivity) *WindowBuilder {
	b.layer.KeyboardInteractivity = k
	return b.layerOption("keyboard_interactivity")
}

// WithOutput places the layer surface on monitor.
func (b *WindowBuilder) WithOutput(monitor MonitorHandle) *WindowBuilder {
	b.cfg.Output = monitor.NativeID()
	return b.layerOption("output")
}

func (b *WindowBuilder) layerOption(name string) *WindowBuilder {
	b.layerOptions = append(b.layerOptions, name)
	return b
}

// Config returns the accumulated configuration. It fails when layer-shell
// options were set without WithLayerShell.
func (b *WindowBuilder) Config() (WindowCreationConfig, error) {
	cfg := b.cfg
	if !b.layerRequested {
		if len(b.layerOptions) > 0 {
			return WindowCreationConfig{}, fmt.Errorf("%w: %v", ErrLayerShellNotRequested, b.layerOptions)
		}
		return cfg, nil
	}
	if err := b.layer.Validate(); err != nil {
		return WindowCreationConfig{}, err
	}
	layer := b.layer
	cfg.LayerShell = &layer
	return cfg, nil
}

// Build creates the window on loop. The builder cannot be reused, even when
// Build fails.
func (b *WindowBuilder) Build(ctx context.Context, loop *EventLoop) (*Window, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}
	b.consumed = true
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return loop.CreateWindow(ctx, cfg)
}

// Window is a native window owned by an EventLoop.
type Window struct {
	loop     *EventLoop
	id       uint64
	backend  BackendKind
	layered  bool
	identity ApplicationIdentity

	// native is only touched on the owning thread.
	native backendWindow
}

// CreateWindow creates a window from cfg. Without AnyThread it must be called
// on the owning thread. Creation is all-or-nothing: on error no native
// resources remain.
func (l *EventLoop) CreateWindow(ctx context.Context, cfg WindowCreationConfig) (*Window, error) {
	if l.closed.Load() {
		return nil, ErrEventLoopClosed
	}
	if !l.cfg.AnyThread && !l.dispatcher.OnOwnerThread() {
		return nil, ErrBackendThreadViolation
	}
	return call(ctx, l, func() (*Window, error) {
		return l.createWindow(cfg)
	}, func(w *Window) {
		l.logger.Debug("destroying window created for an abandoned request", "window", w.id)
		w.destroyNative()
	})
}

func (l *EventLoop) createWindow(cfg WindowCreationConfig) (*Window, error) {
	w := &Window{loop: l, backend: l.cfg.Backend}
	if cfg.Identity != nil {
		w.identity = *cfg.Identity
		if cfg.Identity.Instance != "" {
			l.logger.Debug("application identity instance has no effect", "instance", cfg.Identity.Instance)
		}
	}

	switch b := l.backend.(type) {
	case waylandBackend:
		native, err := b.CreateWindow(wayland.WindowRequest{
			Title:      cfg.Title,
			AppID:      w.identity.General,
			LayerShell: cfg.LayerShell,
			Output:     cfg.Output,
		})
		if err != nil {
			return nil, err
		}
		w.native = waylandWindow{native}
		w.layered = native.IsLayerSurface()
	case x11Backend:
		if cfg.LayerShell != nil {
			return nil, fmt.Errorf("%w: x11 has no layer shell", ErrShellProtocolUnsupported)
		}
		native, err := b.CreateWindow(x11.WindowRequest{
			Title: cfg.Title,
			AppID: w.identity.General,
		})
		if err != nil {
			return nil, err
		}
		w.native = x11Window{native}
	default:
		return nil, fmt.Errorf("%w: no backend", ErrBackendUnavailable)
	}

	w.id = l.windowID.Add(1)
	l.logger.Info("window created", "window", w.id, "layer_surface", w.layered, "title", cfg.Title)
	return w, nil
}

// ID identifies the window within its loop.
func (w *Window) ID() uint64 { return w.id }

func (w *Window) Backend() BackendKind { return w.backend }

// IsLayerSurface reports whether the window was created as a layer surface.
func (w *Window) IsLayerSurface() bool { return w.layered }

func (w *Window) Identity() ApplicationIdentity { return w.identity }

// SetLayer moves the surface to another layer.
func (w *Window) SetLayer(layer layershell.Layer) {
	w.layerOp("set_layer", func(n *wayland.Window) error { return n.SetLayer(layer) })
}

// SetAnchor anchors the surface to edges in addition to the edges it is
// already anchored to.
func (w *Window) SetAnchor(edges layershell.Anchor) {
	w.layerOp("set_anchor", func(n *wayland.Window) error { return n.SetAnchor(edges) })
}

// ClearAnchor releases the surface from edges.
func (w *Window) ClearAnchor(edges layershell.Anchor) {
	w.layerOp("clear_anchor", func(n *wayland.Window) error { return n.ClearAnchor(edges) })
}

func (w *Window) SetExclusiveZone(zone layershell.ExclusiveZone) {
	w.layerOp("set_exclusive_zone", func(n *wayland.Window) error { return n.SetExclusiveZone(zone) })
}

// SetMargin sets the margins in top, right, bottom, left order.
func (w *Window) SetMargin(top, right, bottom, left int32) {
	m := layershell.NewMargin(top, right, bottom, left)
	w.layerOp("set_margin", func(n *wayland.Window) error { return n.SetMargin(m) })
}

func (w *Window) SetKeyboardInteractivity(k layershell.KeyboardInteractivity) {
	w.layerOp("set_keyboard_interactivity", func(n *wayland.Window) error { return n.SetKeyboardInteractivity(k) })
}

// layerOp runs a layer-shell request on the owning thread. It never fails
// the caller: on other backends, toplevels or destroyed windows the request
// is dropped with a log record.
func (w *Window) layerOp(op string, req func(*wayland.Window) error) {
	w.loop.submit(func() {
		logger := w.loop.logger
		switch n := w.native.(type) {
		case waylandWindow:
			if err := req(n.Window); err != nil {
				logger.Warn("layer shell request failed", "op", op, "window", w.id, "backend", w.backend.String(), "error", err)
			}
		case x11Window:
			logger.Warn("layer shell request ignored: not a wayland window", "op", op, "window", w.id, "backend", w.backend.String())
		case nil:
			logger.Debug("request on destroyed window ignored", "op", op, "window", w.id)
		}
	})
}

// LayerShellState returns the layer-shell state last requested for the
// window. It reports false for windows that are not layer surfaces.
func (w *Window) LayerShellState(ctx context.Context) (layershell.Config, bool, error) {
	type state struct {
		cfg layershell.Config
		ok  bool
	}
	s, err := call(ctx, w.loop, func() (state, error) {
		switch n := w.native.(type) {
		case waylandWindow:
			cfg, ok := n.LayerShellState()
			return state{cfg, ok}, nil
		case x11Window:
			return state{}, nil
		default:
			return state{}, fmt.Errorf("window %d destroyed", w.id)
		}
	}, nil)
	return s.cfg, s.ok, err
}

// Destroy releases the native window. Operations queued before it still
// run; later ones are ignored.
func (w *Window) Destroy() {
	w.loop.submit(w.destroyNative)
}

func (w *Window) destroyNative() {
	var err error
	switch n := w.native.(type) {
	case waylandWindow:
		err = n.Destroy()
	case x11Window:
		err = n.Destroy()
	case nil:
		return
	}
	w.native = nil
	if err != nil {
		w.loop.logger.Warn("window destroy failed", "window", w.id, "error", err)
		return
	}
	w.loop.logger.Info("window destroyed", "window", w.id)
}
