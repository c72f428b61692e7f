package wayland

import (
	"errors"
	"fmt"

	"github.com/1broseidon/shellwin/layershell"
)

// Window is the native record behind one Wayland window: either an
// xdg_toplevel or a layer surface, never both. It remembers the layer-shell
// state it last requested; the compositor is the authority on what applies.
type Window struct {
	id        uint32
	title     string
	appID     string
	namespace string
	output    uint32

	toplevel Toplevel
	surface  LayerSurface
	state    layershell.Config

	destroyed bool
	onDestroy func(*Window)
}

func (w *Window) ID() uint32 { return w.id }

func (w *Window) Title() string { return w.title }

func (w *Window) AppID() string { return w.appID }

// Namespace is the layer-shell namespace, empty for toplevels.
func (w *Window) Namespace() string { return w.namespace }

// Output is the registry name of the output the surface was placed on, or
// zero when the compositor chose.
func (w *Window) Output() uint32 { return w.output }

func (w *Window) IsLayerSurface() bool { return w.surface != nil }

func (w *Window) Destroyed() bool { return w.destroyed }

// LayerShellState returns the last requested layer-shell state. It reports
// false for toplevels.
func (w *Window) LayerShellState() (layershell.Config, bool) {
	if w.surface == nil {
		return layershell.Config{}, false
	}
	return w.state, true
}

func (w *Window) SetLayer(l layershell.Layer) error {
	if !l.Valid() {
		return fmt.Errorf("set_layer: invalid layer %d", uint32(l))
	}
	return w.apply("set_layer", func(s LayerSurface) error { return s.SetLayer(l) }, func() {
		w.state.Layer = l
	})
}

// SetAnchor adds edges to the current anchor. Edges already anchored stay
// anchored.
func (w *Window) SetAnchor(edges layershell.Anchor) error {
	if !edges.Valid() {
		return fmt.Errorf("set_anchor: invalid anchor 0x%x", uint32(edges))
	}
	next := w.state.Anchor.With(edges)
	return w.apply("set_anchor", func(s LayerSurface) error { return s.SetAnchor(next) }, func() {
		w.state.Anchor = next
	})
}

// ClearAnchor removes edges from the current anchor. Releasing an edge that a
// zero-sized axis stretches against is refused.
func (w *Window) ClearAnchor(edges layershell.Anchor) error {
	next := w.state.Anchor.Without(edges)
	if w.surface != nil && !w.destroyed {
		if err := w.state.Size.CheckAnchor(next); err != nil {
			return fmt.Errorf("clear_anchor: %w", err)
		}
	}
	return w.apply("clear_anchor", func(s LayerSurface) error { return s.SetAnchor(next) }, func() {
		w.state.Anchor = next
	})
}

func (w *Window) SetExclusiveZone(z layershell.ExclusiveZone) error {
	return w.apply("set_exclusive_zone", func(s LayerSurface) error { return s.SetExclusiveZone(z.Raw()) }, func() {
		w.state.ExclusiveZone = z
	})
}

func (w *Window) SetMargin(m layershell.Margin) error {
	return w.apply("set_margin", func(s LayerSurface) error { return s.SetMargin(m) }, func() {
		w.state.Margin = m
	})
}

func (w *Window) SetKeyboardInteractivity(k layershell.KeyboardInteractivity) error {
	if !k.Valid() {
		return fmt.Errorf("set_keyboard_interactivity: invalid mode %d", uint32(k))
	}
	return w.apply("set_keyboard_interactivity", func(s LayerSurface) error { return s.SetKeyboardInteractivity(k) }, func() {
		w.state.KeyboardInteractivity = k
	})
}

// apply sends one property request followed by a commit and records the new
// state once both went out.
func (w *Window) apply(op string, req func(LayerSurface) error, record func()) error {
	if w.destroyed {
		return fmt.Errorf("%s: %w", op, ErrWindowDestroyed)
	}
	if w.surface == nil {
		return fmt.Errorf("%s: %w", op, ErrNotLayerSurface)
	}
	if err := req(w.surface); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := w.surface.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	record()
	return nil
}

// Destroy releases the native surfaces. Destroying twice is a no-op.
func (w *Window) Destroy() error {
	if w.destroyed {
		return nil
	}
	w.destroyed = true
	var err error
	switch {
	case w.surface != nil:
		err = w.surface.Destroy()
	case w.toplevel != nil:
		err = w.toplevel.Destroy()
	default:
		err = errors.New("window has no native surface")
	}
	if w.onDestroy != nil {
		w.onDestroy(w)
	}
	return err
}
