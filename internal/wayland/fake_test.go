package wayland

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/1broseidon/shellwin/layershell"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCompositor struct {
	globals   []Global
	outputs   []Output
	surfaces  []*fakeSurface
	toplevels []*fakeToplevel

	failOn     string
	dispatched int
	closed     bool
}

func newFakeCompositor(withLayerShell bool) *fakeCompositor {
	f := &fakeCompositor{
		globals: []Global{
			{Name: 1, Interface: InterfaceCompositor, Version: 6},
			{Name: 2, Interface: InterfaceWMBase, Version: 5},
		},
	}
	if withLayerShell {
		f.globals = append(f.globals, Global{Name: 3, Interface: InterfaceLayerShell, Version: 4})
	}
	return f
}

func (f *fakeCompositor) Globals() []Global { return f.globals }
func (f *fakeCompositor) Outputs() []Output { return f.outputs }

func (f *fakeCompositor) CreateToplevel(title, appID string) (Toplevel, error) {
	t := &fakeToplevel{title: title, appID: appID}
	f.toplevels = append(f.toplevels, t)
	return t, nil
}

func (f *fakeCompositor) CreateLayerSurface(req LayerSurfaceRequest) (LayerSurface, error) {
	s := &fakeSurface{req: req, failOn: f.failOn}
	f.surfaces = append(f.surfaces, s)
	return s, nil
}

func (f *fakeCompositor) Dispatch() error {
	f.dispatched++
	return nil
}

func (f *fakeCompositor) Close() error {
	f.closed = true
	return nil
}

type fakeToplevel struct {
	title, appID string
	destroyed    bool
}

func (t *fakeToplevel) Destroy() error {
	t.destroyed = true
	return nil
}

// fakeSurface records every request it receives as "name=value".
type fakeSurface struct {
	req       LayerSurfaceRequest
	calls     []string
	failOn    string
	destroyed bool
}

func (s *fakeSurface) record(name string, value any) error {
	if name == s.failOn {
		return fmt.Errorf("%s rejected", name)
	}
	s.calls = append(s.calls, fmt.Sprintf("%s=%v", name, value))
	return nil
}

func (s *fakeSurface) SetSize(size layershell.Size) error  { return s.record("size", size) }
func (s *fakeSurface) SetLayer(l layershell.Layer) error   { return s.record("layer", l) }
func (s *fakeSurface) SetAnchor(a layershell.Anchor) error { return s.record("anchor", a) }
func (s *fakeSurface) SetExclusiveZone(z int32) error      { return s.record("zone", z) }
func (s *fakeSurface) SetMargin(m layershell.Margin) error { return s.record("margin", m) }
func (s *fakeSurface) SetKeyboardInteractivity(k layershell.KeyboardInteractivity) error {
	return s.record("keyboard", k)
}

func (s *fakeSurface) Commit() error {
	if s.failOn == "commit" {
		return fmt.Errorf("commit rejected")
	}
	s.calls = append(s.calls, "commit")
	return nil
}

func (s *fakeSurface) Destroy() error {
	s.destroyed = true
	return nil
}
