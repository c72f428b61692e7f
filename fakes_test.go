package shellwin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/1broseidon/shellwin/internal/platform"
	"github.com/1broseidon/shellwin/internal/wayland"
	"github.com/1broseidon/shellwin/internal/x11"
	"github.com/1broseidon/shellwin/layershell"
)

// captureHandler keeps every record it handles.
type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

// find returns the attributes of every record at level whose message is msg.
func (h *captureHandler) find(level slog.Level, msg string) []map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []map[string]string
	for _, r := range h.records {
		if r.Level != level || r.Message != msg {
			continue
		}
		attrs := make(map[string]string)
		r.Attrs(func(a slog.Attr) bool {
			attrs[a.Key] = a.Value.String()
			return true
		})
		out = append(out, attrs)
	}
	return out
}

type fakeCompositor struct {
	globals  []wayland.Global
	outputs  []wayland.Output
	surfaces []*fakeSurface
	tops     int
	closed   bool
}

func newFakeCompositor(layerShell bool) *fakeCompositor {
	f := &fakeCompositor{
		globals: []wayland.Global{
			{Name: 1, Interface: wayland.InterfaceCompositor, Version: 6},
			{Name: 2, Interface: wayland.InterfaceWMBase, Version: 5},
		},
		outputs: []wayland.Output{
			{Name: 21, Connector: "DP-1", Width: 2560, Height: 1440},
			{Name: 22, Connector: "eDP-1", X: 2560, Width: 1920, Height: 1200},
		},
	}
	if layerShell {
		f.globals = append(f.globals, wayland.Global{Name: 3, Interface: wayland.InterfaceLayerShell, Version: 4})
	}
	return f
}

func (f *fakeCompositor) Globals() []wayland.Global { return f.globals }
func (f *fakeCompositor) Outputs() []wayland.Output { return f.outputs }

func (f *fakeCompositor) CreateToplevel(string, string) (wayland.Toplevel, error) {
	f.tops++
	return &fakeSurface{}, nil
}

func (f *fakeCompositor) CreateLayerSurface(req wayland.LayerSurfaceRequest) (wayland.LayerSurface, error) {
	s := &fakeSurface{req: req}
	f.surfaces = append(f.surfaces, s)
	return s, nil
}

func (f *fakeCompositor) Dispatch() error { return nil }

func (f *fakeCompositor) Close() error {
	f.closed = true
	return nil
}

// fakeSurface records requests as "name=value", skipping commits.
type fakeSurface struct {
	req       wayland.LayerSurfaceRequest
	calls     []string
	margins   []layershell.Margin
	destroyed bool
}

func (s *fakeSurface) record(name string, v any) error {
	s.calls = append(s.calls, fmt.Sprintf("%s=%v", name, v))
	return nil
}

func (s *fakeSurface) SetSize(size layershell.Size) error  { return s.record("size", size) }
func (s *fakeSurface) SetLayer(l layershell.Layer) error   { return s.record("layer", l) }
func (s *fakeSurface) SetAnchor(a layershell.Anchor) error { return s.record("anchor", a) }
func (s *fakeSurface) SetExclusiveZone(z int32) error      { return s.record("zone", z) }
func (s *fakeSurface) SetKeyboardInteractivity(k layershell.KeyboardInteractivity) error {
	return s.record("keyboard", k)
}

func (s *fakeSurface) SetMargin(m layershell.Margin) error {
	s.margins = append(s.margins, m)
	return s.record("margin", m)
}

func (s *fakeSurface) Commit() error { return nil }

func (s *fakeSurface) Destroy() error {
	s.destroyed = true
	return nil
}

type fakeX11 struct {
	next      uint32
	created   []uint32
	destroyed []uint32
	classes   []x11.WMClass
	closed    bool
}

func (d *fakeX11) CreateWindow(_ string, class x11.WMClass) (uint32, error) {
	d.next++
	d.created = append(d.created, d.next)
	d.classes = append(d.classes, class)
	return d.next, nil
}

func (d *fakeX11) DestroyWindow(id uint32) error {
	d.destroyed = append(d.destroyed, id)
	return nil
}

func (d *fakeX11) Monitors() ([]platform.Monitor, error) {
	return []platform.Monitor{{NativeID: 0x45, Name: "HDMI-1", Bounds: Rect{Width: 1920, Height: 1080}}}, nil
}

func (d *fakeX11) Poll() error { return nil }

func (d *fakeX11) Close() error {
	d.closed = true
	return nil
}

// newWaylandLoop builds a loop owned by the calling goroutine over comp.
func newWaylandLoop(t *testing.T, comp *fakeCompositor, h *captureHandler) *EventLoop {
	t.Helper()
	l, err := NewEventLoopBuilder().
		WithLogger(slog.New(h)).
		withCompositor(comp).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return l
}

func newX11Loop(t *testing.T, d *fakeX11, h *captureHandler) *EventLoop {
	t.Helper()
	l, err := NewEventLoopBuilder().
		WithLogger(slog.New(h)).
		withX11Display(d).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return l
}
