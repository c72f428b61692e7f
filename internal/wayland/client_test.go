package wayland

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log/slog"
	"net"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/shellwin/internal/platform"
	"github.com/1broseidon/shellwin/layershell"
)

func TestRequestStringPadding(t *testing.T) {
	tests := []struct {
		in       string
		wantSize int
	}{
		{"", 8 + 4 + 4},
		{"abc", 8 + 4 + 4},
		{"abcd", 8 + 4 + 8},
		{"wl_output", 8 + 4 + 12},
	}
	for _, tt := range tests {
		b, err := newRequest(7, 3).string(tt.in).bytes()
		if err != nil {
			t.Fatalf("bytes() error: %v", err)
		}
		if len(b) != tt.wantSize {
			t.Fatalf("string(%q) framed to %d bytes, want %d", tt.in, len(b), tt.wantSize)
		}
	}
}

// serverSide is what the fake compositor saw, with the interface of the
// target object resolved.
type serverSide struct {
	iface  string
	object uint32
	opcode uint16
	args   *argReader
}

// fakeServer speaks just enough of the compositor side of the protocol to
// drive Conn: registry globals, outputs, callbacks and layer surface
// configure events.
type fakeServer struct {
	conn     net.Conn
	globals  []Global
	objects  map[uint32]string
	requests chan serverSide

	errorOnSync bool
	serial      uint32
}

func startFakeServer(t *testing.T, globals []Global, errorOnSync bool) (*fakeServer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wl.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	srv := &fakeServer{
		globals:     globals,
		objects:     map[uint32]string{displayID: "wl_display"},
		requests:    make(chan serverSide, 128),
		errorOnSync: errorOnSync,
	}
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		srv.conn = c
		srv.serve()
	}()
	return srv, path
}

func (s *fakeServer) send(r *request) {
	b, _ := r.bytes()
	s.conn.Write(b)
}

func (s *fakeServer) serve() {
	defer s.conn.Close()
	for {
		m, err := readMessage(s.conn)
		if err != nil {
			return
		}
		a := &argReader{b: m.args}
		iface := s.objects[m.object]
		switch {
		case iface == "wl_display" && m.opcode == displayGetRegistry:
			registry := a.uint()
			s.objects[registry] = "wl_registry"
			for _, g := range s.globals {
				s.send(newRequest(registry, registryEventGlobal).uint(g.Name).string(g.Interface).uint(g.Version))
			}
		case iface == "wl_display" && m.opcode == displaySync:
			cb := a.uint()
			if s.errorOnSync {
				s.send(newRequest(displayID, displayEventError).uint(cb).uint(1).string("boom"))
				continue
			}
			s.send(newRequest(cb, callbackEventDone).uint(0))
			s.send(newRequest(displayID, displayEventDeleteID).uint(cb))
		case iface == "wl_registry" && m.opcode == registryBind:
			_, bound, version, id := a.uint(), a.string(), a.uint(), a.uint()
			s.objects[id] = bound
			if bound == InterfaceOutput {
				s.send(newRequest(id, outputEventGeometry).int(100).int(0).int(600).int(340).int(0).string("ACME").string("M1").int(0))
				s.send(newRequest(id, outputEventMode).uint(1).int(2560).int(1440).int(60000))
				if version >= 4 {
					s.send(newRequest(id, outputEventName).string("DP-1"))
				}
				s.send(newRequest(id, 2))
			}
			s.requests <- serverSide{iface: "wl_registry", object: m.object, opcode: m.opcode, args: &argReader{b: m.args}}
		default:
			s.track(iface, m.opcode, m.args)
			if iface == "wl_surface" && m.opcode == surfaceCommit {
				for id, kind := range s.objects {
					if kind == "zwlr_layer_surface_v1" {
						s.serial++
						s.send(newRequest(id, layerSurfaceEventConfigure).uint(s.serial).uint(0).uint(0))
					}
				}
			}
			s.requests <- serverSide{iface: iface, object: m.object, opcode: m.opcode, args: &argReader{b: m.args}}
		}
	}
}

// track records objects created by requests.
func (s *fakeServer) track(iface string, opcode uint16, args []byte) {
	a := &argReader{b: args}
	switch {
	case iface == InterfaceCompositor && opcode == compositorCreateSurface:
		s.objects[a.uint()] = "wl_surface"
	case iface == InterfaceLayerShell && opcode == layerShellGetLayerSurface:
		s.objects[a.uint()] = "zwlr_layer_surface_v1"
	case iface == InterfaceWMBase && opcode == wmBaseGetXDGSurface:
		s.objects[a.uint()] = "xdg_surface"
	case iface == "xdg_surface" && opcode == xdgSurfaceGetToplevel:
		s.objects[a.uint()] = "xdg_toplevel"
	}
}

func defaultGlobals() []Global {
	return []Global{
		{Name: 1, Interface: InterfaceCompositor, Version: 5},
		{Name: 2, Interface: InterfaceLayerShell, Version: 4},
		{Name: 3, Interface: InterfaceOutput, Version: 4},
		{Name: 4, Interface: InterfaceWMBase, Version: 3},
	}
}

// nextRequest returns the next request the server saw that is not a bind.
func nextRequest(t *testing.T, c *Conn, srv *fakeServer) serverSide {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case r := <-srv.requests:
			if r.iface == "wl_registry" {
				continue
			}
			return r
		case <-deadline:
			t.Fatal("timed out waiting for request")
		default:
			if err := c.Dispatch(); err != nil {
				t.Fatalf("Dispatch() error: %v", err)
			}
			time.Sleep(2 * time.Millisecond)
		}
	}
}

func TestDialCollectsGlobalsAndOutputs(t *testing.T) {
	_, path := startFakeServer(t, defaultGlobals(), false)
	c, err := Dial(path, quietLogger())
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer c.Close()

	if got := c.Globals(); !reflect.DeepEqual(got, defaultGlobals()) {
		t.Fatalf("Globals() = %+v, want %+v", got, defaultGlobals())
	}
	want := []Output{{Name: 3, Connector: "DP-1", X: 100, Width: 2560, Height: 1440}}
	if got := c.Outputs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Outputs() = %+v, want %+v", got, want)
	}
}

func TestDialFailsOnProtocolError(t *testing.T) {
	_, path := startFakeServer(t, defaultGlobals(), true)
	_, err := Dial(path, quietLogger())
	if !errors.Is(err, platform.ErrBackendUnavailable) {
		t.Fatalf("Dial() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestDialMissingSocket(t *testing.T) {
	_, err := Dial(filepath.Join(t.TempDir(), "missing"), quietLogger())
	if !errors.Is(err, platform.ErrBackendUnavailable) {
		t.Fatalf("Dial() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestLayerSurfaceRequestsOnTheWire(t *testing.T) {
	srv, path := startFakeServer(t, defaultGlobals(), false)
	c, err := Dial(path, quietLogger())
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer c.Close()

	s, err := c.CreateLayerSurface(LayerSurfaceRequest{Namespace: "panel", Output: 3, Layer: layershell.LayerTop})
	if err != nil {
		t.Fatalf("CreateLayerSurface() error: %v", err)
	}

	r := nextRequest(t, c, srv)
	if r.iface != InterfaceCompositor || r.opcode != compositorCreateSurface {
		t.Fatalf("first request = %s#%d, want create_surface", r.iface, r.opcode)
	}
	surface := r.args.uint()

	r = nextRequest(t, c, srv)
	if r.iface != InterfaceLayerShell || r.opcode != layerShellGetLayerSurface {
		t.Fatalf("second request = %s#%d, want get_layer_surface", r.iface, r.opcode)
	}
	_, gotSurface, output, layer, namespace := r.args.uint(), r.args.uint(), r.args.uint(), r.args.uint(), r.args.string()
	if gotSurface != surface || output == 0 || layer != uint32(layershell.LayerTop) || namespace != "panel" {
		t.Fatalf("get_layer_surface args = surface %d output %d layer %d namespace %q", gotSurface, output, layer, namespace)
	}

	if err := s.SetSize(layershell.NewSize(0, 32)); err != nil {
		t.Fatalf("SetSize() error: %v", err)
	}
	r = nextRequest(t, c, srv)
	if r.iface != "zwlr_layer_surface_v1" || r.opcode != layerSurfaceSetSize {
		t.Fatalf("request = %s#%d, want set_size", r.iface, r.opcode)
	}
	if w, h := r.args.uint(), r.args.uint(); w != 0 || h != 32 {
		t.Fatalf("set_size args = %dx%d, want 0x32", w, h)
	}

	if err := s.SetMargin(layershell.NewMargin(1, 2, 3, 4)); err != nil {
		t.Fatalf("SetMargin() error: %v", err)
	}
	r = nextRequest(t, c, srv)
	if r.iface != "zwlr_layer_surface_v1" || r.opcode != layerSurfaceSetMargin {
		t.Fatalf("request = %s#%d, want set_margin", r.iface, r.opcode)
	}
	if got := []int32{r.args.int(), r.args.int(), r.args.int(), r.args.int()}; !reflect.DeepEqual(got, []int32{1, 2, 3, 4}) {
		t.Fatalf("set_margin args = %v, want [1 2 3 4]", got)
	}

	if err := s.SetExclusiveZone(layershell.ExclusiveZoneIgnoreOthers.Raw()); err != nil {
		t.Fatalf("SetExclusiveZone() error: %v", err)
	}
	r = nextRequest(t, c, srv)
	if r.opcode != layerSurfaceSetExclusiveZone || r.args.int() != -1 {
		t.Fatalf("request = %s#%d, want set_exclusive_zone(-1)", r.iface, r.opcode)
	}

	if err := s.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	r = nextRequest(t, c, srv)
	if r.iface != "wl_surface" || r.opcode != surfaceCommit {
		t.Fatalf("request = %s#%d, want commit", r.iface, r.opcode)
	}

	// The commit triggers a configure which Dispatch must acknowledge.
	r = nextRequest(t, c, srv)
	if r.iface != "zwlr_layer_surface_v1" || r.opcode != layerSurfaceAckConfigure || r.args.uint() != 1 {
		t.Fatalf("request = %s#%d, want ack_configure(1)", r.iface, r.opcode)
	}

	if err := s.Destroy(); err != nil {
		t.Fatalf("Destroy() error: %v", err)
	}
	if err := s.SetLayer(layershell.LayerOverlay); !errors.Is(err, ErrWindowDestroyed) {
		t.Fatalf("SetLayer() after Destroy error = %v", err)
	}
}

func TestCreateLayerSurfaceWithoutGlobal(t *testing.T) {
	globals := []Global{{Name: 1, Interface: InterfaceCompositor, Version: 5}}
	_, path := startFakeServer(t, globals, false)
	c, err := Dial(path, quietLogger())
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer c.Close()

	if _, err := c.CreateLayerSurface(LayerSurfaceRequest{Namespace: "x"}); !errors.Is(err, platform.ErrShellProtocolUnsupported) {
		t.Fatalf("CreateLayerSurface() error = %v, want ErrShellProtocolUnsupported", err)
	}
	if _, err := c.CreateToplevel("t", "a"); !errors.Is(err, ErrToplevelUnsupported) {
		t.Fatalf("CreateToplevel() error = %v, want ErrToplevelUnsupported", err)
	}
}

func TestOldLayerShellRejectsNewerRequests(t *testing.T) {
	globals := []Global{
		{Name: 1, Interface: InterfaceCompositor, Version: 5},
		{Name: 2, Interface: InterfaceLayerShell, Version: 1},
	}
	_, path := startFakeServer(t, globals, false)
	c, err := Dial(path, quietLogger())
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer c.Close()

	s, err := c.CreateLayerSurface(LayerSurfaceRequest{Namespace: "x", Layer: layershell.LayerBottom})
	if err != nil {
		t.Fatalf("CreateLayerSurface() error: %v", err)
	}
	if err := s.SetLayer(layershell.LayerTop); !errors.Is(err, ErrRequestUnsupported) {
		t.Fatalf("SetLayer() error = %v, want ErrRequestUnsupported", err)
	}
	if err := s.SetKeyboardInteractivity(layershell.KeyboardOnDemand); !errors.Is(err, ErrRequestUnsupported) {
		t.Fatalf("SetKeyboardInteractivity() error = %v, want ErrRequestUnsupported", err)
	}
}

func TestToplevelRequestsOnTheWire(t *testing.T) {
	srv, path := startFakeServer(t, defaultGlobals(), false)
	c, err := Dial(path, quietLogger())
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer c.Close()

	if _, err := c.CreateToplevel("Hello", "org.example.hello"); err != nil {
		t.Fatalf("CreateToplevel() error: %v", err)
	}
	want := []struct {
		iface  string
		opcode uint16
	}{
		{InterfaceCompositor, compositorCreateSurface},
		{InterfaceWMBase, wmBaseGetXDGSurface},
		{"xdg_surface", xdgSurfaceGetToplevel},
		{"xdg_toplevel", xdgToplevelSetTitle},
		{"xdg_toplevel", xdgToplevelSetAppID},
		{"wl_surface", surfaceCommit},
	}
	for i, w := range want {
		r := nextRequest(t, c, srv)
		if r.iface != w.iface || r.opcode != w.opcode {
			t.Fatalf("request %d = %s#%d, want %s#%d", i, r.iface, r.opcode, w.iface, w.opcode)
		}
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestToplevelConfigureAckFailureIsLogged(t *testing.T) {
	_, path := startFakeServer(t, defaultGlobals(), false)
	var logs lockedBuffer
	c, err := Dial(path, slog.New(slog.NewTextHandler(&logs, nil)))
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer c.Close()

	top, err := c.CreateToplevel("Hello", "org.example.hello")
	if err != nil {
		t.Fatalf("CreateToplevel() error: %v", err)
	}
	xdgSurface := top.(*toplevel).xdgSurface

	c.wmu.Lock()
	c.closed = true
	c.wmu.Unlock()

	serial := &argReader{b: binary.NativeEndian.AppendUint32(nil, 7)}
	c.handlers[xdgSurface](xdgSurfaceEventConfigure, serial)

	if out := logs.String(); !strings.Contains(out, "failed to ack toplevel configure") || !strings.Contains(out, "level=WARN") {
		t.Fatalf("logs = %q, want a warning about the dropped ack", out)
	}
}
