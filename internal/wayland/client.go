package wayland

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/1broseidon/shellwin/internal/platform"
	"github.com/1broseidon/shellwin/internal/runtimepath"
	"github.com/1broseidon/shellwin/layershell"
)

const displayID uint32 = 1

// Request and event opcodes, in protocol XML order.
const (
	displaySync        = 0
	displayGetRegistry = 1

	displayEventError    = 0
	displayEventDeleteID = 1

	registryBind = 0

	registryEventGlobal       = 0
	registryEventGlobalRemove = 1

	callbackEventDone = 0

	compositorCreateSurface = 0

	surfaceDestroy = 0
	surfaceCommit  = 6

	outputRelease = 0

	outputEventGeometry    = 0
	outputEventMode        = 1
	outputEventName        = 4
	outputEventDescription = 5

	layerShellGetLayerSurface = 0

	layerSurfaceSetSize                  = 0
	layerSurfaceSetAnchor                = 1
	layerSurfaceSetExclusiveZone         = 2
	layerSurfaceSetMargin                = 3
	layerSurfaceSetKeyboardInteractivity = 4
	layerSurfaceAckConfigure             = 6
	layerSurfaceDestroy                  = 7
	layerSurfaceSetLayer                 = 8

	layerSurfaceEventConfigure = 0
	layerSurfaceEventClosed    = 1

	wmBaseGetXDGSurface = 2
	wmBasePong          = 3

	wmBaseEventPing = 0

	xdgSurfaceDestroy      = 0
	xdgSurfaceGetToplevel  = 1
	xdgSurfaceAckConfigure = 4

	xdgSurfaceEventConfigure = 0

	xdgToplevelDestroy  = 0
	xdgToplevelSetTitle = 2
	xdgToplevelSetAppID = 3

	xdgToplevelEventClose = 1
)

// Highest versions this client speaks.
const (
	maxCompositorVersion = 4
	maxOutputVersion     = 4
	maxLayerShellVersion = 4
	maxWMBaseVersion     = 2
)

const handshakeTimeout = 5 * time.Second

type handler func(opcode uint16, a *argReader)

type boundObject struct {
	id      uint32
	version uint32
}

type outputState struct {
	id      uint32
	version uint32
	info    Output
}

// Conn is a client connection to a Wayland compositor. It implements
// Compositor. A background goroutine reads events; they are handled on the
// caller's thread by Dispatch.
type Conn struct {
	conn   net.Conn
	logger *slog.Logger

	wmu    sync.Mutex
	closed bool

	nextID   uint32
	registry uint32
	handlers map[uint32]handler
	globals  map[uint32]Global
	outputs  map[uint32]*outputState
	bound    map[string]boundObject

	events  chan message
	readErr chan error
	done    chan struct{}
	fatal   error

	closeOnce sync.Once
}

var _ Compositor = (*Conn)(nil)

// Dial connects to the compositor named by display, WAYLAND_SOCKET or
// WAYLAND_DISPLAY, in that order of precedence when display is empty.
func Dial(display string, logger *slog.Logger) (*Conn, error) {
	var (
		c   net.Conn
		err error
	)
	if fd := os.Getenv("WAYLAND_SOCKET"); display == "" && fd != "" {
		c, err = socketFromFD(fd)
	} else {
		var path string
		path, err = runtimepath.WaylandSocketPath(display)
		if err == nil {
			c, err = net.Dial("unix", path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: wayland: %v", platform.ErrBackendUnavailable, err)
	}
	return NewConn(c, logger)
}

func socketFromFD(value string) (net.Conn, error) {
	fd, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid WAYLAND_SOCKET %q", value)
	}
	os.Unsetenv("WAYLAND_SOCKET")
	f := os.NewFile(uintptr(fd), "wayland-socket")
	defer f.Close()
	return net.FileConn(f)
}

// NewConn performs the registry handshake over an established connection.
// It owns c from then on and closes it on failure.
func NewConn(c net.Conn, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Conn{
		conn:     c,
		logger:   logger,
		nextID:   displayID + 1,
		handlers: make(map[uint32]handler),
		globals:  make(map[uint32]Global),
		outputs:  make(map[uint32]*outputState),
		bound:    make(map[string]boundObject),
		events:   make(chan message, 256),
		readErr:  make(chan error, 1),
		done:     make(chan struct{}),
	}
	w.handlers[displayID] = w.handleDisplay

	if err := w.handshake(); err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: wayland handshake: %v", platform.ErrBackendUnavailable, err)
	}
	go w.readLoop()
	return w, nil
}

func (w *Conn) handshake() error {
	if err := w.conn.SetDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return err
	}
	defer w.conn.SetDeadline(time.Time{})

	w.registry = w.alloc()
	w.handlers[w.registry] = w.handleRegistry
	if err := w.send(newRequest(displayID, displayGetRegistry).uint(w.registry)); err != nil {
		return err
	}
	// The first roundtrip collects globals and binds outputs, the second
	// collects the output descriptions.
	if err := w.roundtrip(); err != nil {
		return err
	}
	if err := w.roundtrip(); err != nil {
		return err
	}
	w.logger.Debug("wayland connected", "globals", len(w.globals), "outputs", len(w.outputs))
	return nil
}

// roundtrip blocks until the compositor has processed every request sent so
// far. It reads the socket directly and is only used before readLoop starts.
func (w *Conn) roundtrip() error {
	cb := w.alloc()
	done := false
	w.handlers[cb] = func(opcode uint16, _ *argReader) {
		if opcode == callbackEventDone {
			done = true
		}
	}
	if err := w.send(newRequest(displayID, displaySync).uint(cb)); err != nil {
		return err
	}
	for !done {
		m, err := readMessage(w.conn)
		if err != nil {
			return err
		}
		w.handle(m)
		if w.fatal != nil {
			return w.fatal
		}
	}
	delete(w.handlers, cb)
	return nil
}

func (w *Conn) readLoop() {
	for {
		m, err := readMessage(w.conn)
		if err != nil {
			select {
			case w.readErr <- err:
			default:
			}
			return
		}
		select {
		case w.events <- m:
		case <-w.done:
			return
		}
	}
}

// Dispatch handles queued events without blocking.
func (w *Conn) Dispatch() error {
	if w.fatal != nil {
		return w.fatal
	}
	for {
		select {
		case m := <-w.events:
			w.handle(m)
			if w.fatal != nil {
				return w.fatal
			}
			continue
		default:
		}
		select {
		case err := <-w.readErr:
			w.fatal = fmt.Errorf("wayland: connection lost: %w", err)
			return w.fatal
		default:
			return nil
		}
	}
}

func (w *Conn) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.wmu.Lock()
		w.closed = true
		w.wmu.Unlock()
		close(w.done)
		err = w.conn.Close()
	})
	return err
}

func (w *Conn) Globals() []Global {
	out := make([]Global, 0, len(w.globals))
	for _, g := range w.globals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (w *Conn) Outputs() []Output {
	out := make([]Output, 0, len(w.outputs))
	for _, o := range w.outputs {
		out = append(out, o.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (w *Conn) CreateLayerSurface(req LayerSurfaceRequest) (LayerSurface, error) {
	compositor, err := w.ensureBound(InterfaceCompositor, maxCompositorVersion)
	if err != nil {
		return nil, err
	}
	shell, err := w.ensureBound(InterfaceLayerShell, maxLayerShellVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", platform.ErrShellProtocolUnsupported, err)
	}
	var outputID uint32
	if req.Output != 0 {
		st, ok := w.outputs[req.Output]
		if !ok {
			return nil, fmt.Errorf("unknown output %d", req.Output)
		}
		outputID = st.id
	}

	surface := w.alloc()
	if err := w.send(newRequest(compositor.id, compositorCreateSurface).uint(surface)); err != nil {
		return nil, err
	}
	w.handlers[surface] = ignoreEvents

	s := &layerSurface{conn: w, id: w.alloc(), surface: surface, version: shell.version}
	get := newRequest(shell.id, layerShellGetLayerSurface).
		uint(s.id).
		uint(surface).
		uint(outputID).
		uint(uint32(req.Layer)).
		string(req.Namespace)
	if err := w.send(get); err != nil {
		w.send(newRequest(surface, surfaceDestroy))
		return nil, err
	}
	w.handlers[s.id] = s.handle
	return s, nil
}

func (w *Conn) CreateToplevel(title, appID string) (Toplevel, error) {
	compositor, err := w.ensureBound(InterfaceCompositor, maxCompositorVersion)
	if err != nil {
		return nil, err
	}
	wm, err := w.ensureBound(InterfaceWMBase, maxWMBaseVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToplevelUnsupported, err)
	}
	if _, ok := w.handlers[wm.id]; !ok {
		w.handlers[wm.id] = func(opcode uint16, a *argReader) {
			if opcode == wmBaseEventPing {
				w.send(newRequest(wm.id, wmBasePong).uint(a.uint()))
			}
		}
	}

	t := &toplevel{conn: w, surface: w.alloc()}
	if err := w.send(newRequest(compositor.id, compositorCreateSurface).uint(t.surface)); err != nil {
		return nil, err
	}
	w.handlers[t.surface] = ignoreEvents

	t.xdgSurface = w.alloc()
	t.id = w.alloc()
	requests := []*request{
		newRequest(wm.id, wmBaseGetXDGSurface).uint(t.xdgSurface).uint(t.surface),
		newRequest(t.xdgSurface, xdgSurfaceGetToplevel).uint(t.id),
		newRequest(t.id, xdgToplevelSetTitle).string(title),
		newRequest(t.id, xdgToplevelSetAppID).string(appID),
		newRequest(t.surface, surfaceCommit),
	}
	for _, r := range requests {
		if err := w.send(r); err != nil {
			return nil, err
		}
	}
	w.handlers[t.xdgSurface] = func(opcode uint16, a *argReader) {
		if opcode != xdgSurfaceEventConfigure {
			return
		}
		if err := w.send(newRequest(t.xdgSurface, xdgSurfaceAckConfigure).uint(a.uint())); err != nil {
			w.logger.Warn("failed to ack toplevel configure", "surface", t.surface, "error", err)
		}
	}
	w.handlers[t.id] = func(opcode uint16, _ *argReader) {
		if opcode == xdgToplevelEventClose {
			w.logger.Info("compositor requested toplevel close", "surface", t.surface)
		}
	}
	return t, nil
}

func (w *Conn) alloc() uint32 {
	id := w.nextID
	w.nextID++
	return id
}

func (w *Conn) send(r *request) error {
	b, err := r.bytes()
	if err != nil {
		return err
	}
	w.wmu.Lock()
	defer w.wmu.Unlock()
	if w.closed {
		return net.ErrClosed
	}
	if _, err := w.conn.Write(b); err != nil {
		return fmt.Errorf("wayland: write request %d on object %d: %w", r.opcode, r.object, err)
	}
	return nil
}

func (w *Conn) bind(name uint32, iface string, version uint32) (uint32, error) {
	id := w.alloc()
	err := w.send(newRequest(w.registry, registryBind).
		uint(name).
		string(iface).
		uint(version).
		uint(id))
	return id, err
}

// ensureBound binds the first global advertising iface, once.
func (w *Conn) ensureBound(iface string, maxVersion uint32) (boundObject, error) {
	if b, ok := w.bound[iface]; ok {
		return b, nil
	}
	for _, g := range w.Globals() {
		if g.Interface != iface {
			continue
		}
		version := min(g.Version, maxVersion)
		id, err := w.bind(g.Name, iface, version)
		if err != nil {
			return boundObject{}, err
		}
		b := boundObject{id: id, version: version}
		w.bound[iface] = b
		return b, nil
	}
	return boundObject{}, fmt.Errorf("global %s not advertised", iface)
}

func (w *Conn) handle(m message) {
	h, ok := w.handlers[m.object]
	if !ok {
		w.logger.Debug("wayland event for unknown object", "object", m.object, "opcode", m.opcode)
		return
	}
	a := &argReader{b: m.args}
	h(m.opcode, a)
	if a.err != nil {
		w.logger.Warn("malformed wayland event", "object", m.object, "opcode", m.opcode, "error", a.err)
	}
}

func (w *Conn) handleDisplay(opcode uint16, a *argReader) {
	switch opcode {
	case displayEventError:
		object, code, msg := a.uint(), a.uint(), a.string()
		w.fatal = fmt.Errorf("wayland: protocol error on object %d (code %d): %s", object, code, msg)
	case displayEventDeleteID:
		delete(w.handlers, a.uint())
	}
}

func (w *Conn) handleRegistry(opcode uint16, a *argReader) {
	switch opcode {
	case registryEventGlobal:
		g := Global{Name: a.uint(), Interface: a.string(), Version: a.uint()}
		if a.err != nil {
			return
		}
		w.globals[g.Name] = g
		if g.Interface == InterfaceOutput {
			if err := w.bindOutput(g); err != nil {
				w.logger.Warn("failed to bind wl_output", "name", g.Name, "error", err)
			}
		}
	case registryEventGlobalRemove:
		name := a.uint()
		g, ok := w.globals[name]
		if !ok {
			return
		}
		delete(w.globals, name)
		if st, ok := w.outputs[name]; ok {
			if st.version >= 3 {
				w.send(newRequest(st.id, outputRelease))
			}
			delete(w.outputs, name)
		}
		for iface, b := range w.bound {
			if iface == g.Interface {
				w.logger.Warn("bound wayland global removed", "interface", iface, "object", b.id)
			}
		}
	}
}

func (w *Conn) bindOutput(g Global) error {
	version := min(g.Version, maxOutputVersion)
	id, err := w.bind(g.Name, InterfaceOutput, version)
	if err != nil {
		return err
	}
	st := &outputState{id: id, version: version, info: Output{Name: g.Name}}
	w.outputs[g.Name] = st
	w.handlers[id] = func(opcode uint16, a *argReader) {
		switch opcode {
		case outputEventGeometry:
			st.info.X, st.info.Y = a.int(), a.int()
		case outputEventMode:
			flags, width, height := a.uint(), a.int(), a.int()
			if flags&1 != 0 {
				st.info.Width, st.info.Height = width, height
			}
		case outputEventName:
			st.info.Connector = a.string()
		case outputEventDescription:
			st.info.Description = a.string()
		}
	}
	return nil
}

func ignoreEvents(uint16, *argReader) {}

type layerSurface struct {
	conn      *Conn
	id        uint32
	surface   uint32
	version   uint32
	closed    bool
	destroyed bool
}

func (s *layerSurface) SetLayer(l layershell.Layer) error {
	if s.version < 2 {
		return fmt.Errorf("%w: set_layer needs zwlr_layer_surface_v1 version 2, have %d", ErrRequestUnsupported, s.version)
	}
	return s.request(newRequest(s.id, layerSurfaceSetLayer).uint(uint32(l)))
}

func (s *layerSurface) SetSize(size layershell.Size) error {
	return s.request(newRequest(s.id, layerSurfaceSetSize).uint(size.Width).uint(size.Height))
}

func (s *layerSurface) SetAnchor(a layershell.Anchor) error {
	return s.request(newRequest(s.id, layerSurfaceSetAnchor).uint(uint32(a)))
}

func (s *layerSurface) SetExclusiveZone(zone int32) error {
	return s.request(newRequest(s.id, layerSurfaceSetExclusiveZone).int(zone))
}

func (s *layerSurface) SetMargin(m layershell.Margin) error {
	return s.request(newRequest(s.id, layerSurfaceSetMargin).int(m.Top).int(m.Right).int(m.Bottom).int(m.Left))
}

func (s *layerSurface) SetKeyboardInteractivity(k layershell.KeyboardInteractivity) error {
	if k == layershell.KeyboardOnDemand && s.version < 4 {
		return fmt.Errorf("%w: on_demand keyboard interactivity needs version 4, have %d", ErrRequestUnsupported, s.version)
	}
	return s.request(newRequest(s.id, layerSurfaceSetKeyboardInteractivity).uint(uint32(k)))
}

func (s *layerSurface) Commit() error {
	return s.request(newRequest(s.surface, surfaceCommit))
}

func (s *layerSurface) Destroy() error {
	if s.destroyed {
		return nil
	}
	s.destroyed = true
	return errors.Join(
		s.conn.send(newRequest(s.id, layerSurfaceDestroy)),
		s.conn.send(newRequest(s.surface, surfaceDestroy)),
	)
}

func (s *layerSurface) request(r *request) error {
	if s.destroyed {
		return ErrWindowDestroyed
	}
	return s.conn.send(r)
}

func (s *layerSurface) handle(opcode uint16, a *argReader) {
	switch opcode {
	case layerSurfaceEventConfigure:
		serial, width, height := a.uint(), a.uint(), a.uint()
		if a.err != nil || s.destroyed {
			return
		}
		s.conn.logger.Debug("layer surface configured", "surface", s.surface, "width", width, "height", height)
		if err := s.conn.send(newRequest(s.id, layerSurfaceAckConfigure).uint(serial)); err != nil {
			s.conn.logger.Warn("failed to ack layer surface configure", "surface", s.surface, "error", err)
		}
	case layerSurfaceEventClosed:
		s.closed = true
		s.conn.logger.Info("compositor closed layer surface", "surface", s.surface)
	}
}

type toplevel struct {
	conn       *Conn
	id         uint32
	xdgSurface uint32
	surface    uint32
	destroyed  bool
}

func (t *toplevel) Destroy() error {
	if t.destroyed {
		return nil
	}
	t.destroyed = true
	var errs []error
	if t.id != 0 {
		errs = append(errs, t.conn.send(newRequest(t.id, xdgToplevelDestroy)))
	}
	if t.xdgSurface != 0 {
		errs = append(errs, t.conn.send(newRequest(t.xdgSurface, xdgSurfaceDestroy)))
	}
	errs = append(errs, t.conn.send(newRequest(t.surface, surfaceDestroy)))
	return errors.Join(errs...)
}
