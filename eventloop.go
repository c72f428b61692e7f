package shellwin

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/shellwin/internal/dispatch"
	"github.com/1broseidon/shellwin/internal/platform"
	"github.com/1broseidon/shellwin/internal/wayland"
	"github.com/1broseidon/shellwin/internal/x11"
)

// BackendKind names a native window system.
type BackendKind = platform.BackendKind

const (
	BackendAuto    = platform.BackendAuto
	BackendWayland = platform.BackendWayland
	BackendX11     = platform.BackendX11
)

// DefaultPumpInterval is how often Run pumps native events when nothing
// else wakes it.
const DefaultPumpInterval = 16 * time.Millisecond

// EventLoopConfig is fixed when the loop is built.
type EventLoopConfig struct {
	// Backend forces a backend. BackendAuto picks one from the environment.
	Backend BackendKind
	// AnyThread lets windows be created from any goroutine. The goroutine
	// that calls Run becomes the owner. Without it, the goroutine that calls
	// Build is the owner and the only one allowed to create windows.
	AnyThread    bool
	PumpInterval time.Duration
	// Display overrides WAYLAND_DISPLAY or DISPLAY.
	Display string
}

// EventLoopBuilder configures an EventLoop. Options have no effect after
// Build.
type EventLoopBuilder struct {
	cfg    EventLoopConfig
	logger *slog.Logger
	getenv func(string) string

	compositor wayland.Compositor
	xdisplay   x11.Display
}

func NewEventLoopBuilder() *EventLoopBuilder {
	return &EventLoopBuilder{
		cfg:    EventLoopConfig{PumpInterval: DefaultPumpInterval},
		getenv: os.Getenv,
	}
}

// WithBackend forces the backend instead of detecting it.
func (b *EventLoopBuilder) WithBackend(kind BackendKind) *EventLoopBuilder {
	b.cfg.Backend = kind
	return b
}

func (b *EventLoopBuilder) WithWayland() *EventLoopBuilder { return b.WithBackend(BackendWayland) }

func (b *EventLoopBuilder) WithX11() *EventLoopBuilder { return b.WithBackend(BackendX11) }

func (b *EventLoopBuilder) WithAnyThread(anyThread bool) *EventLoopBuilder {
	b.cfg.AnyThread = anyThread
	return b
}

func (b *EventLoopBuilder) WithPumpInterval(d time.Duration) *EventLoopBuilder {
	if d > 0 {
		b.cfg.PumpInterval = d
	}
	return b
}

func (b *EventLoopBuilder) WithDisplay(name string) *EventLoopBuilder {
	b.cfg.Display = name
	return b
}

func (b *EventLoopBuilder) WithLogger(logger *slog.Logger) *EventLoopBuilder {
	b.logger = logger
	return b
}

// withCompositor runs the Wayland backend over comp instead of dialing.
func (b *EventLoopBuilder) withCompositor(comp wayland.Compositor) *EventLoopBuilder {
	b.compositor = comp
	return b
}

// withX11Display runs the X11 backend over d instead of connecting.
func (b *EventLoopBuilder) withX11Display(d x11.Display) *EventLoopBuilder {
	b.xdisplay = d
	return b
}

// Build connects to the backend. Without AnyThread the calling goroutine is
// locked to its OS thread and becomes the loop's owner; it must also call
// Run or PumpEvents and Close.
func (b *EventLoopBuilder) Build() (*EventLoop, error) {
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	kind, err := b.resolveBackend()
	if err != nil {
		return nil, err
	}

	var backend nativeBackend
	switch kind {
	case BackendWayland:
		if b.compositor != nil {
			backend = waylandBackend{wayland.NewBackend(b.compositor, logger)}
			break
		}
		wb, err := wayland.Connect(b.cfg.Display, logger)
		if err != nil {
			return nil, err
		}
		backend = waylandBackend{wb}
	case BackendX11:
		if b.xdisplay != nil {
			backend = x11Backend{x11.NewBackend(b.xdisplay, logger)}
			break
		}
		xb, err := x11.Connect(b.cfg.Display, logger)
		if err != nil {
			return nil, err
		}
		backend = x11Backend{xb}
	default:
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, kind)
	}

	cfg := b.cfg
	cfg.Backend = kind
	l := &EventLoop{
		cfg:        cfg,
		backend:    backend,
		dispatcher: dispatch.New(logger),
		logger:     logger.With("backend", kind.String()),
		done:       make(chan struct{}),
	}
	if !cfg.AnyThread {
		l.dispatcher.Bind()
	}
	l.logger.Info("event loop created", "any_thread", cfg.AnyThread)
	return l, nil
}

func (b *EventLoopBuilder) resolveBackend() (BackendKind, error) {
	switch b.cfg.Backend {
	case BackendWayland, BackendX11:
		return b.cfg.Backend, nil
	case BackendAuto:
	default:
		return BackendAuto, fmt.Errorf("%w: unknown backend %s", ErrBackendUnavailable, b.cfg.Backend)
	}
	switch {
	case b.compositor != nil:
		return BackendWayland, nil
	case b.xdisplay != nil:
		return BackendX11, nil
	}
	kind, ok := platform.Detect(b.getenv)
	if !ok {
		return BackendAuto, fmt.Errorf("%w: neither WAYLAND_DISPLAY nor DISPLAY is set", ErrBackendUnavailable)
	}
	return kind, nil
}

// EventLoop owns a native backend connection and every window created on it.
type EventLoop struct {
	cfg        EventLoopConfig
	backend    nativeBackend
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger

	// mu serializes native access while no owner is bound.
	mu sync.Mutex

	running  atomic.Bool
	closed   atomic.Bool
	done     chan struct{}
	windowID atomic.Uint64
}

func (l *EventLoop) Backend() BackendKind { return l.cfg.Backend }

func (l *EventLoop) IsWayland() bool { return l.cfg.Backend == BackendWayland }

func (l *EventLoop) Config() EventLoopConfig { return l.cfg }

// Run drives the loop until ctx ends, then closes it. Without AnyThread it
// must be called by the goroutine that built the loop; with AnyThread the
// calling goroutine becomes the owner.
func (l *EventLoop) Run(ctx context.Context) error {
	if l.closed.Load() {
		return ErrEventLoopClosed
	}
	if err := l.claimOwner(); err != nil {
		return err
	}
	if !l.running.CompareAndSwap(false, true) {
		return ErrEventLoopRunning
	}
	defer l.running.Store(false)
	defer l.Close()

	ticker := time.NewTicker(l.cfg.PumpInterval)
	defer ticker.Stop()

	l.logger.Info("event loop running", "pump_interval", l.cfg.PumpInterval)
	for {
		if err := l.PumpEvents(); err != nil {
			l.logger.Error("event loop stopped", "error", err)
			return err
		}
		select {
		case <-ctx.Done():
			l.logger.Info("event loop stopping")
			return nil
		case <-l.dispatcher.Wake():
		case <-ticker.C:
		}
	}
}

func (l *EventLoop) claimOwner() error {
	if l.dispatcher.OnOwnerThread() {
		return nil
	}
	if !l.cfg.AnyThread {
		return ErrBackendThreadViolation
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dispatcher.Bound() {
		return ErrBackendThreadViolation
	}
	l.dispatcher.Bind()
	return nil
}

// PumpEvents runs queued window operations and handles pending native
// events once, without blocking. It must be called on the owning thread.
func (l *EventLoop) PumpEvents() error {
	if l.closed.Load() {
		return ErrEventLoopClosed
	}
	if !l.dispatcher.OnOwnerThread() {
		return ErrBackendThreadViolation
	}
	l.dispatcher.Drain()

	var err error
	switch b := l.backend.(type) {
	case waylandBackend:
		err = b.Pump()
	case x11Backend:
		err = b.Pump()
	}
	if err != nil {
		return fmt.Errorf("pump %s events: %w", l.cfg.Backend, err)
	}
	return nil
}

// Close destroys all windows and the native connection. Queued operations
// are dropped. Once an owner is bound, only the owner may close the loop.
func (l *EventLoop) Close() error {
	if l.dispatcher.Bound() && !l.dispatcher.OnOwnerThread() {
		return ErrBackendThreadViolation
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(l.done)
	l.dispatcher.Close()

	var err error
	switch b := l.backend.(type) {
	case waylandBackend:
		err = b.Close()
	case x11Backend:
		err = b.Close()
	}
	st := l.dispatcher.Stats()
	l.logger.Info("event loop closed", "executed", st.Executed, "dropped", st.Dropped)
	if l.dispatcher.OnOwnerThread() {
		l.dispatcher.Unbind()
	}
	return err
}

// AvailableMonitors lists the monitors of the backend.
func (l *EventLoop) AvailableMonitors(ctx context.Context) ([]MonitorHandle, error) {
	return call(ctx, l, func() ([]MonitorHandle, error) {
		var (
			descs []platform.Monitor
			err   error
		)
		switch b := l.backend.(type) {
		case waylandBackend:
			descs = b.Monitors()
		case x11Backend:
			descs, err = b.Monitors()
		}
		if err != nil {
			return nil, err
		}
		out := make([]MonitorHandle, len(descs))
		for i, d := range descs {
			out[i] = MonitorHandle{desc: d, backend: l.cfg.Backend}
		}
		return out, nil
	}, nil)
}

// submit queues w for the owning thread, or runs it in place when called on
// the owner. Before an owner is bound it runs under the loop mutex.
func (l *EventLoop) submit(w dispatch.Work) {
	if l.closed.Load() {
		return
	}
	if l.dispatcher.Bound() {
		l.dispatcher.Submit(w)
		return
	}
	l.mu.Lock()
	if l.dispatcher.Bound() {
		l.mu.Unlock()
		l.dispatcher.Submit(w)
		return
	}
	defer l.mu.Unlock()
	if !l.closed.Load() {
		w()
	}
}

const (
	callPending int32 = iota
	callDelivered
	callAbandoned
)

// call runs fn on the owning thread and waits for its result. If the caller
// gives up first, a result produced later is passed to discard.
func call[T any](ctx context.Context, l *EventLoop, fn func() (T, error), discard func(T)) (T, error) {
	var zero T
	if l.closed.Load() {
		return zero, ErrEventLoopClosed
	}
	if l.dispatcher.OnOwnerThread() {
		return fn()
	}
	l.mu.Lock()
	if !l.dispatcher.Bound() {
		defer l.mu.Unlock()
		if l.closed.Load() {
			return zero, ErrEventLoopClosed
		}
		return fn()
	}
	l.mu.Unlock()

	type result struct {
		v   T
		err error
	}
	var state atomic.Int32
	ch := make(chan result, 1)
	l.dispatcher.Submit(func() {
		if state.Load() == callAbandoned {
			return
		}
		v, err := fn()
		if !state.CompareAndSwap(callPending, callDelivered) {
			if err == nil && discard != nil {
				discard(v)
			}
			return
		}
		ch <- result{v, err}
	})

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
	case <-l.done:
	}
	if state.CompareAndSwap(callPending, callAbandoned) {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, ErrEventLoopClosed
	}
	r := <-ch
	return r.v, r.err
}
