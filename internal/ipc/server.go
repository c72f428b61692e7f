package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/shellwin/internal/runtimepath"
	"github.com/1broseidon/shellwin/layershell"
)

// Surface is the live window the server adjusts. Setters must be safe to
// call from any goroutine.
type Surface interface {
	ID() uint64
	IsLayerSurface() bool
	SetLayer(layershell.Layer)
	SetAnchor(layershell.Anchor)
	ClearAnchor(layershell.Anchor)
	SetExclusiveZone(layershell.ExclusiveZone)
	SetMargin(top, right, bottom, left int32)
	SetKeyboardInteractivity(layershell.KeyboardInteractivity)
	LayerShellState(ctx context.Context) (layershell.Config, bool, error)
}

// MonitorSource lists the outputs known to the backend.
type MonitorSource func(ctx context.Context) ([]MonitorInfo, error)

type ServerConfig struct {
	// SocketPath defaults to runtimepath.SocketPath().
	SocketPath string
	Surface    Surface
	Monitors   MonitorSource
	Backend    string
	Logger     *slog.Logger
	// RequestTimeout bounds requests that wait for the event loop.
	RequestTimeout time.Duration
}

// Server handles IPC requests from clients
type Server struct {
	socketPath     string
	listener       net.Listener
	surface        Surface
	monitors       MonitorSource
	backend        string
	logger         *slog.Logger
	requestTimeout time.Duration
	startTime      time.Time

	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
}

// NewServer creates a new IPC server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Surface == nil {
		return nil, fmt.Errorf("ipc server requires a surface")
	}
	socketPath := cfg.SocketPath
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	// Remove a stale socket from a previous run.
	os.Remove(socketPath)

	return &Server{
		socketPath:     socketPath,
		surface:        cfg.Surface,
		monitors:       cfg.Monitors,
		backend:        cfg.Backend,
		logger:         logger.With("component", "ipc"),
		requestTimeout: timeout,
		startTime:      time.Now(),
	}, nil
}

func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves one newline-terminated JSON request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)
	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "command", req.Command, "error", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetMonitors:
		return s.handleGetMonitors()
	case CommandGetState:
		return s.handleGetState()
	case CommandSetLayer:
		var p LayerPayload
		return s.handleSetter(req, &p, func() { s.surface.SetLayer(p.Layer) })
	case CommandSetAnchor:
		var p AnchorPayload
		return s.handleSetter(req, &p, func() { s.surface.SetAnchor(p.Anchor) })
	case CommandClearAnchor:
		var p AnchorPayload
		return s.handleSetter(req, &p, func() { s.surface.ClearAnchor(p.Anchor) })
	case CommandSetExclusiveZone:
		var p ExclusiveZonePayload
		return s.handleSetter(req, &p, func() { s.surface.SetExclusiveZone(p.ExclusiveZone) })
	case CommandSetMargin:
		var p MarginPayload
		return s.handleSetter(req, &p, func() {
			s.surface.SetMargin(p.Margin.Top, p.Margin.Right, p.Margin.Bottom, p.Margin.Left)
		})
	case CommandSetKeyboardInteractivity:
		var p KeyboardInteractivityPayload
		return s.handleSetter(req, &p, func() { s.surface.SetKeyboardInteractivity(p.KeyboardInteractivity) })
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleSetter decodes the payload into p and queues apply. Setters are
// fire-and-forget: the response only confirms the request was accepted.
func (s *Server) handleSetter(req *Request, p any, apply func()) *Response {
	if len(req.Payload) == 0 {
		return NewErrorResponse(fmt.Sprintf("%s requires a payload", req.Command))
	}
	if err := json.Unmarshal(req.Payload, p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	apply()
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus() *Response {
	resp, err := NewOKResponse(StatusData{
		Backend:       s.backend,
		WindowID:      s.surface.ID(),
		LayerSurface:  s.surface.IsLayerSurface(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetMonitors() *Response {
	if s.monitors == nil {
		return NewErrorResponse("monitor listing not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.requestTimeout)
	defer cancel()

	monitors, err := s.monitors(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to list monitors: %v", err))
	}
	resp, err := NewOKResponse(MonitorsData{Monitors: monitors})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetState() *Response {
	ctx, cancel := context.WithTimeout(context.Background(), s.requestTimeout)
	defer cancel()

	state, ok, err := s.surface.LayerShellState(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to read state: %v", err))
	}
	data := StateData{LayerSurface: ok}
	if ok {
		data.State = &state
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	data, _ := NewErrorResponse(errMsg).Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop closes the listener, waits for in-flight requests and removes the
// socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
}
