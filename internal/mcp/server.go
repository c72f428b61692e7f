// Package mcp exposes the daemon's live surface to MCP clients. Every tool
// forwards to the daemon over IPC.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/shellwin/internal/ipc"
	"github.com/1broseidon/shellwin/layershell"
)

const (
	ServerName    = "shellwin"
	ServerVersion = "0.1.0"
)

// Controller is the daemon connection. *ipc.Client implements it.
type Controller interface {
	SetLayer(layershell.Layer) error
	SetAnchor(layershell.Anchor) error
	ClearAnchor(layershell.Anchor) error
	SetExclusiveZone(layershell.ExclusiveZone) error
	SetMargin(layershell.Margin) error
	SetKeyboardInteractivity(layershell.KeyboardInteractivity) error
	GetState() (*ipc.StateData, error)
	GetMonitors() (*ipc.MonitorsData, error)
	GetStatus() (*ipc.StatusData, error)
}

// Server is the MCP server for shellwin.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Controller
	logger    *slog.Logger
}

// NewServer creates an MCP server forwarding to daemon.
func NewServer(daemon Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		daemon: daemon,
		logger: logger.With("component", "mcp"),
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_layer",
		Description: "Move the shellwin layer surface to another layer (background, bottom, top, overlay).",
	}, s.handleSetLayer)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_anchor",
		Description: "Anchor the layer surface to additional edges, or release edges with clear=true. Edges already anchored stay anchored.",
	}, s.handleSetAnchor)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_exclusive_zone",
		Description: "Set the exclusive zone: none (move out of other surfaces' way), ignore (extend under other panels), or a pixel count to reserve.",
	}, s.handleSetExclusiveZone)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_margin",
		Description: "Set the margins from the anchored edges, in pixels. Omitted sides are zero.",
	}, s.handleSetMargin)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_keyboard_interactivity",
		Description: "Set keyboard focus behaviour: none, exclusive or on_demand.",
	}, s.handleSetKeyboardInteractivity)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_layer_state",
		Description: "Read the layer-shell state last requested for the surface.",
	}, s.handleGetLayerState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List monitors with the native ids accepted by layer_shell.output.",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the daemon backend, window id and uptime.",
	}, s.handleGetStatus)
}
