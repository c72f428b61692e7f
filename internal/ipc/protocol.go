package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/shellwin/layershell"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus                CommandType = "GET_STATUS"
	CommandGetMonitors              CommandType = "GET_MONITORS"
	CommandGetState                 CommandType = "GET_STATE"
	CommandSetLayer                 CommandType = "SET_LAYER"
	CommandSetAnchor                CommandType = "SET_ANCHOR"
	CommandClearAnchor              CommandType = "CLEAR_ANCHOR"
	CommandSetExclusiveZone         CommandType = "SET_EXCLUSIVE_ZONE"
	CommandSetMargin                CommandType = "SET_MARGIN"
	CommandSetKeyboardInteractivity CommandType = "SET_KEYBOARD_INTERACTIVITY"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Backend       string `json:"backend"`
	WindowID      uint64 `json:"window_id"`
	LayerSurface  bool   `json:"layer_surface"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
}

// MonitorInfo describes one output. NativeID is what layer_shell.output
// expects.
type MonitorInfo struct {
	NativeID uint32 `json:"native_id"`
	Name     string `json:"name"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// StateData is the layer-shell state last requested for the surface. State
// is nil when the window is not a layer surface.
type StateData struct {
	LayerSurface bool               `json:"layer_surface"`
	State        *layershell.Config `json:"state,omitempty"`
}

type LayerPayload struct {
	Layer layershell.Layer `json:"layer"`
}

type AnchorPayload struct {
	Anchor layershell.Anchor `json:"anchor"`
}

type ExclusiveZonePayload struct {
	ExclusiveZone layershell.ExclusiveZone `json:"exclusive_zone"`
}

type MarginPayload struct {
	Margin layershell.Margin `json:"margin"`
}

type KeyboardInteractivityPayload struct {
	KeyboardInteractivity layershell.KeyboardInteractivity `json:"keyboard_interactivity"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// NewRequest builds a request, marshaling payload when it is not nil.
func NewRequest(cmd CommandType, payload interface{}) (*Request, error) {
	req := &Request{Command: cmd}
	if payload == nil {
		return req, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
	}
	req.Payload = data
	return req, nil
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
