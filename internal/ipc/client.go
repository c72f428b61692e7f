package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/shellwin/internal/runtimepath"
	"github.com/1broseidon/shellwin/layershell"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default daemon socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	if c.socketPath == "" {
		return nil, fmt.Errorf("failed to connect to daemon: no runtime directory")
	}
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == StatusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) send(cmd CommandType, payload interface{}) (*Response, error) {
	req, err := NewRequest(cmd, payload)
	if err != nil {
		return nil, err
	}
	return c.sendRequest(req)
}

func (c *Client) SetLayer(layer layershell.Layer) error {
	_, err := c.send(CommandSetLayer, LayerPayload{Layer: layer})
	return err
}

// SetAnchor adds edges to the surface anchor.
func (c *Client) SetAnchor(edges layershell.Anchor) error {
	_, err := c.send(CommandSetAnchor, AnchorPayload{Anchor: edges})
	return err
}

// ClearAnchor removes edges from the surface anchor.
func (c *Client) ClearAnchor(edges layershell.Anchor) error {
	_, err := c.send(CommandClearAnchor, AnchorPayload{Anchor: edges})
	return err
}

func (c *Client) SetExclusiveZone(zone layershell.ExclusiveZone) error {
	_, err := c.send(CommandSetExclusiveZone, ExclusiveZonePayload{ExclusiveZone: zone})
	return err
}

func (c *Client) SetMargin(m layershell.Margin) error {
	_, err := c.send(CommandSetMargin, MarginPayload{Margin: m})
	return err
}

func (c *Client) SetKeyboardInteractivity(k layershell.KeyboardInteractivity) error {
	_, err := c.send(CommandSetKeyboardInteractivity, KeyboardInteractivityPayload{KeyboardInteractivity: k})
	return err
}

// GetState retrieves the layer-shell state of the daemon's surface.
func (c *Client) GetState() (*StateData, error) {
	resp, err := c.send(CommandGetState, nil)
	if err != nil {
		return nil, err
	}
	var state StateData
	if err := json.Unmarshal(resp.Data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state data: %w", err)
	}
	return &state, nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.send(CommandGetStatus, nil)
	if err != nil {
		return nil, err
	}
	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// GetMonitors retrieves monitor information
func (c *Client) GetMonitors() (*MonitorsData, error) {
	resp, err := c.send(CommandGetMonitors, nil)
	if err != nil {
		return nil, err
	}
	var monitors MonitorsData
	if err := json.Unmarshal(resp.Data, &monitors); err != nil {
		return nil, fmt.Errorf("failed to parse monitors data: %w", err)
	}
	return &monitors, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
