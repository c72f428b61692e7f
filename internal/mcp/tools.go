package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/shellwin/layershell"
)

func (s *Server) handleSetLayer(_ context.Context, _ *mcpsdk.CallToolRequest, args SetLayerInput) (*mcpsdk.CallToolResult, SetterOutput, error) {
	layer, err := layershell.ParseLayer(args.Layer)
	if err != nil {
		return nil, SetterOutput{}, err
	}
	return s.forward("set_layer", layer.String(), func() error { return s.daemon.SetLayer(layer) })
}

func (s *Server) handleSetAnchor(_ context.Context, _ *mcpsdk.CallToolRequest, args SetAnchorInput) (*mcpsdk.CallToolResult, SetterOutput, error) {
	edges, err := layershell.ParseAnchor(args.Anchor)
	if err != nil {
		return nil, SetterOutput{}, err
	}
	if args.Clear {
		return s.forward("clear_anchor", edges.String(), func() error { return s.daemon.ClearAnchor(edges) })
	}
	return s.forward("set_anchor", edges.String(), func() error { return s.daemon.SetAnchor(edges) })
}

func (s *Server) handleSetExclusiveZone(_ context.Context, _ *mcpsdk.CallToolRequest, args SetExclusiveZoneInput) (*mcpsdk.CallToolResult, SetterOutput, error) {
	zone, err := layershell.ParseExclusiveZone(args.ExclusiveZone)
	if err != nil {
		return nil, SetterOutput{}, err
	}
	return s.forward("set_exclusive_zone", zone.String(), func() error { return s.daemon.SetExclusiveZone(zone) })
}

func (s *Server) handleSetMargin(_ context.Context, _ *mcpsdk.CallToolRequest, args SetMarginInput) (*mcpsdk.CallToolResult, SetterOutput, error) {
	m := layershell.NewMargin(args.Top, args.Right, args.Bottom, args.Left)
	return s.forward("set_margin", m.String(), func() error { return s.daemon.SetMargin(m) })
}

func (s *Server) handleSetKeyboardInteractivity(_ context.Context, _ *mcpsdk.CallToolRequest, args SetKeyboardInteractivityInput) (*mcpsdk.CallToolResult, SetterOutput, error) {
	k, err := layershell.ParseKeyboardInteractivity(args.Mode)
	if err != nil {
		return nil, SetterOutput{}, err
	}
	return s.forward("set_keyboard_interactivity", k.String(), func() error { return s.daemon.SetKeyboardInteractivity(k) })
}

// forward sends one setter to the daemon. The daemon applies it
// asynchronously, so success only means the request was queued.
func (s *Server) forward(op, value string, send func() error) (*mcpsdk.CallToolResult, SetterOutput, error) {
	if err := send(); err != nil {
		s.logger.Warn("tool request failed", "op", op, "value", value, "error", err)
		return nil, SetterOutput{}, fmt.Errorf("%s %s: %w", op, value, err)
	}
	s.logger.Debug("tool request forwarded", "op", op, "value", value)
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf("%s %s queued", op, value)},
		},
	}, SetterOutput{Op: op, Value: value}, nil
}

func (s *Server) handleGetLayerState(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, LayerStateOutput, error) {
	data, err := s.daemon.GetState()
	if err != nil {
		return nil, LayerStateOutput{}, err
	}
	out := LayerStateOutput{LayerSurface: data.LayerSurface}
	if st := data.State; data.LayerSurface && st != nil {
		out.Layer = st.Layer.String()
		out.Anchor = st.Anchor.String()
		out.ExclusiveZone = st.ExclusiveZone.String()
		out.KeyboardInteractivity = st.KeyboardInteractivity.String()
		out.Size = st.Size.String()
		out.Margin = &MarginValue{Top: st.Margin.Top, Right: st.Margin.Right, Bottom: st.Margin.Bottom, Left: st.Margin.Left}
	}
	return nil, out, nil
}

func (s *Server) handleListMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListMonitorsOutput, error) {
	data, err := s.daemon.GetMonitors()
	if err != nil {
		return nil, ListMonitorsOutput{}, err
	}
	return nil, ListMonitorsOutput{Monitors: data.Monitors}, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	data, err := s.daemon.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, *data, nil
}
