package mcp

import "github.com/1broseidon/shellwin/internal/ipc"

// SetLayerInput is the input for the set_layer tool.
type SetLayerInput struct {
	Layer string `json:"layer" jsonschema:"Target layer: background, bottom, top or overlay"`
}

// SetAnchorInput is the input for the set_anchor tool.
type SetAnchorInput struct {
	Anchor string `json:"anchor" jsonschema:"Edges joined with |, e.g. top|left|right"`
	Clear  bool   `json:"clear,omitempty" jsonschema:"When true, release the edges instead of adding them"`
}

// SetExclusiveZoneInput is the input for the set_exclusive_zone tool.
type SetExclusiveZoneInput struct {
	ExclusiveZone string `json:"exclusive_zone" jsonschema:"none, ignore, or a non-negative pixel count"`
}

// SetMarginInput is the input for the set_margin tool.
type SetMarginInput struct {
	Top    int32 `json:"top,omitempty"`
	Right  int32 `json:"right,omitempty"`
	Bottom int32 `json:"bottom,omitempty"`
	Left   int32 `json:"left,omitempty"`
}

// SetKeyboardInteractivityInput is the input for the set_keyboard_interactivity tool.
type SetKeyboardInteractivityInput struct {
	Mode string `json:"mode" jsonschema:"none, exclusive or on_demand"`
}

// SetterOutput echoes the request the daemon accepted.
type SetterOutput struct {
	Op    string `json:"op"`
	Value string `json:"value"`
}

type EmptyInput struct{}

// LayerStateOutput is the output for the get_layer_state tool.
type LayerStateOutput struct {
	LayerSurface          bool         `json:"layer_surface"`
	Layer                 string       `json:"layer,omitempty"`
	Anchor                string       `json:"anchor,omitempty"`
	ExclusiveZone         string       `json:"exclusive_zone,omitempty"`
	Margin                *MarginValue `json:"margin,omitempty"`
	Size                  string       `json:"size,omitempty"`
	KeyboardInteractivity string       `json:"keyboard_interactivity,omitempty"`
}

type MarginValue struct {
	Top    int32 `json:"top"`
	Right  int32 `json:"right"`
	Bottom int32 `json:"bottom"`
	Left   int32 `json:"left"`
}

// ListMonitorsOutput is the output for the list_monitors tool.
type ListMonitorsOutput struct {
	Monitors []ipc.MonitorInfo `json:"monitors"`
}

// StatusOutput is the output for the get_status tool.
type StatusOutput = ipc.StatusData
