package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths:
//
//	backend
//	any_thread
//	pump_interval
//	display
//	log_level
//	app_id
//	instance
//	title
//	layer_shell
//	layer_shell.layer
//	layer_shell.anchor
//	layer_shell.exclusive_zone
//	layer_shell.margin
//	layer_shell.margin.top
//	layer_shell.size
//	layer_shell.size.width
//	layer_shell.keyboard_interactivity
//	layer_shell.output
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if parts[0] != "layer_shell" {
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[0] {
		case "backend":
			return cfg.Backend.String(), nil
		case "any_thread":
			return cfg.AnyThread, nil
		case "pump_interval":
			return cfg.PumpInterval.String(), nil
		case "display":
			return cfg.Display, nil
		case "log_level":
			return cfg.LogLevel, nil
		case "app_id":
			return cfg.AppID, nil
		case "instance":
			return cfg.Instance, nil
		case "title":
			return cfg.Title, nil
		}
		return nil, fmt.Errorf("unknown path: %s", path)
	}

	ls := cfg.LayerShell
	if ls == nil {
		if len(parts) == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: layer_shell is not configured", path)
	}
	if len(parts) == 1 {
		return ls.String(), nil
	}
	switch parts[1] {
	case "layer":
		if len(parts) == 2 {
			return ls.Layer.String(), nil
		}
	case "anchor":
		if len(parts) == 2 {
			return ls.Anchor.String(), nil
		}
	case "exclusive_zone":
		if len(parts) == 2 {
			return ls.ExclusiveZone.String(), nil
		}
	case "keyboard_interactivity":
		if len(parts) == 2 {
			return ls.KeyboardInteractivity.String(), nil
		}
	case "output":
		if len(parts) == 2 {
			return ls.Output, nil
		}
	case "size":
		if len(parts) == 2 {
			return ls.Size.String(), nil
		}
		if len(parts) == 3 {
			switch parts[2] {
			case "width":
				return ls.Size.Width, nil
			case "height":
				return ls.Size.Height, nil
			}
		}
	case "margin":
		if len(parts) == 2 {
			return ls.Margin.String(), nil
		}
		if len(parts) == 3 {
			switch parts[2] {
			case "top":
				return ls.Margin.Top, nil
			case "right":
				return ls.Margin.Right, nil
			case "bottom":
				return ls.Margin.Bottom, nil
			case "left":
				return ls.Margin.Left, nil
			}
		}
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}
