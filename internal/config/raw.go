package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/shellwin/internal/platform"
	"github.com/1broseidon/shellwin/layershell"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawMargin struct {
	Top    *int32 `yaml:"top"`
	Right  *int32 `yaml:"right"`
	Bottom *int32 `yaml:"bottom"`
	Left   *int32 `yaml:"left"`
}

type RawSize struct {
	Width  *uint32 `yaml:"width"`
	Height *uint32 `yaml:"height"`
}

type RawLayerShell struct {
	Layer                 *layershell.Layer                 `yaml:"layer"`
	Anchor                *layershell.Anchor                `yaml:"anchor"`
	ExclusiveZone         *layershell.ExclusiveZone         `yaml:"exclusive_zone"`
	Margin                *RawMargin                        `yaml:"margin"`
	Size                  *RawSize                          `yaml:"size"`
	KeyboardInteractivity *layershell.KeyboardInteractivity `yaml:"keyboard_interactivity"`
	Output                *uint32                           `yaml:"output"`
}

type RawConfig struct {
	Include      IncludeList           `yaml:"include"`
	Backend      *platform.BackendKind `yaml:"backend"`
	AnyThread    *bool                 `yaml:"any_thread"`
	PumpInterval *time.Duration        `yaml:"pump_interval"`
	Display      *string               `yaml:"display"`
	LogLevel     *string               `yaml:"log_level"`
	AppID        *string               `yaml:"app_id"`
	Instance     *string               `yaml:"instance"`
	Title        *string               `yaml:"title"`
	LayerShell   *RawLayerShell        `yaml:"layer_shell"`
}

// merge returns r with every field set in other applied on top.
func (r RawConfig) merge(other RawConfig) RawConfig {
	out := r
	out.Include = nil
	if other.Backend != nil {
		out.Backend = other.Backend
	}
	if other.AnyThread != nil {
		out.AnyThread = other.AnyThread
	}
	if other.PumpInterval != nil {
		out.PumpInterval = other.PumpInterval
	}
	if other.Display != nil {
		out.Display = other.Display
	}
	if other.LogLevel != nil {
		out.LogLevel = other.LogLevel
	}
	if other.AppID != nil {
		out.AppID = other.AppID
	}
	if other.Instance != nil {
		out.Instance = other.Instance
	}
	if other.Title != nil {
		out.Title = other.Title
	}
	if other.LayerShell != nil {
		merged := mergeRawLayerShell(out.LayerShell, other.LayerShell)
		out.LayerShell = &merged
	}
	return out
}

func mergeRawLayerShell(base, other *RawLayerShell) RawLayerShell {
	var out RawLayerShell
	if base != nil {
		out = *base
	}
	if other.Layer != nil {
		out.Layer = other.Layer
	}
	if other.Anchor != nil {
		out.Anchor = other.Anchor
	}
	if other.ExclusiveZone != nil {
		out.ExclusiveZone = other.ExclusiveZone
	}
	if other.Margin != nil {
		m := RawMargin{}
		if out.Margin != nil {
			m = *out.Margin
		}
		if other.Margin.Top != nil {
			m.Top = other.Margin.Top
		}
		if other.Margin.Right != nil {
			m.Right = other.Margin.Right
		}
		if other.Margin.Bottom != nil {
			m.Bottom = other.Margin.Bottom
		}
		if other.Margin.Left != nil {
			m.Left = other.Margin.Left
		}
		out.Margin = &m
	}
	if other.Size != nil {
		sz := RawSize{}
		if out.Size != nil {
			sz = *out.Size
		}
		if other.Size.Width != nil {
			sz.Width = other.Size.Width
		}
		if other.Size.Height != nil {
			sz.Height = other.Size.Height
		}
		out.Size = &sz
	}
	if other.KeyboardInteractivity != nil {
		out.KeyboardInteractivity = other.KeyboardInteractivity
	}
	if other.Output != nil {
		out.Output = other.Output
	}
	return out
}
