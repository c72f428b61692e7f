package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Backend != nil {
		cfg.Backend = *raw.Backend
	}
	if raw.AnyThread != nil {
		cfg.AnyThread = *raw.AnyThread
	}
	if raw.PumpInterval != nil {
		cfg.PumpInterval = *raw.PumpInterval
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.AppID != nil {
		cfg.AppID = *raw.AppID
	}
	if raw.Instance != nil {
		cfg.Instance = *raw.Instance
	}
	if raw.Title != nil {
		cfg.Title = *raw.Title
	}

	if raw.LayerShell != nil {
		ls := DefaultLayerShell()
		r := raw.LayerShell
		if r.Layer != nil {
			ls.Layer = *r.Layer
		}
		if r.Anchor != nil {
			ls.Anchor = *r.Anchor
		}
		if r.ExclusiveZone != nil {
			ls.ExclusiveZone = *r.ExclusiveZone
		}
		if r.Margin != nil {
			if r.Margin.Top != nil {
				ls.Margin.Top = *r.Margin.Top
			}
			if r.Margin.Right != nil {
				ls.Margin.Right = *r.Margin.Right
			}
			if r.Margin.Bottom != nil {
				ls.Margin.Bottom = *r.Margin.Bottom
			}
			if r.Margin.Left != nil {
				ls.Margin.Left = *r.Margin.Left
			}
		}
		if r.Size != nil {
			if r.Size.Width != nil {
				ls.Size.Width = *r.Size.Width
			}
			if r.Size.Height != nil {
				ls.Size.Height = *r.Size.Height
			}
		}
		if r.KeyboardInteractivity != nil {
			ls.KeyboardInteractivity = *r.KeyboardInteractivity
		}
		if r.Output != nil {
			ls.Output = *r.Output
		}
		cfg.LayerShell = ls
	}

	return cfg, nil
}
