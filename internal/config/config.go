package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/1broseidon/shellwin/internal/platform"
	"github.com/1broseidon/shellwin/layershell"
)

const (
	DefaultAppID        = "shellwin"
	DefaultTitle        = "shellwin"
	DefaultLogLevel     = "info"
	DefaultPumpInterval = 16 * time.Millisecond
)

// Config is the effective configuration of the shellwin daemon.
type Config struct {
	Backend      platform.BackendKind `yaml:"backend"`
	AnyThread    bool                 `yaml:"any_thread"`
	PumpInterval time.Duration        `yaml:"pump_interval"`
	Display      string               `yaml:"display,omitempty"`
	LogLevel     string               `yaml:"log_level"`

	AppID    string `yaml:"app_id"`
	Instance string `yaml:"instance,omitempty"`
	Title    string `yaml:"title"`

	// LayerShell is nil when the daemon should open an ordinary toplevel.
	LayerShell *LayerShell `yaml:"layer_shell,omitempty"`
}

// LayerShell is the surface the daemon opens, plus the output to put it on.
type LayerShell struct {
	layershell.Config `yaml:",inline"`
	Output            uint32 `yaml:"output"`
}

func DefaultConfig() *Config {
	return &Config{
		Backend:      platform.BackendAuto,
		PumpInterval: DefaultPumpInterval,
		LogLevel:     DefaultLogLevel,
		AppID:        DefaultAppID,
		Title:        DefaultTitle,
	}
}

// DefaultBarHeight is the height of the default layer_shell surface.
const DefaultBarHeight = 32

// DefaultLayerShell is what a bare `layer_shell: {}` section turns into: a
// top-layer bar stretched along the top edge.
func DefaultLayerShell() *LayerShell {
	cfg := layershell.DefaultConfig(layershell.LayerTop)
	cfg.Anchor = layershell.AnchorTop | layershell.AnchorLeft | layershell.AnchorRight
	cfg.Size = layershell.NewSize(0, DefaultBarHeight)
	return &LayerShell{Config: cfg}
}

func (c *Config) Validate() error {
	switch c.Backend {
	case platform.BackendAuto, platform.BackendWayland, platform.BackendX11:
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: auto, wayland, x11")}
	}
	if c.PumpInterval <= 0 {
		return &ValidationError{Path: "pump_interval", Err: fmt.Errorf("pump_interval must be > 0")}
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return &ValidationError{Path: "log_level", Err: err}
	}
	if strings.TrimSpace(c.AppID) == "" {
		return &ValidationError{Path: "app_id", Err: fmt.Errorf("app_id must not be empty")}
	}
	if c.LayerShell == nil {
		return nil
	}
	if c.Backend == platform.BackendX11 {
		return &ValidationError{Path: "layer_shell", Err: fmt.Errorf("layer_shell requires the wayland backend")}
	}
	if err := c.LayerShell.Config.Validate(); err != nil {
		path := "layer_shell"
		if errors.Is(err, layershell.ErrInvalidSize) {
			path = "layer_shell.size"
		}
		return &ValidationError{Path: path, Err: err}
	}
	return nil
}

// ParseLogLevel maps a log_level value to an slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
}

// SlogLevel returns the configured level. Invalid levels fall back to info.
func (c *Config) SlogLevel() slog.Level {
	level, _ := ParseLogLevel(c.LogLevel)
	return level
}
