package x11

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/1broseidon/shellwin/internal/platform"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil  *xgbutil.XUtil
	Root   xproto.Window
	logger *slog.Logger
}

var _ Display = (*Connection)(nil)

// NewConnection connects to display, or to $DISPLAY when display is empty.
func NewConnection(display string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("%w: x11: %v", platform.ErrBackendUnavailable, err)
	}
	// EWMH and RandR extensions are initialized lazily by their helpers
	return &Connection{
		XUtil:  xu,
		Root:   xu.RootWin(),
		logger: logger,
	}, nil
}

// Poll handles the events queued on the connection without blocking.
func (c *Connection) Poll() error {
	for {
		ev, xerr := c.XUtil.Conn().PollForEvent()
		if ev == nil && xerr == nil {
			return nil
		}
		if xerr != nil {
			c.logger.Warn("x11 error", "error", xerr.Error())
			continue
		}
		c.handleEvent(ev)
	}
}

func (c *Connection) handleEvent(ev xgb.Event) {
	switch e := ev.(type) {
	case xproto.DestroyNotifyEvent:
		c.logger.Debug("x11 window destroyed", "window", uint32(e.Window))
	case xproto.ConfigureNotifyEvent:
		c.logger.Debug("x11 window configured", "window", uint32(e.Window),
			"width", e.Width, "height", e.Height)
	default:
		c.logger.Debug("x11 event", "event", ev.String())
	}
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() error {
	c.XUtil.Conn().Close()
	return nil
}
