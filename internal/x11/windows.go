package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

const (
	defaultWidth  = 640
	defaultHeight = 480
)

// WMClass is the ICCCM WM_CLASS pair.
type WMClass struct {
	Instance string
	Class    string
}

// CreateWindow creates and maps a top-level window with the given title and
// class. On any failure the window is destroyed again.
func (c *Connection) CreateWindow(title string, class WMClass) (uint32, error) {
	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate window id: %w", err)
	}

	err = win.CreateChecked(c.Root, 0, 0, defaultWidth, defaultHeight,
		xproto.CwBackPixel|xproto.CwEventMask,
		0xffffff, xproto.EventMaskStructureNotify)
	if err != nil {
		return 0, fmt.Errorf("failed to create window: %w", err)
	}

	if err := icccm.WmClassSet(c.XUtil, win.Id, &icccm.WmClass{
		Instance: class.Instance,
		Class:    class.Class,
	}); err != nil {
		win.Destroy()
		return 0, fmt.Errorf("failed to set WM_CLASS: %w", err)
	}
	if title != "" {
		if err := ewmh.WmNameSet(c.XUtil, win.Id, title); err != nil {
			// Not every WM supports EWMH; fall back to the ICCCM name
			if err := icccm.WmNameSet(c.XUtil, win.Id, title); err != nil {
				win.Destroy()
				return 0, fmt.Errorf("failed to set window title: %w", err)
			}
		}
	}

	win.Map()
	return uint32(win.Id), nil
}

// DestroyWindow destroys a window created by CreateWindow.
func (c *Connection) DestroyWindow(id uint32) error {
	return xproto.DestroyWindowChecked(c.XUtil.Conn(), xproto.Window(id)).Check()
}
