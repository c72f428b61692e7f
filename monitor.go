package shellwin

import "github.com/1broseidon/shellwin/internal/platform"

// Rect is a region in screen coordinates.
type Rect = platform.Rect

// MonitorHandle identifies a physical display.
type MonitorHandle struct {
	desc    platform.Monitor
	backend BackendKind
}

// NativeID returns the backend's identifier for the monitor: the wl_output
// registry name on Wayland, the RandR output on X11. It is stable for the
// monitor's lifetime within one display server session.
func (m MonitorHandle) NativeID() uint32 { return m.desc.NativeID }

func (m MonitorHandle) Name() string { return m.desc.Name }

func (m MonitorHandle) Bounds() Rect { return m.desc.Bounds }

func (m MonitorHandle) Backend() BackendKind { return m.backend }

func (m MonitorHandle) String() string { return m.desc.Name }
