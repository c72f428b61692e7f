// Package shellwin creates native windows on Wayland or X11 and, on Wayland
// compositors that implement wlr-layer-shell, turns them into layer surfaces:
// panels, docks, overlays and wallpapers.
//
// An EventLoop owns one native connection and is driven by exactly one
// goroutine, locked to its OS thread. Window methods may be called from any
// goroutine; they are queued for the owning thread and run there in the
// order they were made. On the owning thread they run before returning.
//
// Layer-shell operations only apply to Wayland layer surfaces. On any other
// window they do nothing and log a warning.
package shellwin
