// Package layershell describes the properties of a wlr layer-shell surface:
// the layer it is stacked on, the edges it is anchored to, the exclusive zone
// it reserves, its margins and how it takes keyboard focus.
//
// The numeric values of Layer, Anchor and KeyboardInteractivity match the
// zwlr_layer_shell_v1 / zwlr_layer_surface_v1 protocol enumerations, so they
// can be put on the wire unchanged.
package layershell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Layer is the stacking layer of a layer surface.
type Layer uint32

const (
	// LayerBackground renders below everything, like a wallpaper.
	LayerBackground Layer = iota
	// LayerBottom renders behind traditional windows.
	LayerBottom
	// LayerTop renders above traditional windows.
	LayerTop
	// LayerOverlay renders above everything, including fullscreen windows.
	LayerOverlay
)

// DefaultLayer is used when a surface does not name a layer.
const DefaultLayer = LayerBottom

var layerNames = [...]string{"background", "bottom", "top", "overlay"}

func (l Layer) Valid() bool {
	return l <= LayerOverlay
}

func (l Layer) String() string {
	if !l.Valid() {
		return fmt.Sprintf("layer(%d)", uint32(l))
	}
	return layerNames[l]
}

// MarshalText implements encoding.TextMarshaler.
func (l Layer) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid layer %d", uint32(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Layer) UnmarshalText(text []byte) error {
	parsed, err := ParseLayer(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLayer parses a layer name (case-insensitive).
func ParseLayer(s string) (Layer, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range layerNames {
		if n == name {
			return Layer(i), nil
		}
	}
	return 0, fmt.Errorf("unknown layer %q (want one of %s)", s, strings.Join(layerNames[:], ", "))
}

// Anchor is a set of surface edges. Edges combine independently.
type Anchor uint32

const (
	AnchorTop Anchor = 1 << iota
	AnchorBottom
	AnchorLeft
	AnchorRight
)

// AnchorNone leaves the surface centered on its output.
const AnchorNone Anchor = 0

const anchorAll = AnchorTop | AnchorBottom | AnchorLeft | AnchorRight

var anchorNames = []struct {
	bit  Anchor
	name string
}{
	{AnchorTop, "top"},
	{AnchorBottom, "bottom"},
	{AnchorLeft, "left"},
	{AnchorRight, "right"},
}

func (a Anchor) Valid() bool {
	return a&^anchorAll == 0
}

// Has reports whether every edge in edges is set in a.
func (a Anchor) Has(edges Anchor) bool {
	return a&edges == edges
}

// With returns a with the given edges added.
func (a Anchor) With(edges Anchor) Anchor {
	return a | edges
}

// Without returns a with the given edges removed.
func (a Anchor) Without(edges Anchor) Anchor {
	return a &^ edges
}

func (a Anchor) String() string {
	if a == AnchorNone {
		return "none"
	}
	var parts []string
	for _, e := range anchorNames {
		if a&e.bit != 0 {
			parts = append(parts, e.name)
		}
	}
	if rest := a &^ anchorAll; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// MarshalText implements encoding.TextMarshaler.
func (a Anchor) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid anchor 0x%x", uint32(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Anchor) UnmarshalText(text []byte) error {
	parsed, err := ParseAnchor(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAnchor parses edges separated by '|', ',' or whitespace, e.g. "top|left".
// An empty string or "none" yields AnchorNone.
func ParseAnchor(s string) (Anchor, error) {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '|' || r == ',' || r == ' ' || r == '\t'
	})
	var out Anchor
	for _, f := range fields {
		if f == "none" {
			continue
		}
		found := false
		for _, e := range anchorNames {
			if e.name == f {
				out |= e.bit
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown anchor edge %q (want top, bottom, left, right)", f)
		}
	}
	return out, nil
}

type zoneKind uint8

const (
	zoneNone zoneKind = iota
	zoneIgnoreOthers
	zonePixels
)

// ExclusiveZone is the screen space a surface reserves. The zero value is
// ExclusiveZoneNone.
type ExclusiveZone struct {
	kind   zoneKind
	pixels int32
}

var (
	// ExclusiveZoneNone lets the compositor move the surface out of other
	// surfaces' zones, like a notification.
	ExclusiveZoneNone = ExclusiveZone{}
	// ExclusiveZoneIgnoreOthers makes the surface ignore other exclusive
	// zones, like a wallpaper or lock screen.
	ExclusiveZoneIgnoreOthers = ExclusiveZone{kind: zoneIgnoreOthers}
)

// ExclusiveZonePixels reserves px pixels from the anchored edge. Values <= 0
// yield ExclusiveZoneNone.
func ExclusiveZonePixels(px int32) ExclusiveZone {
	if px <= 0 {
		return ExclusiveZoneNone
	}
	return ExclusiveZone{kind: zonePixels, pixels: px}
}

// ExclusiveZoneFromRaw maps a protocol value back to an ExclusiveZone:
// -1 is IgnoreOthers, positive values are pixels, everything else is None.
func ExclusiveZoneFromRaw(v int32) ExclusiveZone {
	if v == -1 {
		return ExclusiveZoneIgnoreOthers
	}
	return ExclusiveZonePixels(v)
}

// Raw returns the value sent with zwlr_layer_surface_v1.set_exclusive_zone.
func (z ExclusiveZone) Raw() int32 {
	switch z.kind {
	case zoneIgnoreOthers:
		return -1
	case zonePixels:
		return z.pixels
	default:
		return 0
	}
}

func (z ExclusiveZone) IsNone() bool         { return z.kind == zoneNone }
func (z ExclusiveZone) IsIgnoreOthers() bool { return z.kind == zoneIgnoreOthers }

// Pixels returns the reserved size and true when z is a positive zone.
func (z ExclusiveZone) Pixels() (int32, bool) {
	return z.pixels, z.kind == zonePixels
}

func (z ExclusiveZone) String() string {
	switch z.kind {
	case zoneIgnoreOthers:
		return "ignore"
	case zonePixels:
		return strconv.FormatInt(int64(z.pixels), 10)
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (z ExclusiveZone) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts "none",
// "ignore", "ignore-others" or a pixel count.
func (z *ExclusiveZone) UnmarshalText(text []byte) error {
	parsed, err := ParseExclusiveZone(string(text))
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}

func ParseExclusiveZone(s string) (ExclusiveZone, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "none":
		return ExclusiveZoneNone, nil
	case "ignore", "ignore-others", "ignore_others":
		return ExclusiveZoneIgnoreOthers, nil
	default:
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return ExclusiveZone{}, fmt.Errorf("invalid exclusive zone %q: want none, ignore or a pixel count", s)
		}
		if n < 0 {
			return ExclusiveZone{}, fmt.Errorf("invalid exclusive zone %q: pixel count must not be negative", s)
		}
		return ExclusiveZonePixels(int32(n)), nil
	}
}

// Margin is the distance kept from each anchored edge, in the protocol's
// top, right, bottom, left order.
type Margin struct {
	Top    int32 `json:"top" yaml:"top"`
	Right  int32 `json:"right" yaml:"right"`
	Bottom int32 `json:"bottom" yaml:"bottom"`
	Left   int32 `json:"left" yaml:"left"`
}

func NewMargin(top, right, bottom, left int32) Margin {
	return Margin{Top: top, Right: right, Bottom: bottom, Left: left}
}

func (m Margin) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", m.Top, m.Right, m.Bottom, m.Left)
}

// Size is the requested surface size in pixels. Zero on an axis asks the
// compositor to stretch the surface between the opposite anchors of that
// axis, so it is only valid when both are anchored.
type Size struct {
	Width  uint32 `json:"width" yaml:"width"`
	Height uint32 `json:"height" yaml:"height"`
}

// Size of a surface created without an explicit size.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// ErrInvalidSize is returned for a zero dimension whose axis is not anchored
// on both sides. Compositors answer such a commit with invalid_size.
var ErrInvalidSize = errors.New("zero size requires anchoring to both opposite edges")

func NewSize(width, height uint32) Size {
	return Size{Width: width, Height: height}
}

// CheckAnchor reports whether s can be committed with anchor a.
func (s Size) CheckAnchor(a Anchor) error {
	if s.Width == 0 && !a.Has(AnchorLeft|AnchorRight) {
		return fmt.Errorf("width 0 with anchor %s: %w", a, ErrInvalidSize)
	}
	if s.Height == 0 && !a.Has(AnchorTop|AnchorBottom) {
		return fmt.Errorf("height 0 with anchor %s: %w", a, ErrInvalidSize)
	}
	return nil
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// KeyboardInteractivity controls how a layer surface receives keyboard focus.
type KeyboardInteractivity uint32

const (
	// KeyboardNone never gives the surface keyboard focus.
	KeyboardNone KeyboardInteractivity = iota
	// KeyboardExclusive grabs the keyboard while the surface is mapped. On the
	// background and bottom layers compositors treat it as KeyboardOnDemand.
	KeyboardExclusive
	// KeyboardOnDemand gives the surface focus like a regular window.
	KeyboardOnDemand
)

var keyboardNames = [...]string{"none", "exclusive", "on_demand"}

func (k KeyboardInteractivity) Valid() bool {
	return k <= KeyboardOnDemand
}

func (k KeyboardInteractivity) String() string {
	if !k.Valid() {
		return fmt.Sprintf("keyboard_interactivity(%d)", uint32(k))
	}
	return keyboardNames[k]
}

// Effective returns the mode a compositor applies on the given layer.
func (k KeyboardInteractivity) Effective(layer Layer) KeyboardInteractivity {
	if k == KeyboardExclusive && (layer == LayerBackground || layer == LayerBottom) {
		return KeyboardOnDemand
	}
	return k
}

// MarshalText implements encoding.TextMarshaler.
func (k KeyboardInteractivity) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid keyboard interactivity %d", uint32(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *KeyboardInteractivity) UnmarshalText(text []byte) error {
	parsed, err := ParseKeyboardInteractivity(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func ParseKeyboardInteractivity(s string) (KeyboardInteractivity, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if name == "ondemand" {
		name = "on_demand"
	}
	for i, n := range keyboardNames {
		if n == name {
			return KeyboardInteractivity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown keyboard interactivity %q (want none, exclusive, on_demand)", s)
}
