package layershell

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestLayerOrdinalsMatchProtocol(t *testing.T) {
	tests := []struct {
		layer Layer
		wire  uint32
		name  string
	}{
		{LayerBackground, 0, "background"},
		{LayerBottom, 1, "bottom"},
		{LayerTop, 2, "top"},
		{LayerOverlay, 3, "overlay"},
	}
	for _, tt := range tests {
		if uint32(tt.layer) != tt.wire {
			t.Errorf("%s = %d, want %d", tt.name, uint32(tt.layer), tt.wire)
		}
		if tt.layer.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.layer.String(), tt.name)
		}
		parsed, err := ParseLayer(tt.name)
		if err != nil || parsed != tt.layer {
			t.Errorf("ParseLayer(%q) = %v, %v", tt.name, parsed, err)
		}
	}
	if DefaultLayer != LayerBottom {
		t.Fatalf("DefaultLayer = %s, want bottom", DefaultLayer)
	}
	if _, err := ParseLayer("sideways"); err == nil {
		t.Fatal("expected error for unknown layer")
	}
}

func TestAnchorBitsAreIndependent(t *testing.T) {
	a := AnchorNone.With(AnchorTop | AnchorLeft)
	if a != AnchorTop|AnchorLeft {
		t.Fatalf("got %s, want top|left", a)
	}
	a = a.With(AnchorBottom)
	if a != AnchorTop|AnchorLeft|AnchorBottom {
		t.Fatalf("got %s, want top|bottom|left", a)
	}
	if a.Has(AnchorRight) {
		t.Fatal("right should not be set")
	}
	a = a.Without(AnchorTop)
	if a != AnchorLeft|AnchorBottom {
		t.Fatalf("got %s, want bottom|left", a)
	}
}

func TestAnchorProtocolBits(t *testing.T) {
	if AnchorTop != 1 || AnchorBottom != 2 || AnchorLeft != 4 || AnchorRight != 8 {
		t.Fatalf("anchor bits do not match protocol: %d %d %d %d", AnchorTop, AnchorBottom, AnchorLeft, AnchorRight)
	}
}

func TestParseAnchor(t *testing.T) {
	tests := []struct {
		in   string
		want Anchor
		err  bool
	}{
		{"", AnchorNone, false},
		{"none", AnchorNone, false},
		{"top", AnchorTop, false},
		{"top|left", AnchorTop | AnchorLeft, false},
		{"Top, Right", AnchorTop | AnchorRight, false},
		{"top bottom left right", anchorAll, false},
		{"middle", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseAnchor(tt.in)
		if tt.err {
			if err == nil {
				t.Errorf("ParseAnchor(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAnchor(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAnchor(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestExclusiveZoneRawMapping(t *testing.T) {
	tests := []struct {
		name string
		zone ExclusiveZone
		raw  int32
	}{
		{"none", ExclusiveZoneNone, 0},
		{"ignore", ExclusiveZoneIgnoreOthers, -1},
		{"pixels", ExclusiveZonePixels(32), 32},
		{"zero pixels", ExclusiveZonePixels(0), 0},
		{"negative pixels", ExclusiveZonePixels(-5), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.zone.Raw(); got != tt.raw {
				t.Fatalf("Raw() = %d, want %d", got, tt.raw)
			}
			if back := ExclusiveZoneFromRaw(tt.raw); back.Raw() != tt.raw {
				t.Fatalf("FromRaw(%d).Raw() = %d", tt.raw, back.Raw())
			}
		})
	}

	var zero ExclusiveZone
	if !zero.IsNone() {
		t.Fatal("zero value should be None")
	}
	if px, ok := ExclusiveZonePixels(12).Pixels(); !ok || px != 12 {
		t.Fatalf("Pixels() = %d, %v", px, ok)
	}
	if ExclusiveZoneFromRaw(-7) != ExclusiveZoneNone {
		t.Fatal("negative raw values other than -1 should map to None")
	}
}

func TestParseExclusiveZone(t *testing.T) {
	tests := []struct {
		in   string
		want ExclusiveZone
		err  bool
	}{
		{"none", ExclusiveZoneNone, false},
		{"ignore", ExclusiveZoneIgnoreOthers, false},
		{"ignore-others", ExclusiveZoneIgnoreOthers, false},
		{"24", ExclusiveZonePixels(24), false},
		{"-3", ExclusiveZone{}, true},
		{"wide", ExclusiveZone{}, true},
	}
	for _, tt := range tests {
		got, err := ParseExclusiveZone(tt.in)
		if tt.err != (err != nil) {
			t.Errorf("ParseExclusiveZone(%q) error = %v, want error %v", tt.in, err, tt.err)
			continue
		}
		if !tt.err && got != tt.want {
			t.Errorf("ParseExclusiveZone(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestKeyboardInteractivityEffective(t *testing.T) {
	tests := []struct {
		mode  KeyboardInteractivity
		layer Layer
		want  KeyboardInteractivity
	}{
		{KeyboardExclusive, LayerBackground, KeyboardOnDemand},
		{KeyboardExclusive, LayerBottom, KeyboardOnDemand},
		{KeyboardExclusive, LayerTop, KeyboardExclusive},
		{KeyboardExclusive, LayerOverlay, KeyboardExclusive},
		{KeyboardNone, LayerBackground, KeyboardNone},
		{KeyboardOnDemand, LayerOverlay, KeyboardOnDemand},
	}
	for _, tt := range tests {
		if got := tt.mode.Effective(tt.layer); got != tt.want {
			t.Errorf("%s on %s = %s, want %s", tt.mode, tt.layer, got, tt.want)
		}
	}
	for _, in := range []string{"on_demand", "on-demand", "OnDemand"} {
		if k, err := ParseKeyboardInteractivity(in); err != nil || k != KeyboardOnDemand {
			t.Errorf("ParseKeyboardInteractivity(%q) = %v, %v", in, k, err)
		}
	}
}

func TestConfigJSON(t *testing.T) {
	cfg := Config{
		Layer:                 LayerTop,
		Anchor:                AnchorTop | AnchorLeft | AnchorRight,
		ExclusiveZone:         ExclusiveZonePixels(30),
		Margin:                NewMargin(1, 2, 3, 4),
		Size:                  NewSize(0, 30),
		KeyboardInteractivity: KeyboardOnDemand,
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"layer":"top","anchor":"top|left|right","exclusive_zone":"30","margin":{"top":1,"right":2,"bottom":3,"left":4},"size":{"width":0,"height":30},"keyboard_interactivity":"on_demand"}`
	if string(data) != want {
		t.Fatalf("json = %s\nwant  %s", data, want)
	}

	var back Config
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != cfg {
		t.Fatalf("decoded %s, want %s", back, cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig(LayerOverlay).Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := Config{Layer: Layer(9)}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected invalid layer error")
	}
	bad = Config{Anchor: Anchor(0x10), Size: NewSize(10, 10)}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected invalid anchor error")
	}
}

func TestSizeNeedsOppositeAnchors(t *testing.T) {
	tests := []struct {
		size   Size
		anchor Anchor
		ok     bool
	}{
		{NewSize(100, 30), AnchorNone, true},
		{NewSize(0, 30), AnchorTop | AnchorLeft | AnchorRight, true},
		{NewSize(0, 30), AnchorTop | AnchorLeft, false},
		{NewSize(40, 0), AnchorTop | AnchorBottom | AnchorLeft, true},
		{NewSize(40, 0), AnchorLeft, false},
		{NewSize(0, 0), AnchorTop | AnchorBottom | AnchorLeft | AnchorRight, true},
		{NewSize(0, 0), AnchorNone, false},
	}
	for _, tt := range tests {
		cfg := DefaultConfig(LayerTop)
		cfg.Anchor = tt.anchor
		cfg.Size = tt.size
		err := cfg.Validate()
		if tt.ok && err != nil {
			t.Errorf("size %s anchor %s: unexpected error %v", tt.size, tt.anchor, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidSize) {
			t.Errorf("size %s anchor %s: error = %v, want ErrInvalidSize", tt.size, tt.anchor, err)
		}
	}
}
