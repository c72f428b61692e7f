package layershell

import "fmt"

// Config is the full set of properties a layer surface is created with.
// Once a window has been created from it, only the individual runtime
// setters change the live surface.
type Config struct {
	Layer                 Layer                 `json:"layer" yaml:"layer"`
	Anchor                Anchor                `json:"anchor" yaml:"anchor"`
	ExclusiveZone         ExclusiveZone         `json:"exclusive_zone" yaml:"exclusive_zone"`
	Margin                Margin                `json:"margin" yaml:"margin"`
	Size                  Size                  `json:"size" yaml:"size"`
	KeyboardInteractivity KeyboardInteractivity `json:"keyboard_interactivity" yaml:"keyboard_interactivity"`
}

// DefaultConfig returns an unanchored DefaultWidth x DefaultHeight surface on
// layer with no exclusive zone, zero margins and no keyboard interactivity.
func DefaultConfig(layer Layer) Config {
	return Config{Layer: layer, Size: NewSize(DefaultWidth, DefaultHeight)}
}

// Validate rejects values outside the protocol enumerations.
func (c Config) Validate() error {
	if !c.Layer.Valid() {
		return fmt.Errorf("layer: %d is not a valid layer", uint32(c.Layer))
	}
	if !c.Anchor.Valid() {
		return fmt.Errorf("anchor: 0x%x has unknown edge bits", uint32(c.Anchor))
	}
	if !c.KeyboardInteractivity.Valid() {
		return fmt.Errorf("keyboard_interactivity: %d is not a valid mode", uint32(c.KeyboardInteractivity))
	}
	if err := c.Size.CheckAnchor(c.Anchor); err != nil {
		return fmt.Errorf("size: %w", err)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("layer=%s anchor=%s exclusive_zone=%s margin=%s size=%s keyboard=%s",
		c.Layer, c.Anchor, c.ExclusiveZone, c.Margin, c.Size, c.KeyboardInteractivity)
}
