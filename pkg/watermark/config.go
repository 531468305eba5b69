package watermark

import (
	"image"
	"image/color"
)

const (
	DefaultFontSize = 36
	// Margin is the padding in pixels between the auto anchor and the
	// right/bottom image edges.
	Margin = 20
)

// DefaultColor is semi-transparent white.
var DefaultColor = Color{R: 255, G: 255, B: 255, A: 128}

// Color is an RGBA quad as entered by the user. Channels are not range
// checked; NRGBA saturates them.
type Color struct {
	R, G, B, A int
}

// NRGBA converts c, clamping each channel to 0..255.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(clampInt(c.R, 0, 255)),
		G: uint8(clampInt(c.G, 0, 255)),
		B: uint8(clampInt(c.B, 0, 255)),
		A: uint8(clampInt(c.A, 0, 255)),
	}
}

// Config describes how the watermark text is drawn.
type Config struct {
	FontSize int
	Color    Color
	// Position is the explicit baseline origin. Nil selects the bottom-right
	// anchor.
	Position *image.Point
}

// DefaultConfig is the fixed configuration used when nothing is customised.
func DefaultConfig() Config {
	return Config{FontSize: DefaultFontSize, Color: DefaultColor}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
