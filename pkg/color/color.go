// Package color provides the RGBA color type used by clears and 2D layers.
package color

// Color represents an RGBA color with float components (0.0 to 1.0).
type Color struct {
	R, G, B, A float32
}

// Palette shared by the demo host and tests.
var (
	Transparent = Color{0, 0, 0, 0}
	White       = Color{1, 1, 1, 1}
	Black       = Color{0, 0, 0, 1}
	Red         = Color{0.9, 0.16, 0.22, 1}
	Green       = Color{0, 0.89, 0.19, 1}
	Blue        = Color{0, 0.47, 0.95, 1}
	Yellow      = Color{0.99, 0.98, 0, 1}
	LightGray   = Color{0.78, 0.78, 0.78, 1}
	DarkGray    = Color{0.31, 0.31, 0.31, 1}
)

// RGBA creates a color from 8-bit RGBA values (0-255).
func RGBA(r, g, b, a uint8) Color {
	return Color{
		R: float32(r) / 255.0,
		G: float32(g) / 255.0,
		B: float32(b) / 255.0,
		A: float32(a) / 255.0,
	}
}

// FromArray builds a color from a [4]float32, as stored in config files.
func FromArray(v [4]float32) Color {
	return Color{v[0], v[1], v[2], v[3]}
}

// WithAlpha returns a copy of the color with a different alpha value.
func (c Color) WithAlpha(a float32) Color {
	return Color{c.R, c.G, c.B, a}
}

// Array returns the color as a [4]float32 vertex attribute.
func (c Color) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}
