package sprite

import (
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	atlasColumns = 16
	firstGlyph   = ' '
	lastGlyph    = '~'
	fallbackRune = '?'
)

// Atlas is an RGBA glyph sheet rasterized from basicfont.Face7x13. Cell 0
// is solid white so untextured geometry can sample it and share a draw
// call with text.
type Atlas struct {
	Width, Height int
	// Pixels holds Width*Height tightly packed RGBA8 texels.
	Pixels []byte

	cellW, cellH int
	advance      int
}

// NewAtlas rasterizes the printable ASCII range.
func NewAtlas() *Atlas {
	face := basicfont.Face7x13
	cells := int(lastGlyph-firstGlyph) + 2
	rows := (cells + atlasColumns - 1) / atlasColumns

	a := &Atlas{
		cellW:   face.Advance,
		cellH:   face.Height,
		advance: face.Advance,
	}
	a.Width = a.cellW * atlasColumns
	a.Height = a.cellH * rows

	img := image.NewRGBA(image.Rect(0, 0, a.Width, a.Height))
	draw.Draw(img, image.Rect(0, 0, a.cellW, a.cellH), image.White, image.Point{}, draw.Src)

	d := font.Drawer{Dst: img, Src: image.White, Face: face}
	for r := rune(firstGlyph); r <= lastGlyph; r++ {
		x, y := a.cellOrigin(a.cell(r))
		d.Dot = fixed.P(x, y+face.Ascent)
		d.DrawString(string(r))
	}

	a.Pixels = img.Pix
	return a
}

func (a *Atlas) cell(r rune) int {
	if r < firstGlyph || r > lastGlyph {
		r = fallbackRune
	}
	return 1 + int(r-firstGlyph)
}

func (a *Atlas) cellOrigin(cell int) (x, y int) {
	return (cell % atlasColumns) * a.cellW, (cell / atlasColumns) * a.cellH
}

// GlyphSize returns the unscaled cell size of one glyph in pixels.
func (a *Atlas) GlyphSize() (w, h int) {
	return a.advance, a.cellH
}

// GlyphUV returns the texture rectangle of r. Runes outside printable ASCII
// render as '?'.
func (a *Atlas) GlyphUV(r rune) (u0, v0, u1, v1 float32) {
	return a.cellUV(a.cell(r))
}

// WhiteUV returns a texture coordinate inside the solid white cell.
func (a *Atlas) WhiteUV() (u, v float32) {
	u0, v0, u1, v1 := a.cellUV(0)
	return (u0 + u1) / 2, (v0 + v1) / 2
}

func (a *Atlas) cellUV(cell int) (u0, v0, u1, v1 float32) {
	x, y := a.cellOrigin(cell)
	w, h := float32(a.Width), float32(a.Height)
	return float32(x) / w, float32(y) / h, float32(x+a.cellW) / w, float32(y+a.cellH) / h
}

// MeasureText returns the size of text drawn at scale. Lines are split on
// '\n'.
func (a *Atlas) MeasureText(text string, scale float32) (w, h float32) {
	if text == "" {
		return 0, 0
	}
	lines, widest, cur := 1, 0, 0
	for _, r := range text {
		if r == '\n' {
			lines++
			cur = 0
			continue
		}
		cur++
		widest = max(widest, cur)
	}
	return float32(widest*a.advance) * scale, float32(lines*a.cellH) * scale
}
