// Package sprite accumulates immediate-mode 2D geometry into textured
// draw calls.
//
// A Batch is pure CPU state: drawing only appends vertices. The scene
// flushes the calls through a stream buffer when a layer is submitted.
package sprite

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/scenekit/internal/gpu"
	"github.com/Faultbox/scenekit/pkg/color"
	"github.com/Faultbox/scenekit/pkg/math"
)

// Per-call capacity. A call is split when the next primitive would not fit.
const (
	MaxVertices = 10000
	MaxIndices  = 5000
)

// Vertex is one sprite vertex: position, texture coordinate and color.
type Vertex struct {
	Pos   [3]float32
	UV    [2]float32
	Color [4]float32
}

// VertexSize is the size of a Vertex in bytes.
const VertexSize = 9 * 4

// Attributes is the interleaved vertex layout of a Vertex buffer.
func Attributes() []gpu.VertexAttribute {
	return []gpu.VertexAttribute{
		{Name: "in_position", Format: gpu.Float3, Offset: 0},
		{Name: "in_uv", Format: gpu.Float2, Offset: 3 * 4},
		{Name: "in_color", Format: gpu.Float4, Offset: 5 * 4},
	}
}

// DrawCall is a run of triangles sharing one texture. A nil Texture means
// the glyph atlas.
type DrawCall struct {
	Texture  gpu.Texture
	Vertices []Vertex
	Indices  []uint16
}

// Batch collects draw calls for one layer.
type Batch struct {
	atlas *Atlas
	calls []DrawCall
	used  int
}

// New returns an empty batch that draws text and solid shapes from atlas.
func New(atlas *Atlas) *Batch {
	return &Batch{atlas: atlas}
}

// Atlas returns the glyph atlas the batch samples.
func (b *Batch) Atlas() *Atlas {
	return b.atlas
}

// Calls returns the queued draw calls in submission order.
func (b *Batch) Calls() []DrawCall {
	return b.calls[:b.used]
}

// Len returns the number of queued vertices.
func (b *Batch) Len() int {
	n := 0
	for _, c := range b.Calls() {
		n += len(c.Vertices)
	}
	return n
}

// Reset drops all queued geometry, keeping allocated storage.
func (b *Batch) Reset() {
	for i := range b.calls[:b.used] {
		b.calls[i].Texture = nil
		b.calls[i].Vertices = b.calls[i].Vertices[:0]
		b.calls[i].Indices = b.calls[i].Indices[:0]
	}
	b.used = 0
}

// Geometry appends raw triangles. Indices are relative to verts.
func (b *Batch) Geometry(tex gpu.Texture, verts []Vertex, indices []uint16) {
	if len(verts) > MaxVertices || len(indices) > MaxIndices {
		panic(fmt.Sprintf("sprite: geometry of %d vertices, %d indices exceeds call capacity", len(verts), len(indices)))
	}

	call := b.target(tex, len(verts), len(indices))
	base := uint16(len(call.Vertices))
	call.Vertices = append(call.Vertices, verts...)
	for _, ix := range indices {
		call.Indices = append(call.Indices, base+ix)
	}
}

func (b *Batch) target(tex gpu.Texture, nv, ni int) *DrawCall {
	if b.used > 0 {
		last := &b.calls[b.used-1]
		if last.Texture == tex &&
			len(last.Vertices)+nv <= MaxVertices &&
			len(last.Indices)+ni <= MaxIndices {
			return last
		}
	}
	if b.used == len(b.calls) {
		b.calls = append(b.calls, DrawCall{})
	}
	b.used++
	call := &b.calls[b.used-1]
	call.Texture = tex
	return call
}

var quadIndices = []uint16{0, 1, 2, 0, 2, 3}

func (b *Batch) quad(tex gpu.Texture, p [4]math.Vec2, u0, v0, u1, v1 float32, c color.Color) {
	col := c.Array()
	b.Geometry(tex, []Vertex{
		{Pos: [3]float32{p[0].X, p[0].Y, 0}, UV: [2]float32{u0, v0}, Color: col},
		{Pos: [3]float32{p[1].X, p[1].Y, 0}, UV: [2]float32{u1, v0}, Color: col},
		{Pos: [3]float32{p[2].X, p[2].Y, 0}, UV: [2]float32{u1, v1}, Color: col},
		{Pos: [3]float32{p[3].X, p[3].Y, 0}, UV: [2]float32{u0, v1}, Color: col},
	}, quadIndices)
}

func rect(x, y, w, h float32) [4]math.Vec2 {
	return [4]math.Vec2{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
}

func (b *Batch) solid(p [4]math.Vec2, c color.Color) {
	u, v := b.atlas.WhiteUV()
	b.quad(nil, p, u, v, u, v, c)
}

// DrawRect draws a filled rectangle.
func (b *Batch) DrawRect(x, y, w, h float32, c color.Color) {
	b.solid(rect(x, y, w, h), c)
}

// DrawRectOutline draws the border of a rectangle, thickness pixels wide,
// inside its bounds.
func (b *Batch) DrawRectOutline(x, y, w, h, thickness float32, c color.Color) {
	b.DrawRect(x, y, w, thickness, c)
	b.DrawRect(x, y+h-thickness, w, thickness, c)
	b.DrawRect(x, y+thickness, thickness, h-thickness*2, c)
	b.DrawRect(x+w-thickness, y+thickness, thickness, h-thickness*2, c)
}

// DrawLine draws a segment from (x1, y1) to (x2, y2). Zero-length lines
// draw nothing.
func (b *Batch) DrawLine(x1, y1, x2, y2, thickness float32, c color.Color) {
	from, to := math.V2(x1, y1), math.V2(x2, y2)
	dir := to.Sub(from)
	if dir.Length() == 0 {
		return
	}
	n := math.V2(-dir.Y, dir.X).Normalize().Scale(thickness / 2)
	b.solid([4]math.Vec2{from.Add(n), to.Add(n), to.Sub(n), from.Sub(n)}, c)
}

// DrawTriangle draws a filled triangle.
func (b *Batch) DrawTriangle(p1, p2, p3 math.Vec2, c color.Color) {
	u, v := b.atlas.WhiteUV()
	col := c.Array()
	vert := func(p math.Vec2) Vertex {
		return Vertex{Pos: [3]float32{p.X, p.Y, 0}, UV: [2]float32{u, v}, Color: col}
	}
	b.Geometry(nil, []Vertex{vert(p1), vert(p2), vert(p3)}, quadIndices[:3])
}

// DrawCircle approximates a filled circle with segments triangles.
func (b *Batch) DrawCircle(center math.Vec2, radius float32, segments int, c color.Color) {
	segments = max(segments, 3)
	step := 2 * math32.Pi / float32(segments)
	prev := center.Add(math.V2(radius, 0))
	for i := 1; i <= segments; i++ {
		s, co := math32.Sincos(step * float32(i))
		next := center.Add(math.V2(co*radius, s*radius))
		b.DrawTriangle(center, prev, next, c)
		prev = next
	}
}

// DrawTexture draws tex stretched over the rectangle, tinted by c.
func (b *Batch) DrawTexture(tex gpu.Texture, x, y, w, h float32, c color.Color) {
	if tex == nil {
		panic("sprite: DrawTexture with nil texture")
	}
	b.quad(tex, rect(x, y, w, h), 0, 0, 1, 1, c)
}

// DrawText draws text with its top-left corner at (x, y).
func (b *Batch) DrawText(text string, x, y, scale float32, c color.Color) {
	gw, gh := b.atlas.GlyphSize()
	charW := float32(gw) * scale
	charH := float32(gh) * scale

	curX := x
	for _, r := range text {
		if r == '\n' {
			curX = x
			y += charH
			continue
		}
		if r != ' ' {
			u0, v0, u1, v1 := b.atlas.GlyphUV(r)
			b.quad(nil, rect(curX, y, charW, charH), u0, v0, u1, v1, c)
		}
		curX += charW
	}
}

// MeasureText returns the size DrawText would cover.
func (b *Batch) MeasureText(text string, scale float32) (w, h float32) {
	return b.atlas.MeasureText(text, scale)
}
