package scene

import (
	"fmt"

	"github.com/Faultbox/scenekit/internal/camera"
	"github.com/Faultbox/scenekit/internal/gpu"
	"github.com/Faultbox/scenekit/internal/sprite"
	"github.com/Faultbox/scenekit/pkg/color"
	"github.com/Faultbox/scenekit/pkg/math"
)

// Layer is an exclusive handle on a pooled 2D batch. Draw into it, then
// hand it to Graph.DrawCanvas (or Discard it). Any use after that panics.
type Layer struct {
	graph *Graph
	batch *sprite.Batch
	state camera.RenderState
}

// Layer checks out a batch from the pool. Drawing more layers at once
// than the pool holds panics.
func (g *Graph) Layer(state camera.RenderState) *Layer {
	if len(g.pool) == 0 {
		panic(fmt.Sprintf("scene: layer pool exhausted (%d layers checked out)", g.poolCap))
	}
	batch := g.pool[len(g.pool)-1]
	g.pool = g.pool[:len(g.pool)-1]
	batch.Reset()
	return &Layer{graph: g, batch: batch, state: state}
}

// Available reports how many layers can still be checked out.
func (g *Graph) Available() int {
	return len(g.pool)
}

func (g *Graph) release(b *sprite.Batch) {
	b.Reset()
	g.pool = append(g.pool, b)
}

// take invalidates the handle and returns its batch.
func (l *Layer) take() *sprite.Batch {
	b := l.live()
	l.batch = nil
	return b
}

func (l *Layer) live() *sprite.Batch {
	if l.batch == nil {
		panic("scene: layer used after it was submitted")
	}
	return l.batch
}

// State returns the render state the layer was checked out with.
func (l *Layer) State() camera.RenderState {
	return l.state
}

// Discard returns the layer to the pool without drawing it.
func (l *Layer) Discard() {
	l.graph.release(l.take())
}

// DrawCanvas draws the layer's geometry in one pass and returns its batch
// to the pool. The handle is invalid afterwards.
func (g *Graph) DrawCanvas(l *Layer) {
	if l.graph != g {
		panic("scene: layer belongs to another scene")
	}
	batch := l.take()
	defer g.release(batch)

	proj := g.projection(l.state)
	mat := resolve(l.state, g.spriteMat)

	g.beginPass(l.state, gpu.PassNothing)
	g.pass.pipeline(mat.Pipeline())
	mat.SetUniform(UniformProjection, proj)

	for _, call := range batch.Calls() {
		tex := call.Texture
		if tex == nil {
			tex = g.atlasTex
		}
		g.dev.UpdateBuffer(g.spriteVB, gpu.Bytes(call.Vertices))
		g.dev.UpdateBuffer(g.spriteIB, gpu.Bytes(call.Indices))
		g.pass.bindings(gpu.Bindings{
			VertexBuffers: []gpu.Buffer{g.spriteVB},
			IndexBuffer:   g.spriteIB,
			Images:        []gpu.Texture{tex},
		})
		g.pass.uniforms(mat.UniformBytes())
		g.pass.draw(0, len(call.Indices), 1)
	}
	g.pass.end()
}

// DrawRect draws a filled rectangle.
func (l *Layer) DrawRect(x, y, w, h float32, c color.Color) {
	l.live().DrawRect(x, y, w, h, c)
}

// DrawRectOutline draws the border of a rectangle.
func (l *Layer) DrawRectOutline(x, y, w, h, thickness float32, c color.Color) {
	l.live().DrawRectOutline(x, y, w, h, thickness, c)
}

// DrawLine draws a segment thickness pixels wide.
func (l *Layer) DrawLine(x1, y1, x2, y2, thickness float32, c color.Color) {
	l.live().DrawLine(x1, y1, x2, y2, thickness, c)
}

// DrawTriangle draws a filled triangle.
func (l *Layer) DrawTriangle(p1, p2, p3 math.Vec2, c color.Color) {
	l.live().DrawTriangle(p1, p2, p3, c)
}

// DrawCircle draws a filled circle.
func (l *Layer) DrawCircle(center math.Vec2, radius float32, segments int, c color.Color) {
	l.live().DrawCircle(center, radius, segments, c)
}

// DrawTexture draws tex stretched over a rectangle.
func (l *Layer) DrawTexture(tex gpu.Texture, x, y, w, h float32, c color.Color) {
	l.live().DrawTexture(tex, x, y, w, h, c)
}

// DrawText draws text with its top-left corner at (x, y).
func (l *Layer) DrawText(text string, x, y, scale float32, c color.Color) {
	l.live().DrawText(text, x, y, scale, c)
}

// MeasureText returns the size DrawText would cover.
func (l *Layer) MeasureText(text string, scale float32) (w, h float32) {
	return l.live().MeasureText(text, scale)
}

// Geometry appends raw triangles; see sprite.Batch.Geometry.
func (l *Layer) Geometry(tex gpu.Texture, verts []sprite.Vertex, indices []uint16) {
	l.live().Geometry(tex, verts, indices)
}

// Len returns the number of queued vertices.
func (l *Layer) Len() int {
	return l.live().Len()
}
