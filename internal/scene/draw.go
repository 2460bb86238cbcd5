package scene

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/scenekit/internal/camera"
	"github.com/Faultbox/scenekit/internal/gpu"
	"github.com/Faultbox/scenekit/internal/material"
	"github.com/Faultbox/scenekit/internal/mesh"
	"github.com/Faultbox/scenekit/pkg/color"
	"github.com/Faultbox/scenekit/pkg/math"
)

// surfaceSize is the size of the surface state draws into.
func (g *Graph) surfaceSize(state camera.RenderState) (w, h float32) {
	if state.Target != nil {
		tw, th := state.Target.Size()
		return float32(tw), float32(th)
	}
	return g.dev.ScreenSize()
}

// projection returns the view-projection matrix for state.
func (g *Graph) projection(state camera.RenderState) math.Mat4 {
	w, h := g.surfaceSize(state)
	return state.Matrix(w, h)
}

// timeVector is the _Time uniform: (t, sin t, cos t, 0) in seconds.
func (g *Graph) timeVector() math.Vec4 {
	t := float32(g.clock().Seconds())
	s, c := math32.Sincos(t)
	return math.V4(t, s, c, 0)
}

func (g *Graph) beginPass(state camera.RenderState, action gpu.PassAction) {
	g.pass.begin(state.Target, action)
	if vp := state.Viewport; vp != nil {
		g.pass.viewport(vp.X, vp.Y, vp.Width, vp.Height)
	}
}

// resolve picks the material for a draw: the override if present,
// else fallback.
func resolve(state camera.RenderState, fallback *material.Material) *material.Material {
	if state.Material != nil {
		return state.Material
	}
	return fallback
}

// Clear fills the state's target with c. The depth buffer is reset too
// when DepthEnabled is set.
func (g *Graph) Clear(state camera.RenderState, c color.Color) {
	g.pass.begin(state.Target, gpu.PassAction{
		Clear:      true,
		Color:      c,
		ClearDepth: state.DepthEnabled,
		Depth:      1,
	})
	g.pass.end()
}

// DrawModel draws model once with the given model-to-world transform.
func (g *Graph) DrawModel(state camera.RenderState, model *mesh.Model, transform math.Mat4) {
	if model.Destroyed() {
		panic(fmt.Sprintf("scene: drawing destroyed model %q", model.Name()))
	}
	proj := g.projection(state)
	mat := resolve(state, g.defaultMat)

	g.beginPass(state, gpu.PassNothing)
	g.pass.pipeline(mat.Pipeline())

	bindings := model.Bindings().Clone()
	if tex, ok := mat.Texture(TextureSlot); ok && tex != nil {
		bindings.Images[0] = tex
	}
	g.pass.bindings(bindings)

	mat.SetUniform(UniformProjection, proj)
	mat.SetUniform(UniformModel, transform)
	mat.SetUniform(UniformTime, g.timeVector())
	g.pass.uniforms(mat.UniformBytes())

	g.pass.draw(0, model.IndexCount(), 1)
	g.pass.end()
}

// DrawModels draws every registered model with its transform, in
// registration order.
func (g *Graph) DrawModels(state camera.RenderState) {
	for _, e := range g.models {
		g.DrawModel(state, e.model, e.transform)
	}
}
