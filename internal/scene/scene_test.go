package scene

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenekit/internal/camera"
	"github.com/Faultbox/scenekit/internal/gpu"
	"github.com/Faultbox/scenekit/internal/gpu/gputest"
	"github.com/Faultbox/scenekit/internal/material"
	"github.com/Faultbox/scenekit/internal/mesh"
	"github.com/Faultbox/scenekit/pkg/color"
	"github.com/Faultbox/scenekit/pkg/math"
)

const testTime = 2 * time.Second

func newTestGraph(t *testing.T) (*Graph, *gputest.Recorder) {
	t.Helper()
	dev := gputest.New(800, 600)
	cfg := DefaultConfig()
	cfg.Clock = func() time.Duration { return testTime }
	g, err := New(dev, cfg)
	require.NoError(t, err)
	dev.Reset()
	return g, dev
}

func modelUniform(t *testing.T, c gputest.Command, name string) []float32 {
	t.Helper()
	v := gpu.LookupUniform(c.Uniforms, ModelDesc("", "", "").Uniforms, name)
	require.NotNil(t, v, "uniform %s", name)
	return v
}

func TestNewResources(t *testing.T) {
	dev := gputest.New(800, 600)
	g, err := New(dev, DefaultConfig())
	require.NoError(t, err)

	assert.Len(t, dev.Pipelines, 2)
	assert.Len(t, dev.Textures, 1)
	assert.Len(t, dev.Buffers, 2)
	for _, b := range dev.Buffers {
		assert.True(t, b.Stream)
	}
	assert.Equal(t, DefaultLayerPoolSize, g.Available())
	assert.Equal(t, "default", g.DefaultMaterial().Name())
	assert.Empty(t, dev.Commands)
}

func TestNewPipelineFailure(t *testing.T) {
	dev := gputest.New(800, 600)
	dev.PipelineErr = &gpu.ShaderError{Pipeline: "default", Stage: "fragment", Log: "syntax error"}

	g, err := New(dev, DefaultConfig())
	require.Error(t, err)
	assert.Nil(t, g)

	var shaderErr *gpu.ShaderError
	require.True(t, errors.As(err, &shaderErr))
	assert.Equal(t, "fragment", shaderErr.Stage)
}

func TestDrawModelCommandOrder(t *testing.T) {
	g, dev := newTestGraph(t)
	m, err := mesh.Square(dev)
	require.NoError(t, err)

	g.DrawModel(camera.Default(), m, math.Identity())

	assert.Equal(t, []gputest.Op{
		gputest.OpBeginDefaultPass,
		gputest.OpPipeline,
		gputest.OpBindings,
		gputest.OpUniforms,
		gputest.OpDraw,
		gputest.OpEndPass,
	}, dev.Ops())
	assert.False(t, dev.PassOpen())

	begin := dev.Commands[0]
	assert.Equal(t, gpu.PassNothing, begin.Action)

	draw := dev.Filter(gputest.OpDraw)[0]
	assert.Equal(t, 0, draw.Base)
	assert.Equal(t, m.IndexCount(), draw.Count)
	assert.Equal(t, 1, draw.Instances)
}

func TestDrawModelTargetAndViewport(t *testing.T) {
	g, dev := newTestGraph(t)
	m, err := mesh.Square(dev)
	require.NoError(t, err)
	rt, err := dev.NewRenderTarget(256, 128)
	require.NoError(t, err)

	state := camera.Default().WithTarget(rt).WithViewport(10, 20, 30, 40)
	g.DrawModel(state, m, math.Identity())

	assert.Equal(t, []gputest.Op{
		gputest.OpBeginPass,
		gputest.OpViewport,
		gputest.OpPipeline,
		gputest.OpBindings,
		gputest.OpUniforms,
		gputest.OpDraw,
		gputest.OpEndPass,
	}, dev.Ops())
	assert.Equal(t, rt, dev.Commands[0].Target)
	assert.Equal(t, [4]int32{10, 20, 30, 40}, dev.Commands[1].Viewport)

	// Screen space on a target is sized to the target.
	proj := modelUniform(t, dev.Filter(gputest.OpUniforms)[0], UniformProjection)
	want := camera.ScreenOrtho(256, 128)
	assert.Equal(t, want[:], proj)
}

func TestDrawModelPassesFollowCallOrder(t *testing.T) {
	g, dev := newTestGraph(t)
	a, err := mesh.Square(dev)
	require.NoError(t, err)
	b, err := mesh.Square(dev)
	require.NoError(t, err)
	rtA, err := dev.NewRenderTarget(64, 64)
	require.NoError(t, err)
	rtB, err := dev.NewRenderTarget(32, 32)
	require.NoError(t, err)

	g.DrawModel(camera.Default().WithTarget(rtA), a, math.Identity())
	g.DrawModel(camera.Default().WithTarget(rtB), b, math.Identity())

	begins := dev.Filter(gputest.OpBeginPass)
	require.Len(t, begins, 2)
	assert.Same(t, rtA, begins[0].Target)
	assert.Same(t, rtB, begins[1].Target)

	// Each pass is closed before the next one begins.
	assert.Equal(t, []gputest.Op{
		gputest.OpBeginPass, gputest.OpPipeline, gputest.OpBindings, gputest.OpUniforms, gputest.OpDraw, gputest.OpEndPass,
		gputest.OpBeginPass, gputest.OpPipeline, gputest.OpBindings, gputest.OpUniforms, gputest.OpDraw, gputest.OpEndPass,
	}, dev.Ops())
	bindings := dev.Filter(gputest.OpBindings)
	assert.Same(t, a.Bindings().IndexBuffer, bindings[0].Bindings.IndexBuffer)
	assert.Same(t, b.Bindings().IndexBuffer, bindings[1].Bindings.IndexBuffer)
}

func TestDrawModelUniforms(t *testing.T) {
	g, dev := newTestGraph(t)
	m, err := mesh.Square(dev)
	require.NoError(t, err)

	cam := camera.Spatial{
		Position:   math.V3(0, 5, 10),
		Up:         math.V3(0, 1, 0),
		FovY:       45,
		Projection: camera.Perspective,
	}
	state := camera.Default().WithCamera(cam)
	transform := math.Translate(1, 2, 3)
	g.DrawModel(state, m, transform)

	u := dev.Filter(gputest.OpUniforms)[0]
	proj := state.Matrix(800, 600)
	assert.Equal(t, proj[:], modelUniform(t, u, UniformProjection))
	assert.Equal(t, transform[:], modelUniform(t, u, UniformModel))

	secs := float32(testTime.Seconds())
	s, c := math32.Sincos(secs)
	assert.Equal(t, []float32{secs, s, c, 0}, modelUniform(t, u, UniformTime))
}

func TestDrawModelUsesPlaceholderTexture(t *testing.T) {
	g, dev := newTestGraph(t)
	m, err := mesh.Square(dev)
	require.NoError(t, err)

	g.DrawModel(camera.Default(), m, math.Identity())

	b := dev.Filter(gputest.OpBindings)[0].Bindings
	require.Len(t, b.VertexBuffers, 3)
	assert.Same(t, dev.EmptyTexture(), b.Images[0])
	assert.Equal(t, g.DefaultMaterial().Pipeline(), dev.Filter(gputest.OpPipeline)[0].Pipeline)
}

func TestDrawModelMaterialOverride(t *testing.T) {
	g, dev := newTestGraph(t)
	m, err := mesh.Square(dev)
	require.NoError(t, err)

	override, err := material.New(dev, ModelDesc("tinted", "vs", "fs"))
	require.NoError(t, err)
	tex, err := dev.NewTexture(1, 1, []byte{0, 255, 0, 255})
	require.NoError(t, err)
	override.SetTexture(TextureSlot, tex)

	g.DrawModel(camera.Default().WithMaterial(override), m, math.Identity())

	assert.Equal(t, override.Pipeline(), dev.Filter(gputest.OpPipeline)[0].Pipeline)
	b := dev.Filter(gputest.OpBindings)[0].Bindings
	assert.Equal(t, gpu.Texture(tex), b.Images[0])
	assert.Same(t, dev.EmptyTexture(), b.Images[1])

	// The model's own bindings are untouched.
	assert.Same(t, dev.EmptyTexture(), m.Bindings().Images[0])

	// Uniforms went into the override's block, not the default's.
	assert.NotNil(t, override.Uniform(UniformModel))
	assert.Equal(t, make([]float32, 16), g.DefaultMaterial().Uniform(UniformModel))
}

func TestDrawDestroyedModelPanics(t *testing.T) {
	g, dev := newTestGraph(t)
	m, err := mesh.Square(dev)
	require.NoError(t, err)
	m.Destroy()

	assert.Panics(t, func() {
		g.DrawModel(camera.Default(), m, math.Identity())
	})
	assert.False(t, dev.PassOpen())
}

func TestClear(t *testing.T) {
	g, dev := newTestGraph(t)

	g.Clear(camera.Default(), color.Blue)
	g.Clear(camera.Default().WithCamera(camera.DefaultPlanar()), color.Red)

	state := camera.Default()
	state.DepthEnabled = true
	g.Clear(state, color.Black)

	begins := dev.Filter(gputest.OpBeginDefaultPass)
	require.Len(t, begins, 3)
	assert.Equal(t, gpu.PassAction{Clear: true, Color: color.Blue, Depth: 1}, begins[0].Action)
	assert.Equal(t, color.Red, begins[1].Action.Color)
	assert.True(t, begins[2].Action.ClearDepth)
	assert.Len(t, dev.Filter(gputest.OpEndPass), 3)
	assert.Empty(t, dev.Filter(gputest.OpDraw))
}

func TestDrawModelsRegistrationOrder(t *testing.T) {
	g, dev := newTestGraph(t)
	a, err := mesh.Square(dev)
	require.NoError(t, err)
	b, err := mesh.Square(dev)
	require.NoError(t, err)

	idA := g.AddModel(a)
	idB := g.AddModel(b)
	assert.Equal(t, 0, idA)
	assert.Equal(t, 1, idB)
	assert.Equal(t, 2, g.Len())
	assert.Same(t, b, g.Model(idB))
	assert.Equal(t, math.Identity(), g.Transform(idA))

	g.SetTransform(idA, math.Translate(1, 0, 0))
	g.SetTransform(idB, math.Translate(2, 0, 0))
	g.DrawModels(camera.Default())

	uniforms := dev.Filter(gputest.OpUniforms)
	require.Len(t, uniforms, 2)
	first := modelUniform(t, uniforms[0], UniformModel)
	second := modelUniform(t, uniforms[1], UniformModel)
	assert.Equal(t, float32(1), first[12])
	assert.Equal(t, float32(2), second[12])

	binds := dev.Filter(gputest.OpBindings)
	assert.Equal(t, a.Bindings().IndexBuffer, binds[0].Bindings.IndexBuffer)
	assert.Equal(t, b.Bindings().IndexBuffer, binds[1].Bindings.IndexBuffer)
}

func TestUnknownModelIDPanics(t *testing.T) {
	g, _ := newTestGraph(t)
	assert.Panics(t, func() { g.Model(0) })
	assert.Panics(t, func() { g.SetTransform(-1, math.Identity()) })
}

func TestPlanarZoomReachesShader(t *testing.T) {
	g, dev := newTestGraph(t)
	m, err := mesh.Square(dev)
	require.NoError(t, err)

	cam := camera.DefaultPlanar()
	cam.Zoom = math.V2(2, 2)
	g.DrawModel(camera.Default().WithCamera(cam), m, math.Identity())

	proj := modelUniform(t, dev.Filter(gputest.OpUniforms)[0], UniformProjection)
	assert.Equal(t, float32(2), proj[0])
	assert.Equal(t, float32(2), proj[5])
}

func TestLoadModelMissing(t *testing.T) {
	g, _ := newTestGraph(t)

	_, err := g.LoadModel(context.Background(), fstest.MapFS{}, "cube.glb")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Zero(t, g.Len())
}

func TestCloseReleasesEverything(t *testing.T) {
	g, dev := newTestGraph(t)
	m, err := mesh.Square(dev)
	require.NoError(t, err)
	g.AddModel(m)

	g.Close()

	assert.True(t, m.Destroyed())
	// 4 model buffers, 2 pipelines, the atlas and 2 stream buffers.
	assert.Equal(t, 9, dev.Deleted)
}

func TestPassStateMachine(t *testing.T) {
	dev := gputest.New(1, 1)
	p := pass{dev: dev}

	assert.Panics(t, func() { p.end() }, "end while idle")
	assert.Panics(t, func() { p.draw(0, 3, 1) }, "draw while idle")

	p.begin(nil, gpu.PassNothing)
	assert.Panics(t, func() { p.begin(nil, gpu.PassNothing) }, "nested begin")
	assert.Panics(t, func() { p.bindings(gpu.Bindings{}) }, "bindings before pipeline")
	assert.Panics(t, func() { p.uniforms(nil) }, "uniforms before pipeline")

	p.pipeline(nil)
	assert.Panics(t, func() { p.draw(0, 3, 1) }, "draw before bindings")
	p.bindings(gpu.Bindings{})
	p.draw(0, 3, 1)
	p.bindings(gpu.Bindings{})
	p.draw(0, 3, 1)
	p.end()

	assert.Equal(t, stateIdle, p.state)
	assert.Equal(t, "resources bound", stateResourcesBound.String())
}
