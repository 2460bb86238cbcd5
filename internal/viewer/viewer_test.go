package viewer

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/scenekit/internal/assets"
	"github.com/Faultbox/scenekit/internal/config"
	"github.com/Faultbox/scenekit/internal/gpu/gputest"
	"github.com/Faultbox/scenekit/internal/mesh"
	"github.com/Faultbox/scenekit/internal/scene"
	"github.com/Faultbox/scenekit/internal/texture"
	"github.com/Faultbox/scenekit/pkg/math"
)

const eps = 1e-4

func newTestGraph(t *testing.T) (*scene.Graph, *gputest.Recorder) {
	t.Helper()
	dev := gputest.New(1280, 720)
	cfg := scene.DefaultConfig()
	cfg.Clock = func() time.Duration { return time.Second }
	g, err := scene.New(dev, cfg)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	dev.Reset()
	return g, dev
}

func TestPopulateWithoutModelsShowsGround(t *testing.T) {
	g, _ := newTestGraph(t)

	triangles, err := Populate(context.Background(), g, fstest.MapFS{}, nil, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 2, triangles)
	require.Equal(t, 1, g.Len())
	corner := g.Transform(0).TransformVec3(math.V3(0.5, 0.5, 0.5))
	assert.InDelta(t, 2, corner.X, eps)
	assert.InDelta(t, 0.5, corner.Y, eps)
	assert.InDelta(t, 2, corner.Z, eps)
}

func TestPopulateFailureRegistersNothing(t *testing.T) {
	g, dev := newTestGraph(t)
	lib := assets.NewLibrary(fstest.MapFS{"bad.gltf": {Data: []byte("not gltf")}})

	_, err := Populate(context.Background(), g, lib, []string{"bad.gltf"}, zap.NewNop())
	assert.ErrorIs(t, err, mesh.ErrAssetShape)
	assert.Zero(t, g.Len())
	assert.Empty(t, dev.Commands)
}

func TestApplyTexture(t *testing.T) {
	g, dev := newTestGraph(t)
	tga := make([]byte, 18, 22)
	tga[2], tga[12], tga[14], tga[16] = 2, 1, 1, 32
	tga = append(tga, 10, 20, 30, 255)
	lib := assets.NewLibrary(fstest.MapFS{"wood.tga": {Data: tga}})

	tex, err := ApplyTexture(g, lib, "wood.tga", texture.Options{})
	require.NoError(t, err)
	got, ok := g.DefaultMaterial().Texture(scene.TextureSlot)
	require.True(t, ok)
	assert.Same(t, tex, got)
	assert.Equal(t, []byte{30, 20, 10, 255}, dev.Textures[len(dev.Textures)-1].Pixels)

	_, err = ApplyTexture(g, lib, "missing.tga", texture.Options{})
	assert.Error(t, err)
}

func TestArrangeCentersModels(t *testing.T) {
	g, dev := newTestGraph(t)
	for range 2 {
		sq, err := mesh.Square(dev)
		require.NoError(t, err)
		g.AddModel(sq)
	}

	Arrange(g, []int{0, 1})

	// Two unit squares one unit apart span [-1.5, 1.5].
	left := g.Transform(0).TransformVec3(math.Vec3{})
	right := g.Transform(1).TransformVec3(math.Vec3{})
	assert.InDelta(t, -1, left.X, eps)
	assert.InDelta(t, 1, right.X, eps)
}

func TestOrbitCamera(t *testing.T) {
	c := config.Default().Camera
	c.Position = [3]float32{0, 6, 8}
	c.Target = [3]float32{0, 0, 0}
	c.OrbitSpeed = 90

	start := OrbitCamera(c, 0)
	assert.InDelta(t, 0, start.Position.X, eps)
	assert.InDelta(t, 8, start.Position.Z, eps)

	quarter := OrbitCamera(c, time.Second)
	assert.InDelta(t, 8, quarter.Position.X, eps)
	assert.InDelta(t, 6, quarter.Position.Y, eps)
	assert.InDelta(t, 0, quarter.Position.Z, eps)
	assert.Equal(t, c.FovY, quarter.FovY)
}

func TestOrbitCameraProjection(t *testing.T) {
	c := config.Default().Camera
	assert.Equal(t, "perspective", OrbitCamera(c, 0).Projection.String())

	c.Orthographic = true
	assert.Equal(t, "orthographic", OrbitCamera(c, 0).Projection.String())
}

func TestStatsTick(t *testing.T) {
	var s Stats
	now := time.Unix(100, 0)

	assert.False(t, s.Tick(now, 16*time.Millisecond))
	for i := 1; i < 60; i++ {
		assert.False(t, s.Tick(now.Add(time.Duration(i)*16*time.Millisecond), 16*time.Millisecond))
	}
	assert.True(t, s.Tick(now.Add(time.Second), 16*time.Millisecond))
	assert.Equal(t, 61, s.FPS)
	assert.Equal(t, 16*time.Millisecond, s.FrameTime)
	assert.Contains(t, s.String(), "61 fps")
}

func TestDrawFrameOrder(t *testing.T) {
	g, dev := newTestGraph(t)
	_, err := Populate(context.Background(), g, nil, nil, zap.NewNop())
	require.NoError(t, err)
	dev.Reset()

	cfg := config.Default()
	DrawFrame(g, cfg, OrbitCamera(cfg.Camera, 0), &Stats{})

	draws := dev.Filter(gputest.OpDraw)
	// background text, then the ground square
	require.Len(t, draws, 2)
	assert.Equal(t, 6, draws[1].Count)

	begins := dev.Filter(gputest.OpBeginDefaultPass)
	require.Len(t, begins, 3)
	assert.True(t, begins[0].Action.Clear)
	assert.True(t, begins[0].Action.ClearDepth)
	assert.False(t, dev.PassOpen())
	assert.Equal(t, scene.DefaultLayerPoolSize, g.Available())
}

func TestDrawFrameStatsOverlay(t *testing.T) {
	g, dev := newTestGraph(t)
	_, err := Populate(context.Background(), g, nil, nil, zap.NewNop())
	require.NoError(t, err)
	dev.Reset()

	cfg := config.Default()
	cfg.Render.ShowStats = true
	DrawFrame(g, cfg, OrbitCamera(cfg.Camera, 0), &Stats{FPS: 60})

	assert.Len(t, dev.Filter(gputest.OpBeginDefaultPass), 4)
	assert.Len(t, dev.Filter(gputest.OpDraw), 3)
	assert.Equal(t, scene.DefaultLayerPoolSize, g.Available())
}
