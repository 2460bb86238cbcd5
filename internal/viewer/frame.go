package viewer

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenekit/internal/camera"
	"github.com/Faultbox/scenekit/internal/config"
	"github.com/Faultbox/scenekit/internal/gpu"
	"github.com/Faultbox/scenekit/internal/mesh"
	"github.com/Faultbox/scenekit/internal/scene"
	"github.com/Faultbox/scenekit/internal/texture"
	"github.com/Faultbox/scenekit/pkg/color"
	"github.com/Faultbox/scenekit/pkg/math"
)

// ModelGap is the distance between neighbouring models along X.
const ModelGap float32 = 1

// groundScale sizes the placeholder square shown when no model is given.
const groundScale float32 = 4

// Populate loads names from fsys and registers them with g, laid out side
// by side. With no names it registers a ground square instead. On error
// nothing is registered.
func Populate(ctx context.Context, g *scene.Graph, fsys fs.FS, names []string, log *zap.Logger) (triangles int, err error) {
	if len(names) == 0 {
		sq, err := mesh.Square(g.Device())
		if err != nil {
			return 0, fmt.Errorf("creating ground square: %w", err)
		}
		id := g.AddModel(sq)
		g.SetTransform(id, math.Scale(groundScale, 1, groundScale))
		log.Info("no models configured, showing ground square")
		return sq.IndexCount() / 3, nil
	}

	data, err := mesh.ReadAll(ctx, fsys, names...)
	if err != nil {
		return 0, err
	}
	models, err := mesh.UploadAll(g.Device(), data)
	if err != nil {
		return 0, err
	}

	ids := make([]int, len(models))
	for i, m := range models {
		ids[i] = g.AddModel(m)
		triangles += data[i].Triangles()
		log.Info("model loaded",
			zap.String("name", m.Name()),
			zap.Int("triangles", data[i].Triangles()),
			zap.Int("vertices", len(data[i].Positions)))
	}
	Arrange(g, ids)
	return triangles, nil
}

// Arrange places the given models next to each other along X, centered
// on the origin, ModelGap apart.
func Arrange(g *scene.Graph, ids []int) {
	if len(ids) == 0 {
		return
	}

	total := ModelGap * float32(len(ids)-1)
	for _, id := range ids {
		lo, hi := g.Model(id).Bounds()
		total += hi.X - lo.X
	}

	x := -total / 2
	for _, id := range ids {
		lo, hi := g.Model(id).Bounds()
		width := hi.X - lo.X
		center := x + width/2
		g.SetTransform(id, math.Translate(center-(lo.X+hi.X)/2, 0, 0))
		x += width + ModelGap
	}
}

// ApplyTexture loads name from fsys and sets it as the texture of g's
// default material, so every model drawn without its own material shows
// it. The caller owns the returned texture.
func ApplyTexture(g *scene.Graph, fsys fs.FS, name string, opts texture.Options) (gpu.Texture, error) {
	tex, err := texture.Load(g.Device(), fsys, name, opts)
	if err != nil {
		return nil, err
	}
	g.DefaultMaterial().SetTexture(scene.TextureSlot, tex)
	return tex, nil
}

// OrbitCamera returns the configured camera turned around its target on
// the Y axis by OrbitSpeed degrees per second of elapsed time.
func OrbitCamera(c config.CameraConfig, elapsed time.Duration) camera.Spatial {
	target := math.V3(c.Target[0], c.Target[1], c.Target[2])
	offset := math.V3(c.Position[0], c.Position[1], c.Position[2]).Sub(target)

	angle := math.Radians(c.OrbitSpeed * float32(elapsed.Seconds()))
	sin, cos := math32.Sin(angle), math32.Cos(angle)
	offset = math.V3(offset.X*cos+offset.Z*sin, offset.Y, -offset.X*sin+offset.Z*cos)

	proj := camera.Perspective
	if c.Orthographic {
		proj = camera.Orthographic
	}
	return camera.Spatial{
		Position:   target.Add(offset),
		Target:     target,
		Up:         math.V3(0, 1, 0),
		FovY:       c.FovY,
		Projection: proj,
	}
}

// Stats holds frame statistics shown in the overlay.
type Stats struct {
	FPS       int
	FrameTime time.Duration
	Models    int
	Triangles int

	frames int
	since  time.Time
}

// Tick counts one frame that took dt, ending at now. It reports whether
// FPS was refreshed, which happens once per second.
func (s *Stats) Tick(now time.Time, dt time.Duration) bool {
	s.FrameTime = dt
	s.frames++
	if s.since.IsZero() {
		s.since = now
		return false
	}
	if now.Sub(s.since) < time.Second {
		return false
	}
	s.FPS = s.frames
	s.frames = 0
	s.since = now
	return true
}

func (s *Stats) String() string {
	return fmt.Sprintf("%d fps  %.2f ms  %d models  %d triangles",
		s.FPS, float64(s.FrameTime.Microseconds())/1000, s.Models, s.Triangles)
}

// DrawFrame renders one frame: the clear, a background layer, every
// registered model seen through cam, and a foreground layer.
func DrawFrame(g *scene.Graph, cfg *config.Config, cam camera.Spatial, stats *Stats) {
	screen := camera.Default()
	screen.DepthEnabled = cfg.Render.DepthEnabled

	g.Clear(screen, cfg.Render.Background())

	back := g.Layer(screen)
	back.DrawText(cfg.Window.Title, 10, 10, 2, color.Black)
	back.DrawText("ESC to quit", 10, 40, 1, color.DarkGray)
	g.DrawCanvas(back)

	g.DrawModels(screen.WithCamera(cam))

	if !cfg.Render.ShowStats || stats == nil {
		return
	}
	front := g.Layer(screen)
	text := stats.String()
	w, h := front.MeasureText(text, 1)
	front.DrawRect(6, 56, w+8, h+8, color.Black.WithAlpha(0.5))
	front.DrawText(text, 10, 60, 1, color.Yellow)
	g.DrawCanvas(front)
}
