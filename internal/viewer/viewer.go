// Package viewer runs the meshview main loop: it opens the window, loads
// the configured models into a scene and draws them until asked to quit.
package viewer

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/scenekit/internal/assets"
	"github.com/Faultbox/scenekit/internal/config"
	"github.com/Faultbox/scenekit/internal/gpu"
	"github.com/Faultbox/scenekit/internal/gpu/glgpu"
	"github.com/Faultbox/scenekit/internal/scene"
	"github.com/Faultbox/scenekit/internal/texture"
	"github.com/Faultbox/scenekit/internal/window"
)

// Viewer is the running application.
type Viewer struct {
	cfg   *config.Config
	log   *zap.Logger
	win   *window.Window
	dev   *glgpu.Device
	graph *scene.Graph
	lib   *assets.Library
	tex   gpu.Texture

	start time.Time
	stats Stats
}

// New opens the window and loads the configured models.
func New(cfg *config.Config, log *zap.Logger) (*Viewer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("initializing viewer",
		zap.String("title", cfg.Window.Title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	v := &Viewer{
		cfg:   cfg,
		log:   log,
		lib:   assets.NewLibrary(os.DirFS(cfg.Assets.Root)),
		start: time.Now(),
	}

	var err error
	// Window first: it creates the OpenGL context.
	v.win, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Logger:     log.Named("window"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	v.dev, err = glgpu.New(glgpu.Config{
		DrawableSize: v.win.DrawableSize,
		Logger:       log.Named("gpu"),
	})
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	v.graph, err = scene.New(v.dev, scene.Config{
		LayerPoolSize: cfg.Render.LayerPoolSize,
		Clock:         func() time.Duration { return time.Since(v.start) },
		Logger:        log.Named("scene"),
	})
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}

	ctx := context.Background()
	if cfg.Assets.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Assets.LoadTimeout)
		defer cancel()
	}
	v.stats.Triangles, err = Populate(ctx, v.graph, v.lib, cfg.Assets.Models, log)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to load models: %w", err)
	}
	v.stats.Models = v.graph.Len()

	if cfg.Assets.Texture != "" {
		v.tex, err = ApplyTexture(v.graph, v.lib, cfg.Assets.Texture, texture.Options{ColorKey: cfg.Assets.ColorKey})
		if err != nil {
			v.Close()
			return nil, fmt.Errorf("failed to load texture: %w", err)
		}
	}

	log.Info("viewer initialized successfully")
	return v, nil
}

// Run draws frames until the window is closed or Escape is pressed.
func (v *Viewer) Run() error {
	var budget time.Duration
	if v.cfg.Window.FPSLimit > 0 {
		budget = time.Second / time.Duration(v.cfg.Window.FPSLimit)
	}

	v.log.Info("starting main loop")
	last := time.Now()
	for v.win.PollEvents() {
		if v.win.Resized() {
			w, h := v.win.DrawableSize()
			v.log.Debug("drawable resized", zap.Int("width", w), zap.Int("height", h))
		}

		cam := OrbitCamera(v.cfg.Camera, time.Since(v.start))
		DrawFrame(v.graph, v.cfg, cam, &v.stats)
		v.win.SwapBuffers()

		if budget > 0 {
			if rest := budget - time.Since(last); rest > 0 {
				time.Sleep(rest)
			}
		}

		now := time.Now()
		if v.stats.Tick(now, now.Sub(last)) {
			v.log.Debug("fps", zap.Int("count", v.stats.FPS), zap.Duration("frame", v.stats.FrameTime))
		}
		last = now
	}
	return nil
}

// Close releases the scene, the device and the window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.tex != nil {
		v.dev.DeleteTexture(v.tex)
		v.tex = nil
	}
	if v.graph != nil {
		v.graph.Close()
		v.graph = nil
	}
	if v.dev != nil {
		v.dev.Close()
		v.dev = nil
	}
	if v.win != nil {
		v.win.Close()
		v.win = nil
	}

	hits, misses := v.lib.Stats()
	v.log.Debug("asset cache", zap.Int("hits", hits), zap.Int("misses", misses))
}
