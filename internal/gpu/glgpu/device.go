// Package glgpu implements gpu.Device on OpenGL 4.1 core.
//
// All calls must happen on the goroutine that owns the GL context.
package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenekit/internal/gpu"
)

// Config holds device configuration.
type Config struct {
	// DrawableSize returns the default framebuffer size in pixels.
	DrawableSize func() (width, height int)
	Logger       *zap.Logger
}

// Device is a gpu.Device backed by the current GL context.
type Device struct {
	size func() (int, int)
	log  *zap.Logger

	empty   *texture
	current *pipeline
	inPass  bool
}

var _ gpu.Device = (*Device)(nil)

// New loads the GL function pointers and creates the shared placeholder
// texture. Must be called AFTER the OpenGL context is made current.
func New(cfg Config) (*Device, error) {
	if cfg.DrawableSize == nil {
		return nil, fmt.Errorf("glgpu: DrawableSize is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	cfg.Logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))),
	)

	d := &Device{size: cfg.DrawableSize, log: cfg.Logger}

	tex, err := d.NewTexture(1, 1, []byte{255, 255, 255, 255})
	if err != nil {
		return nil, fmt.Errorf("creating placeholder texture: %w", err)
	}
	d.empty = tex.(*texture)
	return d, nil
}

// Close releases the placeholder texture.
func (d *Device) Close() {
	if d.empty != nil {
		d.empty.destroy()
		d.empty = nil
	}
}

func (d *Device) ScreenSize() (float32, float32) {
	w, h := d.size()
	return float32(w), float32(h)
}

func (d *Device) requirePass(op string) {
	if !d.inPass {
		panic(fmt.Sprintf("glgpu: %s outside of a pass", op))
	}
}

func (d *Device) requirePipeline(op string) *pipeline {
	d.requirePass(op)
	if d.current == nil {
		panic(fmt.Sprintf("glgpu: %s with no pipeline applied", op))
	}
	return d.current
}

func (d *Device) BeginDefaultPass(action gpu.PassAction) {
	w, h := d.size()
	d.begin(0, int32(w), int32(h), action)
}

func (d *Device) BeginPass(target gpu.RenderTarget, action gpu.PassAction) {
	rt := target.(*renderTarget)
	d.begin(rt.fbo, int32(rt.width), int32(rt.height), action)
}

func (d *Device) begin(fbo uint32, width, height int32, action gpu.PassAction) {
	if d.inPass {
		panic("glgpu: pass begun while another pass is open")
	}
	d.inPass = true

	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.Viewport(0, 0, width, height)

	var mask uint32
	if action.Clear {
		c := action.Color
		gl.ClearColor(c.R, c.G, c.B, c.A)
		mask |= gl.COLOR_BUFFER_BIT
	}
	if action.ClearDepth {
		// Depth clears honor the write mask.
		gl.DepthMask(true)
		gl.ClearDepth(float64(action.Depth))
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
}

func (d *Device) EndPass() {
	if !d.inPass {
		panic("glgpu: end of pass with no open pass")
	}
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	d.current = nil
	d.inPass = false
}

// ApplyViewport restricts drawing to a rectangle. GL places the origin in
// the bottom-left corner.
func (d *Device) ApplyViewport(x, y, width, height int32) {
	d.requirePass("apply viewport")
	gl.Viewport(x, y, width, height)
}

func (d *Device) Draw(base, count, instances int) {
	d.requirePipeline("draw")
	gl.DrawElementsInstanced(gl.TRIANGLES, int32(count), gl.UNSIGNED_SHORT, gl.PtrOffset(base*2), int32(instances))
}
