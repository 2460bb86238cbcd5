package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenekit/internal/gpu"
)

// renderTarget is an offscreen framebuffer with a sampleable color
// texture and a depth renderbuffer.
type renderTarget struct {
	fbo           uint32
	color         *texture
	depthRBO      uint32
	width, height int
}

func (rt *renderTarget) Size() (int, int)     { return rt.width, rt.height }
func (rt *renderTarget) Texture() gpu.Texture { return rt.color }

func (d *Device) NewRenderTarget(width, height int) (gpu.RenderTarget, error) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	rt := &renderTarget{width: width, height: height, color: &texture{width: width, height: height}}

	gl.GenFramebuffers(1, &rt.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.fbo)

	// Color texture attachment
	gl.GenTextures(1, &rt.color.id)
	gl.BindTexture(gl.TEXTURE_2D, rt.color.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, rt.color.id, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	// Depth renderbuffer attachment
	gl.GenRenderbuffers(1, &rt.depthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, rt.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, rt.depthRBO)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		rt.destroy()
		return nil, fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}

	d.log.Debug("render target created", zap.Int("width", width), zap.Int("height", height))
	return rt, nil
}

func (rt *renderTarget) destroy() {
	if rt.fbo != 0 {
		gl.DeleteFramebuffers(1, &rt.fbo)
		rt.fbo = 0
	}
	rt.color.destroy()
	if rt.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &rt.depthRBO)
		rt.depthRBO = 0
	}
}

func (d *Device) DeleteRenderTarget(target gpu.RenderTarget) {
	target.(*renderTarget).destroy()
}
