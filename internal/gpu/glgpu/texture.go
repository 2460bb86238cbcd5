package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/scenekit/internal/gpu"
)

type texture struct {
	id            uint32
	width, height int
}

func (t *texture) Size() (int, int) { return t.width, t.height }

func (t *texture) destroy() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

func (d *Device) NewTexture(width, height int, rgba []byte) (gpu.Texture, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	if len(rgba) != width*height*4 {
		return nil, fmt.Errorf("texture %dx%d needs %d bytes, got %d", width, height, width*height*4, len(rgba))
	}

	t := &texture{width: width, height: height}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return t, nil
}

func (d *Device) EmptyTexture() gpu.Texture {
	return d.empty
}

func (d *Device) DeleteTexture(tex gpu.Texture) {
	t := tex.(*texture)
	if t == d.empty {
		return
	}
	t.destroy()
}
