// Package gpu describes the GPU command boundary the scene renders through.
//
// The scene never talks to a graphics API directly; it issues buffer,
// pipeline, pass and draw calls against a Device. glgpu implements Device
// on OpenGL 4.1 core, gputest records calls for tests.
package gpu

import (
	"unsafe"

	"github.com/Faultbox/scenekit/pkg/color"
)

// BufferKind selects the binding point of a buffer.
type BufferKind int

const (
	VertexBuffer BufferKind = iota
	IndexBuffer
)

func (k BufferKind) String() string {
	if k == IndexBuffer {
		return "index"
	}
	return "vertex"
}

// Buffer is a GPU-resident vertex or index buffer.
type Buffer interface {
	Kind() BufferKind
	// Size is the buffer size in bytes.
	Size() int
}

// Texture is a sampled 2D image.
type Texture interface {
	Size() (width, height int)
}

// Pipeline is a linked shader program plus vertex layout and fixed-function
// state.
type Pipeline interface {
	Desc() PipelineDesc
}

// RenderTarget is an off-screen destination for a render pass.
type RenderTarget interface {
	Size() (width, height int)
	// Texture returns the color attachment so the target can be sampled.
	Texture() Texture
}

// PassAction tells a pass what to do with the target's previous contents.
type PassAction struct {
	Clear      bool
	Color      color.Color
	ClearDepth bool
	Depth      float32
}

// PassNothing keeps the target contents.
var PassNothing = PassAction{}

// ClearColor clears the color attachment only.
func ClearColor(c color.Color) PassAction {
	return PassAction{Clear: true, Color: c}
}

// Bindings is the set of buffers and textures attached to one draw call.
type Bindings struct {
	VertexBuffers []Buffer
	IndexBuffer   Buffer
	Images        []Texture
}

// Clone returns a copy whose slices can be modified without touching b.
func (b Bindings) Clone() Bindings {
	out := Bindings{IndexBuffer: b.IndexBuffer}
	out.VertexBuffers = append([]Buffer(nil), b.VertexBuffers...)
	out.Images = append([]Texture(nil), b.Images...)
	return out
}

// Device is the GPU command boundary. Implementations are not safe for
// concurrent use; every call happens on the frame-loop goroutine.
type Device interface {
	// NewBuffer creates an immutable buffer initialised with data.
	NewBuffer(kind BufferKind, data []byte) (Buffer, error)
	// NewStreamBuffer creates a buffer of size bytes whose contents are
	// replaced every frame with UpdateBuffer.
	NewStreamBuffer(kind BufferKind, size int) (Buffer, error)
	UpdateBuffer(buf Buffer, data []byte)
	DeleteBuffer(buf Buffer)

	// NewTexture creates an RGBA8 texture from tightly packed pixels.
	NewTexture(width, height int, rgba []byte) (Texture, error)
	// EmptyTexture returns the shared 1x1 white placeholder texture.
	EmptyTexture() Texture
	DeleteTexture(tex Texture)

	NewPipeline(desc PipelineDesc) (Pipeline, error)
	DeletePipeline(p Pipeline)

	NewRenderTarget(width, height int) (RenderTarget, error)
	DeleteRenderTarget(rt RenderTarget)

	BeginDefaultPass(action PassAction)
	BeginPass(target RenderTarget, action PassAction)
	EndPass()

	ApplyViewport(x, y, width, height int32)
	ApplyPipeline(p Pipeline)
	ApplyBindings(b Bindings)
	// ApplyUniforms uploads a uniform block laid out per the bound
	// pipeline's PipelineDesc.Uniforms.
	ApplyUniforms(data []byte)
	// Draw issues an indexed draw of count 16-bit indices starting at base.
	Draw(base, count, instances int)

	// ScreenSize returns the default surface size in pixels.
	ScreenSize() (width, height float32)
}

// Bytes reinterprets a slice of plain values as raw bytes for upload.
func Bytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}
