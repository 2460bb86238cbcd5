// Package material pairs a GPU pipeline with its uniform block and named
// textures. The scene owns one default material; callers may pass their
// own per draw call to override it.
package material

import (
	"fmt"

	"github.com/Faultbox/scenekit/internal/gpu"
	"github.com/Faultbox/scenekit/pkg/color"
	"github.com/Faultbox/scenekit/pkg/math"
)

// Material is a pipeline plus the CPU-side copy of its uniform block.
type Material struct {
	dev      gpu.Device
	pipeline gpu.Pipeline
	desc     gpu.PipelineDesc

	offsets  map[string]int
	types    map[string]gpu.UniformType
	uniforms []byte
	textures map[string]gpu.Texture
}

// New builds the pipeline described by desc.
func New(dev gpu.Device, desc gpu.PipelineDesc) (*Material, error) {
	pipeline, err := dev.NewPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline %q: %w", desc.Name, err)
	}

	offsets, size := gpu.UniformLayout(desc.Uniforms)
	m := &Material{
		dev:      dev,
		pipeline: pipeline,
		desc:     desc,
		offsets:  make(map[string]int, len(desc.Uniforms)),
		types:    make(map[string]gpu.UniformType, len(desc.Uniforms)),
		uniforms: make([]byte, size),
		textures: make(map[string]gpu.Texture),
	}
	for i, u := range desc.Uniforms {
		m.offsets[u.Name] = offsets[i]
		m.types[u.Name] = u.Type
	}
	return m, nil
}

// Name returns the pipeline name.
func (m *Material) Name() string {
	return m.desc.Name
}

// Pipeline returns the GPU pipeline.
func (m *Material) Pipeline() gpu.Pipeline {
	return m.pipeline
}

// HasUniform reports whether the block declares the named uniform.
func (m *Material) HasUniform(name string) bool {
	_, ok := m.offsets[name]
	return ok
}

// SetUniform stores value into the uniform block. It returns false when
// the material has no uniform with that name. A value whose type does not
// match the declared uniform type panics.
func (m *Material) SetUniform(name string, value any) bool {
	off, ok := m.offsets[name]
	if !ok {
		return false
	}
	typ := m.types[name]

	var vals []float32
	switch v := value.(type) {
	case float32:
		vals = []float32{v}
	case math.Vec2:
		vals = []float32{v.X, v.Y}
	case math.Vec3:
		vals = []float32{v.X, v.Y, v.Z}
	case math.Vec4:
		vals = v[:]
	case [4]float32:
		vals = v[:]
	case color.Color:
		vals = []float32{v.R, v.G, v.B, v.A}
	case math.Mat4:
		vals = v[:]
	default:
		panic(fmt.Sprintf("material %q: unsupported uniform value %T for %s", m.desc.Name, value, name))
	}
	if len(vals)*4 != typ.Size() {
		panic(fmt.Sprintf("material %q: uniform %s is %s, got %T", m.desc.Name, name, typ, value))
	}
	gpu.PutFloats(m.uniforms[off:], vals...)
	return true
}

// Uniform returns the current value of the named uniform, or nil.
func (m *Material) Uniform(name string) []float32 {
	return gpu.LookupUniform(m.uniforms, m.desc.Uniforms, name)
}

// UniformBytes returns the uniform block ready for Device.ApplyUniforms.
// The slice is reused; do not keep it across draws.
func (m *Material) UniformBytes() []byte {
	return m.uniforms
}

// SetTexture binds a texture to the named sampler.
func (m *Material) SetTexture(name string, tex gpu.Texture) {
	m.textures[name] = tex
}

// Texture returns the texture bound to the named sampler.
func (m *Material) Texture(name string) (gpu.Texture, bool) {
	tex, ok := m.textures[name]
	return tex, ok
}

// Destroy releases the pipeline. Textures are owned by the caller.
func (m *Material) Destroy() {
	if m.pipeline != nil {
		m.dev.DeletePipeline(m.pipeline)
		m.pipeline = nil
	}
}
