package gpu

import "fmt"

// VertexFormat is the type of one vertex attribute.
type VertexFormat int

const (
	Float2 VertexFormat = iota + 1
	Float3
	Float4
)

// Components returns the number of float32 components.
func (f VertexFormat) Components() int {
	switch f {
	case Float2:
		return 2
	case Float3:
		return 3
	case Float4:
		return 4
	}
	return 0
}

// Size returns the attribute size in bytes.
func (f VertexFormat) Size() int {
	return f.Components() * 4
}

// VertexAttribute binds a named shader input to a slice of a vertex buffer.
type VertexAttribute struct {
	Name   string
	Format VertexFormat
	// Buffer is the index into Bindings.VertexBuffers.
	Buffer int
	// Offset is the byte offset of the attribute inside one vertex.
	Offset int
}

// BufferLayout describes one vertex buffer slot. A zero Stride means the
// buffer holds a single tightly packed attribute.
type BufferLayout struct {
	Stride int
}

// UniformType is the type of one uniform in a uniform block.
type UniformType int

const (
	UniformFloat1 UniformType = iota + 1
	UniformFloat2
	UniformFloat3
	UniformFloat4
	UniformMat4
)

// Size returns the uniform size in bytes. Uniform blocks are tightly packed.
func (t UniformType) Size() int {
	switch t {
	case UniformFloat1:
		return 4
	case UniformFloat2:
		return 8
	case UniformFloat3:
		return 12
	case UniformFloat4:
		return 16
	case UniformMat4:
		return 64
	}
	return 0
}

func (t UniformType) String() string {
	switch t {
	case UniformFloat1:
		return "float"
	case UniformFloat2:
		return "vec2"
	case UniformFloat3:
		return "vec3"
	case UniformFloat4:
		return "vec4"
	case UniformMat4:
		return "mat4"
	}
	return fmt.Sprintf("UniformType(%d)", int(t))
}

// UniformDesc names one uniform of a block.
type UniformDesc struct {
	Name string
	Type UniformType
}

// UniformLayout returns the byte offset of every uniform and the total
// block size.
func UniformLayout(descs []UniformDesc) (offsets []int, size int) {
	offsets = make([]int, len(descs))
	for i, d := range descs {
		offsets[i] = size
		size += d.Type.Size()
	}
	return offsets, size
}

// Comparison is a depth test function.
type Comparison int

const (
	CompareNever Comparison = iota
	CompareLess
	CompareLessOrEqual
	CompareAlways
)

// PipelineDesc is everything needed to build a Pipeline.
type PipelineDesc struct {
	Name           string
	VertexShader   string
	FragmentShader string

	Buffers    []BufferLayout
	Attributes []VertexAttribute
	Uniforms   []UniformDesc
	// Images are the sampler names, in texture unit order.
	Images []string

	// DepthTest is the depth comparison. CompareAlways together with
	// DepthWrite off disables depth testing.
	DepthTest  Comparison
	DepthWrite bool
	Blend      bool
}

// Stride returns the effective stride of vertex buffer slot i.
func (d PipelineDesc) Stride(i int) int {
	if i < len(d.Buffers) && d.Buffers[i].Stride > 0 {
		return d.Buffers[i].Stride
	}
	for _, a := range d.Attributes {
		if a.Buffer == i {
			return a.Format.Size()
		}
	}
	return 0
}
