package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenekit/internal/gpu"
)

type attribute struct {
	loc    uint32
	attr   gpu.VertexAttribute
	stride int32
}

type uniform struct {
	loc    int32
	typ    gpu.UniformType
	offset int
}

type pipeline struct {
	desc    gpu.PipelineDesc
	program uint32
	vao     uint32

	attributes []attribute
	uniforms   []uniform
	blockSize  int
}

func (p *pipeline) Desc() gpu.PipelineDesc { return p.desc }

func (d *Device) NewPipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	program, err := compileProgram(desc.Name, desc.VertexShader, desc.FragmentShader)
	if err != nil {
		return nil, err
	}

	p := &pipeline{desc: desc, program: program}
	gl.GenVertexArrays(1, &p.vao)

	// Attributes and uniforms the compiler optimized away are skipped.
	for _, a := range desc.Attributes {
		loc := gl.GetAttribLocation(program, gl.Str(a.Name+"\x00"))
		if loc < 0 {
			d.log.Debug("inactive vertex attribute", zap.String("pipeline", desc.Name), zap.String("name", a.Name))
			continue
		}
		p.attributes = append(p.attributes, attribute{
			loc:    uint32(loc),
			attr:   a,
			stride: int32(desc.Stride(a.Buffer)),
		})
	}

	offsets, size := gpu.UniformLayout(desc.Uniforms)
	p.blockSize = size
	for i, u := range desc.Uniforms {
		loc := gl.GetUniformLocation(program, gl.Str(u.Name+"\x00"))
		if loc < 0 {
			continue
		}
		p.uniforms = append(p.uniforms, uniform{loc: loc, typ: u.Type, offset: offsets[i]})
	}

	// Samplers take texture units in declaration order.
	gl.UseProgram(program)
	for i, name := range desc.Images {
		if loc := gl.GetUniformLocation(program, gl.Str(name+"\x00")); loc >= 0 {
			gl.Uniform1i(loc, int32(i))
		}
	}
	gl.UseProgram(0)

	d.log.Debug("pipeline created",
		zap.String("name", desc.Name),
		zap.Int("attributes", len(p.attributes)),
		zap.Int("uniforms", len(p.uniforms)))
	return p, nil
}

func (d *Device) DeletePipeline(pl gpu.Pipeline) {
	p := pl.(*pipeline)
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
		p.vao = 0
	}
	if p.program != 0 {
		gl.DeleteProgram(p.program)
		p.program = 0
	}
}

var depthFuncs = map[gpu.Comparison]uint32{
	gpu.CompareNever:       gl.NEVER,
	gpu.CompareLess:        gl.LESS,
	gpu.CompareLessOrEqual: gl.LEQUAL,
	gpu.CompareAlways:      gl.ALWAYS,
}

func (d *Device) ApplyPipeline(pl gpu.Pipeline) {
	d.requirePass("apply pipeline")
	p := pl.(*pipeline)
	d.current = p

	gl.UseProgram(p.program)
	gl.BindVertexArray(p.vao)

	if p.desc.DepthTest == gpu.CompareAlways && !p.desc.DepthWrite {
		gl.Disable(gl.DEPTH_TEST)
	} else {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(depthFuncs[p.desc.DepthTest])
		gl.DepthMask(p.desc.DepthWrite)
	}

	if p.desc.Blend {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	} else {
		gl.Disable(gl.BLEND)
	}
}

func (d *Device) ApplyBindings(b gpu.Bindings) {
	p := d.requirePipeline("apply bindings")

	for _, a := range p.attributes {
		if a.attr.Buffer >= len(b.VertexBuffers) {
			panic(fmt.Sprintf("glgpu: pipeline %q reads vertex buffer %d, %d bound", p.desc.Name, a.attr.Buffer, len(b.VertexBuffers)))
		}
		buf := b.VertexBuffers[a.attr.Buffer].(*buffer)
		gl.BindBuffer(gl.ARRAY_BUFFER, buf.id)
		gl.EnableVertexAttribArray(a.loc)
		gl.VertexAttribPointerWithOffset(a.loc, int32(a.attr.Format.Components()), gl.FLOAT, false, a.stride, uintptr(a.attr.Offset))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if b.IndexBuffer != nil {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.IndexBuffer.(*buffer).id)
	}

	for i, img := range b.Images {
		if i >= len(p.desc.Images) {
			break
		}
		tex, ok := img.(*texture)
		if !ok || tex == nil {
			tex = d.empty
		}
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, tex.id)
	}
}

func (d *Device) ApplyUniforms(data []byte) {
	p := d.requirePipeline("apply uniforms")
	if len(data) < p.blockSize {
		panic(fmt.Sprintf("glgpu: uniform block of %d bytes, pipeline %q needs %d", len(data), p.desc.Name, p.blockSize))
	}

	vals := gpu.Floats(data)
	for _, u := range p.uniforms {
		v := vals[u.offset/4:]
		switch u.typ {
		case gpu.UniformFloat1:
			gl.Uniform1fv(u.loc, 1, &v[0])
		case gpu.UniformFloat2:
			gl.Uniform2fv(u.loc, 1, &v[0])
		case gpu.UniformFloat3:
			gl.Uniform3fv(u.loc, 1, &v[0])
		case gpu.UniformFloat4:
			gl.Uniform4fv(u.loc, 1, &v[0])
		case gpu.UniformMat4:
			gl.UniformMatrix4fv(u.loc, 1, false, &v[0])
		}
	}
}
